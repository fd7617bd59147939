// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"log/slog"

	"github.com/geoflow/geoflow/internal/config"
	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/execution"
	"github.com/geoflow/geoflow/internal/storage"
	"github.com/geoflow/geoflow/internal/wpsclient"
)

// Services bundles the API services handed to the handlers.
type Services struct {
	Processes *ProcessService
	Jobs      *JobService
	Billing   *BillingService
	Providers *ProviderService
}

// Options carries the collaborators of the service layer.
type Options struct {
	ProcessStore *storage.ProcessStore
	JobStore     *storage.JobStore
	ServiceStore *storage.ServiceStore
	BillingStore *storage.BillingStore
	Loader       *cwl.Loader
	Queue        *execution.Queue
	Runner       execution.Task
	Importer     *wpsclient.Importer
	NewClient    ClientFactory
	Config       *config.Config
	Logger       *slog.Logger
}

func New(opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jobs := NewJobService(opts.JobStore, opts.ProcessStore, opts.Queue, opts.Runner, logger)
	return &Services{
		Processes: NewProcessService(opts.ProcessStore, opts.Loader, opts.Config.Engine.Mode, logger),
		Jobs:      jobs,
		Billing:   NewBillingService(opts.BillingStore, opts.ProcessStore, jobs, logger),
		Providers: NewProviderService(opts.ServiceStore, opts.ProcessStore, opts.Importer, opts.NewClient, logger),
	}
}
