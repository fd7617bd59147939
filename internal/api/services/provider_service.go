// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
	"github.com/geoflow/geoflow/internal/wps"
	"github.com/geoflow/geoflow/internal/wpsclient"
)

// ClientFactory builds a WPS client bound to a provider endpoint.
type ClientFactory func(endpoint string) *wpsclient.Client

// ProviderService registers remote WPS providers and mirrors their
// processes as locally deployed remote processes.
type ProviderService struct {
	services  *storage.ServiceStore
	processes *storage.ProcessStore
	importer  *wpsclient.Importer
	newClient ClientFactory
	logger    *slog.Logger
}

func NewProviderService(services *storage.ServiceStore, processes *storage.ProcessStore,
	importer *wpsclient.Importer, newClient ClientFactory, logger *slog.Logger) *ProviderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderService{
		services:  services,
		processes: processes,
		importer:  importer,
		newClient: newClient,
		logger:    logger,
	}
}

// Register verifies the provider endpoint, stores the registration and
// imports every offered process. Individual describe failures are logged
// and skipped so one broken process does not block the registration.
func (s *ProviderService) Register(ctx context.Context, req *models.RegisterProviderRequest) (*model.Service, int, error) {
	if _, err := s.services.Fetch(ctx, req.ID); err == nil {
		return nil, 0, ErrProviderExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, 0, err
	}

	client := s.newClient(req.URL)
	caps, err := client.GetCapabilities(ctx)
	if err != nil {
		return nil, 0, err
	}

	svc := &model.Service{
		Name:      req.ID,
		URL:       req.URL,
		Type:      req.ServiceType(),
		Public:    req.Public,
		Auth:      req.Auth,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, 0, err
	}

	imported := s.importProcesses(ctx, client, svc, caps.Processes)
	s.logger.Info("registered provider", "provider", svc.Name, "url", svc.URL,
		"offered", len(caps.Processes), "imported", imported)
	return svc, imported, nil
}

func (s *ProviderService) importProcesses(ctx context.Context, client *wpsclient.Client,
	svc *model.Service, offered []wps.ProcessBrief) int {
	imported := 0
	for _, brief := range offered {
		desc, err := client.DescribeProcess(ctx, brief.Identifier)
		if err != nil {
			s.logger.Warn("cannot describe remote process",
				"provider", svc.Name, "process", brief.Identifier, "error", err)
			continue
		}
		proc, err := s.importer.Import(svc.URL, desc)
		if err != nil {
			s.logger.Warn("cannot import remote process",
				"provider", svc.Name, "process", brief.Identifier, "error", err)
			continue
		}
		proc.ExecuteEndpoint = svc.URL
		if !svc.Public {
			proc.Visibility = model.VisibilityPrivate
		}
		if err := s.processes.Save(ctx, proc, true); err != nil {
			s.logger.Warn("cannot save imported process",
				"provider", svc.Name, "process", proc.ID, "error", err)
			continue
		}
		imported++
	}
	return imported
}

// Get fetches one registered provider.
func (s *ProviderService) Get(ctx context.Context, name string) (*model.Service, error) {
	svc, err := s.services.Fetch(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return svc, nil
}

// List returns the registered providers.
func (s *ProviderService) List(ctx context.Context) ([]*model.Service, error) {
	return s.services.List(ctx)
}

// Unregister removes a provider and the processes imported from it.
func (s *ProviderService) Unregister(ctx context.Context, name string) error {
	svc, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := s.services.Delete(ctx, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProviderNotFound
		}
		return err
	}

	// Imported processes share the provider-host id prefix.
	prefix, err := wpsclient.BuildProcessID(svc.URL, "")
	if err != nil {
		return nil
	}
	procs, err := s.processes.List(ctx, nil)
	if err != nil {
		return nil
	}
	removed := 0
	for _, proc := range procs {
		if proc.Type != model.ProcessTypeRemoteWPS && proc.Type != model.ProcessTypeRemoteESGF {
			continue
		}
		if !strings.HasPrefix(proc.ID, prefix) {
			continue
		}
		if derr := s.processes.Delete(ctx, proc.ID); derr == nil {
			removed++
		}
	}
	s.logger.Info("unregistered provider", "provider", name, "removed_processes", removed)
	return nil
}

// RemoteProcesses lists the processes a provider currently offers.
func (s *ProviderService) RemoteProcesses(ctx context.Context, name string) ([]wps.ProcessBrief, error) {
	svc, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	caps, err := s.newClient(svc.URL).GetCapabilities(ctx)
	if err != nil {
		return nil, err
	}
	return caps.Processes, nil
}

// DescribeRemote fetches a live process description from a provider.
func (s *ProviderService) DescribeRemote(ctx context.Context, name, processID string) (*wps.ProcessDescription, error) {
	svc, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.newClient(svc.URL).DescribeProcess(ctx, processID)
}
