// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
)

// Flat pricing until metered billing lands.
const (
	quotePrice    = 1.0
	quoteCurrency = "EUR"
	quoteLifetime = 24 * time.Hour
)

// BillingService issues quotes for process executions and bills the jobs
// submitted against them.
type BillingService struct {
	store     *storage.BillingStore
	processes *storage.ProcessStore
	jobs      *JobService
	logger    *slog.Logger
}

func NewBillingService(store *storage.BillingStore, processes *storage.ProcessStore, jobs *JobService,
	logger *slog.Logger) *BillingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingService{store: store, processes: processes, jobs: jobs, logger: logger}
}

// Quote prices one execution of the process.
func (s *BillingService) Quote(ctx context.Context, processID string) (*model.Quote, error) {
	proc, err := s.processes.Fetch(ctx, processID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProcessNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	quote := &model.Quote{
		ID:        uuid.NewString(),
		ProcessID: proc.ID,
		Price:     quotePrice,
		Currency:  quoteCurrency,
		Expire:    now.Add(quoteLifetime),
		CreatedAt: now,
	}
	if err := s.store.SaveQuote(ctx, quote); err != nil {
		return nil, err
	}
	s.logger.Info("issued quote", "quote", quote.ID, "process", proc.ID)
	return quote, nil
}

// Get fetches one quote.
func (s *BillingService) Get(ctx context.Context, id string) (*model.Quote, error) {
	quote, err := s.store.FetchQuote(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return quote, nil
}

// List returns all issued quotes, newest first.
func (s *BillingService) List(ctx context.Context) ([]*model.Quote, error) {
	return s.store.ListQuotes(ctx)
}

// GetBill fetches one bill.
func (s *BillingService) GetBill(ctx context.Context, id string) (*model.Bill, error) {
	bill, err := s.store.FetchBill(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return bill, nil
}

// Execute submits a job for the quoted process and issues the bill against
// the quote.
func (s *BillingService) Execute(ctx context.Context, quoteID string, req *models.ExecuteRequest) (*model.Job, *model.Bill, error) {
	quote, err := s.Get(ctx, quoteID)
	if err != nil {
		return nil, nil, err
	}
	if time.Now().UTC().After(quote.Expire) {
		return nil, nil, ErrQuoteExpired
	}

	job, err := s.jobs.Submit(ctx, quote.ProcessID, req)
	if err != nil {
		return nil, nil, err
	}

	bill := &model.Bill{
		ID:        uuid.NewString(),
		QuoteID:   quote.ID,
		JobID:     job.ID,
		Price:     quote.Price,
		Currency:  quote.Currency,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveBill(ctx, bill); err != nil {
		return nil, nil, err
	}
	s.logger.Info("issued bill", "bill", bill.ID, "quote", quote.ID, "job", job.ID)
	return job, bill, nil
}
