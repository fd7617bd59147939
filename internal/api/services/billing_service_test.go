// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/execution"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
)

func newBillingService(t *testing.T) (*BillingService, *storage.BillingStore) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "geoflow.db"), nil)
	require.NoError(t, err)
	processes := storage.NewProcessStore(db)
	require.NoError(t, processes.Save(context.Background(), &model.Process{
		ID:    "echo",
		Title: "Echo",
	}, false))
	queue := execution.NewQueue(1, 4, func(context.Context, *model.Job) {}, testLogger())
	jobs := NewJobService(storage.NewJobStore(db), processes, queue, nil, testLogger())
	store := storage.NewBillingStore(db)
	return NewBillingService(store, processes, jobs, testLogger()), store
}

func TestQuoteFlatPricing(t *testing.T) {
	svc, _ := newBillingService(t)

	quote, err := svc.Quote(context.Background(), "echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", quote.ProcessID)
	assert.Equal(t, quotePrice, quote.Price)
	assert.Equal(t, quoteCurrency, quote.Currency)
	assert.Equal(t, quote.CreatedAt.Add(quoteLifetime), quote.Expire)
}

func TestQuoteUnknownProcess(t *testing.T) {
	svc, _ := newBillingService(t)

	_, err := svc.Quote(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrProcessNotFound)
}

func TestExecuteQuoteIssuesBill(t *testing.T) {
	svc, store := newBillingService(t)
	ctx := context.Background()

	quote, err := svc.Quote(ctx, "echo")
	require.NoError(t, err)

	job, bill, err := svc.Execute(ctx, quote.ID, &models.ExecuteRequest{})
	require.NoError(t, err)
	assert.Equal(t, "echo", job.ProcessID)
	assert.Equal(t, quote.ID, bill.QuoteID)
	assert.Equal(t, job.ID, bill.JobID)
	assert.Equal(t, quote.Price, bill.Price)

	// The bill is linked back to its quote.
	stored, err := store.FetchQuote(ctx, quote.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.BillIDs, bill.ID)
}

func TestExecuteExpiredQuote(t *testing.T) {
	svc, store := newBillingService(t)
	ctx := context.Background()

	expired := &model.Quote{
		ID:        "quote-1",
		ProcessID: "echo",
		Price:     quotePrice,
		Currency:  quoteCurrency,
		Expire:    time.Now().UTC().Add(-time.Hour),
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	require.NoError(t, store.SaveQuote(ctx, expired))

	_, _, err := svc.Execute(ctx, expired.ID, &models.ExecuteRequest{})
	assert.ErrorIs(t, err, ErrQuoteExpired)
}

func TestExecuteUnknownQuote(t *testing.T) {
	svc, _ := newBillingService(t)

	_, _, err := svc.Execute(context.Background(), "ghost", &models.ExecuteRequest{})
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}
