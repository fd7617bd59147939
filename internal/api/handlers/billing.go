// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
)

// CreateQuote prices one execution of a process.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	processID := r.PathValue("processID")
	quote, err := h.services.Billing.Quote(ctx, processID)
	if err != nil {
		log.Warn("Failed to issue quote", "process", processID, "error", err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/quotations/"+quote.ID)
	writeSuccessResponse(w, http.StatusCreated, quote)
}

// ListQuotes lists all issued quotes.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quotes, err := h.services.Billing.List(ctx)
	if err != nil {
		logger.GetLogger(ctx).Error("Failed to list quotes", "error", err)
		writeServiceError(w, err)
		return
	}
	writeListResponse(w, quotes, len(quotes), 0, len(quotes))
}

// GetQuote fetches one quote.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	quote, err := h.services.Billing.Get(ctx, r.PathValue("quoteID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, quote)
}

// ExecuteQuote submits a job for the quoted process and issues the bill.
func (h *Handler) ExecuteQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req models.ExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("Invalid execute request body", "error", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
		return
	}
	req.Sanitize()

	quoteID := r.PathValue("quoteID")
	job, bill, err := h.services.Billing.Execute(ctx, quoteID, &req)
	if err != nil {
		log.Warn("Failed to execute quote", "quote", quoteID, "error", err)
		writeServiceError(w, err)
		return
	}

	log.Info("Executed quote", "quote", quoteID, "job", job.ID, "bill", bill.ID)
	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeSuccessResponse(w, http.StatusCreated, models.QuoteExecutionResponse{
		Job:    models.NewJobStatus(job),
		BillID: bill.ID,
	})
}

// GetBill fetches one bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bill, err := h.services.Billing.GetBill(ctx, r.PathValue("billID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, bill)
}
