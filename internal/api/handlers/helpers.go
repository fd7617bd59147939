// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
)

// writeSuccessResponse writes a successful API response.
func writeSuccessResponse[T any](w http.ResponseWriter, statusCode int, data T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(models.SuccessResponse(data))
}

// writeErrorResponse writes an error API response.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse(message, code))
}

// writeListResponse writes a paginated list response.
func writeListResponse[T any](w http.ResponseWriter, items []T, total, page, pageSize int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(models.ListSuccessResponse(items, total, page, pageSize))
}

// decodeJSON decodes a request body, rejecting unknown top-level shapes.
func decodeJSON(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(into)
}

// writeServiceError maps a service-layer error onto its HTTP status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProcessNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Process not found", services.CodeProcessNotFound)
	case errors.Is(err, services.ErrProcessExists):
		writeErrorResponse(w, http.StatusConflict, "Process is already deployed", services.CodeProcessExists)
	case errors.Is(err, services.ErrProcessProtected):
		writeErrorResponse(w, http.StatusForbidden, "Builtin processes cannot be modified", services.CodeProcessProtected)
	case errors.Is(err, services.ErrProcessForbidden):
		writeErrorResponse(w, http.StatusForbidden, "Process is not accessible", services.CodeProcessForbidden)
	case errors.Is(err, services.ErrJobNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Job not found", services.CodeJobNotFound)
	case errors.Is(err, services.ErrJobTerminal):
		writeErrorResponse(w, http.StatusConflict, "Job already reached a terminal state", services.CodeJobTerminal)
	case errors.Is(err, services.ErrJobNotFinished):
		writeErrorResponse(w, http.StatusConflict, "Job has not finished yet", services.CodeJobNotFinished)
	case errors.Is(err, services.ErrQuoteNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Quote not found", services.CodeQuoteNotFound)
	case errors.Is(err, services.ErrQuoteExpired):
		writeErrorResponse(w, http.StatusGone, "Quote has expired", services.CodeQuoteExpired)
	case errors.Is(err, services.ErrBillNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Bill not found", services.CodeBillNotFound)
	case errors.Is(err, services.ErrProviderNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Provider not found", services.CodeProviderNotFound)
	case errors.Is(err, services.ErrProviderExists):
		writeErrorResponse(w, http.StatusConflict, "Provider is already registered", services.CodeProviderExists)
	case errors.Is(err, services.ErrWorkflowsNotSupported):
		writeErrorResponse(w, http.StatusUnprocessableEntity, "Workflow packages require EMS mode", services.CodeModeUnsupported)
	case errors.Is(err, services.ErrInvalidInput):
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), services.CodeInvalidInput)
	default:
		writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", services.CodeInternalError)
	}
}
