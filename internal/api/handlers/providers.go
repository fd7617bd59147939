// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
)

func (h *Handler) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req models.RegisterProviderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
		return
	}
	req.Sanitize()
	if err := req.Validate(); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), services.CodeInvalidInput)
		return
	}

	svc, imported, err := h.services.Providers.Register(ctx, &req)
	if err != nil {
		log.Warn("Failed to register provider", "provider", req.ID, "error", err)
		writeServiceError(w, err)
		return
	}

	log.Info("Registered provider", "provider", svc.Name, "imported", imported)
	w.Header().Set("Location", "/api/v1/providers/"+svc.Name)
	writeSuccessResponse(w, http.StatusCreated, models.NewProviderResponse(svc))
}

func (h *Handler) ListProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	providers, err := h.services.Providers.List(ctx)
	if err != nil {
		log.Error("Failed to list providers", "error", err)
		writeServiceError(w, err)
		return
	}
	items := make([]models.ProviderResponse, 0, len(providers))
	for _, p := range providers {
		items = append(items, models.NewProviderResponse(p))
	}
	writeListResponse(w, items, len(items), 1, len(items))
}

func (h *Handler) UnregisterProvider(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	id := r.PathValue("providerID")
	if err := h.services.Providers.Unregister(ctx, id); err != nil {
		log.Warn("Failed to unregister provider", "provider", id, "error", err)
		writeServiceError(w, err)
		return
	}
	log.Info("Unregistered provider", "provider", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListProviderProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	id := r.PathValue("providerID")
	processes, err := h.services.Providers.RemoteProcesses(ctx, id)
	if err != nil {
		log.Warn("Failed to list provider processes", "provider", id, "error", err)
		writeServiceError(w, err)
		return
	}
	writeListResponse(w, processes, len(processes), 1, len(processes))
}

func (h *Handler) DescribeProviderProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	id := r.PathValue("providerID")
	processID := r.PathValue("processID")
	desc, err := h.services.Providers.DescribeRemote(ctx, id, processID)
	if err != nil {
		log.Warn("Failed to describe provider process",
			"provider", id, "process", processID, "error", err)
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, desc)
}
