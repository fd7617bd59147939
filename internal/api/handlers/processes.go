// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
)

func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	procs, err := h.services.Processes.List(ctx, includePrivate(r))
	if err != nil {
		log.Error("Failed to list processes", "error", err)
		writeServiceError(w, err)
		return
	}

	items := make([]models.ProcessSummaryResponse, 0, len(procs))
	for _, p := range procs {
		items = append(items, models.NewProcessSummary(p))
	}
	writeListResponse(w, items, len(items), 1, len(items))
}

func (h *Handler) DeployProcess(w http.ResponseWriter, r *http.Request) {
	h.deploy(w, r, false)
}

// RedeployProcess replaces an existing deployment in place.
func (h *Handler) RedeployProcess(w http.ResponseWriter, r *http.Request) {
	h.deploy(w, r, true)
}

func (h *Handler) deploy(w http.ResponseWriter, r *http.Request, overwrite bool) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req models.DeployProcessRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("Invalid deploy request body", "error", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
		return
	}
	req.Overwrite = overwrite
	if id := r.PathValue("processID"); id != "" && req.ProcessID() == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Process description names no identifier", services.CodeInvalidInput)
		return
	}

	proc, err := h.services.Processes.Deploy(ctx, &req)
	if err != nil {
		log.Warn("Failed to deploy process", "process", req.ProcessID(), "error", err)
		writeDeployError(w, err)
		return
	}

	log.Info("Deployed process", "process", proc.ID)
	w.Header().Set("Location", "/api/v1/processes/"+proc.ID)
	writeSuccessResponse(w, http.StatusCreated, models.DeployResponse{
		ID:              proc.ID,
		DeploymentDone:  true,
		ProcessSummary:  proc.Summary(),
		DescriptionHref: h.cfg.Server.BaseURL + "/api/v1/processes/" + proc.ID,
	})
}

// writeDeployError adds the deploy-specific classifications on top of the
// generic service error mapping.
func writeDeployError(w http.ResponseWriter, err error) {
	var notFound *cwl.NotFoundError
	var regErr *cwl.RegistrationError
	var cwlType *cwl.TypeError
	var ioType *iomodel.TypeError
	switch {
	case errors.Is(err, models.ErrConflictingPackageRef):
		writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), services.CodeConflictingRequest)
	case errors.Is(err, models.ErrNoProcessDescription),
		errors.Is(err, models.ErrNoExecutionUnit),
		errors.Is(err, models.ErrEmptyExecutionUnit):
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), services.CodeInvalidInput)
	case errors.As(err, &notFound):
		writeErrorResponse(w, http.StatusNotFound, err.Error(), services.CodePackageNotFound)
	case errors.As(err, &cwlType), errors.As(err, &ioType):
		writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), services.CodePackageInvalid)
	case errors.As(err, &regErr):
		writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error(), services.CodePackageInvalid)
	default:
		writeServiceError(w, err)
	}
}

func (h *Handler) DescribeProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	proc, err := h.services.Processes.Describe(ctx, r.PathValue("processID"), includePrivate(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.NewProcessResponse(proc))
}

func (h *Handler) UndeployProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	id := r.PathValue("processID")
	if err := h.services.Processes.Undeploy(ctx, id); err != nil {
		log.Warn("Failed to undeploy process", "process", id, "error", err)
		writeServiceError(w, err)
		return
	}
	log.Info("Undeployed process", "process", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetProcessPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pkg, err := h.services.Processes.RawPackage(ctx, r.PathValue("processID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, pkg)
}

func (h *Handler) GetProcessVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v, err := h.services.Processes.Visibility(ctx, r.PathValue("processID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.VisibilityRequest{Value: string(v)})
}

func (h *Handler) SetProcessVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req models.VisibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
		return
	}
	v, err := model.ParseVisibility(req.Value)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), services.CodeInvalidInput)
		return
	}

	id := r.PathValue("processID")
	if err := h.services.Processes.SetVisibility(ctx, id, v); err != nil {
		log.Warn("Failed to set process visibility", "process", id, "error", err)
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.VisibilityRequest{Value: string(v)})
}

// includePrivate reports whether the caller may see private processes. The
// REST surface is an authenticated management API, so private records are
// visible unless the caller restricts the view.
func includePrivate(r *http.Request) bool {
	return r.URL.Query().Get("visibility") != "public"
}
