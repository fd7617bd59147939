// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/execution"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
	"github.com/geoflow/geoflow/internal/storage"
)

func (h *Handler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	var req models.ExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("Invalid execute request body", "error", err)
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", services.CodeInvalidInput)
		return
	}
	req.Sanitize()

	processID := r.PathValue("processID")
	job, err := h.services.Jobs.Submit(ctx, processID, &req)
	if err != nil {
		if errors.Is(err, execution.ErrQueueFull) || errors.Is(err, execution.ErrQueueClosed) {
			log.Warn("Execution queue rejected job", "process", processID, "error", err)
			writeErrorResponse(w, http.StatusServiceUnavailable, "Execution queue is full", services.CodeQueueFull)
			return
		}
		log.Warn("Failed to submit job", "process", processID, "error", err)
		writeServiceError(w, err)
		return
	}

	log.Info("Submitted job", "job", job.ID, "process", processID)
	w.Header().Set("Location", "/api/v1/jobs/"+job.ID)
	writeSuccessResponse(w, http.StatusCreated, models.NewJobStatus(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	filter, err := jobFilterFrom(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error(), services.CodeInvalidInput)
		return
	}
	// The per-process listing pins the process filter to the path.
	if id := r.PathValue("processID"); id != "" {
		filter.ProcessID = id
	}

	jobs, total, err := h.services.Jobs.List(ctx, filter)
	if err != nil {
		log.Error("Failed to list jobs", "error", err)
		writeServiceError(w, err)
		return
	}

	items := make([]models.JobStatusResponse, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, models.NewJobStatus(j))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = storage.DefaultJobPageLimit
	}
	writeListResponse(w, items, int(total), filter.Page, limit)
}

// ListProcessJobs lists the jobs of one process. It shares the filter and
// pagination handling of ListJobs with the process pinned to the path.
func (h *Handler) ListProcessJobs(w http.ResponseWriter, r *http.Request) {
	h.ListJobs(w, r)
}

func jobFilterFrom(r *http.Request) (storage.JobFilter, error) {
	q := r.URL.Query()
	filter := storage.JobFilter{
		ProcessID: q.Get("process"),
		ServiceID: q.Get("provider"),
		Status:    model.Status(q.Get("status")),
	}
	if tags := q.Get("tags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	if page := q.Get("page"); page != "" {
		n, err := strconv.Atoi(page)
		if err != nil || n < 0 {
			return filter, errors.New("page must be a non-negative integer")
		}
		filter.Page = n
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return filter, errors.New("limit must be a positive integer")
		}
		filter.Limit = n
	}
	return filter, nil
}

func (h *Handler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, err := h.services.Jobs.Get(ctx, r.PathValue("jobID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.NewJobStatus(job))
}

func (h *Handler) DismissJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	id := r.PathValue("jobID")
	job, err := h.services.Jobs.Dismiss(ctx, id)
	if err != nil {
		log.Warn("Failed to dismiss job", "job", id, "error", err)
		writeServiceError(w, err)
		return
	}
	log.Info("Dismissed job", "job", id)
	writeSuccessResponse(w, http.StatusOK, models.NewJobStatus(job))
}

func (h *Handler) GetJobResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("jobID")
	results, err := h.services.Jobs.Results(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.JobResultsResponse{JobID: id, Outputs: results})
}

func (h *Handler) GetJobExceptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("jobID")
	exceptions, err := h.services.Jobs.Exceptions(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.JobExceptionsResponse{JobID: id, Exceptions: exceptions})
}

func (h *Handler) GetJobLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("jobID")
	logs, err := h.services.Jobs.Logs(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, models.JobLogsResponse{JobID: id, Logs: logs})
}
