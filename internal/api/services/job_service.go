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
	"github.com/geoflow/geoflow/internal/execution"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
)

// JobService submits jobs to the execution queue and serves their lifecycle.
type JobService struct {
	jobs      *storage.JobStore
	processes *storage.ProcessStore
	queue     *execution.Queue
	runner    execution.Task
	logger    *slog.Logger
}

func NewJobService(jobs *storage.JobStore, processes *storage.ProcessStore, queue *execution.Queue,
	runner execution.Task, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{jobs: jobs, processes: processes, queue: queue, runner: runner, logger: logger}
}

// Submit creates a job record for the process and enqueues it. The queue
// rejecting the job removes the record again so no orphan stays accepted.
func (s *JobService) Submit(ctx context.Context, processID string, req *models.ExecuteRequest) (*model.Job, error) {
	proc, err := s.processes.Fetch(ctx, processID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProcessNotFound
		}
		return nil, err
	}

	mode := model.ExecuteAsync
	if req.Mode == string(model.ExecuteSync) {
		mode = model.ExecuteSync
	}
	job := &model.Job{
		ID:                uuid.NewString(),
		ProcessID:         proc.ID,
		Status:            model.StatusAccepted,
		Message:           "job accepted",
		Inputs:            req.JobInputs(),
		Tags:              req.Tags,
		Access:            proc.Visibility,
		ExecuteMode:       mode,
		IsWorkflow:        proc.Type == model.ProcessTypeWorkflow,
		NotificationEmail: req.NotificationEmail,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if mode == model.ExecuteSync && s.runner != nil {
		s.runner(ctx, job)
		return job, nil
	}
	if err := s.queue.Submit(job); err != nil {
		if derr := s.jobs.Delete(ctx, job.ID); derr != nil {
			s.logger.Error("cannot remove rejected job", "job", job.ID, "error", derr)
		}
		return nil, err
	}
	s.logger.Info("submitted job", "job", job.ID, "process", proc.ID, "mode", mode)
	return job, nil
}

// Get fetches one job.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.jobs.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns jobs matching the filter plus the unpaginated total.
func (s *JobService) List(ctx context.Context, filter storage.JobFilter) ([]*model.Job, int64, error) {
	return s.jobs.List(ctx, filter)
}

// Dismiss cancels a job. A job already running has its context cancelled
// and the dispatcher records the terminal state; a job still waiting in the
// backlog is marked dismissed directly.
func (s *JobService) Dismiss(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Finished() {
		return nil, ErrJobTerminal
	}
	if s.queue.Dismiss(id) {
		// The dispatcher persists the terminal record once the cancellation
		// lands; the response already carries the dismissed state.
		job.Status = model.StatusDismissed
		job.Message = "Job dismissed"
		s.logger.Info("dismiss requested for running job", "job", id)
		return job, nil
	}
	now := time.Now().UTC()
	job.Status = model.StatusDismissed
	job.Message = "Job dismissed"
	job.FinishedAt = &now
	if err := s.jobs.Update(ctx, job); err != nil {
		return nil, err
	}
	s.logger.Info("dismissed queued job", "job", id)
	return job, nil
}

// Results returns the outputs of a succeeded job.
func (s *JobService) Results(ctx context.Context, id string) ([]model.JobResult, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Finished() {
		return nil, ErrJobNotFinished
	}
	return job.Results, nil
}

// Exceptions returns the recorded failures of a job.
func (s *JobService) Exceptions(ctx context.Context, id string) ([]model.JobException, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Exceptions, nil
}

// Logs returns the drained log lines of a job.
func (s *JobService) Logs(ctx context.Context, id string) ([]string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Logs, nil
}
