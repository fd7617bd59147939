// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/geoflow/geoflow/internal/model"
)

// JobFilter narrows a job listing. Zero values mean "no restriction".
type JobFilter struct {
	ProcessID string
	ServiceID string
	Status    model.Status
	Tags      []string
	Page      int
	Limit     int
}

// DefaultJobPageLimit caps a listing page when the caller does not.
const DefaultJobPageLimit = 100

// JobStore is the job tracking repository.
type JobStore struct {
	db *gorm.DB
}

func NewJobStore(db *gorm.DB) *JobStore {
	return &JobStore{db: db}
}

// Create persists a freshly accepted job.
func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create job %q: %w", job.ID, err)
	}
	return nil
}

// Fetch returns the job with the given id.
func (s *JobStore) Fetch(ctx context.Context, id string) (*model.Job, error) {
	var job model.Job
	result := s.db.WithContext(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch job %q: %w", id, result.Error)
	}
	return &job, nil
}

// Update replaces the stored record. The tracker serializes writers per job,
// so the whole-record save stays race free.
func (s *JobStore) Update(ctx context.Context, job *model.Job) error {
	result := s.db.WithContext(ctx).Save(job)
	if result.Error != nil {
		return fmt.Errorf("failed to update job %q: %w", job.ID, result.Error)
	}
	return nil
}

// Delete removes a job record.
func (s *JobStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Job{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete job %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	return nil
}

// List returns one page of jobs matching the filter, newest first, along
// with the total match count.
func (s *JobStore) List(ctx context.Context, filter JobFilter) ([]*model.Job, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Job{})
	if filter.ProcessID != "" {
		query = query.Where("process_id = ?", filter.ProcessID)
	}
	if filter.ServiceID != "" {
		query = query.Where("service_id = ?", filter.ServiceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	// Tags live in a serialized JSON column; match each requested tag as a
	// quoted JSON token.
	for _, tag := range filter.Tags {
		query = query.Where("tags LIKE ?", "%\""+tag+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultJobPageLimit
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}

	var jobs []*model.Job
	err := query.Order("created_at DESC").
		Offset(page * limit).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}
