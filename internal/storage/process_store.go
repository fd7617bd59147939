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

// ProcessStore is the process registry repository.
type ProcessStore struct {
	db *gorm.DB
}

func NewProcessStore(db *gorm.DB) *ProcessStore {
	return &ProcessStore{db: db}
}

// Fetch returns the process with the given id.
func (s *ProcessStore) Fetch(ctx context.Context, id string) (*model.Process, error) {
	var proc model.Process
	result := s.db.WithContext(ctx).First(&proc, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("process %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch process %q: %w", id, result.Error)
	}
	return &proc, nil
}

// Save persists a process. Without overwrite, saving an existing id fails
// with ErrDuplicate.
func (s *ProcessStore) Save(ctx context.Context, proc *model.Process, overwrite bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Process{}).Where("id = ?", proc.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check process %q: %w", proc.ID, err)
		}
		if count > 0 {
			if !overwrite {
				return fmt.Errorf("process %q: %w", proc.ID, ErrDuplicate)
			}
			if err := tx.Delete(&model.Process{}, "id = ?", proc.ID).Error; err != nil {
				return fmt.Errorf("failed to replace process %q: %w", proc.ID, err)
			}
		}
		if err := tx.Create(proc).Error; err != nil {
			return fmt.Errorf("failed to save process %q: %w", proc.ID, err)
		}
		return nil
	})
}

// Delete removes a process from the registry.
func (s *ProcessStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&model.Process{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete process %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("process %q: %w", id, ErrNotFound)
	}
	return nil
}

// List returns processes ordered by id, optionally restricted to one
// visibility.
func (s *ProcessStore) List(ctx context.Context, visibility *model.Visibility) ([]*model.Process, error) {
	query := s.db.WithContext(ctx).Order("id")
	if visibility != nil {
		query = query.Where("visibility = ?", string(*visibility))
	}
	var procs []*model.Process
	if err := query.Find(&procs).Error; err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	return procs, nil
}

// GetVisibility returns the visibility of a process.
func (s *ProcessStore) GetVisibility(ctx context.Context, id string) (model.Visibility, error) {
	proc, err := s.Fetch(ctx, id)
	if err != nil {
		return "", err
	}
	return proc.Visibility, nil
}

// SetVisibility updates the visibility of a process.
func (s *ProcessStore) SetVisibility(ctx context.Context, id string, visibility model.Visibility) error {
	result := s.db.WithContext(ctx).Model(&model.Process{}).
		Where("id = ?", id).
		Update("visibility", string(visibility))
	if result.Error != nil {
		return fmt.Errorf("failed to update visibility of %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("process %q: %w", id, ErrNotFound)
	}
	return nil
}
