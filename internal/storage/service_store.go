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

// ServiceStore is the remote provider registry repository.
type ServiceStore struct {
	db *gorm.DB
}

func NewServiceStore(db *gorm.DB) *ServiceStore {
	return &ServiceStore{db: db}
}

// Fetch returns the provider registered under name.
func (s *ServiceStore) Fetch(ctx context.Context, name string) (*model.Service, error) {
	var svc model.Service
	result := s.db.WithContext(ctx).First(&svc, "name = ?", name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("provider %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch provider %q: %w", name, result.Error)
	}
	return &svc, nil
}

// Save registers or replaces a provider.
func (s *ServiceStore) Save(ctx context.Context, svc *model.Service) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Service{}, "name = ?", svc.Name).Error; err != nil {
			return err
		}
		return tx.Create(svc).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save provider %q: %w", svc.Name, err)
	}
	return nil
}

// Delete unregisters a provider.
func (s *ServiceStore) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Delete(&model.Service{}, "name = ?", name)
	if result.Error != nil {
		return fmt.Errorf("failed to delete provider %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("provider %q: %w", name, ErrNotFound)
	}
	return nil
}

// List returns all registered providers ordered by name.
func (s *ServiceStore) List(ctx context.Context) ([]*model.Service, error) {
	var svcs []*model.Service
	if err := s.db.WithContext(ctx).Order("name").Find(&svcs).Error; err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return svcs, nil
}
