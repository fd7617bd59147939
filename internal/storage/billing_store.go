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

// BillingStore holds quotes and the bills issued against them.
type BillingStore struct {
	db *gorm.DB
}

func NewBillingStore(db *gorm.DB) *BillingStore {
	return &BillingStore{db: db}
}

// SaveQuote persists a new quote.
func (s *BillingStore) SaveQuote(ctx context.Context, q *model.Quote) error {
	if err := s.db.WithContext(ctx).Create(q).Error; err != nil {
		return fmt.Errorf("failed to save quote %q: %w", q.ID, err)
	}
	return nil
}

// FetchQuote returns the quote with the given id.
func (s *BillingStore) FetchQuote(ctx context.Context, id string) (*model.Quote, error) {
	var q model.Quote
	result := s.db.WithContext(ctx).First(&q, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quote %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch quote %q: %w", id, result.Error)
	}
	return &q, nil
}

// ListQuotes returns all quotes, newest first.
func (s *BillingStore) ListQuotes(ctx context.Context) ([]*model.Quote, error) {
	var quotes []*model.Quote
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

// SaveBill issues a bill and links it back to its quote.
func (s *BillingStore) SaveBill(ctx context.Context, b *model.Bill) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		var q model.Quote
		if err := tx.First(&q, "id = ?", b.QuoteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("quote %q: %w", b.QuoteID, ErrNotFound)
			}
			return err
		}
		q.BillIDs = append(q.BillIDs, b.ID)
		return tx.Save(&q).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save bill %q: %w", b.ID, err)
	}
	return nil
}

// FetchBill returns the bill with the given id.
func (s *BillingStore) FetchBill(ctx context.Context, id string) (*model.Bill, error) {
	var b model.Bill
	result := s.db.WithContext(ctx).First(&b, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bill %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch bill %q: %w", id, result.Error)
	}
	return &b, nil
}
