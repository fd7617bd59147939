// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// Quote is a price estimate for running a process. Pricing itself lives in
// an external collaborator; the engine only stores and links quotes.
type Quote struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	ProcessID string    `gorm:"index" json:"process"`
	UserID    string    `json:"user,omitempty"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	Expire    time.Time `json:"expire"`
	CreatedAt time.Time `json:"created"`
	BillIDs   []string  `gorm:"serializer:json" json:"bills,omitempty"`
}

// Bill records a charge issued against a quote once a job completed.
type Bill struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	QuoteID   string    `gorm:"index" json:"quote"`
	JobID     string    `gorm:"index" json:"job"`
	UserID    string    `json:"user,omitempty"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency,omitempty"`
	CreatedAt time.Time `json:"created"`
}
