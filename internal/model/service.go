// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// ServiceType is the protocol a registered provider speaks.
type ServiceType string

const (
	ServiceTypeWPS     ServiceType = "wps"
	ServiceTypeWPSRest ServiceType = "wps-rest"
	ServiceTypeESGF    ServiceType = "esgf-cwt"
)

// Service is a registered remote provider.
type Service struct {
	Name      string         `gorm:"primaryKey" json:"id"`
	URL       string         `json:"url"`
	Type      ServiceType    `json:"type"`
	Public    bool           `json:"public"`
	Auth      map[string]any `gorm:"serializer:json" json:"-"`
	CreatedAt time.Time      `json:"-"`
}
