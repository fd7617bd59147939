// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package model holds the persisted domain records: processes, jobs,
// provider services, quotes and bills, plus the status and visibility
// vocabularies shared across the engine.
package model

import (
	"time"
)

// ProcessType distinguishes how a deployed process executes.
type ProcessType string

const (
	ProcessTypeApplication ProcessType = "application"
	ProcessTypeWorkflow    ProcessType = "workflow"
	ProcessTypeBuiltin     ProcessType = "builtin"
	ProcessTypeRemoteWPS   ProcessType = "remote-wps"
	ProcessTypeRemoteESGF  ProcessType = "remote-esgf"
)

// Metadata is a titled link attached to a process or I/O description.
type Metadata struct {
	Title string `json:"title,omitempty"`
	Href  string `json:"href,omitempty"`
	Role  string `json:"role,omitempty"`
	Value string `json:"value,omitempty"`
}

// Process is a deployed process definition. Inputs and Outputs carry the
// canonical JSON I/O descriptions produced at deploy time; Package and
// Payload keep the verbatim application package and deploy request so the
// raw-package endpoint and re-deploys stay lossless.
type Process struct {
	ID                    string           `gorm:"primaryKey" json:"id"`
	Version               string           `json:"version,omitempty"`
	Title                 string           `json:"title,omitempty"`
	Abstract              string           `json:"abstract,omitempty"`
	Keywords              []string         `gorm:"serializer:json" json:"keywords,omitempty"`
	Metadata              []Metadata       `gorm:"serializer:json" json:"metadata,omitempty"`
	Inputs                []map[string]any `gorm:"serializer:json" json:"inputs"`
	Outputs               []map[string]any `gorm:"serializer:json" json:"outputs"`
	Visibility            Visibility       `json:"visibility"`
	Type                  ProcessType      `json:"type"`
	Package               map[string]any   `gorm:"serializer:json" json:"-"`
	Payload               map[string]any   `gorm:"serializer:json" json:"-"`
	ExecuteEndpoint       string           `json:"executeEndpoint,omitempty"`
	ProcessDescriptionURL string           `json:"processDescriptionURL,omitempty"`
	JobControlOptions     []string         `gorm:"serializer:json" json:"jobControlOptions,omitempty"`
	CreatedAt             time.Time        `json:"-"`
	UpdatedAt             time.Time        `json:"-"`
}

// Builtin processes ship with the engine and are protected from undeploy and
// visibility changes.
func (p *Process) Builtin() bool {
	return p.Type == ProcessTypeBuiltin
}

// Summary returns the listing view of the process.
func (p *Process) Summary() map[string]any {
	s := map[string]any{
		"id":      p.ID,
		"title":   p.Title,
		"version": p.Version,
	}
	if p.Abstract != "" {
		s["abstract"] = p.Abstract
	}
	if len(p.Keywords) > 0 {
		s["keywords"] = p.Keywords
	}
	return s
}
