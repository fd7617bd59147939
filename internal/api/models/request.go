// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package models defines the REST request and response shapes of the
// GeoFlow API.
package models

import (
	"errors"
	"strings"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/model"
)

// ExecutionUnit is one entry of a deploy request's executionUnit list.
// Exactly one of Unit (an inline package tree) or Href (a package
// reference) is set.
type ExecutionUnit struct {
	Unit map[string]any `json:"unit,omitempty"`
	Href string         `json:"href,omitempty"`
}

// DeployProcessRequest is the body of POST /processes. The process
// description carries the OGC metadata and optional I/O overrides; the
// application package arrives either inline in the execution unit, by
// reference, or through the owsContext offering of the description.
type DeployProcessRequest struct {
	ProcessDescription    map[string]any  `json:"processDescription"`
	ExecutionUnit         []ExecutionUnit `json:"executionUnit,omitempty"`
	DeploymentProfileName string          `json:"deploymentProfileName,omitempty"`
	Overwrite             bool            `json:"-"`
}

var (
	ErrNoProcessDescription  = errors.New("deploy request carries no process description")
	ErrNoExecutionUnit       = errors.New("deploy request carries neither an execution unit nor an owsContext reference")
	ErrConflictingPackageRef = errors.New("deploy request carries both an execution unit and an owsContext reference")
	ErrEmptyExecutionUnit    = errors.New("execution unit carries neither an inline unit nor an href")
)

// Process returns the process subtree of the description, tolerating a
// description that is itself the process tree.
func (req *DeployProcessRequest) Process() map[string]any {
	if req.ProcessDescription == nil {
		return nil
	}
	if proc, ok := req.ProcessDescription["process"].(map[string]any); ok {
		return proc
	}
	return req.ProcessDescription
}

// ProcessID returns the identifier named in the process description.
func (req *DeployProcessRequest) ProcessID() string {
	proc := req.Process()
	if proc == nil {
		return ""
	}
	for _, key := range []string{"id", "identifier"} {
		if id, ok := proc[key].(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// PackageReference resolves the single package source of the request: the
// first execution unit (inline tree or href) or the owsContext offering
// content href. Supplying both is a conflict.
func (req *DeployProcessRequest) PackageReference() (any, error) {
	proc := req.Process()
	if proc == nil {
		return nil, ErrNoProcessDescription
	}
	owsHref := cwl.OWSContextHref(proc)

	if len(req.ExecutionUnit) > 0 {
		if owsHref != "" {
			return nil, ErrConflictingPackageRef
		}
		unit := req.ExecutionUnit[0]
		switch {
		case unit.Unit != nil:
			return unit.Unit, nil
		case unit.Href != "":
			return unit.Href, nil
		}
		return nil, ErrEmptyExecutionUnit
	}
	if owsHref != "" {
		return owsHref, nil
	}
	return nil, ErrNoExecutionUnit
}

// Validate checks the structural rules of the deploy request.
func (req *DeployProcessRequest) Validate() error {
	if req.ProcessID() == "" {
		return ErrNoProcessDescription
	}
	_, err := req.PackageReference()
	return err
}

// ExecuteInput is one submitted input of an execute request.
type ExecuteInput struct {
	ID     string         `json:"id"`
	Data   any            `json:"data,omitempty"`
	Href   string         `json:"href,omitempty"`
	Format map[string]any `json:"format,omitempty"`
}

// ExecuteOutput names one requested output.
type ExecuteOutput struct {
	ID               string `json:"id"`
	TransmissionMode string `json:"transmissionMode,omitempty"`
}

// ExecuteRequest is the body of POST /processes/{id}/jobs.
type ExecuteRequest struct {
	Mode              string          `json:"mode,omitempty"`
	Response          string          `json:"response,omitempty"`
	Inputs            []ExecuteInput  `json:"inputs,omitempty"`
	Outputs           []ExecuteOutput `json:"outputs,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	NotificationEmail string          `json:"notificationEmail,omitempty"`
}

// Sanitize trims identifiers and tags in place.
func (req *ExecuteRequest) Sanitize() {
	req.Mode = strings.ToLower(strings.TrimSpace(req.Mode))
	for i := range req.Inputs {
		req.Inputs[i].ID = strings.TrimSpace(req.Inputs[i].ID)
	}
	tags := req.Tags[:0]
	for _, tag := range req.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	req.Tags = tags
}

// JobInputs converts the submitted inputs to their persisted form.
func (req *ExecuteRequest) JobInputs() []model.JobInput {
	inputs := make([]model.JobInput, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		inputs = append(inputs, model.JobInput{
			ID:     in.ID,
			Data:   in.Data,
			Href:   in.Href,
			Format: in.Format,
		})
	}
	return inputs
}

// VisibilityRequest is the body of PUT /processes/{id}/visibility.
type VisibilityRequest struct {
	Value string `json:"value"`
}

// RegisterProviderRequest is the body of POST /providers.
type RegisterProviderRequest struct {
	ID     string         `json:"id"`
	URL    string         `json:"url"`
	Type   string         `json:"type,omitempty"`
	Public bool           `json:"public,omitempty"`
	Auth   map[string]any `json:"auth,omitempty"`
}

// Sanitize trims the provider id and URL in place.
func (req *RegisterProviderRequest) Sanitize() {
	req.ID = strings.TrimSpace(req.ID)
	req.URL = strings.TrimSpace(req.URL)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
}

// Validate checks the provider registration fields.
func (req *RegisterProviderRequest) Validate() error {
	if req.ID == "" {
		return errors.New("provider id is required")
	}
	if req.URL == "" {
		return errors.New("provider url is required")
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return errors.New("provider url must be an http(s) endpoint")
	}
	switch req.Type {
	case "", string(model.ServiceTypeWPS), string(model.ServiceTypeESGF):
		return nil
	}
	return errors.New("unsupported provider type " + req.Type)
}

// ServiceType returns the effective provider protocol.
func (req *RegisterProviderRequest) ServiceType() model.ServiceType {
	if req.Type == "" {
		return model.ServiceTypeWPS
	}
	return model.ServiceType(req.Type)
}
