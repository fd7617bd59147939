// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"fmt"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

// Location is the marshalled form of a complex input or output reference
// handed to backends.
type Location struct {
	Location string `json:"location"`
	Class    string `json:"class"`
	Format   string `json:"format,omitempty"`
}

// ResolvedInput is one process input after validation: occurrence checked,
// aliases resolved, complex values rendered as Locations, EO-image queries
// expanded to file references.
type ResolvedInput struct {
	Desc   *iomodel.Description
	Values []any
}

// Run is the execution context handed to a backend.
type Run struct {
	Job     *model.Job
	Process *model.Process
	Package *cwl.Package
	App     *cwl.Application
	Inputs  []ResolvedInput
	Outputs []*iomodel.Description

	// Command overrides the package baseCommand head, used for builtin
	// script resolution.
	Command []string

	WorkDir string

	// Report forwards backend-local progress (0-100) and a message.
	Report func(percent int, message string)
}

func (r *Run) report(percent int, message string) {
	if r.Report != nil {
		r.Report(percent, message)
	}
}

// Input returns the resolved input with the given id, or nil.
func (r *Run) Input(id string) *ResolvedInput {
	for i := range r.Inputs {
		if r.Inputs[i].Desc.ID == id {
			return &r.Inputs[i]
		}
	}
	return nil
}

// Backend executes one package run and returns its raw results. Returned
// file references use file:// URLs; the dispatcher maps them to public
// output URLs.
type Backend interface {
	Execute(ctx context.Context, run *Run) ([]model.JobResult, error)
}

// ExecutionError is a failure during job execution, carrying the OWS
// exception fields recorded on the job.
type ExecutionError struct {
	Code    string
	Locator string
	Reason  string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Exception renders the error as a job exception record.
func (e *ExecutionError) Exception() model.JobException {
	code := e.Code
	if code == "" {
		code = "NoApplicableCode"
	}
	return model.JobException{Code: code, Locator: e.Locator, Text: e.Error()}
}
