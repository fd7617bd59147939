// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"time"

	"github.com/geoflow/geoflow/internal/model"
)

// APIResponse represents a standard API response wrapper.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ListResponse represents a paginated list response.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
}

func SuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{Success: true, Data: data}
}

func ListSuccessResponse[T any](items []T, total, page, pageSize int) APIResponse[ListResponse[T]] {
	return APIResponse[ListResponse[T]]{
		Success: true,
		Data: ListResponse[T]{
			Items:      items,
			TotalCount: total,
			Page:       page,
			PageSize:   pageSize,
		},
	}
}

func ErrorResponse(message, code string) APIResponse[any] {
	return APIResponse[any]{Success: false, Error: message, Code: code}
}

// ProcessSummaryResponse is a process entry in list responses.
type ProcessSummaryResponse struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Version  string   `json:"version,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// ProcessResponse is the full process description.
type ProcessResponse struct {
	ID                string           `json:"id"`
	Title             string           `json:"title,omitempty"`
	Version           string           `json:"version,omitempty"`
	Abstract          string           `json:"abstract,omitempty"`
	Keywords          []string         `json:"keywords,omitempty"`
	Metadata          []model.Metadata `json:"metadata,omitempty"`
	Inputs            []map[string]any `json:"inputs"`
	Outputs           []map[string]any `json:"outputs"`
	Visibility        string           `json:"visibility"`
	JobControlOptions []string         `json:"jobControlOptions,omitempty"`
}

// NewProcessSummary builds the listing view of a process.
func NewProcessSummary(p *model.Process) ProcessSummaryResponse {
	return ProcessSummaryResponse{
		ID:       p.ID,
		Title:    p.Title,
		Version:  p.Version,
		Abstract: p.Abstract,
		Keywords: p.Keywords,
	}
}

// NewProcessResponse builds the full description view of a process.
func NewProcessResponse(p *model.Process) ProcessResponse {
	return ProcessResponse{
		ID:                p.ID,
		Title:             p.Title,
		Version:           p.Version,
		Abstract:          p.Abstract,
		Keywords:          p.Keywords,
		Metadata:          p.Metadata,
		Inputs:            p.Inputs,
		Outputs:           p.Outputs,
		Visibility:        string(p.Visibility),
		JobControlOptions: p.JobControlOptions,
	}
}

// JobStatusResponse is the status view of a job.
type JobStatusResponse struct {
	JobID            string     `json:"jobID"`
	ProcessID        string     `json:"processID"`
	ProviderID       string     `json:"providerID,omitempty"`
	Status           string     `json:"status"`
	Message          string     `json:"message,omitempty"`
	PercentCompleted int        `json:"percentCompleted"`
	StatusLocation   string     `json:"statusLocation,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Created          time.Time  `json:"created"`
	Started          *time.Time `json:"started,omitempty"`
	Finished         *time.Time `json:"finished,omitempty"`
	Duration         string     `json:"duration,omitempty"`
}

// NewJobStatus builds the status view of a job.
func NewJobStatus(j *model.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:            j.ID,
		ProcessID:        j.ProcessID,
		ProviderID:       j.ServiceID,
		Status:           string(j.Status),
		Message:          j.Message,
		PercentCompleted: j.Progress,
		StatusLocation:   j.StatusLocation,
		Tags:             j.Tags,
		Created:          j.CreatedAt,
		Started:          j.StartedAt,
		Finished:         j.FinishedAt,
		Duration:         model.FormatDuration(j.Duration()),
	}
}

// JobResultsResponse lists the produced outputs of a finished job.
type JobResultsResponse struct {
	JobID   string            `json:"jobID"`
	Outputs []model.JobResult `json:"outputs"`
}

// JobExceptionsResponse lists the recorded failures of a job.
type JobExceptionsResponse struct {
	JobID      string               `json:"jobID"`
	Exceptions []model.JobException `json:"exceptions"`
}

// JobLogsResponse returns the drained log lines of a job.
type JobLogsResponse struct {
	JobID string   `json:"jobID"`
	Logs  []string `json:"logs"`
}

// ProviderResponse is a registered remote provider in API responses.
type ProviderResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewProviderResponse builds the API view of a registered provider.
func NewProviderResponse(s *model.Service) ProviderResponse {
	return ProviderResponse{
		ID:        s.Name,
		URL:       s.URL,
		Type:      string(s.Type),
		Public:    s.Public,
		CreatedAt: s.CreatedAt,
	}
}

// QuoteExecutionResponse reports the job and bill issued for a quoted run.
type QuoteExecutionResponse struct {
	Job    JobStatusResponse `json:"job"`
	BillID string            `json:"billID"`
}

// DeployResponse reports the outcome of a process deployment.
type DeployResponse struct {
	ID              string `json:"id"`
	DeploymentDone  bool   `json:"deploymentDone"`
	ProcessSummary  any    `json:"processSummary,omitempty"`
	DescriptionHref string `json:"processDescriptionURL,omitempty"`
}
