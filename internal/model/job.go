// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"time"
)

// ExecuteMode selects synchronous or asynchronous job execution.
type ExecuteMode string

const (
	ExecuteSync  ExecuteMode = "sync"
	ExecuteAsync ExecuteMode = "async"
)

// JobInput is one submitted execute input. Exactly one of Data or Href is
// set; Format qualifies complex references.
type JobInput struct {
	ID     string         `json:"id"`
	Data   any            `json:"data,omitempty"`
	Href   string         `json:"href,omitempty"`
	Format map[string]any `json:"format,omitempty"`
}

// JobResult is one produced output, mirroring the process output list.
type JobResult struct {
	ID       string         `json:"id"`
	Data     any            `json:"data,omitempty"`
	Href     string         `json:"href,omitempty"`
	MimeType string         `json:"mimeType,omitempty"`
	Extra    map[string]any `json:"-"`
}

// JobException is one recorded failure {code, locator, text}.
type JobException struct {
	Code    string `json:"Code"`
	Locator string `json:"Locator,omitempty"`
	Text    string `json:"Text"`
}

// Job is one execution of a process. Once Status is terminal the record is
// immutable except for log trailers drained from the status file.
type Job struct {
	ID                string         `gorm:"primaryKey" json:"jobID"`
	TaskID            string         `json:"-"`
	UserID            string         `json:"-"`
	ProcessID         string         `gorm:"index" json:"processID"`
	ServiceID         string         `gorm:"index" json:"providerID,omitempty"`
	Status            Status         `gorm:"index" json:"status"`
	Progress          int            `json:"percentCompleted"`
	Message           string         `json:"message,omitempty"`
	Inputs            []JobInput     `gorm:"serializer:json" json:"-"`
	Results           []JobResult    `gorm:"serializer:json" json:"-"`
	Exceptions        []JobException `gorm:"serializer:json" json:"-"`
	Logs              []string       `gorm:"serializer:json" json:"-"`
	Tags              []string       `gorm:"serializer:json" json:"tags,omitempty"`
	Access            Visibility     `json:"-"`
	ExecuteMode       ExecuteMode    `json:"-"`
	IsWorkflow        bool           `json:"-"`
	StatusLocation    string         `json:"-"`
	NotificationEmail string         `json:"-"`
	CreatedAt         time.Time      `json:"created"`
	StartedAt         *time.Time     `json:"started,omitempty"`
	FinishedAt        *time.Time     `json:"finished,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j *Job) Finished() bool {
	return j.Status.IsTerminal()
}

// Duration returns the elapsed execution time, using the current clock while
// the job is still running.
func (j *Job) Duration() time.Duration {
	start := j.CreatedAt
	if j.StartedAt != nil {
		start = *j.StartedAt
	}
	end := time.Now().UTC()
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// FormatDuration renders d as H:MM:SS, the spelling used in job log lines.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// LogMessage renders one status-file log line:
// "{duration} {progress:3d}% {status:10} {message}".
func (j *Job) LogMessage(message string) string {
	return fmt.Sprintf("%s %3d%% %-10s %s",
		FormatDuration(j.Duration()), j.Progress, string(j.Status), message)
}
