// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"strings"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"accepted", StatusAccepted},
		{"ProcessAccepted", StatusAccepted},
		{"ProcessStarted", StatusRunning},
		{"ProcessPaused", StatusRunning},
		{"started", StatusRunning},
		{"RUNNING", StatusRunning},
		{"ProcessSucceeded", StatusSucceeded},
		{"succeeded", StatusSucceeded},
		{"ProcessFailed", StatusFailed},
		{"exception", StatusFailed},
		{"dismissed", StatusDismissed},
		{"bogus", StatusUnknown},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.raw); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStatusFromPyWPS(t *testing.T) {
	tests := []struct {
		code int
		want Status
	}{
		{0, StatusUnknown},
		{1, StatusAccepted},
		{2, StatusRunning},
		{3, StatusRunning},
		{4, StatusSucceeded},
		{5, StatusFailed},
		{42, StatusUnknown},
	}
	for _, tt := range tests {
		if got := StatusFromPyWPS(tt.code); got != tt.want {
			t.Errorf("StatusFromPyWPS(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, s := range []Status{StatusSucceeded, StatusFailed, StatusDismissed} {
		if !s.IsTerminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []Status{StatusAccepted, StatusRunning, StatusUnknown} {
		if s.IsTerminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}

func TestJobLogMessage(t *testing.T) {
	created := time.Now().UTC().Add(-5 * time.Second)
	finished := created.Add(5 * time.Second)
	j := &Job{
		Status:     StatusRunning,
		Progress:   42,
		CreatedAt:  created,
		FinishedAt: &finished,
	}
	line := j.LogMessage("Dummy message")
	if !strings.HasPrefix(line, "0:00:05 ") {
		t.Errorf("line %q should start with duration 0:00:05", line)
	}
	if !strings.Contains(line, " 42% ") {
		t.Errorf("line %q should contain padded progress", line)
	}
	if !strings.HasSuffix(line, "Dummy message") {
		t.Errorf("line %q should end with the message", line)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{5 * time.Second, "0:00:05"},
		{90 * time.Second, "0:01:30"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
