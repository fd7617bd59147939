// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import "strings"

// Status is the canonical job status vocabulary. Remote backends report in
// one of three dialects (OGC strings, PyWPS integer codes, OWSLib
// ProcessXxx identifiers); everything is normalized to these values before
// persistence.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusAccepted  Status = "accepted"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusDismissed Status = "dismissed"
)

// PyWPS integer status codes.
const (
	pywpsUnknown   = 0
	pywpsAccepted  = 1
	pywpsStarted   = 2
	pywpsPaused    = 3
	pywpsSucceeded = 4
	pywpsFailed    = 5
)

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusDismissed:
		return true
	}
	return false
}

// Valid reports whether s is one of the five persistable states.
func (s Status) Valid() bool {
	switch s {
	case StatusAccepted, StatusRunning, StatusSucceeded, StatusFailed, StatusDismissed:
		return true
	}
	return false
}

// ParseStatus normalizes a status string from any of the supported
// vocabularies. OWSLib identifiers carry a "Process" prefix; OGC strings may
// use the synonyms "started", "paused" and "exception". Unrecognized values
// map to StatusUnknown, which callers treat as still-running but must never
// persist as terminal.
func ParseStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "process")
	switch s {
	case "accepted":
		return StatusAccepted
	case "running", "started", "paused":
		return StatusRunning
	case "succeeded", "successful":
		return StatusSucceeded
	case "failed", "exception":
		return StatusFailed
	case "dismissed":
		return StatusDismissed
	}
	return StatusUnknown
}

// StatusFromPyWPS maps a PyWPS integer status code onto the canonical set.
func StatusFromPyWPS(code int) Status {
	switch code {
	case pywpsAccepted:
		return StatusAccepted
	case pywpsStarted, pywpsPaused:
		return StatusRunning
	case pywpsSucceeded:
		return StatusSucceeded
	case pywpsFailed:
		return StatusFailed
	}
	return StatusUnknown
}

// PyWPS returns the integer code a WPS-1 status document uses for s.
func (s Status) PyWPS() int {
	switch s {
	case StatusAccepted:
		return pywpsAccepted
	case StatusRunning:
		return pywpsStarted
	case StatusSucceeded:
		return pywpsSucceeded
	case StatusFailed, StatusDismissed:
		return pywpsFailed
	}
	return pywpsUnknown
}

// OWS returns the OWSLib-style identifier ("ProcessAccepted", ...) for s.
func (s Status) OWS() string {
	switch s {
	case StatusAccepted:
		return "ProcessAccepted"
	case StatusRunning:
		return "ProcessStarted"
	case StatusSucceeded:
		return "ProcessSucceeded"
	case StatusFailed, StatusDismissed:
		return "ProcessFailed"
	}
	return "ProcessUnknown"
}
