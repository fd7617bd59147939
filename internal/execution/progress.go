// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package execution runs jobs: the dispatcher picks a backend from the
// application package, the tracker persists state transitions and the status
// file, and the queue bounds concurrent executions.
package execution

// Progress slice boundaries of a job lifecycle. Backend-local progress is
// mapped into the execute slice; workflows partition it further per step.
const (
	ProgressPrepared  = 5
	ProgressLoaded    = 6
	ProgressConverted = 10
	ProgressExecuted  = 95
	ProgressCollected = 99
	ProgressDone      = 100
)

// MapProgress maps a backend-local percentage (0-100) into [lo, hi].
func MapProgress(percent, lo, hi int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return lo + percent*(hi-lo)/100
}

// StepProgress maps step-local progress into the execute slice for step
// index of count: 10 + (index + percent/100) * 85 / count.
func StepProgress(index, count, percent int) int {
	if count <= 0 {
		return ProgressConverted
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	span := ProgressExecuted - ProgressConverted
	p := ProgressConverted + (index*100+percent)*span/(count*100)
	if p > ProgressExecuted {
		p = ProgressExecuted
	}
	return p
}
