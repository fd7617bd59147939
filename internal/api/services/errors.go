// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package services implements the business logic behind the GeoFlow API:
// process deployment, job submission and lifecycle, and remote provider
// registration.
package services

import "errors"

var (
	ErrProcessNotFound  = errors.New("process not found")
	ErrProcessExists    = errors.New("process is already deployed")
	ErrProcessProtected = errors.New("builtin processes cannot be modified")
	ErrProcessForbidden = errors.New("process is not accessible")

	ErrJobNotFound    = errors.New("job not found")
	ErrJobTerminal    = errors.New("job already reached a terminal state")
	ErrJobNotFinished = errors.New("job has not finished yet")

	ErrProviderNotFound = errors.New("provider not found")
	ErrProviderExists   = errors.New("provider is already registered")

	ErrQuoteNotFound = errors.New("quote not found")
	ErrQuoteExpired  = errors.New("quote has expired")
	ErrBillNotFound  = errors.New("bill not found")

	ErrWorkflowsNotSupported = errors.New("workflow packages require EMS mode")
	ErrInvalidInput          = errors.New("invalid input")
)

// Error codes returned in API responses.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeProcessNotFound    = "PROCESS_NOT_FOUND"
	CodeProcessExists      = "PROCESS_EXISTS"
	CodeProcessProtected   = "PROCESS_PROTECTED"
	CodeProcessForbidden   = "PROCESS_FORBIDDEN"
	CodeJobNotFound        = "JOB_NOT_FOUND"
	CodeJobTerminal        = "JOB_TERMINAL"
	CodeJobNotFinished     = "JOB_NOT_FINISHED"
	CodeProviderNotFound   = "PROVIDER_NOT_FOUND"
	CodeProviderExists     = "PROVIDER_EXISTS"
	CodeQuoteNotFound      = "QUOTE_NOT_FOUND"
	CodeQuoteExpired       = "QUOTE_EXPIRED"
	CodeBillNotFound       = "BILL_NOT_FOUND"
	CodeModeUnsupported    = "MODE_UNSUPPORTED"
	CodeConflictingRequest = "CONFLICTING_REQUEST"
	CodeQueueFull          = "QUEUE_FULL"
	CodePackageInvalid     = "PACKAGE_INVALID"
	CodePackageNotFound    = "PACKAGE_NOT_FOUND"
)
