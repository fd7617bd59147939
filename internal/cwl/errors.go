// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package cwl

import "fmt"

// NotFoundError reports a missing package reference (file, URL, or workflow
// step process).
type NotFoundError struct {
	Ref string
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package not found: %s", e.Ref)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RegistrationError reports a package that was found but cannot be
// registered (unreadable document, bad section shape, disallowed extension).
type RegistrationError struct {
	Ref    string
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("cannot register package %s: %s", e.Ref, e.Reason)
	}
	return fmt.Sprintf("cannot register package: %s", e.Reason)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// TypeError reports a structurally valid package with inconsistent typing
// (bad class, conflicting application hints).
type TypeError struct {
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("invalid package type: %s", e.Reason)
}
