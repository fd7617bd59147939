// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package slug validates and normalizes the constrained identifiers used for
// processes, providers, and I/O fields.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// MinLength is the shortest identifier accepted.
const MinLength = 3

var (
	validChars   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	invalidChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// ErrInvalid wraps all identifier grammar violations.
type ErrInvalid struct {
	ID     string
	Reason string
}

func (e *ErrInvalid) Error() string {
	return fmt.Sprintf("invalid identifier %q: %s", e.ID, e.Reason)
}

// Check validates id against the strict grammar: allowed characters
// [A-Za-z0-9_-], length >= MinLength, no doubled dash, and alphanumeric
// first and last characters.
func Check(id string) error {
	switch {
	case len(id) < MinLength:
		return &ErrInvalid{ID: id, Reason: fmt.Sprintf("shorter than %d characters", MinLength)}
	case !validChars.MatchString(id):
		return &ErrInvalid{ID: id, Reason: "contains characters outside [A-Za-z0-9_-]"}
	case strings.Contains(id, "--"):
		return &ErrInvalid{ID: id, Reason: "contains doubled dash"}
	case !isAlnum(id[0]) || !isAlnum(id[len(id)-1]):
		return &ErrInvalid{ID: id, Reason: "starts or ends with a non-alphanumeric character"}
	}
	return nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// Make normalizes id leniently: surrounding whitespace is trimmed, the rest
// is lowercased, characters outside the allowed set become underscores and
// edge dashes and underscores are dropped. The result is then validated with
// Check, so violations that replacement cannot repair (too short, doubled
// dash) still fail.
func Make(id string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(id))
	s = invalidChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, "-_")
	if err := Check(s); err != nil {
		return "", err
	}
	return s, nil
}
