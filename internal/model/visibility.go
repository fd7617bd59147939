// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"strings"
)

// Visibility gates list, describe and execute for non-owner callers.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// ParseVisibility parses a visibility value case-insensitively.
func ParseVisibility(raw string) (Visibility, error) {
	v := Visibility(strings.ToLower(strings.TrimSpace(raw)))
	if !v.Valid() {
		return "", fmt.Errorf("invalid visibility %q: must be %q or %q", raw, VisibilityPublic, VisibilityPrivate)
	}
	return v, nil
}
