// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package iomodel defines the canonical description of a process input or
// output and the converters between the package dialect (CWL-style), the
// JSON process description, and the remote WPS-1 XML descriptor. All field
// aliasing is resolved at parse time; downstream code only ever sees
// canonical keys.
package iomodel

import (
	"fmt"

	"github.com/geoflow/geoflow/internal/model"
)

// Kind tags the three I/O variants.
type Kind string

const (
	KindLiteral     Kind = "literal"
	KindBoundingBox Kind = "bbox"
	KindComplex     Kind = "complex"
)

// Unbounded is the MaxOccurs sentinel for unlimited cardinality.
const Unbounded = -1

// Literal data types of the canonical model.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
)

// DefaultMimeType is assumed for complex data that declares no format.
const DefaultMimeType = "text/plain"

// Format is a complex-data format tuple. At most one format of a
// description carries Default=true.
type Format struct {
	MimeType  string `json:"mime_type"`
	Encoding  string `json:"encoding,omitempty"`
	Schema    string `json:"schema,omitempty"`
	Default   bool   `json:"default"`
	MaximumMB int    `json:"maximumMegabytes,omitempty"`
}

// AllowedValues restricts a literal domain. AnyValue dominates; otherwise
// explicit Values and/or numeric Ranges apply. Reference points at an
// externally defined domain.
type AllowedValues struct {
	Values    []any        `json:"values,omitempty"`
	Ranges    [][2]float64 `json:"ranges,omitempty"`
	AnyValue  bool         `json:"anyValue,omitempty"`
	Reference string       `json:"reference,omitempty"`
}

// Description is the canonical form of one process input or output.
type Description struct {
	ID       string
	Title    string
	Abstract string
	Keywords []string
	Metadata []model.Metadata

	MinOccurs int
	MaxOccurs int

	Kind Kind

	// Literal fields.
	DataType string
	Allowed  *AllowedValues
	Default  any

	// Complex fields.
	Formats []Format

	// BoundingBox fields.
	SupportedCRS []string

	AdditionalParameters []map[string]any
}

// TypeError reports an I/O type inconsistency (mixed enum symbols,
// unsupported array items, unknown kind, conflicting value sources).
type TypeError struct {
	Field  string
	Reason string
}

func (e *TypeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid I/O type: %s", e.Reason)
	}
	return fmt.Sprintf("invalid I/O type for %q: %s", e.Field, e.Reason)
}

// Clone returns a deep copy of d.
func (d *Description) Clone() *Description {
	c := *d
	c.Keywords = append([]string(nil), d.Keywords...)
	c.Metadata = append([]model.Metadata(nil), d.Metadata...)
	c.Formats = append([]Format(nil), d.Formats...)
	c.SupportedCRS = append([]string(nil), d.SupportedCRS...)
	if d.Allowed != nil {
		a := *d.Allowed
		a.Values = append([]any(nil), d.Allowed.Values...)
		a.Ranges = append([][2]float64(nil), d.Allowed.Ranges...)
		c.Allowed = &a
	}
	if d.AdditionalParameters != nil {
		c.AdditionalParameters = append([]map[string]any(nil), d.AdditionalParameters...)
	}
	return &c
}

// ElectDefaultFormat applies the default-format election: a format matching
// both mime type and encoding of the preferred format becomes default; when
// nothing matches and exactly one format exists, it becomes default.
func ElectDefaultFormat(formats []Format, preferred *Format) []Format {
	for i := range formats {
		formats[i].Default = false
	}
	if preferred != nil {
		for i := range formats {
			if formats[i].MimeType == preferred.MimeType && formats[i].Encoding == preferred.Encoding {
				formats[i].Default = true
				return formats
			}
		}
	}
	if len(formats) == 1 {
		formats[0].Default = true
	}
	return formats
}

// DefaultFormat returns the effective default format: the flagged entry, or
// the first one when none is flagged.
func (d *Description) DefaultFormat() (Format, bool) {
	for _, f := range d.Formats {
		if f.Default {
			return f, true
		}
	}
	if len(d.Formats) > 0 {
		return d.Formats[0], true
	}
	return Format{}, false
}
