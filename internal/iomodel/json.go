// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

import (
	"fmt"
	"strconv"

	"github.com/geoflow/geoflow/internal/model"
)

// parseOccurs accepts integers, floats and numeric strings; "unbounded"
// maps to the Unbounded sentinel when allowUnbounded is set.
func parseOccurs(v any, allowUnbounded bool) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		if allowUnbounded && n == "unbounded" {
			return Unbounded, nil
		}
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("invalid occurs value %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("invalid occurs value of type %T", v)
}

func toStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func parseMetadata(v any) []model.Metadata {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]model.Metadata, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		md := model.Metadata{}
		md.Title, _ = GetString(m, FieldTitle)
		if href, ok := m["href"].(string); ok {
			md.Href = href
		}
		if role, ok := m["role"].(string); ok {
			md.Role = role
		}
		if value, ok := m["value"].(string); ok {
			md.Value = value
		}
		out = append(out, md)
	}
	return out
}

func parseFormat(m map[string]any) Format {
	f := Format{}
	f.MimeType, _ = GetString(m, FieldMimeType)
	f.Encoding, _ = GetString(m, FieldEncoding)
	f.Schema, _ = GetString(m, FieldSchema)
	if def, ok := GetField(m, FieldDefault); ok {
		if b, ok := def.(bool); ok {
			f.Default = b
		}
	}
	if mb, ok := m["maximumMegabytes"]; ok {
		if n, err := parseOccurs(mb, false); err == nil {
			f.MaximumMB = n
		}
	}
	return f
}

func parseAllowedValues(field string, v any) (*AllowedValues, error) {
	switch a := v.(type) {
	case []any:
		return &AllowedValues{Values: a}, nil
	case map[string]any:
		av := &AllowedValues{}
		if anyV, ok := GetField(a, "any_value"); ok {
			if b, ok := anyV.(bool); ok {
				av.AnyValue = b
			}
		}
		if ref, ok := a["reference"].(string); ok {
			av.Reference = ref
		}
		if values, ok := a["values"].([]any); ok {
			av.Values = values
		}
		if ranges, ok := a["ranges"].([]any); ok {
			for _, r := range ranges {
				rm, ok := r.(map[string]any)
				if !ok {
					continue
				}
				lo, _ := rm["minimumValue"].(float64)
				hi, _ := rm["maximumValue"].(float64)
				av.Ranges = append(av.Ranges, [2]float64{lo, hi})
			}
		}
		return av, nil
	}
	return nil, &TypeError{Field: field, Reason: fmt.Sprintf("invalid allowed values of type %T", v)}
}

// FromJSON parses a JSON I/O description into the canonical form, accepting
// any of the aliased field spellings. The variant is inferred: a data type
// makes it literal, a format list makes it complex, a CRS list makes it a
// bounding box.
func FromJSON(raw map[string]any) (*Description, error) {
	m := Normalize(raw)

	id, _ := m[FieldIdentifier].(string)
	if id == "" {
		return nil, &TypeError{Reason: "missing identifier"}
	}
	d := &Description{ID: id, MinOccurs: 1, MaxOccurs: 1}
	d.Title, _ = m[FieldTitle].(string)
	d.Abstract, _ = m[FieldAbstract].(string)
	d.Keywords = toStringSlice(m[FieldKeywords])
	d.Metadata = parseMetadata(m[FieldMetadata])

	if v, ok := m[FieldMinOccurs]; ok {
		n, err := parseOccurs(v, false)
		if err != nil {
			return nil, &TypeError{Field: id, Reason: err.Error()}
		}
		d.MinOccurs = n
	}
	if v, ok := m[FieldMaxOccurs]; ok {
		n, err := parseOccurs(v, true)
		if err != nil {
			return nil, &TypeError{Field: id, Reason: err.Error()}
		}
		d.MaxOccurs = n
	}

	if params, ok := m[FieldAdditionalParameters].([]any); ok {
		for _, p := range params {
			if pm, ok := p.(map[string]any); ok {
				d.AdditionalParameters = append(d.AdditionalParameters, pm)
			}
		}
	}

	switch {
	case m[FieldDataType] != nil:
		d.Kind = KindLiteral
		d.DataType, _ = m[FieldDataType].(string)
		if av, ok := m[FieldAllowedValues]; ok {
			allowed, err := parseAllowedValues(id, av)
			if err != nil {
				return nil, err
			}
			d.Allowed = allowed
		}
		if def, ok := m[FieldDefault]; ok {
			d.Default = def
		}

	case m[FieldFormats] != nil:
		d.Kind = KindComplex
		entries, ok := m[FieldFormats].([]any)
		if !ok {
			return nil, &TypeError{Field: id, Reason: "formats must be a list"}
		}
		var preferred *Format
		for _, e := range entries {
			fm, ok := e.(map[string]any)
			if !ok {
				continue
			}
			f := parseFormat(Normalize(fm))
			if f.Default && preferred == nil {
				p := f
				preferred = &p
			}
			d.Formats = append(d.Formats, f)
		}
		d.Formats = ElectDefaultFormat(d.Formats, preferred)

	case m[FieldMimeType] != nil:
		d.Kind = KindComplex
		mime, _ := m[FieldMimeType].(string)
		encoding, _ := m[FieldEncoding].(string)
		schema, _ := m[FieldSchema].(string)
		d.Formats = ElectDefaultFormat([]Format{{MimeType: mime, Encoding: encoding, Schema: schema}}, nil)

	case m[FieldCRS] != nil:
		d.Kind = KindBoundingBox
		d.SupportedCRS = toStringSlice(m[FieldCRS])

	default:
		return nil, &TypeError{Field: id, Reason: "cannot infer I/O variant"}
	}
	return d, nil
}

// ToJSON emits the canonical JSON description of d: single-canonical keys,
// explicit min/max occurs even when defaulted, and the elected default
// format flagged.
func ToJSON(d *Description) map[string]any {
	title := d.Title
	if title == "" {
		title = d.ID
	}
	m := map[string]any{
		FieldIdentifier: d.ID,
		FieldTitle:      title,
		FieldMinOccurs:  d.MinOccurs,
	}
	if d.MaxOccurs == Unbounded {
		m[FieldMaxOccurs] = "unbounded"
	} else {
		m[FieldMaxOccurs] = d.MaxOccurs
	}
	if d.Abstract != "" {
		m[FieldAbstract] = d.Abstract
	}
	if len(d.Keywords) > 0 {
		m[FieldKeywords] = d.Keywords
	}
	if len(d.Metadata) > 0 {
		md := make([]any, 0, len(d.Metadata))
		for _, entry := range d.Metadata {
			e := map[string]any{}
			if entry.Title != "" {
				e[FieldTitle] = entry.Title
			}
			if entry.Href != "" {
				e["href"] = entry.Href
			}
			if entry.Role != "" {
				e["role"] = entry.Role
			}
			if entry.Value != "" {
				e["value"] = entry.Value
			}
			md = append(md, e)
		}
		m[FieldMetadata] = md
	}
	if len(d.AdditionalParameters) > 0 {
		params := make([]any, 0, len(d.AdditionalParameters))
		for _, p := range d.AdditionalParameters {
			params = append(params, p)
		}
		m[FieldAdditionalParameters] = params
	}

	switch d.Kind {
	case KindLiteral:
		m[FieldDataType] = d.DataType
		if d.Allowed != nil {
			switch {
			case d.Allowed.AnyValue:
				m[FieldAllowedValues] = map[string]any{"any_value": true}
			case d.Allowed.Reference != "":
				m[FieldAllowedValues] = map[string]any{"reference": d.Allowed.Reference}
			case len(d.Allowed.Ranges) > 0:
				ranges := make([]any, 0, len(d.Allowed.Ranges))
				for _, r := range d.Allowed.Ranges {
					ranges = append(ranges, map[string]any{
						"minimumValue": r[0],
						"maximumValue": r[1],
					})
				}
				m[FieldAllowedValues] = map[string]any{"values": d.Allowed.Values, "ranges": ranges}
			default:
				m[FieldAllowedValues] = d.Allowed.Values
			}
		}
		if d.Default != nil {
			m[FieldDefault] = d.Default
		}

	case KindComplex:
		formats := make([]any, 0, len(d.Formats))
		for _, f := range d.Formats {
			fm := map[string]any{
				FieldMimeType: f.MimeType,
				FieldDefault:  f.Default,
			}
			if f.Encoding != "" {
				fm[FieldEncoding] = f.Encoding
			}
			if f.Schema != "" {
				fm[FieldSchema] = f.Schema
			}
			if f.MaximumMB > 0 {
				fm["maximumMegabytes"] = f.MaximumMB
			}
			formats = append(formats, fm)
		}
		m[FieldFormats] = formats

	case KindBoundingBox:
		m[FieldCRS] = d.SupportedCRS
	}
	return m
}
