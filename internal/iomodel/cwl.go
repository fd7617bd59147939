// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

import (
	"fmt"
	"strings"
)

// Legal array element types of the package dialect.
var arrayItemTypes = map[string]bool{
	"string": true, "boolean": true, "int": true, "long": true,
	"float": true, "double": true, "File": true, "Directory": true,
}

// literalTypes maps package literal type names to canonical data types.
var literalTypes = map[string]string{
	"string":  TypeString,
	"int":     TypeInteger,
	"long":    TypeInteger,
	"float":   TypeFloat,
	"double":  TypeFloat,
	"boolean": TypeBoolean,
}

// elevatedType is the outcome of package type elevation.
type elevatedType struct {
	base     string // element type name after unwrapping
	array    bool
	nullable bool
	symbols  []any // enum symbols, nil otherwise
}

// elevateType unwraps the package type forms: "T", "T?", "T[]", "T[]?",
// ["null", T], {type: array, items: T} and {type: enum, symbols: [...]}.
func elevateType(field string, typ any) (elevatedType, error) {
	switch t := typ.(type) {
	case string:
		et := elevatedType{base: t}
		if strings.HasSuffix(et.base, "?") {
			et.nullable = true
			et.base = strings.TrimSuffix(et.base, "?")
		}
		if strings.HasSuffix(et.base, "[]") {
			et.array = true
			et.base = strings.TrimSuffix(et.base, "[]")
		}
		if et.base == "" {
			return et, &TypeError{Field: field, Reason: "empty type"}
		}
		return et, nil

	case []any:
		var rest []any
		nullable := false
		for _, entry := range t {
			if s, ok := entry.(string); ok && s == "null" {
				nullable = true
				continue
			}
			rest = append(rest, entry)
		}
		if len(rest) != 1 {
			return elevatedType{}, &TypeError{Field: field,
				Reason: fmt.Sprintf("union of %d non-null types is not supported", len(rest))}
		}
		et, err := elevateType(field, rest[0])
		if err != nil {
			return et, err
		}
		et.nullable = et.nullable || nullable
		return et, nil

	case map[string]any:
		kind, _ := t["type"].(string)
		switch kind {
		case "array":
			items, ok := t["items"]
			if !ok {
				return elevatedType{}, &TypeError{Field: field, Reason: "array type without items"}
			}
			et, err := elevateType(field, items)
			if err != nil {
				return et, err
			}
			if et.array {
				return et, &TypeError{Field: field, Reason: "nested arrays are not supported"}
			}
			et.array = true
			return et, nil
		case "enum":
			symbols, _ := t["symbols"].([]any)
			if len(symbols) == 0 {
				return elevatedType{}, &TypeError{Field: field, Reason: "enum without symbols"}
			}
			return elevatedType{base: "enum", symbols: symbols}, nil
		default:
			return elevatedType{}, &TypeError{Field: field,
				Reason: fmt.Sprintf("unknown type object %q", kind)}
		}
	}
	return elevatedType{}, &TypeError{Field: field,
		Reason: fmt.Sprintf("unsupported type value of kind %T", typ)}
}

// enumDataType infers the literal base type of enum symbols: string when all
// symbols are strings, integer when all are integers, float when all are
// numeric. Mixed symbol types are rejected.
func enumDataType(field string, symbols []any) (string, []any, error) {
	allString, allInt, allNumeric := true, true, true
	values := make([]any, 0, len(symbols))
	for _, s := range symbols {
		switch v := s.(type) {
		case string:
			allInt, allNumeric = false, false
			values = append(values, v)
		case int, int32, int64:
			allString = false
			values = append(values, v)
		case float64:
			allString = false
			if v != float64(int64(v)) {
				allInt = false
			}
			values = append(values, v)
		case float32:
			allString = false
			if v != float32(int64(v)) {
				allInt = false
			}
			values = append(values, v)
		default:
			return "", nil, &TypeError{Field: field,
				Reason: fmt.Sprintf("enum symbol of unsupported type %T", s)}
		}
	}
	switch {
	case allString:
		return TypeString, values, nil
	case allInt:
		return TypeInteger, values, nil
	case allNumeric:
		return TypeFloat, values, nil
	}
	return "", nil, &TypeError{Field: field, Reason: "mixed enum symbol types"}
}

// mimeFromCWLFormat derives a MIME type from a package format reference:
// an IANA media-type URL or curie resolves to its suffix, anything already
// containing a slash passes through.
func mimeFromCWLFormat(format string) string {
	if i := strings.Index(format, "media-types/"); i >= 0 {
		return format[i+len("media-types/"):]
	}
	if i := strings.Index(format, ":"); i >= 0 && !strings.Contains(format, "/") {
		return format[i+1:]
	}
	return format
}

// FromCWL converts one package I/O record into the canonical description.
// isOutput switches the cardinality defaults: outputs are always single
// occurrence unless declared as arrays.
func FromCWL(id string, def map[string]any, isOutput bool) (*Description, error) {
	typ, ok := def["type"]
	if !ok {
		return nil, &TypeError{Field: id, Reason: "missing type"}
	}
	et, err := elevateType(id, typ)
	if err != nil {
		return nil, err
	}
	if et.array && !arrayItemTypes[et.base] {
		return nil, &TypeError{Field: id,
			Reason: fmt.Sprintf("array item type %q is not supported", et.base)}
	}

	d := &Description{ID: id, MinOccurs: 1, MaxOccurs: 1}
	if label, ok := def["label"].(string); ok {
		d.Title = label
	}
	if doc, ok := def["doc"].(string); ok {
		d.Abstract = doc
	}
	if def["default"] != nil {
		d.Default = def["default"]
	}
	if et.nullable || (d.Default != nil && !isOutput) {
		d.MinOccurs = 0
	}
	if et.array {
		d.MaxOccurs = Unbounded
	}

	switch {
	case et.symbols != nil:
		dataType, values, err := enumDataType(id, et.symbols)
		if err != nil {
			return nil, err
		}
		d.Kind = KindLiteral
		d.DataType = dataType
		d.Allowed = &AllowedValues{Values: values}

	case et.base == "File" || et.base == "Directory":
		d.Kind = KindComplex
		mime := DefaultMimeType
		if et.base == "Directory" {
			mime = "application/directory"
		}
		switch f := def["format"].(type) {
		case string:
			mime = mimeFromCWLFormat(f)
		case []any:
			for _, entry := range f {
				if s, ok := entry.(string); ok {
					d.Formats = append(d.Formats, Format{MimeType: mimeFromCWLFormat(s)})
				}
			}
		}
		if len(d.Formats) == 0 {
			d.Formats = []Format{{MimeType: mime}}
		}
		d.Formats = ElectDefaultFormat(d.Formats, nil)

	default:
		dataType, ok := literalTypes[et.base]
		if !ok {
			return nil, &TypeError{Field: id,
				Reason: fmt.Sprintf("unknown literal type %q", et.base)}
		}
		d.Kind = KindLiteral
		d.DataType = dataType
	}
	return d, nil
}

// CWLType returns the package type expression for d, the inverse of the
// elevation rules applied by FromCWL.
func CWLType(d *Description) any {
	var base string
	switch d.Kind {
	case KindComplex:
		base = "File"
	case KindBoundingBox:
		base = "string"
	default:
		switch d.DataType {
		case TypeInteger:
			base = "int"
		case TypeFloat:
			base = "float"
		case TypeBoolean:
			base = "boolean"
		default:
			base = "string"
		}
		if d.Allowed != nil && len(d.Allowed.Values) > 0 {
			symbols := append([]any(nil), d.Allowed.Values...)
			enum := map[string]any{"type": "enum", "symbols": symbols}
			return wrapCWLType(enum, d)
		}
	}
	return wrapCWLType(base, d)
}

func wrapCWLType(base any, d *Description) any {
	t := base
	if d.MaxOccurs == Unbounded || d.MaxOccurs > 1 {
		if s, ok := t.(string); ok {
			t = s + "[]"
		} else {
			t = map[string]any{"type": "array", "items": t}
		}
	}
	if d.MinOccurs == 0 {
		if s, ok := t.(string); ok {
			return s + "?"
		}
		return []any{"null", t}
	}
	return t
}
