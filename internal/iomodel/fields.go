// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

import (
	"strings"
)

// Canonical field names of the JSON description layer. Lookup tolerates any
// case and separator spelling plus the listed aliases; emission uses exactly
// these names.
const (
	FieldIdentifier           = "id"
	FieldTitle                = "title"
	FieldAbstract             = "abstract"
	FieldKeywords             = "keywords"
	FieldMetadata             = "metadata"
	FieldMinOccurs            = "min_occurs"
	FieldMaxOccurs            = "max_occurs"
	FieldDataType             = "data_type"
	FieldFormats              = "formats"
	FieldMimeType             = "mime_type"
	FieldEncoding             = "encoding"
	FieldSchema               = "schema"
	FieldDefault              = "default"
	FieldAllowedValues        = "allowed_values"
	FieldCRS                  = "crs"
	FieldAdditionalParameters = "additional_parameters"
)

// fieldAliases maps a canonical name to alternative spellings that are not
// mere case/separator variants of it.
var fieldAliases = map[string][]string{
	FieldIdentifier: {"identifier"},
	FieldAbstract:   {"description"},
	FieldDataType:   {"type"},
	FieldFormats:    {"supported_formats", "supported_values"},
	FieldMimeType:   {"content_type", "media_type"},
	FieldDefault:    {"default_value"},
	FieldCRS:        {"supported_crs"},
}

// foldKey lowercases a key and strips separators, so "MinOccurs",
// "min_occurs" and "min-occurs" all fold to "minoccurs".
func foldKey(k string) string {
	k = strings.ToLower(k)
	k = strings.ReplaceAll(k, "_", "")
	k = strings.ReplaceAll(k, "-", "")
	return k
}

// GetField looks canonical up in m, tolerating case and separator variants
// and the registered aliases.
func GetField(m map[string]any, canonical string) (any, bool) {
	if v, ok := m[canonical]; ok {
		return v, true
	}
	wanted := map[string]bool{foldKey(canonical): true}
	for _, alias := range fieldAliases[canonical] {
		wanted[foldKey(alias)] = true
	}
	for k, v := range m {
		if wanted[foldKey(k)] {
			return v, true
		}
	}
	return nil, false
}

// GetString is GetField narrowed to a string value.
func GetString(m map[string]any, canonical string) (string, bool) {
	v, ok := GetField(m, canonical)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// canonicalFields lists every field Normalize rewrites, in emission order.
var canonicalFields = []string{
	FieldIdentifier, FieldTitle, FieldAbstract, FieldKeywords, FieldMetadata,
	FieldMinOccurs, FieldMaxOccurs, FieldDataType, FieldFormats,
	FieldMimeType, FieldEncoding, FieldSchema, FieldDefault,
	FieldAllowedValues, FieldCRS, FieldAdditionalParameters,
}

// Normalize rewrites every recognized key of m to its canonical spelling,
// preserving unrecognized keys verbatim. Normalize is idempotent.
func Normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))

	claimed := make(map[string]string) // folded key -> canonical name
	for _, canonical := range canonicalFields {
		claimed[foldKey(canonical)] = canonical
		for _, alias := range fieldAliases[canonical] {
			claimed[foldKey(alias)] = canonical
		}
	}
	for k, v := range m {
		if canonical, ok := claimed[foldKey(k)]; ok {
			if _, dup := out[canonical]; !dup {
				out[canonical] = v
			}
			continue
		}
		out[k] = v
	}
	return out
}
