// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotent(t *testing.T) {
	raw := map[string]any{
		"Identifier":       "msg",
		"Title":            "Message",
		"minOccurs":        "1",
		"MaxOccurs":        "unbounded",
		"supportedFormats": []any{},
		"dataType":         "string",
		"custom-key":       42,
	}
	once := Normalize(raw)
	twice := Normalize(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Normalize not idempotent (-once +twice):\n%s", diff)
	}

	assert.Equal(t, "msg", once[FieldIdentifier])
	assert.Equal(t, "1", once[FieldMinOccurs])
	assert.Equal(t, "unbounded", once[FieldMaxOccurs])
	assert.Contains(t, once, FieldFormats)
	assert.Equal(t, "string", once[FieldDataType])
	assert.Equal(t, 42, once["custom-key"])
}

func TestGetFieldAliases(t *testing.T) {
	m := map[string]any{
		"mimeType":  "image/tiff",
		"MinOccurs": 2,
	}
	v, ok := GetField(m, FieldMimeType)
	require.True(t, ok)
	assert.Equal(t, "image/tiff", v)

	v, ok = GetField(m, FieldMinOccurs)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = GetField(m, FieldMaxOccurs)
	assert.False(t, ok)
}

func TestFromJSONLiteralAliased(t *testing.T) {
	d, err := FromJSON(map[string]any{
		"identifier":    "count",
		"Title":         "Count",
		"dataType":      "integer",
		"minOccurs":     "0",
		"maxOccurs":     "unbounded",
		"allowedValues": []any{float64(1), float64(2), float64(3)},
		"default_value": float64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "count", d.ID)
	assert.Equal(t, KindLiteral, d.Kind)
	assert.Equal(t, TypeInteger, d.DataType)
	assert.Equal(t, 0, d.MinOccurs)
	assert.Equal(t, Unbounded, d.MaxOccurs)
	require.NotNil(t, d.Allowed)
	assert.Len(t, d.Allowed.Values, 3)
	assert.Equal(t, float64(1), d.Default)
}

func TestFromJSONComplexFormats(t *testing.T) {
	d, err := FromJSON(map[string]any{
		"id": "image",
		"formats": []any{
			map[string]any{"mimeType": "image/tiff"},
			map[string]any{"mime_type": "image/png", "encoding": "base64", "default": true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, KindComplex, d.Kind)
	require.Len(t, d.Formats, 2)

	def, ok := d.DefaultFormat()
	require.True(t, ok)
	assert.Equal(t, "image/png", def.MimeType)
	assert.Equal(t, "base64", def.Encoding)
	assert.False(t, d.Formats[0].Default)
}

func TestFromJSONSingleFormatImplicitDefault(t *testing.T) {
	d, err := FromJSON(map[string]any{
		"id":       "data",
		"mimeType": "application/json",
	})
	require.NoError(t, err)
	require.Len(t, d.Formats, 1)
	assert.True(t, d.Formats[0].Default)
}

func TestFromJSONBoundingBox(t *testing.T) {
	d, err := FromJSON(map[string]any{
		"id":  "bbox",
		"crs": []any{"EPSG:4326", "EPSG:3857"},
	})
	require.NoError(t, err)
	assert.Equal(t, KindBoundingBox, d.Kind)
	assert.Equal(t, []string{"EPSG:4326", "EPSG:3857"}, d.SupportedCRS)
}

func TestFromJSONUnknownVariantRejected(t *testing.T) {
	_, err := FromJSON(map[string]any{"id": "mystery"})
	assert.Error(t, err)
}

func TestFromJSONMissingIdentifierRejected(t *testing.T) {
	_, err := FromJSON(map[string]any{"dataType": "string"})
	assert.Error(t, err)
}

func TestToJSONRoundTrip(t *testing.T) {
	raw := map[string]any{
		"identifier": "image",
		"title":      "Image",
		"abstract":   "an input image",
		"minOccurs":  float64(1),
		"maxOccurs":  "unbounded",
		"formats": []any{
			map[string]any{"mimeType": "image/tiff", "default": true},
			map[string]any{"mimeType": "image/png"},
		},
	}
	d, err := FromJSON(raw)
	require.NoError(t, err)

	emitted := ToJSON(d)
	back, err := FromJSON(emitted)
	require.NoError(t, err)

	if diff := cmp.Diff(d, back); diff != "" {
		t.Errorf("round trip mismatch (-first +second):\n%s", diff)
	}
	assert.Equal(t, "image", emitted[FieldIdentifier])
	assert.Equal(t, 1, emitted[FieldMinOccurs])
	assert.Equal(t, "unbounded", emitted[FieldMaxOccurs])
}

func TestToJSONExplicitOccursWhenDefaulted(t *testing.T) {
	d, err := FromJSON(map[string]any{"id": "msg", "data_type": "string"})
	require.NoError(t, err)

	emitted := ToJSON(d)
	assert.Equal(t, 1, emitted[FieldMinOccurs])
	assert.Equal(t, 1, emitted[FieldMaxOccurs])
	assert.Equal(t, "msg", emitted[FieldTitle], "title defaults to the identifier")
}
