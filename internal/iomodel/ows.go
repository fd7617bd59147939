// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

import (
	"strconv"
	"strings"

	"github.com/geoflow/geoflow/internal/wps"
)

// owsDataType maps an OWS literal type name (possibly taken from the tail of
// a reference URI) onto the canonical literal types. Temporal and URI types
// have no native counterpart and degrade to string.
func owsDataType(name string) string {
	switch strings.ToLower(name) {
	case "integer", "int", "long", "short", "positiveinteger", "nonnegativeinteger":
		return TypeInteger
	case "float", "double", "decimal":
		return TypeFloat
	case "boolean", "bool":
		return TypeBoolean
	default:
		return TypeString
	}
}

// owsTypeName extracts the bare type name from an OWS DataType element,
// favoring the element text and falling back to the reference URI suffix.
func owsTypeName(dt *wps.DataType) string {
	if dt == nil {
		return TypeString
	}
	name := strings.TrimSpace(dt.Name)
	if name == "" && dt.Reference != "" {
		ref := dt.Reference
		for _, sep := range []string{"#", ":", "/"} {
			if i := strings.LastIndex(ref, sep); i >= 0 {
				ref = ref[i+1:]
			}
		}
		name = ref
	}
	return name
}

func owsOccurs(raw string, fallback int, allowUnbounded bool) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if allowUnbounded && raw == "unbounded" {
		return Unbounded
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}

func owsLiteral(d *Description, lit *wps.LiteralInput) {
	d.Kind = KindLiteral
	d.DataType = owsDataType(owsTypeName(lit.DataType))
	if lit.AllowedValues != nil {
		av := &AllowedValues{}
		for _, v := range lit.AllowedValues.Values {
			av.Values = append(av.Values, v)
		}
		for _, r := range lit.AllowedValues.Ranges {
			lo, _ := strconv.ParseFloat(r.MinimumValue, 64)
			hi, _ := strconv.ParseFloat(r.MaximumValue, 64)
			av.Ranges = append(av.Ranges, [2]float64{lo, hi})
		}
		d.Allowed = av
	} else if lit.AnyValue != nil {
		d.Allowed = &AllowedValues{AnyValue: true}
	}
	if lit.DefaultValue != "" {
		d.Default = lit.DefaultValue
	}
}

func owsComplex(d *Description, cx *wps.ComplexData) {
	d.Kind = KindComplex
	var preferred *Format
	if cx.Default != nil {
		f := Format{
			MimeType: cx.Default.Format.MimeType,
			Encoding: cx.Default.Format.Encoding,
			Schema:   cx.Default.Format.Schema,
		}
		preferred = &f
	}
	for _, f := range cx.Supported {
		format := Format{MimeType: f.MimeType, Encoding: f.Encoding, Schema: f.Schema}
		if cx.MaximumMegabytes > 0 {
			format.MaximumMB = cx.MaximumMegabytes
		}
		d.Formats = append(d.Formats, format)
	}
	if len(d.Formats) == 0 && preferred != nil {
		d.Formats = []Format{*preferred}
	}
	d.Formats = ElectDefaultFormat(d.Formats, preferred)
}

func owsBoundingBox(d *Description, bb *wps.BoundingBoxData) {
	d.Kind = KindBoundingBox
	if bb.Default != "" {
		d.SupportedCRS = append(d.SupportedCRS, bb.Default)
	}
	for _, crs := range bb.Supported {
		if crs != bb.Default {
			d.SupportedCRS = append(d.SupportedCRS, crs)
		}
	}
}

// FromOWSInput converts a WPS-1 DescribeProcess input element into the
// canonical description.
func FromOWSInput(in wps.InputDescription) (*Description, error) {
	if in.Identifier == "" {
		return nil, &TypeError{Reason: "input without identifier"}
	}
	d := &Description{
		ID:        in.Identifier,
		Title:     in.Title,
		Abstract:  in.Abstract,
		MinOccurs: owsOccurs(in.MinOccurs, 1, false),
		MaxOccurs: owsOccurs(in.MaxOccurs, 1, true),
	}
	switch {
	case in.LiteralData != nil:
		owsLiteral(d, in.LiteralData)
	case in.ComplexData != nil:
		owsComplex(d, in.ComplexData)
	case in.BoundingBoxData != nil:
		owsBoundingBox(d, in.BoundingBoxData)
	default:
		return nil, &TypeError{Field: in.Identifier, Reason: "cannot infer I/O variant"}
	}
	return d, nil
}

// FromOWSOutput converts a WPS-1 DescribeProcess output element into the
// canonical description. Outputs carry no occurs attributes; cardinality is
// fixed at one.
func FromOWSOutput(out wps.OutputDescription) (*Description, error) {
	if out.Identifier == "" {
		return nil, &TypeError{Reason: "output without identifier"}
	}
	d := &Description{
		ID:        out.Identifier,
		Title:     out.Title,
		Abstract:  out.Abstract,
		MinOccurs: 1,
		MaxOccurs: 1,
	}
	switch {
	case out.LiteralOutput != nil:
		owsLiteral(d, out.LiteralOutput)
	case out.ComplexOutput != nil:
		owsComplex(d, out.ComplexOutput)
	case out.BoundingBoxOutput != nil:
		owsBoundingBox(d, out.BoundingBoxOutput)
	default:
		return nil, &TypeError{Field: out.Identifier, Reason: "cannot infer I/O variant"}
	}
	return d, nil
}

// ToOWSInput renders d as an emitted WPS-1 input description element.
func ToOWSInput(d *Description) wps.InputDescriptionXML {
	in := wps.InputDescriptionXML{
		MinOccurs:  strconv.Itoa(d.MinOccurs),
		MaxOccurs:  strconv.Itoa(d.MaxOccurs),
		Identifier: d.ID,
		Title:      d.Title,
		Abstract:   d.Abstract,
	}
	if in.Title == "" {
		in.Title = d.ID
	}
	if d.MaxOccurs == Unbounded {
		in.MaxOccurs = "unbounded"
	}
	switch d.Kind {
	case KindLiteral:
		in.LiteralData = toOWSLiteral(d)
	case KindComplex:
		in.ComplexData = toOWSComplex(d)
	case KindBoundingBox:
		in.BoundingBoxData = toOWSBoundingBox(d)
	}
	return in
}

// ToOWSOutput renders d as an emitted WPS-1 output description element.
func ToOWSOutput(d *Description) wps.OutputDescriptionXML {
	out := wps.OutputDescriptionXML{
		Identifier: d.ID,
		Title:      d.Title,
		Abstract:   d.Abstract,
	}
	if out.Title == "" {
		out.Title = d.ID
	}
	switch d.Kind {
	case KindLiteral:
		out.LiteralOutput = toOWSLiteral(d)
	case KindComplex:
		out.ComplexOutput = toOWSComplex(d)
	case KindBoundingBox:
		out.BoundingBoxOutput = toOWSBoundingBox(d)
	}
	return out
}

func toOWSLiteral(d *Description) *wps.LiteralDataXML {
	lit := &wps.LiteralDataXML{
		DataType: &wps.DataTypeXML{Name: d.DataType},
	}
	switch {
	case d.Allowed == nil || d.Allowed.AnyValue:
		lit.AnyValue = &struct{}{}
	case len(d.Allowed.Values) > 0:
		av := &wps.AllowedValuesXML{}
		for _, v := range d.Allowed.Values {
			av.Values = append(av.Values, toString(v))
		}
		lit.AllowedValues = av
	}
	if d.Default != nil {
		lit.DefaultValue = toString(d.Default)
	}
	return lit
}

func toOWSComplex(d *Description) *wps.ComplexDataXML {
	cx := &wps.ComplexDataXML{}
	for _, f := range d.Formats {
		xf := wps.FormatXML{MimeType: f.MimeType, Encoding: f.Encoding, Schema: f.Schema}
		cx.Supported = append(cx.Supported, xf)
	}
	if f, ok := d.DefaultFormat(); ok {
		cx.Default = &struct {
			Format wps.FormatXML `xml:"Format"`
		}{Format: wps.FormatXML{MimeType: f.MimeType, Encoding: f.Encoding, Schema: f.Schema}}
	}
	return cx
}

func toOWSBoundingBox(d *Description) *wps.BoundingBoxDataXML {
	bb := &wps.BoundingBoxDataXML{Supported: d.SupportedCRS}
	if len(d.SupportedCRS) > 0 {
		bb.Default = d.SupportedCRS[0]
	}
	return bb
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}
