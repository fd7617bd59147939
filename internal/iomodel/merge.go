// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package iomodel

// Merge combines package-derived descriptions with the payload-supplied
// entries of a deploy request. The package wins on the variant and formats;
// the payload wins on every other field (title, abstract, keywords,
// metadata, occurs, default, allowed values). Payload entries without a
// package counterpart are discarded; package entries without a payload
// counterpart survive as-is.
func Merge(pkg []*Description, payload []map[string]any) ([]*Description, error) {
	byID := make(map[string]map[string]any, len(payload))
	for _, raw := range payload {
		m := Normalize(raw)
		if id, ok := m[FieldIdentifier].(string); ok && id != "" {
			byID[id] = m
		}
	}

	out := make([]*Description, 0, len(pkg))
	for _, p := range pkg {
		m, ok := byID[p.ID]
		if !ok {
			out = append(out, p.Clone())
			continue
		}
		merged, err := mergeOne(p, m)
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

func mergeOne(pkg *Description, payload map[string]any) (*Description, error) {
	d := pkg.Clone()

	if title, ok := payload[FieldTitle].(string); ok && title != "" {
		d.Title = title
	}
	if abstract, ok := payload[FieldAbstract].(string); ok && abstract != "" {
		d.Abstract = abstract
	}
	if kw := toStringSlice(payload[FieldKeywords]); len(kw) > 0 {
		d.Keywords = kw
	}
	if md := parseMetadata(payload[FieldMetadata]); len(md) > 0 {
		d.Metadata = md
	}
	if v, ok := payload[FieldMinOccurs]; ok {
		n, err := parseOccurs(v, false)
		if err != nil {
			return nil, &TypeError{Field: d.ID, Reason: err.Error()}
		}
		d.MinOccurs = n
	}
	if v, ok := payload[FieldMaxOccurs]; ok {
		n, err := parseOccurs(v, true)
		if err != nil {
			return nil, &TypeError{Field: d.ID, Reason: err.Error()}
		}
		d.MaxOccurs = n
	}
	if def, ok := payload[FieldDefault]; ok && d.Kind == KindLiteral {
		d.Default = def
	}
	if av, ok := payload[FieldAllowedValues]; ok && d.Kind == KindLiteral {
		allowed, err := parseAllowedValues(d.ID, av)
		if err != nil {
			return nil, err
		}
		d.Allowed = allowed
	}
	if params, ok := payload[FieldAdditionalParameters].([]any); ok {
		d.AdditionalParameters = nil
		for _, p := range params {
			if pm, ok := p.(map[string]any); ok {
				d.AdditionalParameters = append(d.AdditionalParameters, pm)
			}
		}
	}
	return d, nil
}
