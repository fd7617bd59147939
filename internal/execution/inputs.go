// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"fmt"

	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

// resolveInputs validates the submitted inputs against the process's
// canonical input descriptions and renders them for dispatch: literals and
// bounding boxes pass through, complex references become Location objects,
// EO-image queries expand into resolved file references.
func (d *Dispatcher) resolveInputs(ctx context.Context, job *model.Job, proc *model.Process) ([]ResolvedInput, error) {
	descs := make([]*iomodel.Description, 0, len(proc.Inputs))
	byID := map[string]*iomodel.Description{}
	for _, raw := range proc.Inputs {
		desc, err := iomodel.FromJSON(raw)
		if err != nil {
			return nil, &ExecutionError{Code: "NoApplicableCode",
				Reason: "stored process has an invalid input description", Err: err}
		}
		descs = append(descs, desc)
		byID[desc.ID] = desc
	}

	submitted := map[string][]model.JobInput{}
	for _, in := range job.Inputs {
		if _, known := byID[in.ID]; !known {
			return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: in.ID,
				Reason: fmt.Sprintf("process %q declares no input %q", proc.ID, in.ID)}
		}
		submitted[in.ID] = append(submitted[in.ID], in)
	}

	resolved := make([]ResolvedInput, 0, len(descs))
	for _, desc := range descs {
		values, err := d.resolveOne(ctx, desc, submitted[desc.ID])
		if err != nil {
			return nil, err
		}
		if values == nil {
			continue // optional and absent
		}
		resolved = append(resolved, ResolvedInput{Desc: desc, Values: values})
	}
	return resolved, nil
}

func (d *Dispatcher) resolveOne(ctx context.Context, desc *iomodel.Description, inputs []model.JobInput) ([]any, error) {
	if len(inputs) == 0 {
		if desc.Default != nil {
			return []any{desc.Default}, nil
		}
		if desc.MinOccurs > 0 {
			return nil, &ExecutionError{Code: "MissingParameterValue", Locator: desc.ID,
				Reason: fmt.Sprintf("required input %q was not provided", desc.ID)}
		}
		return nil, nil
	}

	if desc.MaxOccurs != iomodel.Unbounded && len(inputs) > desc.MaxOccurs {
		return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: desc.ID,
			Reason: fmt.Sprintf("input %q accepts at most %d values, got %d",
				desc.ID, desc.MaxOccurs, len(inputs))}
	}

	if isEOImage(desc) {
		return d.resolveEOImage(ctx, desc, inputs)
	}

	values := make([]any, 0, len(inputs))
	for _, in := range inputs {
		switch desc.Kind {
		case iomodel.KindComplex:
			values = append(values, complexValue(desc, in))
		default:
			values = append(values, in.Data)
		}
	}
	return values, nil
}

// complexValue renders one complex input as a Location, keeping inline data
// verbatim for the backend to stage.
func complexValue(desc *iomodel.Description, in model.JobInput) any {
	if in.Href == "" {
		if m, ok := in.Data.(map[string]any); ok {
			if loc, ok := m["location"].(string); ok && loc != "" {
				class, _ := m["class"].(string)
				if class == "" {
					class = "File"
				}
				format, _ := m["format"].(string)
				return Location{Location: loc, Class: class, Format: format}
			}
		}
		return in.Data
	}
	format := ""
	if in.Format != nil {
		format, _ = iomodel.GetString(in.Format, iomodel.FieldMimeType)
	}
	if format == "" {
		if f, ok := desc.DefaultFormat(); ok {
			format = f.MimeType
		}
	}
	return Location{Location: in.Href, Class: "File", Format: format}
}

// resolveEOImage replaces the submitted query triples with the catalogue's
// matching file references, bounded by the declared cardinality.
func (d *Dispatcher) resolveEOImage(ctx context.Context, desc *iomodel.Description, inputs []model.JobInput) ([]any, error) {
	if d.eo == nil {
		return nil, &ExecutionError{Code: "NoApplicableCode", Locator: desc.ID,
			Reason: "no EO catalogue is configured"}
	}
	limit := 0
	if desc.MaxOccurs != iomodel.Unbounded {
		limit = desc.MaxOccurs
	}
	var values []any
	for _, in := range inputs {
		query, err := parseEOQuery(in.Data)
		if err != nil {
			if exc, ok := err.(*ExecutionError); ok {
				exc.Locator = desc.ID
			}
			return nil, err
		}
		remaining := 0
		if limit > 0 {
			remaining = limit - len(values)
			if remaining <= 0 {
				break
			}
		}
		refs, err := d.eo.Resolve(ctx, query, remaining)
		if err != nil {
			return nil, err
		}
		format := iomodel.DefaultMimeType
		if f, ok := desc.DefaultFormat(); ok {
			format = f.MimeType
		}
		for _, ref := range refs {
			values = append(values, Location{Location: ref, Class: "File", Format: format})
		}
	}
	if len(values) < desc.MinOccurs {
		return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: desc.ID,
			Reason: fmt.Sprintf("catalogue resolved %d products, input %q requires at least %d",
				len(values), desc.ID, desc.MinOccurs)}
	}
	return values, nil
}

// outputDescriptions parses the stored canonical output list.
func outputDescriptions(proc *model.Process) ([]*iomodel.Description, error) {
	descs := make([]*iomodel.Description, 0, len(proc.Outputs))
	for _, raw := range proc.Outputs {
		desc, err := iomodel.FromJSON(raw)
		if err != nil {
			return nil, &ExecutionError{Code: "NoApplicableCode",
				Reason: "stored process has an invalid output description", Err: err}
		}
		descs = append(descs, desc)
	}
	return descs, nil
}
