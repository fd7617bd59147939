// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"path/filepath"
	"strings"

	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

// collectResults finalizes backend results for transport: file:// references
// under the output volume become public URLs, missing mime types fall back
// to the declared default format, and a single-valued list output is
// unwrapped to a scalar.
func (d *Dispatcher) collectResults(run *Run, results []model.JobResult) []model.JobResult {
	byID := map[string]*iomodel.Description{}
	for _, desc := range run.Outputs {
		byID[desc.ID] = desc
	}
	out := make([]model.JobResult, 0, len(results))
	for _, res := range results {
		desc := byID[res.ID]

		if res.Href != "" {
			res.Href = d.publicURL(res.Href)
		}
		if res.MimeType == "" && desc != nil {
			if f, ok := desc.DefaultFormat(); ok && desc.Kind == iomodel.KindComplex {
				res.MimeType = f.MimeType
			}
		}
		if list, ok := res.Data.([]any); ok && len(list) == 1 {
			if desc == nil || desc.MaxOccurs == 1 {
				res.Data = list[0]
			}
		}
		out = append(out, res)
	}
	return out
}

// publicURL maps a file:// path under the output directory onto the served
// output URL; anything else passes through untouched.
func (d *Dispatcher) publicURL(href string) string {
	if !strings.HasPrefix(href, "file://") {
		return href
	}
	path := strings.TrimPrefix(href, "file://")
	rel, err := filepath.Rel(d.outputDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return href
	}
	return strings.TrimSuffix(d.outputURL, "/") + "/" + filepath.ToSlash(rel)
}
