// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wpsclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/wps"
	"github.com/geoflow/geoflow/pkg/slug"
)

// BuildProcessID stamps the local identifier of an imported remote process
// as "{provider_host}_{process_id}", normalized through the lenient slug.
func BuildProcessID(providerURL, processID string) (string, error) {
	host := providerURL
	if u, err := url.Parse(providerURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return slug.Make(host + "_" + processID)
}

// Importer synthesizes deployable local processes from remote WPS-1
// process descriptions.
type Importer struct {
	logger *slog.Logger
}

func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger}
}

// Import converts a parsed DescribeProcess element into a process record
// carrying the canonical I/O descriptions and a synthesized package that
// dispatches back to the provider.
func (im *Importer) Import(providerURL string, desc *wps.ProcessDescription) (*model.Process, error) {
	id, err := BuildProcessID(providerURL, desc.Identifier)
	if err != nil {
		return nil, fmt.Errorf("cannot derive process id: %w", err)
	}

	inputs := make([]*iomodel.Description, 0, len(desc.Inputs))
	for _, in := range desc.Inputs {
		d, err := iomodel.FromOWSInput(in)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, d)
	}
	outputs := make([]*iomodel.Description, 0, len(desc.Outputs))
	for _, out := range desc.Outputs {
		d, err := iomodel.FromOWSOutput(out)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, d)
	}

	proc := &model.Process{
		ID:         id,
		Version:    desc.ProcessVersion,
		Title:      desc.Title,
		Abstract:   desc.Abstract,
		Type:       model.ProcessTypeRemoteWPS,
		Visibility: model.VisibilityPublic,
		Package:    SynthesizePackage(providerURL, desc.Identifier, inputs, outputs),
	}
	for _, d := range inputs {
		proc.Inputs = append(proc.Inputs, iomodel.ToJSON(d))
	}
	for _, d := range outputs {
		proc.Outputs = append(proc.Outputs, iomodel.ToJSON(d))
	}
	im.logger.Debug("imported remote process", "provider", providerURL, "remote", desc.Identifier, "local", id)
	return proc, nil
}

// SynthesizePackage builds the CommandLineTool package equivalent to a
// remote process: typed I/O plus a single remote-WPS-1 application hint.
func SynthesizePackage(providerURL, remoteID string, inputs, outputs []*iomodel.Description) map[string]any {
	ins := map[string]any{}
	for _, d := range inputs {
		def := map[string]any{"type": iomodel.CWLType(d)}
		if d.Kind == iomodel.KindComplex {
			if f, ok := d.DefaultFormat(); ok {
				def["format"] = f.MimeType
			}
		}
		ins[d.ID] = def
	}
	outs := map[string]any{}
	for _, d := range outputs {
		def := map[string]any{"type": iomodel.CWLType(d)}
		if d.Kind == iomodel.KindComplex {
			if f, ok := d.DefaultFormat(); ok {
				def["format"] = f.MimeType
			}
		}
		outs[d.ID] = def
	}
	return map[string]any{
		"cwlVersion": "v1.0",
		"class":      cwl.ClassCommandLineTool,
		"hints": map[string]any{
			cwl.RequirementWPS1: map[string]any{
				"provider": providerURL,
				"process":  remoteID,
			},
		},
		"inputs":  ins,
		"outputs": outs,
	}
}

// PackageFromXML implements cwl.RemoteDescriber: it turns a DescribeProcess
// body fetched from rawURL into a loaded package document.
func (im *Importer) PackageFromXML(_ context.Context, rawURL string, body []byte) (*cwl.Document, error) {
	desc, err := ParseProcessDescription(body)
	if err != nil {
		return nil, &cwl.RegistrationError{Ref: rawURL, Reason: "invalid WPS process description", Err: err}
	}
	endpoint := rawURL
	if u, perr := url.Parse(rawURL); perr == nil {
		u.RawQuery = ""
		endpoint = strings.TrimSuffix(u.String(), "?")
	}
	proc, err := im.Import(endpoint, desc)
	if err != nil {
		return nil, &cwl.RegistrationError{Ref: rawURL, Reason: "cannot import remote process", Err: err}
	}
	return cwl.FromValue(proc.Package)
}
