// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/wps"
	"github.com/geoflow/geoflow/internal/wpsclient"
)

// WPS1Backend dispatches a run to a remote WPS 1.0 provider and tracks it to
// completion through the status poller.
type WPS1Backend struct {
	newClient func(endpoint string) *wpsclient.Client
	client    *http.Client
	outputDir string
	outputURL string
	logger    *slog.Logger
}

func NewWPS1Backend(newClient func(endpoint string) *wpsclient.Client, httpClient *http.Client, outputDir, outputURL string, logger *slog.Logger) *WPS1Backend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WPS1Backend{
		newClient: newClient,
		client:    httpClient,
		outputDir: outputDir,
		outputURL: outputURL,
		logger:    logger,
	}
}

func (b *WPS1Backend) Execute(ctx context.Context, run *Run) ([]model.JobResult, error) {
	return b.executeWith(ctx, run, nil)
}

// executeWith runs the dispatch, letting the caller configure the provider
// client first (the ESGF backend attaches its token header here).
func (b *WPS1Backend) executeWith(ctx context.Context, run *Run, configure func(*wpsclient.Client)) ([]model.JobResult, error) {
	if run.App == nil || run.App.Provider == "" || run.App.Process == "" {
		return nil, &ExecutionError{Code: "NoApplicableCode",
			Reason: "remote requirement without provider or process"}
	}
	client := b.newClient(run.App.Provider)
	if configure != nil {
		configure(client)
	}

	values := remoteValues(run)
	outputs := make([]wpsclient.ExecuteOutput, 0, len(run.Outputs))
	for _, desc := range run.Outputs {
		outputs = append(outputs, wpsclient.ExecuteOutput{
			ID:          desc.ID,
			AsReference: desc.Kind == iomodel.KindComplex,
		})
	}

	run.report(0, "dispatching to "+run.App.Provider)
	resp, err := client.Execute(ctx, run.App.Process, values, outputs)
	if err != nil {
		return nil, &ExecutionError{Code: "NoApplicableCode", Locator: run.App.Provider,
			Reason: "remote execute failed", Err: err}
	}

	sum := resp.Summary()
	if !sum.Status.IsTerminal() {
		if resp.StatusLocation == "" {
			return nil, &ExecutionError{Code: "NoApplicableCode", Locator: run.App.Provider,
				Reason: "remote accepted the job but returned no status location"}
		}
		poller := wpsclient.NewPoller(client, b.outputDir, b.outputURL, b.logger)
		resp, err = poller.Poll(ctx, resp.StatusLocation, func(s wps.StatusSummary) error {
			run.report(s.Progress, s.Message)
			return nil
		})
		if err != nil {
			return nil, &ExecutionError{Code: "NoApplicableCode", Locator: run.App.Provider,
				Reason: "lost track of remote execution", Err: err}
		}
		sum = resp.Summary()
	}

	if sum.Status != model.StatusSucceeded {
		exc := &ExecutionError{Code: "NoApplicableCode", Locator: run.App.Process,
			Reason: "remote process failed"}
		if len(sum.Exceptions) > 0 {
			exc.Code = sum.Exceptions[0].Code
			exc.Reason = sum.Exceptions[0].Text
		}
		return nil, exc
	}
	return b.collectRemote(ctx, run, resp.Outputs), nil
}

// remoteValues renders resolved inputs for the wire: literals inline,
// locations by reference.
func remoteValues(run *Run) []wpsclient.ExecuteValue {
	var values []wpsclient.ExecuteValue
	for _, in := range run.Inputs {
		for _, v := range in.Values {
			switch val := v.(type) {
			case Location:
				values = append(values, wpsclient.ExecuteValue{
					ID: in.Desc.ID, Href: val.Location, MimeType: val.Format,
				})
			default:
				values = append(values, wpsclient.ExecuteValue{
					ID: in.Desc.ID, Data: fmt.Sprint(val),
				})
			}
		}
	}
	return values
}

// collectRemote converts remote outputs to results, expanding
// application/json references whose body is an array of further references.
func (b *WPS1Backend) collectRemote(ctx context.Context, run *Run, outputs []wps.OutputData) []model.JobResult {
	var results []model.JobResult
	for _, out := range outputs {
		switch {
		case out.Reference != nil:
			ref := *out.Reference
			if ref.MimeType == "application/json" {
				if refs := b.expandJSONReferences(ctx, ref.Href); len(refs) > 0 {
					for _, href := range refs {
						results = append(results, model.JobResult{ID: out.Identifier, Href: href})
					}
					continue
				}
			}
			results = append(results, model.JobResult{
				ID: out.Identifier, Href: ref.Href, MimeType: ref.MimeType,
			})
		case out.Literal != nil:
			results = append(results, model.JobResult{ID: out.Identifier, Data: out.Literal.Value})
		case out.Complex != nil:
			results = append(results, model.JobResult{
				ID:       out.Identifier,
				Data:     strings.TrimSpace(out.Complex.Value),
				MimeType: out.Complex.MimeType,
			})
		}
	}
	return results
}

// expandJSONReferences fetches a JSON output and, when the body is an array
// of HTTP references (strings or {href} objects), returns them. Anything
// else returns nil and the original reference is kept.
func (b *WPS1Backend) expandJSONReferences(ctx context.Context, href string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil
	}
	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Debug("cannot fetch JSON output for unwrapping", "href", href, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	var entries []any
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil
	}
	var refs []string
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
				refs = append(refs, v)
			}
		case map[string]any:
			if h, ok := v["href"].(string); ok && h != "" {
				refs = append(refs, h)
			}
		}
	}
	if len(refs) != len(entries) {
		return nil
	}
	return refs
}
