// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

func newTestDispatcher() *Dispatcher {
	command := NewCommandBackend("docker", nil, nil)
	wps1 := NewWPS1Backend(nil, nil, "", "", nil)
	return NewDispatcher(DispatcherOptions{
		Command: command,
		Builtin: NewBuiltinBackend("/opt/geoflow/builtins", command),
		WPS1:    wps1,
		ESGF:    NewESGFBackend(wps1),
	})
}

func TestBackendSelection(t *testing.T) {
	d := newTestDispatcher()

	tests := []struct {
		name  string
		hints map[string]any
		want  Backend
		class string
	}{
		{name: "plain tool runs locally", hints: nil, want: d.command},
		{name: "docker hint runs locally",
			hints: map[string]any{"DockerRequirement": map[string]any{"dockerPull": "alpine:3"}},
			want:  d.command, class: cwl.RequirementDocker},
		{name: "builtin hint",
			hints: map[string]any{"BuiltinRequirement": map[string]any{"process": "metadata"}},
			want:  d.builtin, class: cwl.RequirementBuiltin},
		{name: "wps1 hint",
			hints: map[string]any{"WPS1Requirement": map[string]any{
				"provider": "https://wps.example.org/wps", "process": "getdata"}},
			want: d.wps1, class: cwl.RequirementWPS1},
		{name: "esgf hint",
			hints: map[string]any{"ESGF-CWTRequirement": map[string]any{
				"provider": "https://esgf.example.org/wps", "process": "subset", "api_key": "k"}},
			want: d.esgf, class: cwl.RequirementESGF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := map[string]any{
				"cwlVersion":  "v1.0",
				"class":       "CommandLineTool",
				"baseCommand": "run",
				"inputs":      map[string]any{},
				"outputs":     map[string]any{},
			}
			if tt.hints != nil {
				tree["hints"] = tt.hints
			}
			doc, err := cwl.FromValue(tree)
			require.NoError(t, err)

			backend, app, err := d.backendFor(doc)
			require.NoError(t, err)
			assert.Same(t, tt.want, backend)
			if tt.class == "" {
				assert.Nil(t, app)
			} else {
				require.NotNil(t, app)
				assert.Equal(t, tt.class, app.Class)
			}
		})
	}
}

func TestBackendSelectionConflictingHints(t *testing.T) {
	doc, err := cwl.FromValue(map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "run",
		"hints": map[string]any{
			"DockerRequirement": map[string]any{"dockerPull": "alpine:3"},
			"WPS1Requirement":   map[string]any{"provider": "https://wps.example.org", "process": "p"},
		},
		"inputs":  map[string]any{},
		"outputs": map[string]any{},
	})
	require.NoError(t, err)

	_, _, err = newTestDispatcher().backendFor(doc)
	require.Error(t, err)
	var typeErr *cwl.TypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestBackendSelectionExpressionToolRejected(t *testing.T) {
	doc, err := cwl.FromValue(map[string]any{
		"cwlVersion": "v1.0",
		"class":      "ExpressionTool",
		"inputs":     map[string]any{},
		"outputs":    map[string]any{},
	})
	require.NoError(t, err)

	_, _, err = newTestDispatcher().backendFor(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expression tools")
}

func TestExecuteSkipsDismissedJob(t *testing.T) {
	tracker, jobs, _ := newTestTracker(t)
	job := newTrackedJob(t, jobs)
	ctx := context.Background()

	now := time.Now().UTC()
	dismissed := *job
	dismissed.Status = model.StatusDismissed
	dismissed.Message = "Job dismissed"
	dismissed.FinishedAt = &now
	require.NoError(t, jobs.Update(ctx, &dismissed))

	d := NewDispatcher(DispatcherOptions{Tracker: tracker})
	d.Execute(ctx, job)

	// The late worker must not resurrect the dismissed record.
	stored, err := jobs.Fetch(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDismissed, stored.Status)
	assert.Equal(t, "Job dismissed", stored.Message)
}

func TestExceptionClassification(t *testing.T) {
	exc := exceptionFor(&ExecutionError{Code: "MissingParameterValue", Locator: "message", Reason: "required"})
	assert.Equal(t, "MissingParameterValue", exc.Code)
	assert.Equal(t, "message", exc.Locator)

	exc = exceptionFor(&cwl.NotFoundError{Ref: "does-not-exist"})
	assert.Equal(t, "InvalidParameterValue", exc.Code)
	assert.Equal(t, "does-not-exist", exc.Locator)

	exc = exceptionFor(assertAnError())
	assert.Equal(t, "NoApplicableCode", exc.Code)
}

func assertAnError() error {
	return &cwl.RegistrationError{Reason: "boom"}
}

func TestPublicURLMapping(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{OutputDir: "/var/geoflow/outputs", OutputURL: "http://localhost/outputs"})

	assert.Equal(t, "http://localhost/outputs/job-1/out.txt",
		d.publicURL("file:///var/geoflow/outputs/job-1/out.txt"))
	assert.Equal(t, "file:///elsewhere/out.txt", d.publicURL("file:///elsewhere/out.txt"))
	assert.Equal(t, "https://remote/out.txt", d.publicURL("https://remote/out.txt"))
}

func TestCollectResults(t *testing.T) {
	d := NewDispatcher(DispatcherOptions{OutputDir: "/out", OutputURL: "http://localhost/outputs"})
	run := &Run{
		Outputs: []*iomodel.Description{
			mustDesc(t, "report", map[string]any{
				"type": "File", "format": "https://www.iana.org/assignments/media-types/application/json",
			}),
			mustDesc(t, "count", map[string]any{"type": "int"}),
		},
	}

	results := d.collectResults(run, []model.JobResult{
		{ID: "report", Href: "file:///out/job-1/report.json"},
		{ID: "count", Data: []any{float64(4)}},
	})
	require.Len(t, results, 2)

	// File reference mapped to the public URL, mime from the default format.
	assert.Equal(t, "http://localhost/outputs/job-1/report.json", results[0].Href)
	assert.Equal(t, "application/json", results[0].MimeType)

	// A single-valued list declared as a scalar is unwrapped.
	assert.Equal(t, float64(4), results[1].Data)
}
