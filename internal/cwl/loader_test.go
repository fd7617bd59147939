// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package cwl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapResolver resolves step process ids from a fixed map, failing loudly on
// anything unexpected.
type mapResolver struct {
	packages map[string]map[string]any
}

func (r *mapResolver) PackageFor(_ context.Context, id string) (map[string]any, error) {
	pkg, ok := r.packages[id]
	if !ok {
		return nil, fmt.Errorf("no package for %q", id)
	}
	return pkg, nil
}

func echoTool() map[string]any {
	return map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "echo",
		"inputs":      map[string]any{"msg": "string"},
		"outputs":     map[string]any{},
	}
}

func TestLoadLiteralDocument(t *testing.T) {
	l := NewLoader(nil, nil, nil, nil)
	pkg, err := l.Load(context.Background(), echoTool())
	require.NoError(t, err)
	assert.Equal(t, ClassCommandLineTool, pkg.Doc.Class)
	assert.Empty(t, pkg.Steps)
}

func TestLoadFileDisallowedExtension(t *testing.T) {
	l := NewLoader(nil, nil, nil, nil)
	_, err := l.LoadReference(context.Background(), "package.txt")
	var re *RegistrationError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.Reason, "extension")
}

func TestLoadFileMissing(t *testing.T) {
	l := NewLoader(nil, nil, nil, nil)
	_, err := l.LoadReference(context.Background(), filepath.Join(t.TempDir(), "nope.cwl"))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.cwl")
	require.NoError(t, os.WriteFile(path, []byte(echoToolYAML), 0o644))

	l := NewLoader(nil, nil, nil, nil)
	doc, err := l.LoadReference(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, doc.BaseCommand)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cwlVersion": "v1.0", "class": "CommandLineTool", "baseCommand": "true", "inputs": {}, "outputs": {}}`)
	}))
	defer srv.Close()

	l := NewLoader(srv.Client(), nil, nil, nil)
	doc, err := l.LoadReference(context.Background(), srv.URL+"/pkg.cwl")
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, doc.BaseCommand)
}

func TestLoadURLOWSContextIndirection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/desc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"process": {"owsContext": {"offering": {"content": {"href": "http://%s/pkg.cwl"}}}}}`, r.Host)
	})
	mux.HandleFunc("/pkg.cwl", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cwlVersion": "v1.0", "class": "CommandLineTool", "baseCommand": "echo", "inputs": {}, "outputs": {}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := NewLoader(srv.Client(), nil, nil, nil)
	doc, err := l.LoadReference(context.Background(), srv.URL+"/desc.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo"}, doc.BaseCommand)
}

func TestLoadURLNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := NewLoader(srv.Client(), nil, nil, nil)
	_, err := l.LoadReference(context.Background(), srv.URL+"/gone.cwl")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
}

func TestResolveWorkflowSteps(t *testing.T) {
	resolver := &mapResolver{packages: map[string]map[string]any{
		"tool-one": echoTool(),
		"tool-two": echoTool(),
	}}
	workflow := map[string]any{
		"cwlVersion": "v1.0",
		"class":      "Workflow",
		"inputs":     map[string]any{"image": "File"},
		"outputs":    map[string]any{},
		"steps": map[string]any{
			"first":  map[string]any{"run": "tool-one", "in": map[string]any{"msg": "image"}, "out": []any{"out"}},
			"second": map[string]any{"run": "tool-two", "in": map[string]any{"msg": "first/out"}, "out": []any{"out"}},
			"third":  map[string]any{"run": "tool-one", "in": map[string]any{"msg": "second/out"}, "out": []any{"out"}},
		},
	}

	l := NewLoader(nil, resolver, nil, nil)
	pkg, err := l.Load(context.Background(), workflow)
	require.NoError(t, err)
	require.Len(t, pkg.Steps, 3)

	// Diamond sharing: the two steps running tool-one share one sub-package.
	assert.Same(t, pkg.Steps["first"], pkg.Steps["third"])
	assert.NotSame(t, pkg.Steps["first"], pkg.Steps["second"])
}

func TestResolveWorkflowMissingStepProcess(t *testing.T) {
	resolver := &mapResolver{packages: map[string]map[string]any{}}
	workflow := map[string]any{
		"class":   "Workflow",
		"inputs":  map[string]any{},
		"outputs": map[string]any{},
		"steps": map[string]any{
			"only": map[string]any{"run": "does-not-exist", "in": map[string]any{}, "out": []any{"out"}},
		},
	}

	l := NewLoader(nil, resolver, nil, nil)
	_, err := l.Load(context.Background(), workflow)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "does-not-exist", nf.Ref)
}

func TestResolveInlineStepRun(t *testing.T) {
	workflow := map[string]any{
		"class":   "Workflow",
		"inputs":  map[string]any{"msg": "string"},
		"outputs": map[string]any{},
		"steps": map[string]any{
			"inline": map[string]any{"run": echoTool(), "in": map[string]any{"msg": "msg"}, "out": []any{"out"}},
		},
	}
	l := NewLoader(nil, nil, nil, nil)
	pkg, err := l.Load(context.Background(), workflow)
	require.NoError(t, err)
	assert.Equal(t, ClassCommandLineTool, pkg.Steps["inline"].Doc.Class)
}
