// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/model"
)

func toolPackage(t *testing.T, tree map[string]any) *cwl.Package {
	t.Helper()
	doc, err := cwl.FromValue(tree)
	require.NoError(t, err)
	return &cwl.Package{Doc: doc, Steps: map[string]*cwl.Package{}}
}

func TestBuildArgvOrdersByPosition(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": []any{"convert"},
		"arguments":   []any{"-quiet"},
		"inputs": map[string]any{
			"image": map[string]any{"type": "File", "inputBinding": map[string]any{"position": float64(1)}},
			"scale": map[string]any{"type": "int", "inputBinding": map[string]any{
				"position": float64(2), "prefix": "-resize"}},
			"fast": map[string]any{"type": "boolean", "inputBinding": map[string]any{
				"position": float64(3), "prefix": "--fast"}},
			"ignored": map[string]any{"type": "string"},
		},
		"outputs": map[string]any{},
	})
	staged := map[string][]string{
		"image": {"inputs/a.tif"},
		"scale": {"50"},
		"fast":  {"true"},
	}
	argv, err := buildArgv(&Run{Package: pkg}, staged, "docker")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert", "-quiet", "inputs/a.tif", "-resize", "50", "--fast"}, argv)
}

func TestBuildArgvBooleanFalseOmitsFlag(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "tool",
		"inputs": map[string]any{
			"fast": map[string]any{"type": "boolean", "inputBinding": map[string]any{
				"position": float64(1), "prefix": "--fast"}},
		},
		"outputs": map[string]any{},
	})
	argv, err := buildArgv(&Run{Package: pkg}, map[string][]string{"fast": {"false"}}, "docker")
	require.NoError(t, err)
	assert.Equal(t, []string{"tool"}, argv)
}

func TestBuildArgvDockerWrapsTool(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "echo",
		"hints": map[string]any{
			"DockerRequirement": map[string]any{"dockerPull": "alpine:3"},
		},
		"inputs":  map[string]any{},
		"outputs": map[string]any{},
	})
	app, err := pkg.Doc.Application()
	require.NoError(t, err)
	argv, err := buildArgv(&Run{Package: pkg, App: app, WorkDir: "/tmp/job"}, nil, "podman")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"podman", "run", "--rm", "-v", "/tmp/job:/data", "-w", "/data", "alpine:3", "echo",
	}, argv)
}

func TestBuildArgvNoCommandFails(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion": "v1.0",
		"class":      "CommandLineTool",
		"inputs":     map[string]any{},
		"outputs":    map[string]any{},
	})
	_, err := buildArgv(&Run{Package: pkg}, nil, "docker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseCommand")
}

func TestCommandBackendCapturesStdout(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": []any{"echo", "-n"},
		"inputs": map[string]any{
			"message": map[string]any{"type": "string", "inputBinding": map[string]any{"position": float64(1)}},
		},
		"outputs": map[string]any{
			"result": map[string]any{"type": "string"},
		},
	})
	run := &Run{
		Job:     &model.Job{ID: "job-echo"},
		Package: pkg,
		Inputs: []ResolvedInput{
			{Desc: mustDesc(t, "message", map[string]any{"type": "string"}), Values: []any{"hello"}},
		},
		WorkDir: t.TempDir(),
	}

	b := NewCommandBackend("docker", nil, nil)
	results, err := b.Execute(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "result", results[0].ID)
	assert.Equal(t, "hello", results[0].Data)
}

func TestCommandBackendGlobCollectsFiles(t *testing.T) {
	dir := t.TempDir()
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": []any{"sh", "-c", "echo data > out.txt"},
		"inputs":      map[string]any{},
		"outputs": map[string]any{
			"output": map[string]any{"type": "File", "outputBinding": map[string]any{"glob": "out.txt"}},
		},
	})
	run := &Run{Job: &model.Job{ID: "job-glob"}, Package: pkg, WorkDir: dir}

	b := NewCommandBackend("docker", nil, nil)
	results, err := b.Execute(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "file://"+dir+"/out.txt", results[0].Href)
}

func TestCommandBackendMissingOutputFails(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "true",
		"inputs":      map[string]any{},
		"outputs": map[string]any{
			"output": map[string]any{"type": "File", "outputBinding": map[string]any{"glob": "missing.txt"}},
		},
	})
	b := NewCommandBackend("docker", nil, nil)
	_, err := b.Execute(context.Background(), &Run{Job: &model.Job{ID: "j"}, Package: pkg, WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file matching")
}

func TestCommandBackendPermanentFail(t *testing.T) {
	pkg := toolPackage(t, map[string]any{
		"cwlVersion":  "v1.0",
		"class":       "CommandLineTool",
		"baseCommand": "false",
		"inputs":      map[string]any{},
		"outputs":     map[string]any{},
	})
	b := NewCommandBackend("docker", nil, nil)
	_, err := b.Execute(context.Background(), &Run{Job: &model.Job{ID: "j"}, Package: pkg, WorkDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permanentFail")
}
