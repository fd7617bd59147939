// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/model"
)

func step(id string, sources map[string]string) cwl.Step {
	s := cwl.Step{ID: id, Run: "unused", In: map[string]cwl.StepInput{}, Out: []string{"output"}}
	for name, src := range sources {
		s.In[name] = cwl.StepInput{Source: src}
	}
	return s
}

func TestTopoLevelsChain(t *testing.T) {
	steps := map[string]cwl.Step{
		"a": step("a", map[string]string{"in": "message"}),
		"b": step("b", map[string]string{"in": "a/output"}),
		"c": step("c", map[string]string{"in": "b/output"}),
	}
	levels, err := topoLevels(steps)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, levels)
}

func TestTopoLevelsDiamondRunsMiddleInParallel(t *testing.T) {
	steps := map[string]cwl.Step{
		"src":   step("src", map[string]string{"in": "message"}),
		"left":  step("left", map[string]string{"in": "src/output"}),
		"right": step("right", map[string]string{"in": "src/output"}),
		"sink":  step("sink", map[string]string{"l": "left/output", "r": "right/output"}),
	}
	levels, err := topoLevels(steps)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"src"}, {"left", "right"}, {"sink"}}, levels)
}

func TestTopoLevelsCycleRejected(t *testing.T) {
	steps := map[string]cwl.Step{
		"a": step("a", map[string]string{"in": "b/output"}),
		"b": step("b", map[string]string{"in": "a/output"}),
	}
	_, err := topoLevels(steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
	assert.Contains(t, err.Error(), "a, b")
}

func TestSplitSource(t *testing.T) {
	s, o, ok := splitSource("resize/scaled")
	require.True(t, ok)
	assert.Equal(t, "resize", s)
	assert.Equal(t, "scaled", o)

	_, _, ok = splitSource("message")
	assert.False(t, ok)
	_, _, ok = splitSource("/x")
	assert.False(t, ok)
	_, _, ok = splitSource("x/")
	assert.False(t, ok)
}

func TestWorkflowOutputsMapping(t *testing.T) {
	doc := &cwl.Document{
		Outputs: map[string]map[string]any{
			"final": {"outputSource": "sink/output", "type": "File"},
		},
	}
	results := map[string][]model.JobResult{
		"sink": {{ID: "output", Href: "file:///out/result.tif", MimeType: "image/tiff"}},
	}
	out, err := workflowOutputs(doc, results)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "final", out[0].ID)
	assert.Equal(t, "file:///out/result.tif", out[0].Href)
}

func TestWorkflowOutputsMissingSourceFails(t *testing.T) {
	doc := &cwl.Document{
		Outputs: map[string]map[string]any{
			"final": {"outputSource": "sink/output", "type": "File"},
		},
	}
	_, err := workflowOutputs(doc, map[string][]model.JobResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced nothing")
}

func TestStepInputsFromWorkflowAndUpstream(t *testing.T) {
	st := cwl.Step{
		ID:  "resize",
		Run: "unused",
		In: map[string]cwl.StepInput{
			"image": {Source: "fetch/output"},
			"scale": {Source: "factor"},
		},
	}
	doc := &cwl.Document{
		Inputs: map[string]map[string]any{
			"image": {"type": "File"},
			"scale": {"type": "int"},
		},
	}
	run := &Run{
		Inputs: []ResolvedInput{
			{Desc: mustDesc(t, "factor", map[string]any{"type": "int"}), Values: []any{2}},
		},
	}
	upstream := map[string][]model.JobResult{
		"fetch": {{ID: "output", Href: "https://data.example.org/a.tif", MimeType: "image/tiff"}},
	}

	inputs, err := stepInputs(st, doc, run, upstream)
	require.NoError(t, err)
	require.Len(t, inputs, 2)

	byID := map[string]ResolvedInput{}
	for _, in := range inputs {
		byID[in.Desc.ID] = in
	}
	loc, ok := byID["image"].Values[0].(Location)
	require.True(t, ok)
	assert.Equal(t, "https://data.example.org/a.tif", loc.Location)
	assert.Equal(t, "image/tiff", loc.Format)
	assert.Equal(t, []any{2}, byID["scale"].Values)
}

func TestStepInputsMissingUpstreamValueFails(t *testing.T) {
	st := cwl.Step{
		ID:  "resize",
		Run: "unused",
		In:  map[string]cwl.StepInput{"image": {Source: "fetch/output"}},
	}
	doc := &cwl.Document{Inputs: map[string]map[string]any{"image": {"type": "File"}}}

	_, err := stepInputs(st, doc, &Run{}, map[string][]model.JobResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no value")
}
