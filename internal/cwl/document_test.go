// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package cwl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const echoToolYAML = `
cwlVersion: v1.0
class: CommandLineTool
baseCommand: echo
inputs:
  msg:
    type: string
    inputBinding:
      position: 1
outputs:
  out:
    type: File
    outputBinding:
      glob: out.txt
`

func TestParseCommandLineToolYAML(t *testing.T) {
	doc, err := Parse([]byte(echoToolYAML))
	require.NoError(t, err)

	assert.Equal(t, ClassCommandLineTool, doc.Class)
	assert.Equal(t, []string{"echo"}, doc.BaseCommand)
	require.Contains(t, doc.Inputs, "msg")
	assert.Equal(t, "string", doc.Inputs["msg"]["type"])
	require.Contains(t, doc.Outputs, "out")
}

func TestParseListShapedSections(t *testing.T) {
	doc, err := Parse([]byte(`{
		"cwlVersion": "v1.0",
		"class": "CommandLineTool",
		"baseCommand": ["python", "run.py"],
		"inputs": [{"id": "n", "type": "int"}],
		"outputs": [],
		"requirements": [{"class": "DockerRequirement", "dockerPull": "alpine:3"}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "run.py"}, doc.BaseCommand)
	require.Contains(t, doc.Inputs, "n")
	require.Len(t, doc.Requirements, 1)
	assert.Equal(t, "DockerRequirement", doc.Requirements[0].Class)
	assert.Equal(t, "alpine:3", doc.Requirements[0].Params["dockerPull"])
}

func TestParseInputShorthandType(t *testing.T) {
	doc, err := Parse([]byte(`{"class": "CommandLineTool", "inputs": {"msg": "string"}, "outputs": {}}`))
	require.NoError(t, err)
	assert.Equal(t, "string", doc.Inputs["msg"]["type"])
}

func TestParseMissingClassRejected(t *testing.T) {
	_, err := Parse([]byte(`{"cwlVersion": "v1.0"}`))
	var te *TypeError
	require.True(t, errors.As(err, &te))
}

func TestParseUnknownClassRejected(t *testing.T) {
	_, err := Parse([]byte(`{"class": "Operation"}`))
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Reason, "Operation")
}

func TestParseWorkflowSteps(t *testing.T) {
	doc, err := Parse([]byte(`
class: Workflow
inputs:
  image: File
outputs:
  result:
    type: File
    outputSource: second/out
steps:
  first:
    run: tool-one
    in:
      tile: image
    out: [out]
  second:
    run: tool-two
    in:
      tile:
        source: first/out
    out: [out]
`))
	require.NoError(t, err)
	require.Len(t, doc.Steps, 2)
	assert.Equal(t, "tool-one", doc.Steps["first"].Run)
	assert.Equal(t, "first/out", doc.Steps["second"].In["tile"].Source)
	assert.Equal(t, []string{"out"}, doc.Steps["first"].Out)
}

func TestParseWorkflowWithoutStepsRejected(t *testing.T) {
	_, err := Parse([]byte(`{"class": "Workflow", "inputs": {}, "outputs": {}}`))
	var re *RegistrationError
	require.True(t, errors.As(err, &re))
}

func TestApplicationSelection(t *testing.T) {
	doc, err := Parse([]byte(`{
		"class": "CommandLineTool",
		"hints": {"WPS1Requirement": {"provider": "https://wps.example.org/wps", "process": "getdata"}},
		"inputs": {}, "outputs": {}
	}`))
	require.NoError(t, err)

	app, err := doc.Application()
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, RequirementWPS1, app.Class)
	assert.Equal(t, "https://wps.example.org/wps", app.Provider)
	assert.Equal(t, "getdata", app.Process)
}

func TestApplicationPrefixedClass(t *testing.T) {
	doc, err := Parse([]byte(`{
		"class": "CommandLineTool",
		"hints": [{"class": "custom:ESGF-CWTRequirement", "provider": "https://esgf.example.org", "process": "subset", "api_key": "k"}],
		"inputs": {}, "outputs": {}
	}`))
	require.NoError(t, err)

	app, err := doc.Application()
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, RequirementESGF, app.Class)
	assert.Equal(t, "k", app.APIKey)
}

func TestApplicationConflictRejected(t *testing.T) {
	doc, err := Parse([]byte(`{
		"class": "CommandLineTool",
		"requirements": {"DockerRequirement": {"dockerPull": "alpine:3"}},
		"hints": {"WPS1Requirement": {"provider": "x", "process": "y"}},
		"inputs": {}, "outputs": {}
	}`))
	require.NoError(t, err)

	_, err = doc.Application()
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Contains(t, te.Reason, "conflicting")
}

func TestApplicationNoneIsNil(t *testing.T) {
	doc, err := Parse([]byte(echoToolYAML))
	require.NoError(t, err)
	app, err := doc.Application()
	require.NoError(t, err)
	assert.Nil(t, app)
}
