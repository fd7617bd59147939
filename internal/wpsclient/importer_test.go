// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wpsclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

func TestBuildProcessID(t *testing.T) {
	id, err := BuildProcessID("https://wps.example.org/ows/wps", "getdata")
	require.NoError(t, err)
	assert.Equal(t, "wps_example_org_getdata", id)
}

func TestImportRemoteProcess(t *testing.T) {
	desc, err := ParseProcessDescription([]byte(describeProcessBody))
	require.NoError(t, err)

	im := NewImporter(nil)
	proc, err := im.Import("https://wps.example.org/wps", desc)
	require.NoError(t, err)

	assert.Equal(t, "wps_example_org_getdata", proc.ID)
	assert.Equal(t, model.ProcessTypeRemoteWPS, proc.Type)
	assert.Equal(t, "Get Data", proc.Title)
	require.Len(t, proc.Inputs, 1)
	assert.Equal(t, "level", proc.Inputs[0][iomodel.FieldIdentifier])
	assert.Equal(t, iomodel.TypeInteger, proc.Inputs[0][iomodel.FieldDataType])
	require.Len(t, proc.Outputs, 1)

	// The synthesized package loads and carries exactly the WPS-1 hint.
	doc, err := cwl.FromValue(proc.Package)
	require.NoError(t, err)
	assert.Equal(t, cwl.ClassCommandLineTool, doc.Class)

	app, err := doc.Application()
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, cwl.RequirementWPS1, app.Class)
	assert.Equal(t, "https://wps.example.org/wps", app.Provider)
	assert.Equal(t, "getdata", app.Process)
}

func TestImportRoundTripPreservesIO(t *testing.T) {
	desc, err := ParseProcessDescription([]byte(describeProcessBody))
	require.NoError(t, err)

	im := NewImporter(nil)
	proc, err := im.Import("https://wps.example.org/wps", desc)
	require.NoError(t, err)

	doc, err := cwl.FromValue(proc.Package)
	require.NoError(t, err)

	// Package inputs elevate back to the same canonical types.
	in, err := iomodel.FromCWL("level", doc.Inputs["level"], false)
	require.NoError(t, err)
	assert.Equal(t, iomodel.KindLiteral, in.Kind)
	assert.Equal(t, iomodel.TypeInteger, in.DataType)

	out, err := iomodel.FromCWL("output", doc.Outputs["output"], true)
	require.NoError(t, err)
	assert.Equal(t, iomodel.KindComplex, out.Kind)
	f, ok := out.DefaultFormat()
	require.True(t, ok)
	assert.Equal(t, "application/json", f.MimeType)
}

func TestPackageFromXMLStripsQuery(t *testing.T) {
	im := NewImporter(nil)
	doc, err := im.PackageFromXML(context.Background(),
		"https://wps.example.org/wps?service=WPS&request=DescribeProcess&identifier=getdata",
		[]byte(describeProcessBody))
	require.NoError(t, err)

	app, err := doc.Application()
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "https://wps.example.org/wps", app.Provider)
}
