// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/model"
)

func TestDeployRequestProcessSubtree(t *testing.T) {
	wrapped := &DeployProcessRequest{
		ProcessDescription: map[string]any{
			"process": map[string]any{"id": "Echo"},
		},
	}
	assert.Equal(t, "Echo", wrapped.ProcessID())

	flat := &DeployProcessRequest{
		ProcessDescription: map[string]any{"identifier": "Echo"},
	}
	assert.Equal(t, "Echo", flat.ProcessID())
}

func TestPackageReferenceInlineUnit(t *testing.T) {
	unit := map[string]any{"cwlVersion": "v1.0", "class": "CommandLineTool"}
	req := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{"id": "Echo"}},
		ExecutionUnit:      []ExecutionUnit{{Unit: unit}},
	}

	ref, err := req.PackageReference()
	require.NoError(t, err)
	assert.Equal(t, unit, ref)
}

func TestPackageReferenceHref(t *testing.T) {
	req := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{"id": "Echo"}},
		ExecutionUnit:      []ExecutionUnit{{Href: "http://packages.local/echo.cwl"}},
	}

	ref, err := req.PackageReference()
	require.NoError(t, err)
	assert.Equal(t, "http://packages.local/echo.cwl", ref)
}

func TestPackageReferenceOWSContext(t *testing.T) {
	req := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{
			"id": "Echo",
			"owsContext": map[string]any{
				"offering": map[string]any{
					"content": map[string]any{"href": "http://packages.local/echo.cwl"},
				},
			},
		}},
	}

	ref, err := req.PackageReference()
	require.NoError(t, err)
	assert.Equal(t, "http://packages.local/echo.cwl", ref)
}

func TestPackageReferenceConflict(t *testing.T) {
	req := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{
			"id": "Echo",
			"owsContext": map[string]any{
				"offering": map[string]any{
					"content": map[string]any{"href": "http://packages.local/echo.cwl"},
				},
			},
		}},
		ExecutionUnit: []ExecutionUnit{{Unit: map[string]any{"class": "CommandLineTool"}}},
	}

	_, err := req.PackageReference()
	assert.ErrorIs(t, err, ErrConflictingPackageRef)
}

func TestPackageReferenceMissing(t *testing.T) {
	req := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{"id": "Echo"}},
	}
	_, err := req.PackageReference()
	assert.ErrorIs(t, err, ErrNoExecutionUnit)

	empty := &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{"id": "Echo"}},
		ExecutionUnit:      []ExecutionUnit{{}},
	}
	_, err = empty.PackageReference()
	assert.ErrorIs(t, err, ErrEmptyExecutionUnit)
}

func TestDeployRequestValidate(t *testing.T) {
	req := &DeployProcessRequest{}
	assert.ErrorIs(t, req.Validate(), ErrNoProcessDescription)

	req = &DeployProcessRequest{
		ProcessDescription: map[string]any{"process": map[string]any{"id": "Echo"}},
		ExecutionUnit:      []ExecutionUnit{{Unit: map[string]any{"class": "CommandLineTool"}}},
	}
	assert.NoError(t, req.Validate())
}

func TestExecuteRequestSanitize(t *testing.T) {
	req := &ExecuteRequest{
		Mode:   " SYNC ",
		Inputs: []ExecuteInput{{ID: " message "}},
		Tags:   []string{" batch ", "", "daily"},
	}
	req.Sanitize()

	assert.Equal(t, "sync", req.Mode)
	assert.Equal(t, "message", req.Inputs[0].ID)
	assert.Equal(t, []string{"batch", "daily"}, req.Tags)
}

func TestRegisterProviderValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterProviderRequest
		wantErr bool
	}{
		{"valid wps", RegisterProviderRequest{ID: "hummingbird", URL: "https://wps.example.org/wps"}, false},
		{"valid esgf", RegisterProviderRequest{ID: "esgf", URL: "https://cwt.example.org", Type: "esgf-cwt"}, false},
		{"missing id", RegisterProviderRequest{URL: "https://wps.example.org"}, true},
		{"missing url", RegisterProviderRequest{ID: "hummingbird"}, true},
		{"bad scheme", RegisterProviderRequest{ID: "hummingbird", URL: "ftp://wps.example.org"}, true},
		{"bad type", RegisterProviderRequest{ID: "hummingbird", URL: "https://wps.example.org", Type: "wcs"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Sanitize()
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterProviderServiceType(t *testing.T) {
	req := RegisterProviderRequest{}
	assert.Equal(t, model.ServiceTypeWPS, req.ServiceType())

	req.Type = "esgf-cwt"
	assert.Equal(t, model.ServiceTypeESGF, req.ServiceType())
}
