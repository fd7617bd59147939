// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/iomodel"
)

func mustDesc(t *testing.T, id string, def map[string]any) *iomodel.Description {
	t.Helper()
	d, err := iomodel.FromCWL(id, def, false)
	require.NoError(t, err)
	return d
}
