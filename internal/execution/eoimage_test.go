// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEOImage(t *testing.T) {
	plain := mustDesc(t, "image", map[string]any{"type": "File"})
	assert.False(t, isEOImage(plain))

	flagged := mustDesc(t, "image", map[string]any{"type": "File"})
	flagged.AdditionalParameters = []map[string]any{{"EOImage": "true"}}
	assert.True(t, isEOImage(flagged))

	nested := mustDesc(t, "image", map[string]any{"type": "File"})
	nested.AdditionalParameters = []map[string]any{{
		"role": "http://www.opengis.net/eoc/applicationContext/inputMetadata",
		"parameters": []any{
			map[string]any{"name": "EOImage", "values": []any{"true"}},
		},
	}}
	assert.True(t, isEOImage(nested))
}

func TestParseEOQuery(t *testing.T) {
	q, err := parseEOQuery(map[string]any{
		"collection": "S2MSI1C",
		"aoi":        "10.4,45.0,11.2,45.8",
		"start":      "2025-01-01T00:00:00Z",
		"end":        "2025-01-31T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "S2MSI1C", q.Collection)
	assert.Equal(t, "10.4,45.0,11.2,45.8", q.BBox)
	assert.Equal(t, "2025-01-01T00:00:00Z", q.StartDate)

	_, err = parseEOQuery(map[string]any{"bbox": "0,0,1,1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection")

	_, err = parseEOQuery("not-a-query")
	require.Error(t, err)
}

func TestEOResolverResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "S2MSI1C", r.URL.Query().Get("parentIdentifier"))
		assert.Equal(t, "2", r.URL.Query().Get("maximumRecords"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"features": [
			{"properties": {"services": {"download": {"url": "https://cat.example.org/p1.zip"}}}},
			{"properties": {"links": {"data": [{"href": "https://cat.example.org/p2.zip"}]}}},
			{"properties": {}}
		]}`)
	}))
	defer srv.Close()

	r := NewEOResolver(srv.URL, srv.Client(), nil)
	refs, err := r.Resolve(context.Background(), EOQuery{Collection: "S2MSI1C"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cat.example.org/p1.zip",
		"https://cat.example.org/p2.zip",
	}, refs)
}

func TestEOResolverErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewEOResolver(srv.URL, srv.Client(), nil)
	_, err := r.Resolve(context.Background(), EOQuery{Collection: "X"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}
