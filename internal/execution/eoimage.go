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
	"net/url"
	"strconv"

	"github.com/geoflow/geoflow/internal/iomodel"
)

// EO-image inputs are declared through an additionalParameters entry naming
// this parameter.
const eoImageParameter = "EOImage"

// isEOImage reports whether the input declares the EO-image convention: its
// value is an AOI/TOI/collection query resolved against the catalogue before
// dispatch.
func isEOImage(d *iomodel.Description) bool {
	for _, entry := range d.AdditionalParameters {
		if v, ok := entry[eoImageParameter]; ok && truthy(v) {
			return true
		}
		params, ok := entry["parameters"].([]any)
		if !ok {
			continue
		}
		for _, p := range params {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := pm["name"].(string); name != eoImageParameter {
				continue
			}
			if values, ok := pm["values"].([]any); ok && len(values) > 0 && truthy(values[0]) {
				return true
			}
		}
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

// EOQuery is one catalogue search: a collection, an area of interest and a
// time of interest.
type EOQuery struct {
	Collection string
	BBox       string
	StartDate  string
	EndDate    string
}

// parseEOQuery reads a submitted EO-image input value.
func parseEOQuery(value any) (EOQuery, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return EOQuery{}, &ExecutionError{
			Code:   "InvalidParameterValue",
			Reason: fmt.Sprintf("EO-image input must be a query object, got %T", value),
		}
	}
	pick := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
		return ""
	}
	q := EOQuery{
		Collection: pick("collection", "id", "parentIdentifier"),
		BBox:       pick("bbox", "aoi"),
		StartDate:  pick("startDate", "start", "toi_start"),
		EndDate:    pick("endDate", "end", "toi_end"),
	}
	if q.Collection == "" {
		return EOQuery{}, &ExecutionError{
			Code:   "MissingParameterValue",
			Reason: "EO-image query without a collection",
		}
	}
	return q, nil
}

// EOResolver queries an OpenSearch EO catalogue and returns the download
// references of matching products.
type EOResolver struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewEOResolver(endpoint string, client *http.Client, logger *slog.Logger) *EOResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EOResolver{endpoint: endpoint, client: client, logger: logger}
}

// Resolve runs one catalogue search, returning at most limit file
// references (limit <= 0 means no bound).
func (r *EOResolver) Resolve(ctx context.Context, q EOQuery, limit int) ([]string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return nil, &ExecutionError{Reason: "invalid catalogue endpoint", Err: err}
	}
	query := u.Query()
	query.Set("parentIdentifier", q.Collection)
	if q.BBox != "" {
		query.Set("bbox", q.BBox)
	}
	if q.StartDate != "" {
		query.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		query.Set("completionDate", q.EndDate)
	}
	if limit > 0 {
		query.Set("maximumRecords", strconv.Itoa(limit))
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ExecutionError{Reason: "invalid catalogue request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &ExecutionError{Code: "NoApplicableCode", Reason: "catalogue unreachable", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ExecutionError{Reason: fmt.Sprintf("catalogue returned status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExecutionError{Reason: "cannot read catalogue response", Err: err}
	}

	refs, err := parseEOResults(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	r.logger.Debug("resolved EO-image query",
		"collection", q.Collection, "matches", len(refs))
	return refs, nil
}

// parseEOResults extracts product download URLs from a GeoJSON feature
// collection: properties.services.download.url, falling back to the first
// data link.
func parseEOResults(body []byte) ([]string, error) {
	var doc struct {
		Features []struct {
			Properties struct {
				Services struct {
					Download struct {
						URL string `json:"url"`
					} `json:"download"`
				} `json:"services"`
				Links struct {
					Data []struct {
						Href string `json:"href"`
					} `json:"data"`
				} `json:"links"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ExecutionError{Reason: "catalogue response is not a feature collection", Err: err}
	}
	var refs []string
	for _, f := range doc.Features {
		switch {
		case f.Properties.Services.Download.URL != "":
			refs = append(refs, f.Properties.Services.Download.URL)
		case len(f.Properties.Links.Data) > 0 && f.Properties.Links.Data[0].Href != "":
			refs = append(refs, f.Properties.Links.Data[0].Href)
		}
	}
	return refs, nil
}
