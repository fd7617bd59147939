// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"

	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/wpsclient"
)

// ESGF compute endpoints authenticate with an api key header on every
// request.
const esgfTokenHeader = "COMPUTE-TOKEN"

// ESGFBackend dispatches to an ESGF-CWT provider: WPS 1.0 transport plus the
// token header from the package requirement.
type ESGFBackend struct {
	wps1 *WPS1Backend
}

func NewESGFBackend(wps1 *WPS1Backend) *ESGFBackend {
	return &ESGFBackend{wps1: wps1}
}

func (b *ESGFBackend) Execute(ctx context.Context, run *Run) ([]model.JobResult, error) {
	return b.wps1.executeWith(ctx, run, func(c *wpsclient.Client) {
		if run.App.APIKey != "" {
			c.SetHeader(esgfTokenHeader, run.App.APIKey)
		}
	})
}
