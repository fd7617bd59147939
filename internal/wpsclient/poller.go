// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wpsclient

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/wps"
)

// waitScheduleSecs is the poll back-off ladder: five polls at each rung,
// then every 30 seconds indefinitely.
var waitScheduleSecs = []int{
	2, 2, 2, 2, 2,
	5, 5, 5, 5, 5,
	10, 10, 10, 10, 10,
	20, 20, 20, 20, 20,
	30,
}

// WaitDuration returns the delay before poll attempt n (zero-based).
func WaitDuration(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(waitScheduleSecs) {
		attempt = len(waitScheduleSecs) - 1
	}
	return time.Duration(waitScheduleSecs[attempt]) * time.Second
}

// Poller tracks a remote execution until it reaches a terminal state.
// Status locations under the configured output URL fall back to the shared
// output volume when the HTTP fetch fails.
type Poller struct {
	client    *Client
	outputDir string
	outputURL string
	logger    *slog.Logger
}

func NewPoller(client *Client, outputDir, outputURL string, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, outputDir: outputDir, outputURL: outputURL, logger: logger}
}

// Poll fetches the status document on the back-off schedule, invoking
// update after every parse, until the remote reports a terminal state.
// Unknown status is treated as still running and never forwarded.
func (p *Poller) Poll(ctx context.Context, statusLocation string, update func(wps.StatusSummary) error) (*wps.ExecuteResponse, error) {
	for attempt := 0; ; attempt++ {
		timer := time.NewTimer(WaitDuration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		resp, err := p.client.FetchStatus(ctx, statusLocation)
		if err != nil {
			p.logger.Debug("status fetch failed, trying local file", "location", statusLocation, "error", err)
			resp, err = p.localStatus(statusLocation)
			if err != nil {
				return nil, fmt.Errorf("cannot monitor remote execution: %w", err)
			}
		}

		sum := resp.Summary()
		if sum.Status == model.StatusUnknown {
			p.logger.Debug("remote status unknown, still polling", "location", statusLocation)
			continue
		}
		if update != nil {
			if err := update(sum); err != nil {
				return resp, err
			}
		}
		if sum.Status.IsTerminal() {
			return resp, nil
		}
	}
}

// localStatus maps a status URL under the output base URL onto the shared
// output directory and parses the file directly.
func (p *Poller) localStatus(statusLocation string) (*wps.ExecuteResponse, error) {
	if p.outputURL == "" || !strings.HasPrefix(statusLocation, p.outputURL) {
		return nil, fmt.Errorf("status location %s is not under the output volume", statusLocation)
	}
	rel := strings.TrimPrefix(statusLocation, p.outputURL)
	rel = strings.TrimPrefix(rel, "/")
	path := filepath.Join(p.outputDir, filepath.FromSlash(rel))

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read local status file %s: %w", path, err)
	}
	var resp wps.ExecuteResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid local status file %s: %w", path, err)
	}
	return &resp, nil
}
