// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package wps

import (
	"strings"

	"github.com/geoflow/geoflow/internal/model"
)

// StatusSummary is the canonical view of a remote execute status document.
type StatusSummary struct {
	Status     model.Status
	Progress   int
	Message    string
	Exceptions []model.JobException
}

// Summary normalizes the decoded Status element. Succeeded implies 100%,
// failure collects the embedded exception report, and an empty element maps
// to unknown (treated as still running, never persisted as terminal).
func (r *ExecuteResponse) Summary() StatusSummary {
	st := r.Status
	switch {
	case st.ProcessSucceeded != nil:
		return StatusSummary{
			Status:   model.StatusSucceeded,
			Progress: 100,
			Message:  strings.TrimSpace(st.ProcessSucceeded.Message),
		}
	case st.ProcessFailed != nil:
		sum := StatusSummary{Status: model.StatusFailed, Message: "remote process failed"}
		if rep := st.ProcessFailed.ExceptionReport; rep != nil {
			for _, exc := range rep.Exceptions {
				for _, text := range exc.Texts {
					sum.Exceptions = append(sum.Exceptions, model.JobException{
						Code:    exc.Code,
						Locator: exc.Locator,
						Text:    strings.TrimSpace(text),
					})
				}
			}
			if len(sum.Exceptions) > 0 {
				sum.Message = sum.Exceptions[0].Text
			}
		}
		return sum
	case st.ProcessStarted != nil:
		return StatusSummary{
			Status:   model.StatusRunning,
			Progress: st.ProcessStarted.PercentCompleted,
			Message:  strings.TrimSpace(st.ProcessStarted.Message),
		}
	case st.ProcessPaused != nil:
		return StatusSummary{
			Status:   model.StatusRunning,
			Progress: st.ProcessPaused.PercentCompleted,
			Message:  strings.TrimSpace(st.ProcessPaused.Message),
		}
	case st.ProcessAccepted != nil:
		return StatusSummary{
			Status:  model.StatusAccepted,
			Message: strings.TrimSpace(st.ProcessAccepted.Message),
		}
	}
	return StatusSummary{Status: model.StatusUnknown}
}
