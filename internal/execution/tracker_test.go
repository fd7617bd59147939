// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.JobStore, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "geoflow.db"), nil)
	require.NoError(t, err)
	jobs := storage.NewJobStore(db)
	outputDir := filepath.Join(dir, "outputs")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	return NewTracker(jobs, outputDir, "http://localhost/outputs", nil), jobs, outputDir
}

func newTrackedJob(t *testing.T, jobs *storage.JobStore) *model.Job {
	t.Helper()
	job := &model.Job{
		ID:        "job-1",
		ProcessID: "echo",
		Status:    model.StatusAccepted,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, jobs.Create(context.Background(), job))
	return job
}

func TestBeginMarksRunningAndWritesStatusFile(t *testing.T) {
	tracker, jobs, outputDir := newTestTracker(t)
	job := newTrackedJob(t, jobs)

	mon, err := tracker.Begin(context.Background(), job, "Echo")
	require.NoError(t, err)

	assert.Equal(t, model.StatusRunning, job.Status)
	assert.Equal(t, "http://localhost/outputs/job-1/echo.xml", job.StatusLocation)
	require.NotNil(t, job.StartedAt)

	raw, err := os.ReadFile(filepath.Join(outputDir, "job-1", "echo.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<wps:ProcessStarted")
	assert.Contains(t, string(raw), "<ows:Identifier>echo</ows:Identifier>")

	_ = mon
}

func TestBeginRefusesDismissedJob(t *testing.T) {
	tracker, jobs, _ := newTestTracker(t)
	job := newTrackedJob(t, jobs)
	ctx := context.Background()

	// Dismissal lands in the store while the worker still holds the stale
	// accepted pointer from the queue.
	now := time.Now().UTC()
	dismissed := *job
	dismissed.Status = model.StatusDismissed
	dismissed.Message = "Job dismissed"
	dismissed.FinishedAt = &now
	require.NoError(t, jobs.Update(ctx, &dismissed))

	_, err := tracker.Begin(ctx, job, "Echo")
	require.ErrorIs(t, err, ErrJobDone)

	stored, err := jobs.Fetch(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDismissed, stored.Status)
	assert.Equal(t, "Job dismissed", stored.Message)
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	tracker, jobs, _ := newTestTracker(t)
	job := newTrackedJob(t, jobs)

	mon, err := tracker.Begin(context.Background(), job, "Echo")
	require.NoError(t, err)

	require.NoError(t, mon.Update(context.Background(), Update{Progress: 40, Message: "step one"}))
	require.NoError(t, mon.Update(context.Background(), Update{Progress: 20, Message: "late report"}))
	assert.Equal(t, 40, job.Progress)
}

func TestUnknownStatusLeavesStateUntouched(t *testing.T) {
	tracker, jobs, _ := newTestTracker(t)
	job := newTrackedJob(t, jobs)

	mon, err := tracker.Begin(context.Background(), job, "Echo")
	require.NoError(t, err)

	require.NoError(t, mon.Update(context.Background(), Update{Status: model.StatusUnknown, Progress: 30}))
	assert.Equal(t, model.StatusRunning, job.Status)
	assert.Equal(t, 30, job.Progress)
}

func TestTerminalDrainsLogIntoJob(t *testing.T) {
	tracker, jobs, outputDir := newTestTracker(t)
	job := newTrackedJob(t, jobs)
	ctx := context.Background()

	mon, err := tracker.Begin(ctx, job, "Echo")
	require.NoError(t, err)
	require.NoError(t, mon.Update(ctx, Update{Progress: 50, Message: "halfway"}))
	require.NoError(t, mon.Update(ctx, Update{
		Status: model.StatusSucceeded, Message: "job succeeded",
		Results: []model.JobResult{{ID: "output", Href: "http://localhost/outputs/job-1/out.txt"}},
	}))

	assert.Equal(t, model.StatusSucceeded, job.Status)
	assert.Equal(t, ProgressDone, job.Progress)
	require.NotNil(t, job.FinishedAt)

	// Three lines: start, halfway, terminal; log file removed after drain.
	require.Len(t, job.Logs, 3)
	assert.Contains(t, job.Logs[1], " 50% ")
	assert.Contains(t, job.Logs[1], "halfway")
	assert.Contains(t, job.Logs[2], "succeeded")
	_, err = os.Stat(filepath.Join(outputDir, "job-1", "echo.log"))
	assert.True(t, os.IsNotExist(err))

	// The stored record matches.
	stored, err := jobs.Fetch(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSucceeded, stored.Status)
	require.Len(t, stored.Logs, 3)

	// The status document reports success and the produced output.
	raw, err := os.ReadFile(filepath.Join(outputDir, "job-1", "echo.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<wps:ProcessSucceeded")
	assert.Contains(t, string(raw), `xlink:href="http://localhost/outputs/job-1/out.txt"`)
}

func TestFailRecordsExceptionReport(t *testing.T) {
	tracker, jobs, outputDir := newTestTracker(t)
	job := newTrackedJob(t, jobs)
	ctx := context.Background()

	mon, err := tracker.Begin(ctx, job, "Echo")
	require.NoError(t, err)
	mon.Fail(ctx, model.JobException{Code: "InvalidParameterValue", Locator: "message", Text: "missing input"})

	assert.Equal(t, model.StatusFailed, job.Status)
	require.Len(t, job.Exceptions, 1)
	assert.Equal(t, "missing input", job.Exceptions[0].Text)

	raw, err := os.ReadFile(filepath.Join(outputDir, "job-1", "echo.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<wps:ProcessFailed")
	assert.Contains(t, string(raw), "<ows:ExceptionText>missing input</ows:ExceptionText>")
}

func TestLogLineFormat(t *testing.T) {
	job := &model.Job{Status: model.StatusRunning, Progress: 7, CreatedAt: time.Now().UTC()}
	start := time.Now().UTC()
	job.StartedAt = &start

	line := job.LogMessage("loading package")
	assert.Regexp(t, `^\d+:\d{2}:\d{2}   7% running    loading package$`, line)
}
