// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
	"github.com/geoflow/geoflow/internal/wps"
)

// ErrJobDone reports that a job already reached a terminal state and must
// not be executed or updated again.
var ErrJobDone = errors.New("job already reached a terminal state")

// Tracker persists job state transitions, maintains the per-job status
// document and log file under the output directory, and serves their public
// locations.
type Tracker struct {
	jobs      *storage.JobStore
	outputDir string
	outputURL string
	logger    *slog.Logger
}

func NewTracker(jobs *storage.JobStore, outputDir, outputURL string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{jobs: jobs, outputDir: outputDir, outputURL: outputURL, logger: logger}
}

// JobDir returns the output directory of a job.
func (t *Tracker) JobDir(jobID string) string {
	return filepath.Join(t.outputDir, jobID)
}

// StatusLocation returns the public URL of a job's status document.
func (t *Tracker) StatusLocation(job *model.Job) string {
	return fmt.Sprintf("%s/%s/%s.xml", strings.TrimSuffix(t.outputURL, "/"), job.ID, job.ProcessID)
}

// Update is one state transition applied to a running job.
type Update struct {
	Status     model.Status
	Progress   int
	Message    string
	Exceptions []model.JobException
	Results    []model.JobResult
}

// Monitor applies updates for one job. All writes for a job go through its
// monitor, serialized by the mutex; progress never decreases and unknown
// remote states leave the stored status untouched.
type Monitor struct {
	tracker *Tracker
	mu      sync.Mutex
	job     *model.Job
	title   string

	statusPath string
	logPath    string
	logFile    *os.File
}

// Begin marks the job running, creates its output directory and log file,
// and writes the initial status document. A job whose stored record is
// already terminal is refused with ErrJobDone: a dismissal that landed while
// the job was still queued must not be overwritten by a late worker.
func (t *Tracker) Begin(ctx context.Context, job *model.Job, processTitle string) (*Monitor, error) {
	if stored, err := t.jobs.Fetch(ctx, job.ID); err == nil && stored.Finished() {
		return nil, fmt.Errorf("job %q: %w", job.ID, ErrJobDone)
	}

	dir := t.JobDir(job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create job directory %s: %w", dir, err)
	}
	m := &Monitor{
		tracker:    t,
		job:        job,
		title:      processTitle,
		statusPath: filepath.Join(dir, job.ProcessID+".xml"),
		logPath:    filepath.Join(dir, job.ProcessID+".log"),
	}
	logFile, err := os.OpenFile(m.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot open job log %s: %w", m.logPath, err)
	}
	m.logFile = logFile

	job.StatusLocation = t.StatusLocation(job)
	now := time.Now().UTC()
	job.StartedAt = &now
	return m, m.apply(ctx, Update{Status: model.StatusRunning, Message: "job started"})
}

// Job returns the tracked record. Callers must not mutate it concurrently
// with updates.
func (m *Monitor) Job() *model.Job { return m.job }

// Update applies one transition.
func (m *Monitor) Update(ctx context.Context, up Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(ctx, up)
}

// Fail records the exception and moves the job to failed.
func (m *Monitor) Fail(ctx context.Context, exc model.JobException) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.apply(ctx, Update{
		Status:     model.StatusFailed,
		Progress:   m.job.Progress,
		Message:    exc.Text,
		Exceptions: []model.JobException{exc},
	}); err != nil {
		m.tracker.logger.Error("cannot record job failure", "job", m.job.ID, "error", err)
	}
}

func (m *Monitor) apply(ctx context.Context, up Update) error {
	job := m.job

	if up.Status != "" && up.Status != model.StatusUnknown {
		job.Status = up.Status
	}
	if up.Progress > job.Progress {
		job.Progress = up.Progress
	}
	if up.Message != "" {
		job.Message = up.Message
	}
	if len(up.Exceptions) > 0 {
		job.Exceptions = append(job.Exceptions, up.Exceptions...)
	}
	if len(up.Results) > 0 {
		job.Results = up.Results
	}

	if job.Status == model.StatusSucceeded {
		job.Progress = ProgressDone
	}
	if job.Finished() && job.FinishedAt == nil {
		now := time.Now().UTC()
		job.FinishedAt = &now
	}

	m.appendLog(up.Message)
	if job.Finished() {
		m.drainLog()
	}

	if err := m.tracker.jobs.Update(ctx, job); err != nil {
		return err
	}
	if err := m.writeStatusFile(); err != nil {
		m.tracker.logger.Warn("cannot write status file", "job", job.ID, "error", err)
	}
	return nil
}

func (m *Monitor) appendLog(message string) {
	if m.logFile == nil || message == "" {
		return
	}
	line := m.job.LogMessage(message)
	if _, err := fmt.Fprintln(m.logFile, line); err != nil {
		m.tracker.logger.Warn("cannot append job log", "job", m.job.ID, "error", err)
	}
}

// drainLog folds the accumulated log file into Job.Logs and removes it.
func (m *Monitor) drainLog() {
	if m.logFile == nil {
		return
	}
	m.logFile.Close()
	m.logFile = nil

	f, err := os.Open(m.logPath)
	if err != nil {
		m.tracker.logger.Warn("cannot drain job log", "job", m.job.ID, "error", err)
		return
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			m.job.Logs = append(m.job.Logs, line)
		}
	}
	f.Close()
	if err := os.Remove(m.logPath); err != nil {
		m.tracker.logger.Warn("cannot remove drained job log", "job", m.job.ID, "error", err)
	}
}

// writeStatusFile renders the job as a WPS execute response at its status
// location on the output volume.
func (m *Monitor) writeStatusFile() error {
	resp := wps.NewExecuteResponse(m.job, m.title, m.job.StatusLocation)
	resp.Outputs = wps.ResultOutputs(m.job.Results)
	return wps.WriteStatusDocument(m.statusPath, resp)
}
