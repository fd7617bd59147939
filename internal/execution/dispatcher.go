// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
)

// Dispatcher runs jobs end to end: package loading, input conversion,
// backend selection, execution, and result collection, with every state
// change recorded through the tracker.
type Dispatcher struct {
	processes *storage.ProcessStore
	loader    *cwl.Loader
	tracker   *Tracker
	eo        *EOResolver

	command *CommandBackend
	builtin *BuiltinBackend
	wps1    *WPS1Backend
	esgf    *ESGFBackend

	outputDir string
	outputURL string
	logger    *slog.Logger
}

// DispatcherOptions carries the dispatcher's collaborators. EO may be nil
// when no catalogue is configured.
type DispatcherOptions struct {
	Processes *storage.ProcessStore
	Loader    *cwl.Loader
	Tracker   *Tracker
	EO        *EOResolver
	Command   *CommandBackend
	Builtin   *BuiltinBackend
	WPS1      *WPS1Backend
	ESGF      *ESGFBackend
	OutputDir string
	OutputURL string
	Logger    *slog.Logger
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		processes: opts.Processes,
		loader:    opts.Loader,
		tracker:   opts.Tracker,
		eo:        opts.EO,
		command:   opts.Command,
		builtin:   opts.Builtin,
		wps1:      opts.WPS1,
		esgf:      opts.ESGF,
		outputDir: opts.OutputDir,
		outputURL: opts.OutputURL,
		logger:    logger,
	}
}

// Execute runs one job to its terminal state. It is the queue's Task and
// never returns an error: failures are recorded on the job.
func (d *Dispatcher) Execute(ctx context.Context, job *model.Job) {
	jobsRunning.Inc()
	defer jobsRunning.Dec()
	log := d.logger.With("job", job.ID, "process", job.ProcessID)

	mon, err := d.tracker.Begin(ctx, job, job.ProcessID)
	if err != nil {
		if errors.Is(err, ErrJobDone) {
			log.Info("skipping job dismissed while queued")
			return
		}
		log.Error("cannot begin job tracking", "error", err)
		return
	}

	results, err := d.run(ctx, mon, log)
	switch {
	case err == nil:
		if uerr := mon.Update(ctx, Update{
			Status:   model.StatusSucceeded,
			Progress: ProgressDone,
			Message:  "job succeeded",
			Results:  results,
		}); uerr != nil {
			log.Error("cannot record job success", "error", uerr)
		}
	case errors.Is(err, context.Canceled):
		if uerr := mon.Update(ctx, Update{
			Status:  model.StatusDismissed,
			Message: "Job dismissed",
		}); uerr != nil {
			log.Error("cannot record job dismissal", "error", uerr)
		}
	default:
		log.Warn("job failed", "error", err)
		mon.Fail(ctx, exceptionFor(err))
	}

	jobsCompleted.WithLabelValues(string(job.Status)).Inc()
	jobDuration.WithLabelValues(job.ProcessID).Observe(job.Duration().Seconds())
	log.Info("job finished", "status", job.Status, "duration", job.Duration().Round(time.Millisecond))
}

func (d *Dispatcher) run(ctx context.Context, mon *Monitor, log *slog.Logger) ([]model.JobResult, error) {
	job := mon.Job()

	proc, err := d.processes.Fetch(ctx, job.ProcessID)
	if err != nil {
		return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: job.ProcessID,
			Reason: "process is not deployed", Err: err}
	}
	mon.title = proc.Title
	if err := mon.Update(ctx, Update{Progress: ProgressPrepared, Message: "fetched process description"}); err != nil {
		return nil, err
	}

	pkg, err := d.loader.Load(ctx, anyPackage(proc))
	if err != nil {
		return nil, err
	}
	if err := mon.Update(ctx, Update{Progress: ProgressLoaded, Message: "loaded application package"}); err != nil {
		return nil, err
	}

	run := &Run{
		Job:     job,
		Process: proc,
		Package: pkg,
		WorkDir: d.tracker.JobDir(job.ID),
	}
	if run.Inputs, err = d.resolveInputs(ctx, job, proc); err != nil {
		return nil, err
	}
	if run.Outputs, err = outputDescriptions(proc); err != nil {
		return nil, err
	}
	if err := mon.Update(ctx, Update{Progress: ProgressConverted, Message: "converted inputs"}); err != nil {
		return nil, err
	}

	run.Report = func(percent int, message string) {
		if err := mon.Update(ctx, Update{
			Progress: MapProgress(percent, ProgressConverted, ProgressExecuted),
			Message:  message,
		}); err != nil {
			log.Warn("cannot record progress", "error", err)
		}
	}

	var results []model.JobResult
	if pkg.Doc.Class == cwl.ClassWorkflow {
		results, err = d.runWorkflow(ctx, run)
	} else {
		var backend Backend
		if backend, run.App, err = d.backendFor(pkg.Doc); err != nil {
			return nil, err
		}
		results, err = backend.Execute(ctx, run)
	}
	if err != nil {
		return nil, err
	}

	results = d.collectResults(run, results)
	if err := mon.Update(ctx, Update{Progress: ProgressCollected, Message: "collected outputs"}); err != nil {
		return nil, err
	}
	return results, nil
}

// backendFor selects the execution backend from the package's single
// application hint. A plain CommandLineTool without hints runs locally.
func (d *Dispatcher) backendFor(doc *cwl.Document) (Backend, *cwl.Application, error) {
	app, err := doc.Application()
	if err != nil {
		return nil, nil, err
	}
	if app == nil {
		if doc.Class == cwl.ClassExpressionTool {
			return nil, nil, &ExecutionError{Code: "NoApplicableCode",
				Reason: "expression tools cannot execute without an application requirement"}
		}
		return d.command, nil, nil
	}
	switch app.Class {
	case cwl.RequirementDocker:
		return d.command, app, nil
	case cwl.RequirementBuiltin:
		return d.builtin, app, nil
	case cwl.RequirementWPS1:
		return d.wps1, app, nil
	case cwl.RequirementESGF:
		return d.esgf, app, nil
	}
	return nil, nil, &ExecutionError{Code: "NoApplicableCode",
		Reason: fmt.Sprintf("no backend for application class %q", app.Class)}
}

// anyPackage adapts the stored package tree for the loader.
func anyPackage(proc *model.Process) any {
	if len(proc.Package) > 0 {
		return proc.Package
	}
	return proc.ProcessDescriptionURL
}

// exceptionFor classifies an execution failure into its OWS exception.
func exceptionFor(err error) model.JobException {
	var exec *ExecutionError
	if errors.As(err, &exec) {
		return exec.Exception()
	}
	var notFound *cwl.NotFoundError
	if errors.As(err, &notFound) {
		return model.JobException{Code: "InvalidParameterValue", Locator: notFound.Ref, Text: err.Error()}
	}
	var typeErr *cwl.TypeError
	if errors.As(err, &typeErr) {
		return model.JobException{Code: "InvalidParameterValue", Text: err.Error()}
	}
	var ioErr *iomodel.TypeError
	if errors.As(err, &ioErr) {
		return model.JobException{Code: "InvalidParameterValue", Locator: ioErr.Field, Text: err.Error()}
	}
	return model.JobException{Code: "NoApplicableCode", Text: err.Error()}
}
