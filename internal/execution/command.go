// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

const (
	commandRetryInitial = 2 * time.Second
	commandMaxRetries   = 3
)

// CommandBackend runs CommandLineTools locally, either directly or wrapped
// in the configured container runtime for packages with a Docker
// requirement. Image fetching and isolation are the runtime's business; the
// backend only shells out to it.
type CommandBackend struct {
	runtime string // container runtime binary, e.g. "docker"
	client  *http.Client
	logger  *slog.Logger
}

func NewCommandBackend(runtime string, client *http.Client, logger *slog.Logger) *CommandBackend {
	if runtime == "" {
		runtime = "docker"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandBackend{runtime: runtime, client: client, logger: logger}
}

func (b *CommandBackend) Execute(ctx context.Context, run *Run) ([]model.JobResult, error) {
	if err := os.MkdirAll(run.WorkDir, 0o755); err != nil {
		return nil, &ExecutionError{Reason: "cannot create work directory", Err: err}
	}

	staged, err := b.stageInputs(ctx, run)
	if err != nil {
		return nil, err
	}
	argv, err := buildArgv(run, staged, b.runtime)
	if err != nil {
		return nil, err
	}

	run.report(0, "executing "+argv[0])
	stdout, err := b.runWithRetry(ctx, run, argv)
	if err != nil {
		return nil, err
	}
	run.report(100, "command finished")

	return collectCommandOutputs(run.Package.Doc, run.WorkDir, stdout)
}

// runWithRetry reruns the command on exit codes the package declares
// temporary, with exponential backoff starting at 2s.
func (b *CommandBackend) runWithRetry(ctx context.Context, run *Run, argv []string) (string, error) {
	doc := run.Package.Doc
	delay := commandRetryInitial
	for attempt := 0; ; attempt++ {
		stdout, code, err := b.runOnce(ctx, run, argv)
		if err != nil {
			return "", err
		}
		switch {
		case exitCodeIn(code, doc.SuccessCodes, 0):
			return stdout, nil
		case exitCodeIn(code, doc.TemporaryFailCodes):
			if attempt >= commandMaxRetries {
				return "", &ExecutionError{Code: "NoApplicableCode",
					Reason: fmt.Sprintf("command kept failing temporarily (exit code %d) after %d retries", code, attempt)}
			}
			b.logger.Debug("temporary failure, retrying command",
				"job", run.Job.ID, "exit_code", code, "attempt", attempt)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		default:
			return "", &ExecutionError{Code: "NoApplicableCode",
				Reason: fmt.Sprintf("command exited with permanentFail (exit code %d)", code)}
		}
	}
}

func (b *CommandBackend) runOnce(ctx context.Context, run *Run, argv []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = run.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return "", 0, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			b.logger.Debug("command exited nonzero",
				"job", run.Job.ID, "exit_code", exitErr.ExitCode(), "stderr", tail(stderr.String()))
			return stdout.String(), exitErr.ExitCode(), nil
		}
		return "", 0, &ExecutionError{Reason: fmt.Sprintf("cannot start command %q", argv[0]), Err: err}
	}
	return stdout.String(), 0, nil
}

func exitCodeIn(code int, codes []int, defaults ...int) bool {
	if len(codes) == 0 {
		codes = defaults
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return s
}

// stageInputs materializes complex inputs under the work directory and
// renders every input to its command-line string values.
func (b *CommandBackend) stageInputs(ctx context.Context, run *Run) (map[string][]string, error) {
	inputDir := filepath.Join(run.WorkDir, "inputs")
	staged := make(map[string][]string, len(run.Inputs))
	for _, in := range run.Inputs {
		var values []string
		for i, v := range in.Values {
			switch val := v.(type) {
			case Location:
				path, err := b.stageLocation(ctx, inputDir, in.Desc.ID, i, val)
				if err != nil {
					return nil, err
				}
				values = append(values, path)
			default:
				values = append(values, fmt.Sprint(val))
			}
		}
		staged[in.Desc.ID] = values
	}
	return staged, nil
}

// stageLocation fetches one referenced file into the input directory and
// returns its path relative to the work directory.
func (b *CommandBackend) stageLocation(ctx context.Context, inputDir, id string, idx int, loc Location) (string, error) {
	if strings.HasPrefix(loc.Location, "file://") {
		return strings.TrimPrefix(loc.Location, "file://"), nil
	}
	if !strings.HasPrefix(loc.Location, "http://") && !strings.HasPrefix(loc.Location, "https://") {
		return loc.Location, nil
	}

	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return "", &ExecutionError{Reason: "cannot create input directory", Err: err}
	}
	name := filepath.Base(strings.SplitN(loc.Location, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("%s-%d", id, idx)
	}
	dest := filepath.Join(inputDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.Location, nil)
	if err != nil {
		return "", &ExecutionError{Code: "InvalidParameterValue", Locator: id,
			Reason: "invalid input reference", Err: err}
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", &ExecutionError{Code: "NoApplicableCode", Locator: id,
			Reason: "cannot fetch input reference", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &ExecutionError{Code: "InvalidParameterValue", Locator: id,
			Reason: fmt.Sprintf("input reference %s returned status %d", loc.Location, resp.StatusCode)}
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", &ExecutionError{Reason: "cannot stage input file", Err: err}
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", &ExecutionError{Reason: "cannot stage input file", Err: err}
	}
	return filepath.Join("inputs", name), nil
}

// binding is one command-line argument slot derived from an inputBinding.
type binding struct {
	id       string
	position int
	prefix   string
	separate bool
	values   []string
	boolean  bool
}

// buildArgv assembles the command line: baseCommand, arguments, then inputs
// ordered by binding position. A Docker application wraps the tool argv in
// the container runtime with the work directory mounted.
func buildArgv(run *Run, staged map[string][]string, runtime string) ([]string, error) {
	doc := run.Package.Doc
	head := run.Command
	if len(head) == 0 {
		head = doc.BaseCommand
	}
	if len(head) == 0 {
		return nil, &ExecutionError{Code: "NoApplicableCode", Reason: "package declares no baseCommand"}
	}

	argv := append([]string{}, head...)
	for _, arg := range doc.Arguments {
		switch a := arg.(type) {
		case string:
			argv = append(argv, a)
		case map[string]any:
			if v, ok := a["valueFrom"].(string); ok {
				argv = append(argv, v)
			}
		}
	}

	var bindings []binding
	for id, def := range doc.Inputs {
		ib, ok := def["inputBinding"].(map[string]any)
		if !ok {
			continue
		}
		bd := binding{id: id, separate: true, values: staged[id]}
		if pos, ok := ib["position"].(float64); ok {
			bd.position = int(pos)
		}
		bd.prefix, _ = ib["prefix"].(string)
		if sep, ok := ib["separate"].(bool); ok {
			bd.separate = sep
		}
		if t, ok := def["type"].(string); ok && strings.TrimSuffix(t, "?") == "boolean" {
			bd.boolean = true
		}
		bindings = append(bindings, bd)
	}
	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].position != bindings[j].position {
			return bindings[i].position < bindings[j].position
		}
		return bindings[i].id < bindings[j].id
	})

	for _, bd := range bindings {
		if bd.boolean {
			// Boolean flags emit the prefix only when true.
			for _, v := range bd.values {
				if v == "true" && bd.prefix != "" {
					argv = append(argv, bd.prefix)
				}
			}
			continue
		}
		for _, v := range bd.values {
			switch {
			case bd.prefix == "":
				argv = append(argv, v)
			case bd.separate:
				argv = append(argv, bd.prefix, v)
			default:
				argv = append(argv, bd.prefix+v)
			}
		}
	}

	if run.App != nil && run.App.Class == cwl.RequirementDocker {
		return dockerArgv(runtime, run.App.Image, run.WorkDir, argv), nil
	}
	return argv, nil
}

// collectCommandOutputs gathers declared outputs from the work directory:
// outputBinding globs become file references, bindingless string outputs
// capture stdout.
func collectCommandOutputs(doc *cwl.Document, workDir, stdout string) ([]model.JobResult, error) {
	var results []model.JobResult
	for id, def := range doc.Outputs {
		ob, hasBinding := def["outputBinding"].(map[string]any)
		if !hasBinding {
			desc, err := iomodel.FromCWL(id, def, true)
			if err == nil && desc.Kind == iomodel.KindLiteral {
				results = append(results, model.JobResult{ID: id, Data: strings.TrimSpace(stdout)})
			}
			continue
		}
		glob, _ := ob["glob"].(string)
		if glob == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(workDir, glob))
		if err != nil {
			return nil, &ExecutionError{Locator: id, Reason: "invalid output glob", Err: err}
		}
		if len(matches) == 0 {
			return nil, &ExecutionError{Code: "NoApplicableCode", Locator: id,
				Reason: fmt.Sprintf("declared output %q produced no file matching %q", id, glob)}
		}
		for _, match := range matches {
			results = append(results, model.JobResult{ID: id, Href: "file://" + match})
		}
	}
	return results, nil
}
