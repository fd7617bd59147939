// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/geoflow/geoflow/internal/model"
)

// BuiltinBackend runs engine-shipped scripts by name. The builtin
// requirement names the script; it must exist under the configured scripts
// directory.
type BuiltinBackend struct {
	dir     string
	command *CommandBackend
}

func NewBuiltinBackend(dir string, command *CommandBackend) *BuiltinBackend {
	return &BuiltinBackend{dir: dir, command: command}
}

func (b *BuiltinBackend) Execute(ctx context.Context, run *Run) ([]model.JobResult, error) {
	name := ""
	if run.App != nil {
		name = run.App.Process
	}
	if name == "" && len(run.Package.Doc.BaseCommand) > 0 {
		name = run.Package.Doc.BaseCommand[0]
	}
	if name == "" {
		return nil, &ExecutionError{Code: "NoApplicableCode",
			Reason: "builtin package names no script"}
	}

	script := filepath.Join(b.dir, filepath.Base(name))
	if _, err := os.Stat(script); err != nil {
		return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: name,
			Reason: fmt.Sprintf("builtin script %q is not installed", name), Err: err}
	}

	local := *run
	local.Command = append([]string{script}, tailArgs(run.Package.Doc.BaseCommand)...)
	return b.command.Execute(ctx, &local)
}

func tailArgs(baseCommand []string) []string {
	if len(baseCommand) <= 1 {
		return nil
	}
	return baseCommand[1:]
}
