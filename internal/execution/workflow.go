// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
)

// topoLevels orders workflow steps into dependency levels: every step in a
// level depends only on steps of earlier levels, so a level's steps can run
// in parallel. A dependency cycle is an error.
func topoLevels(steps map[string]cwl.Step) ([][]string, error) {
	deps := make(map[string]map[string]bool, len(steps))
	for id, step := range steps {
		deps[id] = map[string]bool{}
		for _, in := range step.In {
			src, _, ok := splitSource(in.Source)
			if !ok {
				continue
			}
			if _, isStep := steps[src]; isStep {
				deps[id][src] = true
			}
		}
	}

	done := map[string]bool{}
	var levels [][]string
	for len(done) < len(steps) {
		var level []string
		for id, d := range deps {
			if done[id] {
				continue
			}
			ready := true
			for dep := range d {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			var stuck []string
			for id := range steps {
				if !done[id] {
					stuck = append(stuck, id)
				}
			}
			sort.Strings(stuck)
			return nil, &ExecutionError{Code: "NoApplicableCode",
				Reason: fmt.Sprintf("workflow has a dependency cycle among steps %s", strings.Join(stuck, ", "))}
		}
		sort.Strings(level)
		for _, id := range level {
			done[id] = true
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// splitSource parses "step/output" references. Plain names (workflow inputs)
// report ok=false.
func splitSource(source string) (step, output string, ok bool) {
	i := strings.IndexByte(source, '/')
	if i <= 0 || i == len(source)-1 {
		return "", "", false
	}
	return source[:i], source[i+1:], true
}

// runWorkflow executes the steps level by level, independent steps in
// parallel, partitioning the execute progress slice evenly across steps.
func (d *Dispatcher) runWorkflow(ctx context.Context, run *Run) ([]model.JobResult, error) {
	doc := run.Package.Doc
	levels, err := topoLevels(doc.Steps)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	n := 0
	for _, level := range levels {
		for _, id := range level {
			index[id] = n
			n++
		}
	}

	var mu sync.Mutex
	stepResults := map[string][]model.JobResult{}

	for _, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		for _, stepID := range level {
			stepID := stepID
			g.Go(func() error {
				res, err := d.runStep(gctx, run, stepID, index[stepID], n, stepResults, &mu)
				if err != nil {
					return err
				}
				mu.Lock()
				stepResults[stepID] = res
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return workflowOutputs(doc, stepResults)
}

func (d *Dispatcher) runStep(ctx context.Context, run *Run, stepID string, idx, total int, stepResults map[string][]model.JobResult, mu *sync.Mutex) ([]model.JobResult, error) {
	step := run.Package.Doc.Steps[stepID]
	sub, ok := run.Package.Steps[stepID]
	if !ok {
		return nil, &ExecutionError{Code: "NoApplicableCode", Locator: stepID,
			Reason: fmt.Sprintf("workflow step %q has no resolved package", stepID)}
	}

	backend, app, err := d.backendFor(sub.Doc)
	if err != nil {
		return nil, stepError(stepID, err)
	}

	mu.Lock()
	inputs, err := stepInputs(step, sub.Doc, run, stepResults)
	mu.Unlock()
	if err != nil {
		return nil, stepError(stepID, err)
	}

	outputs, err := stepOutputs(sub.Doc)
	if err != nil {
		return nil, stepError(stepID, err)
	}

	subRun := &Run{
		Job:     run.Job,
		Process: run.Process,
		Package: sub,
		App:     app,
		Inputs:  inputs,
		Outputs: outputs,
		WorkDir: run.WorkDir + "/" + stepID,
		Report: func(percent int, message string) {
			run.report((idx*100+percent)/total, fmt.Sprintf("step %s: %s", stepID, message))
		},
	}
	subRun.report(0, "started")

	var results []model.JobResult
	if sub.Doc.Class == cwl.ClassWorkflow {
		results, err = d.runWorkflow(ctx, subRun)
	} else {
		results, err = backend.Execute(ctx, subRun)
	}
	if err != nil {
		return nil, stepError(stepID, err)
	}
	return results, nil
}

// stepError wraps a failure with the failing step's identity.
func stepError(stepID string, err error) error {
	code := "NoApplicableCode"
	var exec *ExecutionError
	if errors.As(err, &exec) && exec.Code != "" {
		code = exec.Code
	}
	return &ExecutionError{Code: code, Locator: stepID,
		Reason: fmt.Sprintf("step %q failed", stepID), Err: err}
}

// stepInputs wires one step's inputs from workflow inputs, upstream step
// results and step-level defaults.
func stepInputs(step cwl.Step, doc *cwl.Document, run *Run, stepResults map[string][]model.JobResult) ([]ResolvedInput, error) {
	names := make([]string, 0, len(step.In))
	for name := range step.In {
		names = append(names, name)
	}
	sort.Strings(names)

	var inputs []ResolvedInput
	for _, name := range names {
		si := step.In[name]
		def, declared := doc.Inputs[name]
		if !declared {
			return nil, &ExecutionError{Code: "InvalidParameterValue", Locator: name,
				Reason: fmt.Sprintf("step package declares no input %q", name)}
		}
		desc, err := iomodel.FromCWL(name, def, false)
		if err != nil {
			return nil, err
		}

		var values []any
		switch {
		case si.Source == "":
			if si.Default != nil {
				values = []any{si.Default}
			}
		default:
			if srcStep, srcOut, ok := splitSource(si.Source); ok {
				values = resultValues(stepResults[srcStep], srcOut)
				if len(values) == 0 {
					return nil, &ExecutionError{Code: "NoApplicableCode", Locator: name,
						Reason: fmt.Sprintf("upstream output %q produced no value", si.Source)}
				}
			} else {
				if wf := run.Input(si.Source); wf != nil {
					values = wf.Values
				} else if si.Default != nil {
					values = []any{si.Default}
				} else if desc.MinOccurs > 0 {
					return nil, &ExecutionError{Code: "MissingParameterValue", Locator: name,
						Reason: fmt.Sprintf("workflow provides no input %q", si.Source)}
				}
			}
		}
		if len(values) == 0 {
			continue
		}
		inputs = append(inputs, ResolvedInput{Desc: desc, Values: values})
	}
	return inputs, nil
}

// resultValues converts upstream results for one output id into input
// values.
func resultValues(results []model.JobResult, outID string) []any {
	var values []any
	for _, res := range results {
		if res.ID != outID {
			continue
		}
		if res.Href != "" {
			values = append(values, Location{Location: res.Href, Class: "File", Format: res.MimeType})
		} else {
			values = append(values, res.Data)
		}
	}
	return values
}

func stepOutputs(doc *cwl.Document) ([]*iomodel.Description, error) {
	ids := make([]string, 0, len(doc.Outputs))
	for id := range doc.Outputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var outputs []*iomodel.Description
	for _, id := range ids {
		desc, err := iomodel.FromCWL(id, doc.Outputs[id], true)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, desc)
	}
	return outputs, nil
}

// workflowOutputs maps step results onto the workflow's declared outputs via
// their outputSource references.
func workflowOutputs(doc *cwl.Document, stepResults map[string][]model.JobResult) ([]model.JobResult, error) {
	ids := make([]string, 0, len(doc.Outputs))
	for id := range doc.Outputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var results []model.JobResult
	for _, id := range ids {
		def := doc.Outputs[id]
		source := outputSource(def)
		if source == "" {
			continue
		}
		srcStep, srcOut, ok := splitSource(source)
		if !ok {
			return nil, &ExecutionError{Code: "NoApplicableCode", Locator: id,
				Reason: fmt.Sprintf("workflow output %q has no step source", id)}
		}
		found := false
		for _, res := range stepResults[srcStep] {
			if res.ID != srcOut {
				continue
			}
			res.ID = id
			results = append(results, res)
			found = true
		}
		if !found {
			return nil, &ExecutionError{Code: "NoApplicableCode", Locator: id,
				Reason: fmt.Sprintf("workflow output %q maps to %s, which produced nothing", id, source)}
		}
	}
	return results, nil
}

func outputSource(def map[string]any) string {
	switch src := def["outputSource"].(type) {
	case string:
		return src
	case []any:
		if len(src) > 0 {
			if s, ok := src[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
