// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package cwl models application-package documents (CWL-style) and resolves
// them from literal values, files, and remote references, including the
// recursive resolution of workflow steps.
package cwl

import (
	"encoding/json"
	"fmt"

	sigyaml "sigs.k8s.io/yaml"
)

// Document classes.
const (
	ClassCommandLineTool = "CommandLineTool"
	ClassExpressionTool  = "ExpressionTool"
	ClassWorkflow        = "Workflow"
)

// Requirement is one class-tagged entry of a requirements or hints bag.
type Requirement struct {
	Class  string
	Params map[string]any
}

// StepInput wires one step input to a workflow input or an upstream step
// output ("step/out").
type StepInput struct {
	Source  string
	Default any
}

// Step is one workflow step after shape normalization.
type Step struct {
	ID  string
	Run any // string reference or inline document tree
	In  map[string]StepInput
	Out []string
}

// Document is a parsed application package. Raw preserves the original tree
// verbatim for storage; the typed fields are normalized views of it.
type Document struct {
	Raw        map[string]any
	CWLVersion string
	Class      string
	ID         string

	BaseCommand []string
	Arguments   []any

	Inputs  map[string]map[string]any
	Outputs map[string]map[string]any

	Requirements []Requirement
	Hints        []Requirement

	Steps map[string]Step

	SuccessCodes       []int
	TemporaryFailCodes []int
	PermanentFailCodes []int
}

// Parse decodes a YAML or JSON package document and normalizes the flexible
// shapes: map-or-list inputs/outputs/requirements/steps, string-or-list
// baseCommand, string-or-object step sources.
func Parse(data []byte) (*Document, error) {
	jsonBytes, err := sigyaml.YAMLToJSON(data)
	if err != nil {
		return nil, &RegistrationError{Reason: "package document is not valid YAML or JSON", Err: err}
	}
	var raw map[string]any
	if err := json.Unmarshal(jsonBytes, &raw); err != nil {
		return nil, &RegistrationError{Reason: "package document is not an object", Err: err}
	}
	return FromValue(raw)
}

// FromValue normalizes an already-decoded package document tree.
func FromValue(raw map[string]any) (*Document, error) {
	doc := &Document{Raw: raw}
	doc.CWLVersion, _ = raw["cwlVersion"].(string)
	doc.Class, _ = raw["class"].(string)
	doc.ID, _ = raw["id"].(string)

	switch doc.Class {
	case ClassCommandLineTool, ClassExpressionTool, ClassWorkflow:
	case "":
		return nil, &TypeError{Reason: "package document has no class"}
	default:
		return nil, &TypeError{Reason: fmt.Sprintf("unsupported package class %q", doc.Class)}
	}

	switch cmd := raw["baseCommand"].(type) {
	case string:
		doc.BaseCommand = []string{cmd}
	case []any:
		for _, c := range cmd {
			if s, ok := c.(string); ok {
				doc.BaseCommand = append(doc.BaseCommand, s)
			}
		}
	}
	if args, ok := raw["arguments"].([]any); ok {
		doc.Arguments = args
	}

	var err error
	if doc.Inputs, err = normalizeIOSection(raw["inputs"]); err != nil {
		return nil, &RegistrationError{Reason: "invalid inputs section", Err: err}
	}
	if doc.Outputs, err = normalizeIOSection(raw["outputs"]); err != nil {
		return nil, &RegistrationError{Reason: "invalid outputs section", Err: err}
	}
	doc.Requirements = normalizeRequirements(raw["requirements"])
	doc.Hints = normalizeRequirements(raw["hints"])

	if doc.Class == ClassWorkflow {
		if doc.Steps, err = normalizeSteps(raw["steps"]); err != nil {
			return nil, &RegistrationError{Reason: "invalid steps section", Err: err}
		}
		if len(doc.Steps) == 0 {
			return nil, &RegistrationError{Reason: "workflow without steps"}
		}
	}

	doc.SuccessCodes = intList(raw["successCodes"])
	doc.TemporaryFailCodes = intList(raw["temporaryFailCodes"])
	doc.PermanentFailCodes = intList(raw["permanentFailCodes"])
	return doc, nil
}

// normalizeIOSection accepts the map form {id: def}, the list form
// [{id: ..., ...}] and the shorthand {id: "type"} and returns {id: def}.
func normalizeIOSection(section any) (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	switch s := section.(type) {
	case nil:
		return out, nil
	case map[string]any:
		for id, def := range s {
			switch d := def.(type) {
			case string:
				out[id] = map[string]any{"type": d}
			case map[string]any:
				out[id] = d
			default:
				return nil, fmt.Errorf("entry %q has unsupported shape %T", id, def)
			}
		}
	case []any:
		for _, entry := range s {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("list entry has unsupported shape %T", entry)
			}
			id, _ := m["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("list entry without id")
			}
			def := make(map[string]any, len(m))
			for k, v := range m {
				if k != "id" {
					def[k] = v
				}
			}
			out[id] = def
		}
	default:
		return nil, fmt.Errorf("section has unsupported shape %T", section)
	}
	return out, nil
}

// normalizeRequirements accepts {Class: {params}} and [{class: X, ...}].
func normalizeRequirements(section any) []Requirement {
	var out []Requirement
	switch s := section.(type) {
	case map[string]any:
		for class, params := range s {
			req := Requirement{Class: class, Params: map[string]any{}}
			if pm, ok := params.(map[string]any); ok {
				req.Params = pm
			}
			out = append(out, req)
		}
	case []any:
		for _, entry := range s {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			class, _ := m["class"].(string)
			if class == "" {
				continue
			}
			params := make(map[string]any, len(m))
			for k, v := range m {
				if k != "class" {
					params[k] = v
				}
			}
			out = append(out, Requirement{Class: class, Params: params})
		}
	}
	return out
}

func normalizeSteps(section any) (map[string]Step, error) {
	out := map[string]Step{}
	add := func(id string, m map[string]any) error {
		step := Step{ID: id, Run: m["run"], In: map[string]StepInput{}}
		if step.Run == nil {
			return fmt.Errorf("step %q has no run reference", id)
		}
		switch in := m["in"].(type) {
		case map[string]any:
			for name, src := range in {
				switch s := src.(type) {
				case string:
					step.In[name] = StepInput{Source: s}
				case map[string]any:
					si := StepInput{}
					si.Source, _ = s["source"].(string)
					si.Default = s["default"]
					step.In[name] = si
				}
			}
		case []any:
			for _, entry := range in {
				m, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				name, _ := m["id"].(string)
				si := StepInput{}
				si.Source, _ = m["source"].(string)
				si.Default = m["default"]
				step.In[name] = si
			}
		}
		switch outs := m["out"].(type) {
		case []any:
			for _, o := range outs {
				switch v := o.(type) {
				case string:
					step.Out = append(step.Out, v)
				case map[string]any:
					if id, ok := v["id"].(string); ok {
						step.Out = append(step.Out, id)
					}
				}
			}
		}
		out[id] = step
		return nil
	}

	switch s := section.(type) {
	case map[string]any:
		for id, def := range s {
			m, ok := def.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("step %q has unsupported shape %T", id, def)
			}
			if err := add(id, m); err != nil {
				return nil, err
			}
		}
	case []any:
		for _, entry := range s {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("step list entry has unsupported shape %T", entry)
			}
			id, _ := m["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("step list entry without id")
			}
			if err := add(id, m); err != nil {
				return nil, err
			}
		}
	case nil:
	default:
		return nil, fmt.Errorf("steps section has unsupported shape %T", section)
	}
	return out, nil
}

func intList(v any) []int {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		if f, ok := e.(float64); ok {
			out = append(out, int(f))
		}
	}
	return out
}
