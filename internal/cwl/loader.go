// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package cwl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"

	sigyaml "sigs.k8s.io/yaml"
)

// Allowed package document extensions for path-like references.
var allowedExtensions = map[string]bool{
	".cwl": true, ".yml": true, ".yaml": true, ".json": true, ".job": true,
}

const maxIndirections = 5

// ProcessResolver fetches the stored package document of a deployed
// process, used to resolve workflow step references by process id.
type ProcessResolver interface {
	PackageFor(ctx context.Context, processID string) (map[string]any, error)
}

// RemoteDescriber synthesizes a package from a WPS-1 DescribeProcess XML
// document fetched while resolving a reference.
type RemoteDescriber interface {
	PackageFromXML(ctx context.Context, url string, body []byte) (*Document, error)
}

// Package is a loaded document plus its resolved workflow sub-packages.
type Package struct {
	Doc   *Document
	Steps map[string]*Package
}

// Loader resolves package documents from literal values, local files and
// remote references.
type Loader struct {
	client    *http.Client
	processes ProcessResolver
	remote    RemoteDescriber
	logger    *slog.Logger
}

// NewLoader builds a loader. processes and remote may be nil when workflow
// step resolution or XML import are not needed.
func NewLoader(client *http.Client, processes ProcessResolver, remote RemoteDescriber, logger *slog.Logger) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{client: client, processes: processes, remote: remote, logger: logger}
}

// Load resolves ref, which is either a literal document tree or a string
// reference, and recursively resolves workflow steps.
func (l *Loader) Load(ctx context.Context, ref any) (*Package, error) {
	var doc *Document
	var err error
	switch r := ref.(type) {
	case map[string]any:
		doc, err = FromValue(r)
	case string:
		doc, err = l.LoadReference(ctx, r)
	default:
		return nil, &RegistrationError{Reason: fmt.Sprintf("unsupported package reference of type %T", ref)}
	}
	if err != nil {
		return nil, err
	}
	return l.resolveSteps(ctx, doc)
}

// LoadReference fetches and parses one package reference: a local file path
// or an http(s) URL. URLs returning XML are delegated to the remote
// describer; URLs returning JSON may indirect once more through
// owsContext.offering.content.href.
func (l *Loader) LoadReference(ctx context.Context, ref string) (*Document, error) {
	for hop := 0; hop < maxIndirections; hop++ {
		if !isHTTP(ref) {
			return l.loadFile(ref)
		}
		body, contentType, err := l.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(contentType, "application/xml") || strings.HasPrefix(contentType, "text/xml") {
			if l.remote == nil {
				return nil, &RegistrationError{Ref: ref, Reason: "XML process descriptions are not supported here"}
			}
			return l.remote.PackageFromXML(ctx, ref, body)
		}

		doc, next, err := l.decodeBody(ref, body)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			return doc, nil
		}
		l.logger.Debug("following package reference", "from", ref, "to", next)
		ref = next
	}
	return nil, &RegistrationError{Ref: ref, Reason: "too many package reference indirections"}
}

func (l *Loader) loadFile(ref string) (*Document, error) {
	ext := strings.ToLower(path.Ext(ref))
	if !allowedExtensions[ext] {
		return nil, &RegistrationError{Ref: ref,
			Reason: fmt.Sprintf("extension %q is not an allowed package format", ext)}
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Ref: ref, Err: err}
		}
		return nil, &RegistrationError{Ref: ref, Reason: "cannot read package file", Err: err}
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, tagRef(err, ref)
	}
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &RegistrationError{Ref: url, Reason: "invalid package URL", Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", &NotFoundError{Ref: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", &NotFoundError{Ref: url}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &RegistrationError{Ref: url,
			Reason: fmt.Sprintf("unexpected status %d fetching package", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RegistrationError{Ref: url, Reason: "cannot read package body", Err: err}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// decodeBody parses a fetched JSON/YAML body. It returns either a document,
// or the next reference when the body is a process description indirecting
// through an OWS context offering.
func (l *Loader) decodeBody(ref string, body []byte) (*Document, string, error) {
	tree, err := decodeTree(body)
	if err != nil {
		return nil, "", &RegistrationError{Ref: ref, Reason: "package body is not valid YAML or JSON", Err: err}
	}
	if tree["cwlVersion"] != nil || tree["class"] != nil {
		doc, err := FromValue(tree)
		if err != nil {
			return nil, "", tagRef(err, ref)
		}
		return doc, "", nil
	}
	if next := OWSContextHref(tree); next != "" {
		return nil, next, nil
	}
	return nil, "", &RegistrationError{Ref: ref, Reason: "body is neither a package nor an OWS context reference"}
}

// OWSContextHref extracts the offering content href of a process
// description, or "" when the tree carries none.
func OWSContextHref(tree map[string]any) string {
	if proc, ok := tree["process"].(map[string]any); ok {
		tree = proc
	}
	ows, ok := tree["owsContext"].(map[string]any)
	if !ok {
		return ""
	}
	offering, ok := ows["offering"].(map[string]any)
	if !ok {
		return ""
	}
	content, ok := offering["content"].(map[string]any)
	if !ok {
		return ""
	}
	href, _ := content["href"].(string)
	return href
}

func decodeTree(body []byte) (map[string]any, error) {
	jsonBytes, err := sigyaml.YAMLToJSON(body)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(jsonBytes, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

// resolveSteps walks workflow steps with an explicit worklist, loading each
// run reference once even across diamond-shaped DAGs.
func (l *Loader) resolveSteps(ctx context.Context, doc *Document) (*Package, error) {
	root := &Package{Doc: doc, Steps: map[string]*Package{}}
	if doc.Class != ClassWorkflow {
		return root, nil
	}

	type item struct {
		parent *Package
		stepID string
		run    any
	}
	var work []item
	for id, step := range doc.Steps {
		work = append(work, item{parent: root, stepID: id, run: step.Run})
	}

	seen := map[string]*Package{}
	for len(work) > 0 {
		it := work[0]
		work = work[1:]

		key, _ := it.run.(string)
		if key != "" {
			key = strings.SplitN(key, "#", 2)[0]
			if sub, ok := seen[key]; ok {
				it.parent.Steps[it.stepID] = sub
				continue
			}
		}

		subdoc, err := l.loadStepRun(ctx, key, it.run)
		if err != nil {
			return nil, err
		}
		sub := &Package{Doc: subdoc, Steps: map[string]*Package{}}
		it.parent.Steps[it.stepID] = sub
		if key != "" {
			seen[key] = sub
		}
		if subdoc.Class == ClassWorkflow {
			for id, step := range subdoc.Steps {
				work = append(work, item{parent: sub, stepID: id, run: step.Run})
			}
		}
	}
	return root, nil
}

func (l *Loader) loadStepRun(ctx context.Context, key string, run any) (*Document, error) {
	switch r := run.(type) {
	case map[string]any:
		return FromValue(r)
	case string:
		if isHTTP(key) || allowedExtensions[strings.ToLower(path.Ext(key))] {
			return l.LoadReference(ctx, key)
		}
		// Bare name: a deployed process id.
		if l.processes == nil {
			return nil, &NotFoundError{Ref: key}
		}
		tree, err := l.processes.PackageFor(ctx, key)
		if err != nil {
			return nil, &NotFoundError{Ref: key, Err: err}
		}
		return FromValue(tree)
	}
	return nil, &RegistrationError{Reason: fmt.Sprintf("unsupported step run reference of type %T", run)}
}

func isHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func tagRef(err error, ref string) error {
	switch e := err.(type) {
	case *RegistrationError:
		if e.Ref == "" {
			e.Ref = ref
		}
	}
	return err
}
