// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/config"
	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/storage"
	"github.com/geoflow/geoflow/pkg/slug"
)

// ProcessService deploys, describes and retires processes.
type ProcessService struct {
	store  *storage.ProcessStore
	loader *cwl.Loader
	mode   string
	logger *slog.Logger
}

func NewProcessService(store *storage.ProcessStore, loader *cwl.Loader, mode string, logger *slog.Logger) *ProcessService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessService{store: store, loader: loader, mode: mode, logger: logger}
}

// PackageResolver exposes stored packages to the loader for workflow step
// resolution by process id.
type PackageResolver struct {
	Store *storage.ProcessStore
}

func (r *PackageResolver) PackageFor(ctx context.Context, processID string) (map[string]any, error) {
	proc, err := r.Store.Fetch(ctx, processID)
	if err != nil {
		return nil, err
	}
	if len(proc.Package) == 0 {
		return nil, fmt.Errorf("process %q has no stored package", processID)
	}
	return proc.Package, nil
}

// Deploy loads the application package of the request, merges its I/O with
// the payload-supplied descriptions, and persists the process. Workflow
// packages are only accepted in EMS mode.
func (s *ProcessService) Deploy(ctx context.Context, req *models.DeployProcessRequest) (*model.Process, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ref, err := req.PackageReference()
	if err != nil {
		return nil, err
	}

	pkg, err := s.loader.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	doc := pkg.Doc
	if doc.Class == cwl.ClassWorkflow && s.mode != config.ModeEMS {
		return nil, ErrWorkflowsNotSupported
	}
	if _, err := doc.Application(); err != nil {
		return nil, err
	}

	id, err := slug.Make(req.ProcessID())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	payload := req.Process()
	inputs, err := mergedDescriptions(doc.Inputs, payload["inputs"], false)
	if err != nil {
		return nil, err
	}
	outputs, err := mergedDescriptions(doc.Outputs, payload["outputs"], true)
	if err != nil {
		return nil, err
	}

	proc := &model.Process{
		ID:                id,
		Version:           stringField(payload, "processVersion", "version"),
		Title:             stringField(payload, "title"),
		Abstract:          stringField(payload, "abstract"),
		Keywords:          stringSlice(payload["keywords"]),
		Metadata:          metadataList(payload["metadata"]),
		Visibility:        model.VisibilityPrivate,
		Type:              processType(doc),
		Package:           doc.Raw,
		Payload:           requestTree(req),
		JobControlOptions: []string{"sync-execute", "async-execute", "dismiss"},
	}
	if ref, ok := ref.(string); ok {
		proc.ProcessDescriptionURL = ref
	}
	for _, d := range inputs {
		proc.Inputs = append(proc.Inputs, iomodel.ToJSON(d))
	}
	for _, d := range outputs {
		proc.Outputs = append(proc.Outputs, iomodel.ToJSON(d))
	}

	if err := s.store.Save(ctx, proc, req.Overwrite); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrProcessExists
		}
		return nil, err
	}
	s.logger.Info("deployed process", "process", proc.ID, "type", proc.Type, "class", doc.Class)
	return proc, nil
}

// List returns the deployed processes, hiding private ones unless
// includePrivate is set.
func (s *ProcessService) List(ctx context.Context, includePrivate bool) ([]*model.Process, error) {
	var visibility *model.Visibility
	if !includePrivate {
		public := model.VisibilityPublic
		visibility = &public
	}
	return s.store.List(ctx, visibility)
}

// Describe fetches one process. Private processes are reported as not found
// to non-owner callers.
func (s *ProcessService) Describe(ctx context.Context, id string, includePrivate bool) (*model.Process, error) {
	proc, err := s.store.Fetch(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProcessNotFound
		}
		return nil, err
	}
	if proc.Visibility == model.VisibilityPrivate && !includePrivate {
		return nil, ErrProcessNotFound
	}
	return proc, nil
}

// RawPackage returns the stored application package of a process verbatim.
func (s *ProcessService) RawPackage(ctx context.Context, id string) (map[string]any, error) {
	proc, err := s.Describe(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if len(proc.Package) == 0 {
		return nil, ErrProcessNotFound
	}
	return proc.Package, nil
}

// Undeploy removes a deployed process. Builtin processes are protected.
func (s *ProcessService) Undeploy(ctx context.Context, id string) error {
	proc, err := s.Describe(ctx, id, true)
	if err != nil {
		return err
	}
	if proc.Builtin() {
		return ErrProcessProtected
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProcessNotFound
		}
		return err
	}
	s.logger.Info("undeployed process", "process", id)
	return nil
}

// Visibility returns the visibility of a process.
func (s *ProcessService) Visibility(ctx context.Context, id string) (model.Visibility, error) {
	v, err := s.store.GetVisibility(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrProcessNotFound
		}
		return "", err
	}
	return v, nil
}

// SetVisibility updates the visibility of a process. Builtin processes are
// protected.
func (s *ProcessService) SetVisibility(ctx context.Context, id string, v model.Visibility) error {
	proc, err := s.Describe(ctx, id, true)
	if err != nil {
		return err
	}
	if proc.Builtin() {
		return ErrProcessProtected
	}
	return s.store.SetVisibility(ctx, id, v)
}

// Save persists an externally assembled process record, used for imported
// remote processes and builtin registration.
func (s *ProcessService) Save(ctx context.Context, proc *model.Process, overwrite bool) error {
	return s.store.Save(ctx, proc, overwrite)
}

// mergedDescriptions converts the package I/O section to canonical
// descriptions and merges the payload overrides onto them.
func mergedDescriptions(section map[string]map[string]any, payload any, isOutput bool) ([]*iomodel.Description, error) {
	ids := make([]string, 0, len(section))
	for id := range section {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	descs := make([]*iomodel.Description, 0, len(ids))
	for _, id := range ids {
		d, err := iomodel.FromCWL(id, section[id], isOutput)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return iomodel.Merge(descs, payloadIO(payload))
}

// payloadIO normalizes a payload I/O section ([]any of maps, or {id: def})
// into a flat list of raw description maps.
func payloadIO(section any) []map[string]any {
	var out []map[string]any
	switch s := section.(type) {
	case []any:
		for _, entry := range s {
			if m, ok := entry.(map[string]any); ok {
				out = append(out, m)
			}
		}
	case map[string]any:
		ids := make([]string, 0, len(s))
		for id := range s {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if m, ok := s[id].(map[string]any); ok {
				entry := make(map[string]any, len(m)+1)
				for k, v := range m {
					entry[k] = v
				}
				entry["id"] = id
				out = append(out, entry)
			}
		}
	}
	return out
}

// processType classifies the deployed package.
func processType(doc *cwl.Document) model.ProcessType {
	if doc.Class == cwl.ClassWorkflow {
		return model.ProcessTypeWorkflow
	}
	app, err := doc.Application()
	if err != nil || app == nil {
		return model.ProcessTypeApplication
	}
	switch app.Class {
	case cwl.RequirementWPS1:
		return model.ProcessTypeRemoteWPS
	case cwl.RequirementESGF:
		return model.ProcessTypeRemoteESGF
	case cwl.RequirementBuiltin:
		return model.ProcessTypeBuiltin
	}
	return model.ProcessTypeApplication
}

func requestTree(req *models.DeployProcessRequest) map[string]any {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return tree
}

func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func stringSlice(v any) []string {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func metadataList(v any) []model.Metadata {
	entries, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.Metadata
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		md := model.Metadata{}
		md.Title, _ = m["title"].(string)
		md.Href, _ = m["href"].(string)
		md.Role, _ = m["role"].(string)
		md.Value, _ = m["value"].(string)
		out = append(out, md)
	}
	return out
}
