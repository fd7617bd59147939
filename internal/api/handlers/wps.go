// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/iomodel"
	"github.com/geoflow/geoflow/internal/model"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
	"github.com/geoflow/geoflow/internal/wps"
)

// ServeWPS dispatches WPS 1.0 KVP requests: GetCapabilities,
// DescribeProcess and Execute. Failures are reported as OWS exception
// reports, never as bare HTTP errors.
func (h *Handler) ServeWPS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if service := q.Get("service"); service != "" && !strings.EqualFold(service, "WPS") {
		writeWPSException(w, http.StatusBadRequest, "InvalidParameterValue", "service",
			fmt.Sprintf("service %q is not supported", service))
		return
	}
	if version := q.Get("version"); version != "" && version != wps.ServiceVersion {
		writeWPSException(w, http.StatusBadRequest, "VersionNegotiationFailed", "version",
			fmt.Sprintf("version %q is not supported", version))
		return
	}

	switch request := q.Get("request"); strings.ToLower(request) {
	case "getcapabilities":
		h.wpsCapabilities(w, r)
	case "describeprocess":
		h.wpsDescribeProcess(w, r)
	case "execute":
		h.wpsExecute(w, r)
	case "":
		writeWPSException(w, http.StatusBadRequest, "MissingParameterValue", "request",
			"request parameter is required")
	default:
		writeWPSException(w, http.StatusBadRequest, "OperationNotSupported", "request",
			fmt.Sprintf("operation %q is not supported", request))
	}
}

// wpsCapabilities lists the public processes.
func (h *Handler) wpsCapabilities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	procs, err := h.services.Processes.List(ctx, false)
	if err != nil {
		logger.GetLogger(ctx).Error("Failed to build capabilities", "error", err)
		writeWPSException(w, http.StatusInternalServerError, "NoApplicableCode", "", err.Error())
		return
	}

	caps := wps.NewCapabilities(h.cfg.WPS.Title, h.cfg.WPS.ProviderName)
	caps.Abstract = h.cfg.WPS.Abstract
	for _, p := range procs {
		caps.Processes = append(caps.Processes, wps.ProcessBriefXML{
			ProcessVersion: p.Version,
			Identifier:     p.ID,
			Title:          p.Title,
			Abstract:       p.Abstract,
		})
	}
	writeXML(w, http.StatusOK, caps)
}

// wpsDescribeProcess describes the named processes. Private processes are
// indistinguishable from unknown ones.
func (h *Handler) wpsDescribeProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := firstParam(r, "identifier")
	if identifier == "" {
		writeWPSException(w, http.StatusBadRequest, "MissingParameterValue", "identifier",
			"identifier parameter is required")
		return
	}

	resp := wps.NewProcessDescriptions()
	for _, id := range strings.Split(identifier, ",") {
		id = strings.TrimSpace(id)
		proc, err := h.services.Processes.Describe(ctx, id, false)
		if err != nil {
			writeWPSException(w, http.StatusBadRequest, "InvalidParameterValue", "identifier",
				fmt.Sprintf("Unknown process %s", id))
			return
		}
		desc, err := processDescriptionXML(proc)
		if err != nil {
			writeWPSException(w, http.StatusInternalServerError, "NoApplicableCode", id, err.Error())
			return
		}
		resp.Processes = append(resp.Processes, desc)
	}
	writeXML(w, http.StatusOK, resp)
}

func processDescriptionXML(proc *model.Process) (wps.ProcessDescriptionXML, error) {
	desc := wps.ProcessDescriptionXML{
		ProcessVersion:  proc.Version,
		StoreSupported:  true,
		StatusSupported: true,
		Identifier:      proc.ID,
		Title:           proc.Title,
		Abstract:        proc.Abstract,
	}
	for _, raw := range proc.Inputs {
		d, err := iomodel.FromJSON(raw)
		if err != nil {
			return desc, err
		}
		desc.Inputs = append(desc.Inputs, iomodel.ToOWSInput(d))
	}
	for _, raw := range proc.Outputs {
		d, err := iomodel.FromJSON(raw)
		if err != nil {
			return desc, err
		}
		desc.Outputs = append(desc.Outputs, iomodel.ToOWSOutput(d))
	}
	return desc, nil
}

// wpsExecute runs a process through the KVP encoding. Store-and-status
// requests run asynchronously; everything else blocks until the job ends.
func (h *Handler) wpsExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	q := r.URL.Query()

	id := firstParam(r, "identifier")
	if id == "" {
		writeWPSException(w, http.StatusBadRequest, "MissingParameterValue", "identifier",
			"identifier parameter is required")
		return
	}

	proc, err := h.services.Processes.Describe(ctx, id, true)
	if err != nil {
		writeWPSException(w, http.StatusBadRequest, "InvalidParameterValue", "identifier",
			fmt.Sprintf("Unknown process %s", id))
		return
	}
	if proc.Visibility == model.VisibilityPrivate {
		writeWPSException(w, http.StatusForbidden, "AccessForbidden", id,
			fmt.Sprintf("Process %s is not accessible", id))
		return
	}

	req := &models.ExecuteRequest{
		Mode:   string(model.ExecuteSync),
		Inputs: parseDataInputs(firstParam(r, "datainputs")),
	}
	if strings.EqualFold(q.Get("storeExecuteResponse"), "true") &&
		strings.EqualFold(q.Get("status"), "true") {
		req.Mode = string(model.ExecuteAsync)
	}

	job, err := h.services.Jobs.Submit(ctx, proc.ID, req)
	if err != nil {
		log.Warn("Failed to execute process", "process", id, "error", err)
		if errors.Is(err, services.ErrProcessNotFound) {
			writeWPSException(w, http.StatusBadRequest, "InvalidParameterValue", "identifier",
				fmt.Sprintf("Unknown process %s", id))
			return
		}
		writeWPSException(w, http.StatusInternalServerError, "NoApplicableCode", id, err.Error())
		return
	}

	statusLocation := job.StatusLocation
	if statusLocation == "" {
		statusLocation = fmt.Sprintf("%s/%s/%s.xml",
			strings.TrimSuffix(h.cfg.Engine.OutputURL, "/"), job.ID, proc.ID)
	}
	resp := wps.NewExecuteResponse(job, proc.Title, statusLocation)
	resp.Outputs = wps.ResultOutputs(job.Results)
	writeXML(w, http.StatusOK, resp)
}

// parseDataInputs decodes the KVP DataInputs encoding:
// "id=value@attr=val;id2=value2". An href attribute (or xlink:href) turns
// the entry into a reference input; mimeType qualifies its format.
func parseDataInputs(raw string) []models.ExecuteInput {
	if raw == "" {
		return nil
	}
	var inputs []models.ExecuteInput
	for _, entry := range strings.Split(raw, ";") {
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "@")
		key, value, _ := strings.Cut(parts[0], "=")
		if key == "" {
			continue
		}
		in := models.ExecuteInput{ID: key, Data: value}
		for _, attr := range parts[1:] {
			name, val, ok := strings.Cut(attr, "=")
			if !ok {
				continue
			}
			switch strings.ToLower(strings.TrimPrefix(name, "xlink:")) {
			case "href":
				in.Href = val
				in.Data = nil
			case "mimetype":
				in.Format = map[string]any{"mime_type": val}
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// firstParam fetches a query parameter case-insensitively, as KVP clients
// spell parameter names freely.
func firstParam(r *http.Request, name string) string {
	for key, values := range r.URL.Query() {
		if strings.EqualFold(key, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

func writeXML(w http.ResponseWriter, status int, doc any) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(body)
}

func writeWPSException(w http.ResponseWriter, status int, code, locator string, texts ...string) {
	writeXML(w, status, wps.NewExceptionReport(code, locator, texts...))
}
