// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package handlers wires the GeoFlow HTTP surface: the JSON REST API and
// the WPS 1.0 XML endpoint at /ows/wps.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/config"
	"github.com/geoflow/geoflow/internal/server/middleware/logger"
	"github.com/geoflow/geoflow/pkg/middleware"
)

// Handler holds the services and provides HTTP handlers.
type Handler struct {
	services *services.Services
	cfg      *config.Config
	logger   *slog.Logger
}

// New creates a new Handler instance.
func New(services *services.Services, cfg *config.Config, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{services: services, cfg: cfg, logger: log}
}

// Routes sets up all HTTP routes and returns the configured handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	v1 := "/api/v1"

	loggerMiddleware := logger.Middleware(h.logger)
	routes := middleware.NewRouteBuilder(mux).With(loggerMiddleware)

	// Health, readiness and metrics.
	routes.HandleFunc("GET /health", h.Health)
	routes.HandleFunc("GET /ready", h.Ready)
	routes.Handle("GET /metrics", promhttp.Handler())

	// Process management.
	routes.HandleFunc("GET "+v1+"/processes", h.ListProcesses)
	routes.HandleFunc("POST "+v1+"/processes", h.DeployProcess)
	routes.HandleFunc("GET "+v1+"/processes/{processID}", h.DescribeProcess)
	routes.HandleFunc("PUT "+v1+"/processes/{processID}", h.RedeployProcess)
	routes.HandleFunc("DELETE "+v1+"/processes/{processID}", h.UndeployProcess)
	routes.HandleFunc("GET "+v1+"/processes/{processID}/package", h.GetProcessPackage)
	routes.HandleFunc("GET "+v1+"/processes/{processID}/visibility", h.GetProcessVisibility)
	routes.HandleFunc("PUT "+v1+"/processes/{processID}/visibility", h.SetProcessVisibility)

	// Job lifecycle.
	routes.HandleFunc("POST "+v1+"/processes/{processID}/jobs", h.SubmitJob)
	routes.HandleFunc("GET "+v1+"/processes/{processID}/jobs", h.ListProcessJobs)
	routes.HandleFunc("GET "+v1+"/jobs", h.ListJobs)
	routes.HandleFunc("GET "+v1+"/jobs/{jobID}", h.GetJobStatus)
	routes.HandleFunc("DELETE "+v1+"/jobs/{jobID}", h.DismissJob)
	routes.HandleFunc("GET "+v1+"/jobs/{jobID}/results", h.GetJobResults)
	routes.HandleFunc("GET "+v1+"/jobs/{jobID}/exceptions", h.GetJobExceptions)
	routes.HandleFunc("GET "+v1+"/jobs/{jobID}/logs", h.GetJobLogs)

	// Quotation and billing.
	routes.HandleFunc("POST "+v1+"/processes/{processID}/quotations", h.CreateQuote)
	routes.HandleFunc("GET "+v1+"/quotations", h.ListQuotes)
	routes.HandleFunc("GET "+v1+"/quotations/{quoteID}", h.GetQuote)
	routes.HandleFunc("POST "+v1+"/quotations/{quoteID}", h.ExecuteQuote)
	routes.HandleFunc("GET "+v1+"/bills/{billID}", h.GetBill)

	// Remote provider management.
	routes.HandleFunc("GET "+v1+"/providers", h.ListProviders)
	routes.HandleFunc("POST "+v1+"/providers", h.RegisterProvider)
	routes.HandleFunc("DELETE "+v1+"/providers/{providerID}", h.UnregisterProvider)
	routes.HandleFunc("GET "+v1+"/providers/{providerID}/processes", h.ListProviderProcesses)
	routes.HandleFunc("GET "+v1+"/providers/{providerID}/processes/{processID}", h.DescribeProviderProcess)

	// WPS 1.0 XML surface.
	routes.HandleFunc("GET /ows/wps", h.ServeWPS)

	return mux
}

// Health handles health check requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Ready handles readiness check requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}
