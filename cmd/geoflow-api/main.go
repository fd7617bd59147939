// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/geoflow/geoflow/internal/api/handlers"
	"github.com/geoflow/geoflow/internal/api/models"
	"github.com/geoflow/geoflow/internal/api/services"
	"github.com/geoflow/geoflow/internal/config"
	"github.com/geoflow/geoflow/internal/cwl"
	"github.com/geoflow/geoflow/internal/execution"
	"github.com/geoflow/geoflow/internal/storage"
	"github.com/geoflow/geoflow/internal/wpsclient"
)

var (
	configPath = flag.String("config", "", "path to the configuration file")
)

func main() {
	flag.Parse()

	path := *configPath
	if path == "" {
		path = os.Getenv("GEOFLOW_CONFIG")
	}
	if path == "" {
		path = "/etc/geoflow/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	slogHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})
	baseLogger := slog.New(slogHandler)
	slog.SetDefault(baseLogger)

	// Create shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(cfg.Database.Path, baseLogger)
	if err != nil {
		baseLogger.Error("Failed to open database",
			slog.String("path", cfg.Database.Path), slog.Any("error", err))
		os.Exit(1)
	}

	processStore := storage.NewProcessStore(db)
	jobStore := storage.NewJobStore(db)
	serviceStore := storage.NewServiceStore(db)
	billingStore := storage.NewBillingStore(db)

	newClient := func(endpoint string) *wpsclient.Client {
		return wpsclient.NewClient(endpoint, nil, baseLogger.With("component", "wpsclient"))
	}
	importer := wpsclient.NewImporter(baseLogger.With("component", "importer"))
	loader := cwl.NewLoader(nil,
		&services.PackageResolver{Store: processStore},
		importer,
		baseLogger.With("component", "cwl"))

	command := execution.NewCommandBackend(cfg.Engine.ContainerRuntime, nil,
		baseLogger.With("component", "command"))
	builtin := execution.NewBuiltinBackend(cfg.Engine.BuiltinDir, command)
	wps1 := execution.NewWPS1Backend(newClient, nil,
		cfg.Engine.OutputDir, cfg.Engine.OutputURL, baseLogger.With("component", "wps1"))
	esgf := execution.NewESGFBackend(wps1)

	var eo *execution.EOResolver
	if cfg.Catalogue.URL != "" {
		eo = execution.NewEOResolver(cfg.Catalogue.URL, nil, baseLogger.With("component", "eo"))
	}

	tracker := execution.NewTracker(jobStore, cfg.Engine.OutputDir, cfg.Engine.OutputURL,
		baseLogger.With("component", "tracker"))
	dispatcher := execution.NewDispatcher(execution.DispatcherOptions{
		Processes: processStore,
		Loader:    loader,
		Tracker:   tracker,
		EO:        eo,
		Command:   command,
		Builtin:   builtin,
		WPS1:      wps1,
		ESGF:      esgf,
		OutputDir: cfg.Engine.OutputDir,
		OutputURL: cfg.Engine.OutputURL,
		Logger:    baseLogger.With("component", "dispatcher"),
	})

	queue := execution.NewQueue(cfg.Engine.Workers, cfg.Engine.Backlog, dispatcher.Execute,
		baseLogger.With("component", "queue"))
	queue.Start(ctx)

	svcs := services.New(services.Options{
		ProcessStore: processStore,
		JobStore:     jobStore,
		ServiceStore: serviceStore,
		BillingStore: billingStore,
		Loader:       loader,
		Queue:        queue,
		Runner:       dispatcher.Execute,
		Importer:     importer,
		NewClient:    newClient,
		Config:       cfg,
		Logger:       baseLogger.With("component", "services"),
	})

	if cfg.Engine.ProvidersFile != "" {
		registerProviders(ctx, svcs, cfg.Engine.ProvidersFile, baseLogger)
	}

	handler := handlers.New(svcs, cfg, baseLogger.With("component", "handlers"))

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		baseLogger.Info("GeoFlow API server listening on", slog.String("address", srv.Addr),
			slog.String("mode", cfg.Engine.Mode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			baseLogger.Error("Server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("Server shutdown error", slog.Any("error", err))
	}
	queue.Shutdown()

	baseLogger.Info("Server stopped gracefully")
}

// providersFile is the on-disk registry of remote WPS providers loaded at
// startup.
type providersFile struct {
	Providers []providerEntry `yaml:"providers"`
}

type providerEntry struct {
	ID     string         `yaml:"id"`
	URL    string         `yaml:"url"`
	Type   string         `yaml:"type"`
	Public bool           `yaml:"public"`
	Auth   map[string]any `yaml:"auth"`
}

// registerProviders imports the processes of every provider listed in the
// file. A provider that is unreachable or already registered is logged and
// skipped; startup continues.
func registerProviders(ctx context.Context, svcs *services.Services, path string, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Warn("Failed to read providers file", slog.String("path", path), slog.Any("error", err))
		return
	}

	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		log.Warn("Failed to parse providers file", slog.String("path", path), slog.Any("error", err))
		return
	}

	for _, entry := range file.Providers {
		req := &models.RegisterProviderRequest{
			ID:     entry.ID,
			URL:    entry.URL,
			Type:   entry.Type,
			Public: entry.Public,
			Auth:   entry.Auth,
		}
		req.Sanitize()
		if err := req.Validate(); err != nil {
			log.Warn("Skipping invalid provider entry",
				slog.String("provider", entry.ID), slog.Any("error", err))
			continue
		}
		svc, imported, err := svcs.Providers.Register(ctx, req)
		if err != nil {
			log.Warn("Failed to register provider",
				slog.String("provider", entry.ID), slog.Any("error", err))
			continue
		}
		log.Info("Registered provider from file",
			slog.String("provider", svc.Name), slog.Int("processes", imported))
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
