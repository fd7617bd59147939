// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the GeoFlow configuration from built-in defaults,
// an optional YAML file and GEOFLOW__* environment variables, in that
// order of precedence (later sources win).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Deployment modes. An EMS accepts workflow packages and dispatches
// steps to remote ADES instances; an ADES only runs atomic processes.
const (
	ModeEMS  = "ems"
	ModeADES = "ades"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Engine    EngineConfig    `koanf:"engine"`
	Catalogue CatalogueConfig `koanf:"catalogue"`
	WPS       WPSConfig       `koanf:"wps"`
	LogLevel  string          `koanf:"loglevel"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	BaseURL         string        `koanf:"baseurl"`
	ReadTimeout     time.Duration `koanf:"readtimeout"`
	WriteTimeout    time.Duration `koanf:"writetimeout"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type EngineConfig struct {
	Mode             string `koanf:"mode"`
	Workers          int    `koanf:"workers"`
	Backlog          int    `koanf:"backlog"`
	OutputDir        string `koanf:"outputdir"`
	OutputURL        string `koanf:"outputurl"`
	ContainerRuntime string `koanf:"containerruntime"`
	BuiltinDir       string `koanf:"builtindir"`
	ProvidersFile    string `koanf:"providersfile"`
}

// CatalogueConfig points at the OpenSearch endpoint used to resolve
// EO-image inputs into product download references.
type CatalogueConfig struct {
	URL string `koanf:"url"`
}

// WPSConfig carries the service metadata advertised in GetCapabilities.
type WPSConfig struct {
	Title        string `koanf:"title"`
	Abstract     string `koanf:"abstract"`
	ProviderName string `koanf:"providername"`
	ProviderSite string `koanf:"providersite"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":             8080,
		"server.baseurl":          "http://localhost:8080",
		"server.readtimeout":      "30s",
		"server.writetimeout":     "60s",
		"server.shutdowntimeout":  "15s",
		"database.path":           "geoflow.db",
		"engine.mode":             ModeEMS,
		"engine.workers":          4,
		"engine.backlog":          64,
		"engine.outputdir":        "/var/geoflow/outputs",
		"engine.outputurl":        "http://localhost:8080/outputs",
		"engine.containerruntime": "docker",
		"engine.builtindir":       "/opt/geoflow/builtins",
		"engine.providersfile":    "",
		"catalogue.url":           "",
		"wps.title":               "GeoFlow WPS",
		"wps.abstract":            "Geospatial process execution and workflow orchestration",
		"wps.providername":        "GeoFlow",
		"wps.providersite":        "",
		"loglevel":                "info",
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if _, err := url.ParseRequestURI(c.Server.BaseURL); err != nil {
		return fmt.Errorf("server.baseurl: %w", err)
	}
	if c.Engine.Mode != ModeEMS && c.Engine.Mode != ModeADES {
		return fmt.Errorf("engine.mode must be %q or %q, got %q", ModeEMS, ModeADES, c.Engine.Mode)
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	}
	if c.Engine.Backlog < 1 {
		return fmt.Errorf("engine.backlog must be positive, got %d", c.Engine.Backlog)
	}
	if c.Engine.OutputDir == "" {
		return fmt.Errorf("engine.outputdir must not be empty")
	}
	if _, err := url.ParseRequestURI(c.Engine.OutputURL); err != nil {
		return fmt.Errorf("engine.outputurl: %w", err)
	}
	if c.Catalogue.URL != "" {
		if _, err := url.ParseRequestURI(c.Catalogue.URL); err != nil {
			return fmt.Errorf("catalogue.url: %w", err)
		}
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	return nil
}
