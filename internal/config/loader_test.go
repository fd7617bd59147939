// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, ModeEMS, cfg.Engine.Mode)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, "docker", cfg.Engine.ContainerRuntime)
	assert.Equal(t, "geoflow.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
engine:
  mode: ades
  workers: 2
  outputdir: /srv/outputs
  outputurl: http://ades.example.org/outputs
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ModeADES, cfg.Engine.Mode)
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, "/srv/outputs", cfg.Engine.OutputDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, "geoflow.db", cfg.Database.Path)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geoflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("GEOFLOW__SERVER__PORT", "7070")
	t.Setenv("GEOFLOW__ENGINE__MODE", "ades")
	t.Setenv("GEOFLOW__CATALOGUE__URL", "https://catalogue.example.org/opensearch")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ModeADES, cfg.Engine.Mode)
	assert.Equal(t, "https://catalogue.example.org/opensearch", cfg.Catalogue.URL)
}

func TestLoadMissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "bad mode", mutate: func(c *Config) { c.Engine.Mode = "hybrid" }, wantErr: "engine.mode"},
		{name: "no workers", mutate: func(c *Config) { c.Engine.Workers = 0 }, wantErr: "engine.workers"},
		{name: "empty output dir", mutate: func(c *Config) { c.Engine.OutputDir = "" }, wantErr: "engine.outputdir"},
		{name: "bad catalogue url", mutate: func(c *Config) { c.Catalogue.URL = "::" }, wantErr: "catalogue.url"},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
