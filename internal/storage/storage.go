// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

// Package storage provides the four persistence repositories (processes,
// jobs, provider services, quotes/bills) over a sqlite document store.
package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/geoflow/geoflow/internal/model"
)

// Sentinel errors shared by all repositories.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Open opens (or creates) the sqlite database and migrates the schema.
func Open(path string, logger *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	if err := db.AutoMigrate(
		&model.Process{},
		&model.Job{},
		&model.Service{},
		&model.Quote{},
		&model.Bill{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	if logger != nil {
		logger.Debug("database ready", "path", path)
	}
	return db, nil
}
