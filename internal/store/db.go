// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides SQLite access for articles, reading sessions,
// analytics events, users, comments and settings.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// connPragmas apply to every pooled connection. busy_timeout and
// foreign_keys are per-connection settings in SQLite.
var connPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"temp_store(MEMORY)",
}

// DSN builds a modernc.org/sqlite data source name for path. Writes take the
// lock at BEGIN so concurrent session upserts queue on busy_timeout instead
// of failing on lock upgrade.
func DSN(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// NewDB opens the database at path and verifies the connection.
func NewDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// Migrate runs all pending database migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the applied migration version and the newest
// embedded one.
func SchemaVersion(ctx context.Context, db *sql.DB) (applied, latest int64, err error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, 0, fmt.Errorf("setting dialect: %w", err)
	}

	applied, err = goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, 0, fmt.Errorf("reading schema version: %w", err)
	}
	all, err := goose.CollectMigrations("migrations", 0, goose.MaxVersion)
	if err != nil {
		return 0, 0, fmt.Errorf("collecting migrations: %w", err)
	}
	last, err := all.Last()
	if err != nil {
		return applied, 0, fmt.Errorf("collecting migrations: %w", err)
	}
	return applied, last.Version, nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
// Both the modernc and mattn drivers report it with the same SQLite message.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
