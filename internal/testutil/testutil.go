// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the newsdesk project.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/util"

	_ "github.com/mattn/go-sqlite3"
)

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary test database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "newsdesk-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// MemoryDB opens a migrated in-memory database on the cgo sqlite3 driver.
// A single connection keeps every query on the same in-memory database.
func MemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateArticle inserts a published internal article created an hour ago.
// Fields set on a override the defaults.
func CreateArticle(t *testing.T, db *sql.DB, a model.Article) model.Article {
	t.Helper()

	if a.Title == "" {
		a.Title = "Test Article"
	}
	if a.Slug == "" {
		a.Slug = util.Slugify(a.Title)
	}
	if a.Section == "" {
		a.Section = "news"
	}
	if a.Status == "" {
		a.Status = model.ArticleStatusPublished
	}
	if a.Source == "" {
		a.Source = model.ArticleSourceInternal
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC().Add(-time.Hour)
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}

	created, err := store.New(db).CreateArticle(context.Background(), a)
	if err != nil {
		t.Fatalf("CreateArticle(%q): %v", a.Slug, err)
	}
	return created
}

// CreateUser inserts a user with the given email and role.
func CreateUser(t *testing.T, db *sql.DB, email, role string) model.User {
	t.Helper()

	now := time.Now().UTC()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Name:         email,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser(%q): %v", email, err)
	}
	return u
}
