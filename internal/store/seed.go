// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newsroomhq/newsdesk/internal/auth"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// Default admin credentials
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

//go:embed fixtures/articles.yaml
var articleFixtures []byte

type fixtureFile struct {
	Articles []struct {
		Title   string `yaml:"title"`
		Section string `yaml:"section"`
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"articles"`
}

// Seed creates the default admin user and settings row when missing.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	now := time.Now()

	if _, err := queries.GetSettings(ctx); errors.Is(err, sql.ErrNoRows) {
		s := model.DefaultSettings()
		s.UpdatedAt = now
		if err := queries.UpsertSettings(ctx, s); err != nil {
			return fmt.Errorf("creating default settings: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("checking settings: %w", err)
	}

	// Check if admin user already exists
	_, err := queries.GetUserByEmail(ctx, DefaultAdminEmail)
	if err == nil {
		slog.Info("admin user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultAdminPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultAdminEmail,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		Name:         DefaultAdminName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user",
		"id", user.ID,
		"email", user.Email,
		"password", DefaultAdminPassword,
	)

	return nil
}

// SeedSampleArticles publishes the bundled sample articles into an empty database.
func SeedSampleArticles(ctx context.Context, db *sql.DB) (int, error) {
	queries := New(db)

	count, err := queries.CountArticles(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("counting articles: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	var fixtures fixtureFile
	if err := yaml.Unmarshal(articleFixtures, &fixtures); err != nil {
		return 0, fmt.Errorf("parsing article fixtures: %w", err)
	}

	now := time.Now()
	for i, f := range fixtures.Articles {
		// Stagger creation times so listing order is stable
		createdAt := now.Add(-time.Duration(len(fixtures.Articles)-i) * time.Hour)
		_, err := queries.CreateArticle(ctx, model.Article{
			Title:     f.Title,
			Slug:      util.Slugify(f.Title),
			Section:   f.Section,
			Content:   f.Content,
			Author:    f.Author,
			Status:    model.ArticleStatusPublished,
			Source:    model.ArticleSourceInternal,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
		if err != nil {
			return i, fmt.Errorf("creating sample article %q: %w", f.Title, err)
		}
	}

	slog.Info("seeded sample articles", "count", len(fixtures.Articles))
	return len(fixtures.Articles), nil
}
