// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// MaxSiteNameLength bounds the configurable site name.
const MaxSiteNameLength = 200

// SettingsService reads and updates the site settings row.
type SettingsService struct {
	queries *store.Queries
	events  *EventService
	now     func() time.Time
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(db *sql.DB, events *EventService) *SettingsService {
	return &SettingsService{queries: store.New(db), events: events, now: time.Now}
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	settings, err := s.queries.GetSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return settings, nil
}

// Upsert applies patch on top of the current settings and saves the result.
func (s *SettingsService) Upsert(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return model.Settings{}, err
	}

	patch.Apply(&current)
	current.SiteName = strings.TrimSpace(current.SiteName)
	current.SiteDescription = strings.TrimSpace(current.SiteDescription)
	current.ContactEmail = model.NormalizeEmail(current.ContactEmail)

	verr := &model.ValidationError{}
	if current.SiteName == "" {
		verr.Add("site_name", "Site name is required")
	} else if len([]rune(current.SiteName)) > MaxSiteNameLength {
		verr.Add("site_name", fmt.Sprintf("Site name must be at most %d characters", MaxSiteNameLength))
	}
	if current.ContactEmail != "" {
		if _, err := mail.ParseAddress(current.ContactEmail); err != nil {
			verr.Add("contact_email", "Invalid email address")
		}
	}
	if err := verr.OrNil(); err != nil {
		return model.Settings{}, err
	}

	current.UpdatedAt = s.now().UTC()
	if err := s.queries.UpsertSettings(ctx, current); err != nil {
		return model.Settings{}, fmt.Errorf("saving settings: %w", err)
	}

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategorySettings, "Settings updated", nil)
	return current, nil
}
