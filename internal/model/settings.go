// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Settings is the single site-wide settings row.
type Settings struct {
	SiteName        string    `json:"site_name"`
	SiteDescription string    `json:"site_description"`
	ContactEmail    string    `json:"contact_email"`
	CommentsEnabled bool      `json:"comments_enabled"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings returns the values used before settings were ever saved.
func DefaultSettings() Settings {
	return Settings{
		SiteName:        "Newsdesk",
		CommentsEnabled: true,
	}
}

// SettingsPatch carries the fields to change; nil fields are left untouched.
type SettingsPatch struct {
	SiteName        *string `json:"site_name,omitempty"`
	SiteDescription *string `json:"site_description,omitempty"`
	ContactEmail    *string `json:"contact_email,omitempty"`
	CommentsEnabled *bool   `json:"comments_enabled,omitempty"`
}

// Apply writes the non-nil patch fields onto s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.SiteName != nil {
		s.SiteName = *p.SiteName
	}
	if p.SiteDescription != nil {
		s.SiteDescription = *p.SiteDescription
	}
	if p.ContactEmail != nil {
		s.ContactEmail = *p.ContactEmail
	}
	if p.CommentsEnabled != nil {
		s.CommentsEnabled = *p.CommentsEnabled
	}
}
