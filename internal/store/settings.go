// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// GetSettings returns the settings row or sql.ErrNoRows if it was never saved.
func (q *Queries) GetSettings(ctx context.Context) (model.Settings, error) {
	var (
		s         model.Settings
		enabled   int64
		updatedAt int64
	)
	err := q.db.QueryRowContext(ctx, `SELECT site_name, site_description, contact_email,
        comments_enabled, updated_at FROM settings WHERE id = 1`).
		Scan(&s.SiteName, &s.SiteDescription, &s.ContactEmail, &enabled, &updatedAt)
	if err != nil {
		return model.Settings{}, err
	}
	s.CommentsEnabled = enabled != 0
	s.UpdatedAt = util.TimeFromMillis(updatedAt)
	return s, nil
}

// UpsertSettings creates the settings row or overwrites it.
func (q *Queries) UpsertSettings(ctx context.Context, s model.Settings) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO settings
        (id, site_name, site_description, contact_email, comments_enabled, updated_at)
        VALUES (1, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            site_name = excluded.site_name,
            site_description = excluded.site_description,
            contact_email = excluded.contact_email,
            comments_enabled = excluded.comments_enabled,
            updated_at = excluded.updated_at`,
		s.SiteName, s.SiteDescription, s.ContactEmail, boolToInt(s.CommentsEnabled),
		util.UnixMillis(s.UpdatedAt))
	return err
}
