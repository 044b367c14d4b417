// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// CreateEventParams holds the columns of a system event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends a system event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	metadata := arg.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO system_events (level, category, message, metadata, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, metadata, util.UnixMillis(arg.CreatedAt))
	return err
}

// ListEvents returns the most recent system events first.
func (q *Queries) ListEvents(ctx context.Context, limit int) ([]model.SystemEvent, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, level, category, message, metadata, created_at
        FROM system_events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.SystemEvent
	for rows.Next() {
		var (
			e  model.SystemEvent
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.Metadata, &ms); err != nil {
			return nil, err
		}
		e.CreatedAt = util.TimeFromMillis(ms)
		items = append(items, e)
	}
	return items, rows.Err()
}

// DeleteEventsBefore prunes system events older than before.
func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM system_events WHERE created_at < ?`, util.UnixMillis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
