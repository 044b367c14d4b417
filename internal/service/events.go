// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic behind the HTTP API:
// articles, comments, users, settings, media and the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// EventService records audit entries in the system_events table.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent appends one entry to the system event log. Metadata that cannot
// be encoded is stored as an empty object.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	encoded := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			encoded = string(b)
		}
	}

	err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  encoded,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to log event", "category", category, "error", err)
		return err
	}
	return nil
}

// ListRecent returns the newest events first.
func (s *EventService) ListRecent(ctx context.Context, limit int) ([]model.SystemEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queries.ListEvents(ctx, limit)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}

// logAudit records an audit entry at level. A nil EventService or a failed
// write never interrupts the caller.
func (s *EventService) logAudit(ctx context.Context, level, category, message string, metadata map[string]any) {
	if s == nil {
		return
	}
	_ = s.LogEvent(ctx, level, category, message, metadata)
}
