// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// EventStore is the storage used by the EventLogger.
type EventStore interface {
	InsertArticleEvent(ctx context.Context, e model.ArticleEvent) (int64, error)
	InsertShareEvent(ctx context.Context, e model.ShareEvent) (int64, error)
}

var _ EventStore = (*store.Queries)(nil)

// ArticleEventInput is one article event to append.
type ArticleEventInput struct {
	ArticleID  int64
	SessionID  *int64
	Kind       string
	OccurredAt time.Time
	Reader     model.Reader
	// Metadata may be nil, a string, or any JSON-encodable value.
	Metadata any
}

// ShareEventInput is one share to append.
type ShareEventInput struct {
	ArticleID  int64
	SessionID  *int64
	Channel    string
	Reader     model.Reader
	OccurredAt time.Time
	Context    string
}

// EventLogger appends immutable analytics rows.
type EventLogger struct {
	store  EventStore
	logger *slog.Logger
}

// NewEventLogger returns an EventLogger writing to s.
func NewEventLogger(s EventStore, logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{store: s, logger: logger}
}

// LogArticleEvent appends exactly one article event.
func (l *EventLogger) LogArticleEvent(ctx context.Context, in ArticleEventInput) (int64, error) {
	if in.ArticleID <= 0 || in.Kind == "" {
		return 0, fmt.Errorf("article event requires article and kind")
	}
	metadata, err := SerializeMetadata(in.Metadata)
	if err != nil {
		l.logger.Debug("dropping unserializable event metadata", "kind", in.Kind, "error", err)
	}
	id, err := l.store.InsertArticleEvent(ctx, model.ArticleEvent{
		ArticleID:  in.ArticleID,
		SessionID:  in.SessionID,
		Kind:       in.Kind,
		OccurredAt: in.OccurredAt,
		Reader:     in.Reader,
		Metadata:   metadata,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting %s event: %w", in.Kind, err)
	}
	return id, nil
}

// LogShareEvent appends exactly one share event.
func (l *EventLogger) LogShareEvent(ctx context.Context, in ShareEventInput) (int64, error) {
	if in.ArticleID <= 0 || in.Channel == "" {
		return 0, fmt.Errorf("share event requires article and channel")
	}
	id, err := l.store.InsertShareEvent(ctx, model.ShareEvent{
		ArticleID:  in.ArticleID,
		SessionID:  in.SessionID,
		Channel:    in.Channel,
		Reader:     in.Reader,
		OccurredAt: in.OccurredAt,
		Context:    in.Context,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting share event: %w", err)
	}
	return id, nil
}

// SerializeMetadata converts event metadata to its stored text form.
// nil, empty strings and empty objects yield "". Strings pass through
// unchanged. Everything else is JSON-encoded; on failure the result is ""
// together with the error so callers can log it and carry on.
func SerializeMetadata(v any) (string, error) {
	switch m := v.(type) {
	case nil:
		return "", nil
	case string:
		return m, nil
	case []byte:
		return string(m), nil
	case json.RawMessage:
		s := strings.TrimSpace(string(m))
		if s == "" || s == "null" || s == "{}" {
			return "", nil
		}
		return s, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Len() == 0 {
		return "", nil
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(b)
	if s == "{}" || s == "null" {
		return "", nil
	}
	return s, nil
}
