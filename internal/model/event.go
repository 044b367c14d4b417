// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Article event kinds
const (
	EventKindView           = "view"
	EventKindSessionStarted = "session_started"
	EventKindHeartbeat      = "heartbeat"
	EventKindCompleted      = "completed"
	EventKindShare          = "share"
	EventKindCustom         = "custom"
)

// IsValidEventKind reports whether kind is a known article event kind.
func IsValidEventKind(kind string) bool {
	switch kind {
	case EventKindView, EventKindSessionStarted, EventKindHeartbeat,
		EventKindCompleted, EventKindShare, EventKindCustom:
		return true
	}
	return false
}

// ArticleEvent is an immutable record of reader activity on an article.
type ArticleEvent struct {
	ID         int64     `json:"id"`
	ArticleID  int64     `json:"article_id"`
	SessionID  *int64    `json:"session_id,omitempty"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Reader     Reader    `json:"reader"`
	Metadata   string    `json:"metadata,omitempty"` // JSON text
}

// ShareEvent is an immutable record of an article being shared.
type ShareEvent struct {
	ID         int64     `json:"id"`
	ArticleID  int64     `json:"article_id"`
	SessionID  *int64    `json:"session_id,omitempty"`
	Channel    string    `json:"channel"`
	Reader     Reader    `json:"reader"`
	OccurredAt time.Time `json:"occurred_at"`
	Context    string    `json:"context,omitempty"`
}

// System event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// System event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryArticle  = "article"
	EventCategoryUser     = "user"
	EventCategoryReading  = "reading"
	EventCategorySettings = "settings"
	EventCategorySystem   = "system"
)

// SystemEvent is an operational log entry persisted for auditing.
type SystemEvent struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON string
	CreatedAt time.Time
}
