// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"math"
	"time"
)

// Completion thresholds: a session counts as finished once any of these holds.
const (
	CompletionProgressPercent = 80.0
	CompletionDurationSeconds = 240.0
)

// SessionContext holds acquisition details recorded on a reading session.
// Fields are first-write-wins: once set they are never overwritten.
type SessionContext struct {
	Referrer    string `json:"referrer,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	DeviceType  string `json:"device_type,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// IsEmpty reports whether no context field is set.
func (c SessionContext) IsEmpty() bool {
	return c == SessionContext{}
}

// FillMissing copies fields from other into c where c is still empty.
// It returns true if anything changed.
func (c *SessionContext) FillMissing(other SessionContext) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&c.Referrer, other.Referrer)
	fill(&c.UTMSource, other.UTMSource)
	fill(&c.UTMMedium, other.UTMMedium)
	fill(&c.UTMCampaign, other.UTMCampaign)
	fill(&c.DeviceType, other.DeviceType)
	fill(&c.CountryCode, other.CountryCode)
	return changed
}

// ReadingSession is one continuous reading of an article, keyed by a
// client-generated token.
type ReadingSession struct {
	ID              int64          `json:"id"`
	Token           string         `json:"session_token"`
	ArticleID       int64          `json:"article_id"`
	Reader          Reader         `json:"reader"`
	StartedAt       time.Time      `json:"started_at"`
	LastEventAt     time.Time      `json:"last_event_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	ProgressPercent *float64       `json:"progress_percent,omitempty"`
	DurationSeconds *float64       `json:"duration_seconds,omitempty"`
	Context         SessionContext `json:"context"`
}

// IsCompleted reports whether the session meets any completion criterion.
func (s *ReadingSession) IsCompleted() bool {
	if s.ProgressPercent != nil && *s.ProgressPercent >= CompletionProgressPercent {
		return true
	}
	if s.DurationSeconds != nil && *s.DurationSeconds >= CompletionDurationSeconds {
		return true
	}
	return s.CompletedAt != nil
}

// ClampProgress limits a progress value to [0, 100].
func ClampProgress(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ClampDuration limits a duration value to be non-negative.
func ClampDuration(v float64) float64 {
	return math.Max(0, v)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
