// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// ErrMissingToken is returned when a session operation has no token.
var ErrMissingToken = model.NewValidationError("session_token", "Session token is required")

// SessionStore is the storage used by the Reconciler.
type SessionStore interface {
	GetSessionByToken(ctx context.Context, token string) (model.ReadingSession, error)
	InsertSession(ctx context.Context, s model.ReadingSession) (int64, bool, error)
	UpdateSession(ctx context.Context, s model.ReadingSession) error
}

var _ SessionStore = (*store.Queries)(nil)

// EnsureParams describes one event applied to a reading session.
type EnsureParams struct {
	ArticleID int64
	Token     string
	// Reader, when set, is the identity reported with this event.
	// Nil keeps whatever the session already holds.
	Reader  *model.Reader
	Context *model.SessionContext
	At      time.Time
	// Progress and Duration are raw client values; they are clamped and
	// only stored when larger than the current value.
	Progress        *float64
	Duration        *float64
	CreateIfMissing bool
	// MarkCompleted sets completed_at to At unless already set.
	MarkCompleted bool
}

// EnsureResult describes the session after an EnsureSession call.
type EnsureResult struct {
	SessionID int64
	Created   bool
	Reader    model.Reader
	Session   model.ReadingSession
	// Previous is the session as it was before this call; nil when created.
	Previous *model.ReadingSession
}

// Reconciler finds or creates reading sessions and merges updates into them.
type Reconciler struct {
	store SessionStore
}

// NewReconciler returns a Reconciler backed by s.
func NewReconciler(s SessionStore) *Reconciler {
	return &Reconciler{store: s}
}

// EnsureSession applies p to the session identified by p.Token.
//
// It returns (nil, nil) when no session exists and p.CreateIfMissing is false.
// The token is unique in storage, so when two callers race to create the same
// session exactly one of them reports Created and the other merges into it.
func (r *Reconciler) EnsureSession(ctx context.Context, p EnsureParams) (*EnsureResult, error) {
	p.Token = strings.TrimSpace(p.Token)
	if p.Token == "" {
		return nil, ErrMissingToken
	}

	existing, err := r.store.GetSessionByToken(ctx, p.Token)
	switch {
	case err == nil:
		return r.update(ctx, existing, p)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	if !p.CreateIfMissing {
		return nil, nil
	}

	s := newSession(p)
	id, inserted, err := r.store.InsertSession(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if inserted {
		s.ID = id
		return &EnsureResult{SessionID: id, Created: true, Reader: s.Reader, Session: s}, nil
	}

	// Another request created the session between lookup and insert.
	existing, err = r.store.GetSessionByToken(ctx, p.Token)
	if err != nil {
		return nil, fmt.Errorf("reloading session: %w", err)
	}
	return r.update(ctx, existing, p)
}

func (r *Reconciler) update(ctx context.Context, existing model.ReadingSession, p EnsureParams) (*EnsureResult, error) {
	prev := existing
	merged, changed := MergeSession(existing, p)
	if changed {
		if err := r.store.UpdateSession(ctx, merged); err != nil {
			return nil, fmt.Errorf("updating session: %w", err)
		}
	}
	return &EnsureResult{
		SessionID: merged.ID,
		Reader:    merged.Reader,
		Session:   merged,
		Previous:  &prev,
	}, nil
}

func newSession(p EnsureParams) model.ReadingSession {
	s := model.ReadingSession{
		Token:       p.Token,
		ArticleID:   p.ArticleID,
		Reader:      model.Guest(""),
		StartedAt:   p.At,
		LastEventAt: p.At,
	}
	if p.Reader != nil {
		s.Reader = *p.Reader
	}
	if p.Context != nil {
		s.Context = *p.Context
	}
	if v, ok := clean(p.Progress, model.ClampProgress); ok {
		s.ProgressPercent = &v
	}
	if v, ok := clean(p.Duration, model.ClampDuration); ok {
		s.DurationSeconds = &v
	}
	if p.MarkCompleted {
		at := p.At
		s.CompletedAt = &at
	}
	return s
}

// MergeSession applies p to s without touching storage and reports whether
// anything changed. Progress and duration only grow, context fields are
// first-write-wins and last_event_at never moves backwards.
func MergeSession(s model.ReadingSession, p EnsureParams) (model.ReadingSession, bool) {
	changed := false

	if p.At.After(s.LastEventAt) {
		s.LastEventAt = p.At
		changed = true
	}

	if v, ok := clean(p.Progress, model.ClampProgress); ok {
		if s.ProgressPercent == nil || v > *s.ProgressPercent {
			s.ProgressPercent = &v
			changed = true
		}
	}
	if v, ok := clean(p.Duration, model.ClampDuration); ok {
		if s.DurationSeconds == nil || v > *s.DurationSeconds {
			s.DurationSeconds = &v
			changed = true
		}
	}

	if p.Context != nil && s.Context.FillMissing(*p.Context) {
		changed = true
	}

	if p.Reader != nil {
		next := *p.Reader
		// Signing in should not lose the visitor key the guest session carried.
		if next.VisitorKey == "" {
			next.VisitorKey = s.Reader.VisitorKey
		}
		if next != s.Reader {
			s.Reader = next
			changed = true
		}
	}

	if p.MarkCompleted && s.CompletedAt == nil {
		at := p.At
		if at.IsZero() {
			at = s.LastEventAt
		}
		s.CompletedAt = &at
		changed = true
	}

	return s, changed
}

// clean clamps a finite client value; absent and non-finite values are dropped.
func clean(v *float64, clamp func(float64) float64) (float64, bool) {
	if v == nil || !model.IsFinite(*v) {
		return 0, false
	}
	return clamp(*v), true
}
