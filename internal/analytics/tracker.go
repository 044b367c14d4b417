// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records reader activity on articles and computes
// reading statistics. Writes go through the Reconciler (sessions) and the
// EventLogger (immutable events) inside one transaction per operation; reads
// load a window of rows and hand them to pure Compute* functions.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// Sentinel errors returned by Tracker operations.
var (
	ErrArticleNotFound = errors.New("article not found")
	ErrSessionNotFound = errors.New("reading session not found for token")
)

// Recorder receives counters for recorded activity.
type Recorder interface {
	EventRecorded(kind string)
	SessionCreated()
	ShareRecorded(channel string)
}

type nopRecorder struct{}

func (nopRecorder) EventRecorded(string) {}
func (nopRecorder) SessionCreated()      {}
func (nopRecorder) ShareRecorded(string) {}

// TrackerConfig wires a Tracker.
type TrackerConfig struct {
	DB       *sql.DB
	Logger   *slog.Logger
	GeoIP    CountryLookup
	Recorder Recorder
	// Now overrides the clock; defaults to time.Now.
	Now func() time.Time
}

// Tracker implements the reading operations exposed to clients. Every write
// operation runs in one transaction, so a failed call leaves nothing behind.
type Tracker struct {
	db         *sql.DB
	queries    *store.Queries
	geo        CountryLookup
	recorder   Recorder
	logger     *slog.Logger
	now        func() time.Time
}

// NewTracker creates a Tracker from cfg.
func NewTracker(cfg TrackerConfig) *Tracker {
	t := &Tracker{
		db:         cfg.DB,
		queries:    store.New(cfg.DB),
		geo:        cfg.GeoIP,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		now:        cfg.Now,
	}
	if t.recorder == nil {
		t.recorder = nopRecorder{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// ReadingInput carries the fields shared by every reading operation.
type ReadingInput struct {
	ArticleID int64
	Token     string
	Reader    *model.Reader
	Context   *model.SessionContext
	Client    ClientInfo
	// At is the client event time; zero means now.
	At time.Time
}

// ViewInput records an article view.
type ViewInput struct {
	ReadingInput
	Metadata any
}

// HeartbeatInput reports reading progress.
type HeartbeatInput struct {
	ReadingInput
	Progress        *float64
	Duration        *float64
	CreateIfMissing bool
}

// CompleteInput marks a session as finished.
type CompleteInput struct {
	ReadingInput
	Progress *float64
	Duration *float64
}

// ShareInput records a share of an article.
type ShareInput struct {
	ReadingInput
	Channel string
	Note    string
}

// CustomInput records an application-defined event.
type CustomInput struct {
	ReadingInput
	Name     string
	Metadata any
}

// SessionResult describes the session an operation touched, if any.
type SessionResult struct {
	SessionID *int64                `json:"session_id"`
	Created   bool                  `json:"created"`
	Reader    model.Reader          `json:"reader"`
	Session   *model.ReadingSession `json:"session,omitempty"`
}

// ViewResult is returned by RecordView.
type ViewResult struct {
	SessionResult
	Views int64 `json:"views"`
}

func (t *Tracker) eventTime(at time.Time) time.Time {
	if at.IsZero() {
		return t.now().UTC()
	}
	return at.UTC()
}

// op is one write operation bound to its transaction. Recorder updates are
// queued and only run after commit.
type op struct {
	t          *Tracker
	q          *store.Queries
	reconciler *Reconciler
	events     *EventLogger
	onCommit   []func()
}

// atomically runs fn inside a transaction and commits when it succeeds.
func (t *Tracker) atomically(ctx context.Context, fn func(o *op) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := t.queries.WithTx(tx)
	o := &op{t: t, q: q, reconciler: NewReconciler(q), events: NewEventLogger(q, t.logger)}
	if err := fn(o); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	for _, f := range o.onCommit {
		f()
	}
	return nil
}

func (o *op) requireArticle(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrArticleNotFound
	}
	if _, err := o.q.GetArticle(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrArticleNotFound
		}
		return fmt.Errorf("loading article: %w", err)
	}
	return nil
}

// ensure runs the reconciler for in with the given extras.
func (o *op) ensure(ctx context.Context, in ReadingInput, at time.Time, create bool, progress, duration *float64, complete bool) (*EnsureResult, error) {
	var sc *model.SessionContext
	enriched := EnrichContext(derefContext(in.Context), in.Client, o.t.geo)
	if !enriched.IsEmpty() {
		sc = &enriched
	}

	res, err := o.reconciler.EnsureSession(ctx, EnsureParams{
		ArticleID:       in.ArticleID,
		Token:           in.Token,
		Reader:          in.Reader,
		Context:         sc,
		At:              at,
		Progress:        progress,
		Duration:        duration,
		CreateIfMissing: create,
		MarkCompleted:   complete,
	})
	if err != nil {
		return nil, err
	}
	if res != nil && res.Created {
		o.onCommit = append(o.onCommit, o.t.recorder.SessionCreated)
	}
	return res, nil
}

// ensureIfToken resolves the session only when in carries a token.
func (o *op) ensureIfToken(ctx context.Context, in ReadingInput, at time.Time, create bool) (*EnsureResult, error) {
	if strings.TrimSpace(in.Token) == "" {
		return nil, nil
	}
	return o.ensure(ctx, in, at, create, nil, nil, false)
}

func derefContext(c *model.SessionContext) model.SessionContext {
	if c == nil {
		return model.SessionContext{}
	}
	return *c
}

// snapshot picks the reader identity to stamp on an event.
func snapshot(res *EnsureResult, in ReadingInput) model.Reader {
	if res != nil {
		return res.Reader
	}
	if in.Reader != nil {
		return *in.Reader
	}
	return model.Guest("")
}

func sessionResult(res *EnsureResult, in ReadingInput) SessionResult {
	out := SessionResult{Reader: snapshot(res, in)}
	if res != nil {
		id := res.SessionID
		s := res.Session
		out.SessionID = &id
		out.Created = res.Created
		out.Session = &s
	}
	return out
}

func (o *op) logEvent(ctx context.Context, in ReadingInput, res *EnsureResult, kind string, at time.Time, metadata any) error {
	out := sessionResult(res, in)
	if _, err := o.events.LogArticleEvent(ctx, ArticleEventInput{
		ArticleID:  in.ArticleID,
		SessionID:  out.SessionID,
		Kind:       kind,
		OccurredAt: at,
		Reader:     out.Reader,
		Metadata:   metadata,
	}); err != nil {
		return err
	}
	o.onCommit = append(o.onCommit, func() { o.t.recorder.EventRecorded(kind) })
	return nil
}

// RecordView increments the article's view counter, attaches the view to the
// reader's session when a token is given, and appends one view event.
func (t *Tracker) RecordView(ctx context.Context, in ViewInput) (*ViewResult, error) {
	at := t.eventTime(in.At)
	var out *ViewResult

	err := t.atomically(ctx, func(o *op) error {
		views, err := o.q.IncrementArticleViews(ctx, in.ArticleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrArticleNotFound
			}
			return fmt.Errorf("incrementing views: %w", err)
		}
		res, err := o.ensureIfToken(ctx, in.ReadingInput, at, true)
		if err != nil {
			return err
		}
		if err := o.logEvent(ctx, in.ReadingInput, res, model.EventKindView, at, in.Metadata); err != nil {
			return err
		}
		out = &ViewResult{SessionResult: sessionResult(res, in.ReadingInput), Views: views}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StartSession finds or creates the session for the token. A
// session_started event is appended only when the session is new.
func (t *Tracker) StartSession(ctx context.Context, in ReadingInput) (*SessionResult, error) {
	at := t.eventTime(in.At)
	var out SessionResult

	err := t.atomically(ctx, func(o *op) error {
		if err := o.requireArticle(ctx, in.ArticleID); err != nil {
			return err
		}
		res, err := o.ensure(ctx, in, at, true, nil, nil, false)
		if err != nil {
			return err
		}
		if res.Created {
			if err := o.logEvent(ctx, in, res, model.EventKindSessionStarted, at, nil); err != nil {
				return err
			}
		}
		out = sessionResult(res, in)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Heartbeat merges progress and duration into the session and appends a
// heartbeat event carrying the clamped reported values. Without
// CreateIfMissing an unknown token fails with ErrSessionNotFound.
func (t *Tracker) Heartbeat(ctx context.Context, in HeartbeatInput) (*SessionResult, error) {
	at := t.eventTime(in.At)
	var out SessionResult

	err := t.atomically(ctx, func(o *op) error {
		if in.CreateIfMissing {
			if err := o.requireArticle(ctx, in.ArticleID); err != nil {
				return err
			}
		}
		res, err := o.ensure(ctx, in.ReadingInput, at, in.CreateIfMissing, in.Progress, in.Duration, false)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrSessionNotFound
		}

		metadata := map[string]any{}
		if v, ok := clean(in.Progress, model.ClampProgress); ok {
			metadata["progress_percent"] = v
		}
		if v, ok := clean(in.Duration, model.ClampDuration); ok {
			metadata["duration_seconds"] = v
		}
		rin := in.ReadingInput
		rin.ArticleID = res.Session.ArticleID
		if err := o.logEvent(ctx, rin, res, model.EventKindHeartbeat, at, metadata); err != nil {
			return err
		}
		out = sessionResult(res, rin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Complete marks an existing session as finished. Progress and duration end
// up as the larger of the stored and reported values, and completed_at is
// only set the first time.
func (t *Tracker) Complete(ctx context.Context, in CompleteInput) (*SessionResult, error) {
	at := t.eventTime(in.At)
	var out SessionResult

	err := t.atomically(ctx, func(o *op) error {
		res, err := o.ensure(ctx, in.ReadingInput, at, false, in.Progress, in.Duration, true)
		if err != nil {
			return err
		}
		if res == nil {
			return ErrSessionNotFound
		}

		metadata := map[string]any{}
		if p := res.Session.ProgressPercent; p != nil {
			metadata["progress_percent"] = *p
		}
		if d := res.Session.DurationSeconds; d != nil {
			metadata["duration_seconds"] = *d
		}
		if res.Previous != nil && res.Previous.CompletedAt != nil {
			metadata["repeat"] = true
		}
		rin := in.ReadingInput
		rin.ArticleID = res.Session.ArticleID
		if err := o.logEvent(ctx, rin, res, model.EventKindCompleted, at, metadata); err != nil {
			return err
		}
		out = sessionResult(res, rin)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Share appends a share event and a matching article event. The share is
// linked to the reader's session when the token resolves; no session is
// created for it.
func (t *Tracker) Share(ctx context.Context, in ShareInput) (*SessionResult, error) {
	channel := strings.TrimSpace(in.Channel)
	if channel == "" {
		return nil, model.NewValidationError("channel", "Channel is required")
	}
	at := t.eventTime(in.At)
	var out SessionResult

	err := t.atomically(ctx, func(o *op) error {
		if err := o.requireArticle(ctx, in.ArticleID); err != nil {
			return err
		}
		res, err := o.ensureIfToken(ctx, in.ReadingInput, at, false)
		if err != nil {
			return err
		}
		out = sessionResult(res, in.ReadingInput)

		if _, err := o.events.LogShareEvent(ctx, ShareEventInput{
			ArticleID:  in.ArticleID,
			SessionID:  out.SessionID,
			Channel:    channel,
			Reader:     out.Reader,
			OccurredAt: at,
			Context:    strings.TrimSpace(in.Note),
		}); err != nil {
			return err
		}
		o.onCommit = append(o.onCommit, func() { t.recorder.ShareRecorded(normalizeChannel(channel)) })

		return o.logEvent(ctx, in.ReadingInput, res, model.EventKindShare, at, map[string]any{"channel": channel})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LogCustom appends a custom event, linked to the session when the token resolves.
func (t *Tracker) LogCustom(ctx context.Context, in CustomInput) (*SessionResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("name", "Event name is required")
	}
	at := t.eventTime(in.At)

	metadata := map[string]any{"name": name}
	if extra, err := SerializeMetadata(in.Metadata); err == nil && extra != "" {
		if json.Valid([]byte(extra)) {
			metadata["data"] = json.RawMessage(extra)
		} else {
			metadata["data"] = extra
		}
	}

	var out SessionResult
	err := t.atomically(ctx, func(o *op) error {
		if err := o.requireArticle(ctx, in.ArticleID); err != nil {
			return err
		}
		res, err := o.ensureIfToken(ctx, in.ReadingInput, at, false)
		if err != nil {
			return err
		}
		if err := o.logEvent(ctx, in.ReadingInput, res, model.EventKindCustom, at, metadata); err != nil {
			return err
		}
		out = sessionResult(res, in.ReadingInput)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard loads the dashboard window and computes its statistics.
func (t *Tracker) Dashboard(ctx context.Context) (DashboardStats, error) {
	now := t.now().UTC()
	var (
		in  DashboardInput
		err error
	)

	counts := []struct {
		dst *int64
		fn  func() (int64, error)
	}{
		{&in.Totals.Articles, func() (int64, error) { return t.queries.CountArticles(ctx, "") }},
		{&in.Totals.PublishedArticles, func() (int64, error) { return t.queries.CountArticles(ctx, model.ArticleStatusPublished) }},
		{&in.Totals.Users, func() (int64, error) { return t.queries.CountUsers(ctx) }},
		{&in.Totals.Comments, func() (int64, error) { return t.queries.CountComments(ctx, "") }},
		{&in.Totals.PendingComments, func() (int64, error) { return t.queries.CountComments(ctx, model.CommentStatusPending) }},
		{&in.Totals.Sessions, func() (int64, error) { return t.queries.CountSessions(ctx) }},
		{&in.Totals.ViewEvents, func() (int64, error) { return t.queries.CountEventsByKind(ctx, model.EventKindView) }},
	}
	for _, c := range counts {
		if *c.dst, err = c.fn(); err != nil {
			return DashboardStats{}, fmt.Errorf("counting dashboard totals: %w", err)
		}
	}

	if in.Articles, err = t.queries.ListArticleStats(ctx); err != nil {
		return DashboardStats{}, fmt.Errorf("loading article stats: %w", err)
	}
	if in.ViewTimes, err = t.queries.ListEventTimesSince(ctx, model.EventKindView, DashboardSince(now)); err != nil {
		return DashboardStats{}, fmt.Errorf("loading views: %w", err)
	}
	windowStart := WindowStart(now)
	if in.Sessions, err = t.queries.ListSessionsStartedSince(ctx, windowStart); err != nil {
		return DashboardStats{}, fmt.Errorf("loading sessions: %w", err)
	}
	if in.Shares, err = t.queries.ListSharesSince(ctx, windowStart); err != nil {
		return DashboardStats{}, fmt.Errorf("loading shares: %w", err)
	}

	return ComputeDashboard(in, now), nil
}

// Audience computes the audience split over all view events.
func (t *Tracker) Audience(ctx context.Context) (AudienceMetrics, error) {
	views, err := t.queries.CountViewsByViewer(ctx)
	if err != nil {
		return AudienceMetrics{}, fmt.Errorf("counting views: %w", err)
	}
	roles, err := t.queries.ListUserRoles(ctx)
	if err != nil {
		return AudienceMetrics{}, fmt.Errorf("loading roles: %w", err)
	}
	return ComputeAudience(views, roles), nil
}

// Reading computes global reading statistics.
func (t *Tracker) Reading(ctx context.Context) (ReadingMetrics, error) {
	sessions, err := t.queries.ListSessionsStartedSince(ctx, time.Time{})
	if err != nil {
		return ReadingMetrics{}, fmt.Errorf("loading sessions: %w", err)
	}
	return ComputeReading(sessions), nil
}

// Shares computes the global share breakdown.
func (t *Tracker) Shares(ctx context.Context) (ShareMetrics, error) {
	shares, err := t.queries.ListSharesSince(ctx, time.Time{})
	if err != nil {
		return ShareMetrics{}, fmt.Errorf("loading shares: %w", err)
	}
	views, err := t.queries.CountEventsByKind(ctx, model.EventKindView)
	if err != nil {
		return ShareMetrics{}, fmt.Errorf("counting views: %w", err)
	}
	return ComputeShares(shares, views), nil
}
