// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/service"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

type recordingObserver struct {
	runs      map[string][]error
	published int64
}

func (o *recordingObserver) JobRun(job string, err error) {
	if o.runs == nil {
		o.runs = make(map[string][]error)
	}
	o.runs[job] = append(o.runs[job], err)
}

func (o *recordingObserver) ArticlesPublished(n int64) { o.published += n }

func TestScheduler_StartStop(t *testing.T) {
	s := New(testutil.TestLoggerSilent(), nil)
	if err := s.Add("noop", "@every 1h", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	s.Start()
	s.Stop()
}

func TestScheduler_AddRejectsBadInput(t *testing.T) {
	s := New(testutil.TestLoggerSilent(), nil)
	noop := func(context.Context) error { return nil }

	if err := s.Add("bad", "not a schedule", noop); err == nil {
		t.Error("Add() with invalid schedule: expected error")
	}
	if err := s.Add("job", "@hourly", noop); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.Add("job", "@hourly", noop); err == nil {
		t.Error("Add() duplicate name: expected error")
	}
	if err := s.Trigger("missing"); err == nil {
		t.Error("Trigger() unknown job: expected error")
	}
}

func TestScheduler_PublishJobPromotesOnlyDueArticles(t *testing.T) {
	db := testutil.MemoryDB(t)
	articles := service.NewArticleService(db, nil, nil, testutil.TestLoggerSilent())
	obs := &recordingObserver{}
	s := New(testutil.TestLoggerSilent(), obs)

	if err := s.AddPublishJob(articles); err != nil {
		t.Fatalf("AddPublishJob() error = %v", err)
	}

	now := time.Now().UTC()
	past := now.Add(-2 * time.Minute)
	future := now.Add(time.Hour)
	due := testutil.CreateArticle(t, db, model.Article{Title: "Due", Status: model.ArticleStatusScheduled, PublishDate: &past})
	later := testutil.CreateArticle(t, db, model.Article{Title: "Later", Status: model.ArticleStatusScheduled, PublishDate: &future})
	draft := testutil.CreateArticle(t, db, model.Article{Title: "Draft", Status: model.ArticleStatusDraft, PublishDate: &past})

	if err := s.Trigger("publish_scheduled"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	ctx := context.Background()
	wantStatus := map[int64]string{
		due.ID:   model.ArticleStatusPublished,
		later.ID: model.ArticleStatusScheduled,
		draft.ID: model.ArticleStatusDraft,
	}
	for id, want := range wantStatus {
		a, err := articles.Get(ctx, id)
		if err != nil || a == nil {
			t.Fatalf("Get(%d) = %v, %v", id, a, err)
		}
		if a.Status != want {
			t.Errorf("article %q status = %q, want %q", a.Title, a.Status, want)
		}
	}
	if obs.published != 1 {
		t.Errorf("published = %d, want 1", obs.published)
	}

	// A second run finds nothing new.
	if err := s.Trigger("publish_scheduled"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if obs.published != 1 {
		t.Errorf("published after rerun = %d, want 1", obs.published)
	}
	if len(obs.runs["publish_scheduled"]) != 2 {
		t.Errorf("runs = %d, want 2", len(obs.runs["publish_scheduled"]))
	}
}

func TestScheduler_PruneEventsJob(t *testing.T) {
	db := testutil.MemoryDB(t)
	events := service.NewEventService(db)
	ctx := context.Background()

	if err := events.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySystem, "recent", nil); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO system_events (level, category, message, metadata, created_at)
		VALUES ('info', 'system', 'ancient', '{}', ?)`, time.Now().Add(-90*24*time.Hour).UnixMilli()); err != nil {
		t.Fatalf("insert old event: %v", err)
	}

	s := New(testutil.TestLoggerSilent(), nil)
	if err := s.AddPruneEventsJob(events, 30*24*time.Hour); err != nil {
		t.Fatalf("AddPruneEventsJob() error = %v", err)
	}
	if err := s.Trigger("prune_events"); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}

	remaining, err := events.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Message != "recent" {
		t.Errorf("remaining = %+v, want only the recent event", remaining)
	}
}

type failingReloader struct{ calls int }

func (r *failingReloader) Reload() error {
	r.calls++
	return errors.New("file truncated")
}

func TestScheduler_JobErrorsAreRecorded(t *testing.T) {
	obs := &recordingObserver{}
	s := New(testutil.TestLoggerSilent(), obs)
	r := &failingReloader{}

	if err := s.AddGeoIPReloadJob(r); err != nil {
		t.Fatalf("AddGeoIPReloadJob() error = %v", err)
	}
	if err := s.Trigger("reload_geoip"); err == nil {
		t.Error("Trigger() expected the job error")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("Jobs() = %d entries, want 1", len(jobs))
	}
	if jobs[0].LastError != "file truncated" || jobs[0].LastRun.IsZero() {
		t.Errorf("job info = %+v, want recorded failure", jobs[0])
	}
	if jobs[0].Schedule != GeoIPSchedule {
		t.Errorf("Schedule = %q, want %q", jobs[0].Schedule, GeoIPSchedule)
	}
	if errs := obs.runs["reload_geoip"]; len(errs) != 1 || errs[0] == nil {
		t.Errorf("observer runs = %v, want one failure", errs)
	}
}
