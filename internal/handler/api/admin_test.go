// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/scheduler"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

func TestJobsEndpoints(t *testing.T) {
	expect(t, newTestAPI(t).do(http.MethodGet, "/api/v1/admin/jobs", nil), http.StatusNotFound)

	s := scheduler.New(testutil.TestLoggerSilent(), nil)
	if err := s.Add("rebuild_index", "@daily", func(context.Context) error { return errors.New("index locked") }); err != nil {
		t.Fatalf("Add: %v", err)
	}
	a := newTestAPI(t, withJobs(s))

	env := expect(t, a.do(http.MethodGet, "/api/v1/admin/jobs", nil), http.StatusOK)
	var jobs []scheduler.JobInfo
	decodeData(t, env, &jobs)
	if len(jobs) != 1 || jobs[0].Name != "rebuild_index" || !jobs[0].LastRun.IsZero() {
		t.Fatalf("jobs = %+v", jobs)
	}

	env = expect(t, a.do(http.MethodPost, "/api/v1/admin/jobs/rebuild_index/run", nil), http.StatusOK)
	var job scheduler.JobInfo
	decodeData(t, env, &job)
	if job.LastError != "index locked" || job.LastRun.IsZero() {
		t.Errorf("job after run = %+v", job)
	}

	expect(t, a.do(http.MethodPost, "/api/v1/admin/jobs/missing/run", nil), http.StatusNotFound)
}

func TestSystemEventsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	expect(t, a.do(http.MethodPut, "/api/v1/settings", map[string]any{"site_name": "Gazette"}), http.StatusOK)

	env := expect(t, a.do(http.MethodGet, "/api/v1/admin/events?limit=5", nil), http.StatusOK)
	var events []model.SystemEvent
	decodeData(t, env, &events)
	if len(events) != 1 || events[0].Category != model.EventCategorySettings {
		t.Errorf("events = %+v", events)
	}
}
