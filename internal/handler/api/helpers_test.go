// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newsroomhq/newsdesk/internal/analytics"
	"github.com/newsroomhq/newsdesk/internal/blob"
	"github.com/newsroomhq/newsdesk/internal/middleware"
	"github.com/newsroomhq/newsdesk/internal/service"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

// testAPI is a fully wired API over an in-memory database.
type testAPI struct {
	t      *testing.T
	db     *sql.DB
	router http.Handler
	blobs  *blob.Filesystem
}

// apiOption adjusts the dependencies before the handler is built.
type apiOption func(*Deps)

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()

	db := testutil.MemoryDB(t)
	logger := testutil.TestLoggerSilent()

	blobs, err := blob.NewFilesystem(t.TempDir(), "http://news.test")
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}

	events := service.NewEventService(db)
	settings := service.NewSettingsService(db, events)
	media := service.NewMediaService(blobs, time.Minute, logger)

	deps := Deps{
		Articles: service.NewArticleService(db, media, events, logger),
		Comments: service.NewCommentService(db, settings),
		Users:    service.NewUserService(db, events, logger),
		Settings: settings,
		Media:    media,
		Events:   events,
		Tracker: analytics.NewTracker(analytics.TrackerConfig{
			DB:     db,
			Logger: logger,
		}),
		Logger: logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	r := chi.NewRouter()
	r.Route("/api/v1", NewHandler(deps).Routes)

	return &testAPI{t: t, db: db, router: r, blobs: blobs}
}

func withLoginProtection(lp *middleware.LoginProtection) apiOption {
	return func(d *Deps) { d.Login = lp }
}

func withIngest(mw func(http.Handler) http.Handler) apiOption {
	return func(d *Deps) { d.Ingest = mw }
}

func withJobs(j JobLister) apiOption {
	return func(d *Deps) { d.Jobs = j }
}

// do sends a request; body may be nil, a string or a value encoded as JSON.
func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			a.t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req.RemoteAddr = "203.0.113.7:4321"

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// envelope mirrors Response with raw data for per-test decoding.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  *Meta           `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// expect asserts the status code and decodes the envelope.
func expect(t *testing.T, w *httptest.ResponseRecorder, status int) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
	var env envelope
	if w.Body.Len() == 0 {
		return env
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return env
}

// decodeData unmarshals the envelope data into dst.
func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decoding data %s: %v", env.Data, err)
	}
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
