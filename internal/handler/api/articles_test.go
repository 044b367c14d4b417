// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

type articleJSON struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Status      string     `json:"status"`
	HTML        string     `json:"html"`
	PublishDate *time.Time `json:"publish_date"`
	Views       int64      `json:"views"`
}

func TestArticleLifecycle(t *testing.T) {
	a := newTestAPI(t)

	env := expect(t, a.do(http.MethodPost, "/api/v1/articles", map[string]any{
		"title":   "Harbor Bridge Reopens",
		"section": "local",
		"content": "Traffic resumed **Tuesday**.",
	}), http.StatusCreated)

	var created articleJSON
	decodeData(t, env, &created)
	if created.Slug != "harbor-bridge-reopens" || created.Status != model.ArticleStatusDraft {
		t.Errorf("created = %+v", created)
	}
	if created.HTML == "" {
		t.Error("expected rendered HTML")
	}

	path := fmt.Sprintf("/api/v1/articles/%d", created.ID)

	env = expect(t, a.do(http.MethodGet, "/api/v1/articles/slug/harbor-bridge-reopens", nil), http.StatusOK)
	var bySlug articleJSON
	decodeData(t, env, &bySlug)
	if bySlug.ID != created.ID {
		t.Errorf("GetBySlug id = %d, want %d", bySlug.ID, created.ID)
	}

	env = expect(t, a.do(http.MethodPatch, path, map[string]any{
		"status":       "published",
		"publish_date": "2025-03-01T08:00:00Z",
	}), http.StatusOK)
	var updated articleJSON
	decodeData(t, env, &updated)
	if updated.Status != model.ArticleStatusPublished || updated.PublishDate == nil {
		t.Fatalf("updated = %+v", updated)
	}

	env = expect(t, a.do(http.MethodPatch, path, `{"publish_date": null}`), http.StatusOK)
	var cleared articleJSON
	decodeData(t, env, &cleared)
	if cleared.PublishDate != nil {
		t.Errorf("publish_date = %v, want cleared", cleared.PublishDate)
	}

	expect(t, a.do(http.MethodDelete, path, nil), http.StatusNoContent)

	env = expect(t, a.do(http.MethodGet, path, nil), http.StatusOK)
	if !isNull(env.Data) {
		t.Errorf("data = %s, want null for a deleted article", env.Data)
	}

	env = expect(t, a.do(http.MethodDelete, path, nil), http.StatusNotFound)
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Errorf("error = %+v, want not_found", env.Error)
	}
}

func TestCreateArticle_BadInput(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest, ""},
		{"empty body", "", http.StatusBadRequest, ""},
		{"missing title", map[string]any{"content": "x"}, http.StatusUnprocessableEntity, "title"},
		{"bad status", map[string]any{"title": "T", "status": "live"}, http.StatusUnprocessableEntity, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := expect(t, a.do(http.MethodPost, "/api/v1/articles", tt.body), tt.status)
			if tt.field == "" {
				return
			}
			if env.Error == nil || env.Error.Details[tt.field] == "" {
				t.Errorf("error = %+v, want details for %q", env.Error, tt.field)
			}
		})
	}
}

func TestUpdateArticle_InvalidPublishDate(t *testing.T) {
	a := newTestAPI(t)
	art := testutil.CreateArticle(t, a.db, model.Article{Title: "Dated"})

	env := expect(t, a.do(http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d", art.ID),
		`{"publish_date": "next tuesday"}`), http.StatusUnprocessableEntity)
	if env.Error.Details["publish_date"] == "" {
		t.Errorf("details = %v, want publish_date", env.Error.Details)
	}

	expect(t, a.do(http.MethodPatch, "/api/v1/articles/abc", `{}`), http.StatusBadRequest)
	expect(t, a.do(http.MethodPatch, "/api/v1/articles/999", `{"title":"x"}`), http.StatusNotFound)
}

func TestListArticles(t *testing.T) {
	a := newTestAPI(t)
	now := time.Now().UTC()
	for i := 1; i <= 6; i++ {
		created := now.Add(-time.Duration(i) * time.Hour)
		testutil.CreateArticle(t, a.db, model.Article{
			Title:     fmt.Sprintf("Story %d", i),
			Section:   map[bool]string{true: "sports", false: "news"}[i%2 == 0],
			CreatedAt: created,
		})
	}
	future := now.Add(24 * time.Hour)
	testutil.CreateArticle(t, a.db, model.Article{Title: "Embargoed", PublishDate: &future})

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantFirst string
	}{
		{"defaults", "", 5, "Story 1"},
		{"limit", "?limit=2", 2, "Story 1"},
		{"section", "?section=sports", 3, "Story 2"},
		{"limit above max is capped", "?limit=1000", 6, "Story 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := expect(t, a.do(http.MethodGet, "/api/v1/articles"+tt.query, nil), http.StatusOK)
			var got []articleJSON
			decodeData(t, env, &got)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d articles, want %d", len(got), tt.wantCount)
			}
			if got[0].Title != tt.wantFirst {
				t.Errorf("first = %q, want %q", got[0].Title, tt.wantFirst)
			}
		})
	}

	expect(t, a.do(http.MethodGet, "/api/v1/articles?limit=zero", nil), http.StatusUnprocessableEntity)
	expect(t, a.do(http.MethodGet, "/api/v1/articles?status=live", nil), http.StatusUnprocessableEntity)

	env := expect(t, a.do(http.MethodGet, "/api/v1/articles?section=weather", nil), http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("empty listing data = %s, want []", env.Data)
	}
}

func TestListAllArticles_Paginated(t *testing.T) {
	a := newTestAPI(t)
	for i := 0; i < 3; i++ {
		testutil.CreateArticle(t, a.db, model.Article{Title: fmt.Sprintf("Draft %d", i), Status: model.ArticleStatusDraft})
	}
	testutil.CreateArticle(t, a.db, model.Article{Title: "Live"})

	env := expect(t, a.do(http.MethodGet, "/api/v1/admin/articles?status=draft&per_page=2&page=2", nil), http.StatusOK)
	var got []articleJSON
	decodeData(t, env, &got)
	if len(got) != 1 {
		t.Errorf("page 2 has %d articles, want 1", len(got))
	}
	if env.Meta == nil || env.Meta.Total != 3 || env.Meta.Pages != 2 || env.Meta.Page != 2 || env.Meta.PerPage != 2 {
		t.Errorf("meta = %+v", env.Meta)
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newTestAPI(t)
	env := expect(t, a.do(http.MethodGet, "/api/v1/nope", nil), http.StatusNotFound)
	if env.Error == nil || env.Error.Code != "not_found" {
		t.Errorf("error = %+v", env.Error)
	}
	expect(t, a.do(http.MethodPut, "/api/v1/articles", `{}`), http.StatusMethodNotAllowed)
}
