// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

func TestCommentModerationFlow(t *testing.T) {
	a := newTestAPI(t)
	art := testutil.CreateArticle(t, a.db, model.Article{Title: "Budget Vote"})
	commentsPath := fmt.Sprintf("/api/v1/articles/%d/comments", art.ID)

	env := expect(t, a.do(http.MethodPost, commentsPath, map[string]any{
		"author":  "<b>Ann</b>",
		"email":   "Ann@Example.com",
		"content": "Finally <script>alert(1)</script>passed",
	}), http.StatusCreated)
	var c model.Comment
	decodeData(t, env, &c)
	if c.Status != model.CommentStatusPending || c.Author != "Ann" {
		t.Errorf("comment = %+v", c)
	}

	env = expect(t, a.do(http.MethodGet, commentsPath, nil), http.StatusOK)
	if string(env.Data) != "[]" {
		t.Errorf("approved before moderation = %s, want []", env.Data)
	}

	env = expect(t, a.do(http.MethodGet, "/api/v1/comments", nil), http.StatusOK)
	var pending []model.Comment
	decodeData(t, env, &pending)
	if len(pending) != 1 || env.Meta.Total != 1 {
		t.Fatalf("pending = %d (meta %+v), want 1", len(pending), env.Meta)
	}

	commentPath := fmt.Sprintf("/api/v1/comments/%d", c.ID)
	expect(t, a.do(http.MethodPatch, commentPath, map[string]string{"status": "published"}), http.StatusUnprocessableEntity)
	expect(t, a.do(http.MethodPatch, commentPath, map[string]string{"status": "approved"}), http.StatusOK)

	env = expect(t, a.do(http.MethodGet, commentsPath, nil), http.StatusOK)
	var approved []model.Comment
	decodeData(t, env, &approved)
	if len(approved) != 1 || approved[0].ID != c.ID {
		t.Errorf("approved = %+v", approved)
	}

	expect(t, a.do(http.MethodDelete, commentPath, nil), http.StatusNoContent)
	expect(t, a.do(http.MethodDelete, commentPath, nil), http.StatusNotFound)
}

func TestCreateComment_Errors(t *testing.T) {
	a := newTestAPI(t)
	art := testutil.CreateArticle(t, a.db, model.Article{Title: "Closed Thread"})
	path := fmt.Sprintf("/api/v1/articles/%d/comments", art.ID)
	valid := map[string]string{"author": "Bo", "content": "Hello"}

	expect(t, a.do(http.MethodPost, "/api/v1/articles/9999/comments", valid), http.StatusNotFound)

	env := expect(t, a.do(http.MethodPost, path, map[string]string{"author": "Bo"}), http.StatusUnprocessableEntity)
	if env.Error.Details["content"] == "" {
		t.Errorf("details = %v, want content", env.Error.Details)
	}

	expect(t, a.do(http.MethodPut, "/api/v1/settings", map[string]any{"comments_enabled": false}), http.StatusOK)
	env = expect(t, a.do(http.MethodPost, path, valid), http.StatusForbidden)
	if env.Error.Code != "comments_disabled" {
		t.Errorf("code = %q, want comments_disabled", env.Error.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	a := newTestAPI(t)

	env := expect(t, a.do(http.MethodGet, "/api/v1/settings", nil), http.StatusOK)
	var s model.Settings
	decodeData(t, env, &s)
	if s.SiteName != model.DefaultSettings().SiteName || !s.CommentsEnabled {
		t.Errorf("defaults = %+v", s)
	}

	env = expect(t, a.do(http.MethodPut, "/api/v1/settings", map[string]any{"site_name": "  The Ledger "}), http.StatusOK)
	decodeData(t, env, &s)
	if s.SiteName != "The Ledger" || !s.CommentsEnabled {
		t.Errorf("after upsert = %+v", s)
	}

	expect(t, a.do(http.MethodPut, "/api/v1/settings", map[string]any{"contact_email": "nope"}), http.StatusUnprocessableEntity)
}
