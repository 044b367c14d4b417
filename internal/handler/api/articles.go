// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/newsroomhq/newsdesk/internal/handler"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/service"
)

// UpdateArticleRequest is the body of PATCH /articles/{id}. PublishDate is
// kept raw so an explicit null can clear the date.
type UpdateArticleRequest struct {
	Title       *string         `json:"title"`
	Slug        *string         `json:"slug"`
	Section     *string         `json:"section"`
	Content     *string         `json:"content"`
	Author      *string         `json:"author"`
	Status      *string         `json:"status"`
	Source      *string         `json:"source"`
	ExternalURL *string         `json:"external_url"`
	ImageKey    *string         `json:"image_key"`
	PublishDate json.RawMessage `json:"publish_date"`
}

// patch converts the request into a service patch.
func (req UpdateArticleRequest) patch() (service.ArticlePatch, error) {
	p := service.ArticlePatch{
		Title:       req.Title,
		Slug:        req.Slug,
		Section:     req.Section,
		Content:     req.Content,
		Author:      req.Author,
		Status:      req.Status,
		Source:      req.Source,
		ExternalURL: req.ExternalURL,
		ImageKey:    req.ImageKey,
	}
	raw := bytes.TrimSpace(req.PublishDate)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")), bytes.Equal(raw, []byte(`""`)):
		p.ClearPublishDate = true
	default:
		var t time.Time
		if err := json.Unmarshal(raw, &t); err != nil {
			return p, model.NewValidationError("publish_date", "Publish date must be an RFC 3339 timestamp")
		}
		p.PublishDate = &t
	}
	return p, nil
}

// ListArticles handles GET /articles - the public listing.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ArticleFilter{
		Section: q.Get("section"),
		Status:  q.Get("status"),
		Source:  q.Get("source"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			WriteValidationError(w, map[string]string{"limit": "Limit must be a positive integer"})
			return
		}
		f.Limit = limit
	}

	articles, err := h.articles.ListPublic(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(articles), nil)
}

// ListAllArticles handles GET /admin/articles - every article, paginated.
func (h *Handler) ListAllArticles(w http.ResponseWriter, r *http.Request) {
	page := handler.PageFromRequest(r)

	articles, total, err := h.articles.ListAll(r.Context(), r.URL.Query().Get("status"), page.Number, page.PerPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(articles), NewMeta(total, page))
}

// GetArticle handles GET /articles/{id}. A missing article yields data: null.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "article")
	if !ok {
		return
	}
	a, err := h.articles.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// GetArticleBySlug handles GET /articles/slug/{slug}.
func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// CreateArticle handles POST /articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req service.ArticleInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.articles.Create(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, a)
}

// UpdateArticle handles PATCH /articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "article")
	if !ok {
		return
	}
	var req UpdateArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch, err := req.patch()
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	a, err := h.articles.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, a, nil)
}

// DeleteArticle handles DELETE /articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "article")
	if !ok {
		return
	}
	if err := h.articles.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
