// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/newsroomhq/newsdesk/internal/handler"
	"github.com/newsroomhq/newsdesk/internal/service"
)

// ModerateCommentRequest is the body of PATCH /comments/{id}.
type ModerateCommentRequest struct {
	Status string `json:"status"`
}

// ListArticleComments handles GET /articles/{id}/comments - approved only.
func (h *Handler) ListArticleComments(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "article")
	if !ok {
		return
	}
	comments, err := h.comments.ListApproved(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(comments), nil)
}

// CreateComment handles POST /articles/{id}/comments. New comments wait
// for moderation.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "article")
	if !ok {
		return
	}
	var req service.CommentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.comments.Create(r.Context(), id, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, c)
}

// ListComments handles GET /comments?status= - the moderation queue.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	page := handler.PageFromRequest(r)

	comments, total, err := h.comments.ListByStatus(r.Context(), r.URL.Query().Get("status"), page.Number, page.PerPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(comments), NewMeta(total, page))
}

// ModerateComment handles PATCH /comments/{id}.
func (h *Handler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "comment")
	if !ok {
		return
	}
	var req ModerateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.comments.Moderate(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// DeleteComment handles DELETE /comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "comment")
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
