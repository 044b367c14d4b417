// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON REST handlers for the newsroom API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/newsroomhq/newsdesk/internal/analytics"
	"github.com/newsroomhq/newsdesk/internal/blob"
	"github.com/newsroomhq/newsdesk/internal/handler"
	"github.com/newsroomhq/newsdesk/internal/middleware"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/scheduler"
	"github.com/newsroomhq/newsdesk/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// JobLister exposes the scheduler state to the admin endpoint.
type JobLister interface {
	Jobs() []scheduler.JobInfo
	Trigger(name string) error
}

// Deps are the services the handlers delegate to.
type Deps struct {
	Articles *service.ArticleService
	Comments *service.CommentService
	Users    *service.UserService
	Settings *service.SettingsService
	Media    *service.MediaService
	Events   *service.EventService
	Tracker  *analytics.Tracker
	// Jobs is optional; without it the jobs endpoints answer 404.
	Jobs JobLister
	// Login guards POST /auth/login; optional.
	Login *middleware.LoginProtection
	// Ingest wraps the reading endpoints, usually an IP rate limiter; optional.
	Ingest func(http.Handler) http.Handler
	Logger *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	articles *service.ArticleService
	comments *service.CommentService
	users    *service.UserService
	settings *service.SettingsService
	media    *service.MediaService
	events   *service.EventService
	tracker  *analytics.Tracker
	jobs     JobLister
	login    *middleware.LoginProtection
	ingest   func(http.Handler) http.Handler
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		articles: d.Articles,
		comments: d.Comments,
		users:    d.Users,
		settings: d.Settings,
		media:    d.Media,
		events:   d.Events,
		tracker:  d.Tracker,
		jobs:     d.Jobs,
		login:    d.Login,
		ingest:   d.Ingest,
		logger:   d.Logger,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Response is the standard API response wrapper. Data is always present so a
// missing entity reads as "data": null.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// NewMeta builds pagination metadata for a page of results.
func NewMeta(total int64, page handler.Page) *Meta {
	return &Meta{
		Total:   total,
		Page:    page.Number,
		PerPage: page.PerPage,
		Pages:   handler.TotalPages(total, page.PerPage),
	}
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
}

// writeServiceError maps service and tracker errors onto HTTP responses.
// Anything unrecognised is logged and answered with a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteValidationError(w, verr.Fields)
	case errors.Is(err, analytics.ErrSessionNotFound):
		WriteError(w, http.StatusConflict, "session_not_found", err.Error(), nil)
	case errors.Is(err, service.ErrEmailTaken):
		WriteError(w, http.StatusConflict, "email_taken", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, service.ErrCommentsDisabled):
		WriteError(w, http.StatusForbidden, "comments_disabled", err.Error(), nil)
	case errors.Is(err, service.ErrDirectUploadUnsupported):
		WriteError(w, http.StatusMethodNotAllowed, "unsupported", err.Error(), nil)
	case errors.Is(err, blob.ErrTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", err.Error(), nil)
	case errors.Is(err, service.ErrArticleNotFound):
		WriteNotFound(w, "Article not found")
	case errors.Is(err, service.ErrCommentNotFound):
		WriteNotFound(w, "Comment not found")
	case errors.Is(err, service.ErrUserNotFound):
		WriteNotFound(w, "User not found")
	case errors.Is(err, blob.ErrNotFound):
		WriteNotFound(w, "Object not found")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		WriteInternalError(w)
	}
}

// decodeJSON reads the request body into dst. It writes a 400 and returns
// false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			WriteBadRequest(w, "Request body is required")
			return false
		}
		WriteBadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

// requireID parses the {id} URL parameter, writing a 400 when it is invalid.
func requireID(w http.ResponseWriter, r *http.Request, entity string) (int64, bool) {
	id, err := handler.URLParamID(r, "id")
	if err != nil {
		WriteBadRequest(w, "Invalid "+entity+" ID")
		return 0, false
	}
	return id, true
}

// orEmpty keeps empty lists encoding as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
