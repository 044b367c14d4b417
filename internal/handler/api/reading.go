// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/newsroomhq/newsdesk/internal/analytics"
	"github.com/newsroomhq/newsdesk/internal/middleware"
	"github.com/newsroomhq/newsdesk/internal/model"
)

// ReadingRequest carries the fields shared by every reading endpoint.
type ReadingRequest struct {
	ArticleID    int64                 `json:"article_id"`
	SessionToken string                `json:"session_token"`
	Reader       *model.ReaderInput    `json:"reader"`
	Context      *model.SessionContext `json:"context"`
	// Timestamp is the client event time; omitted means now.
	Timestamp *time.Time `json:"timestamp"`
}

// input converts the request into tracker input, attaching client metadata.
func (req ReadingRequest) input(r *http.Request) analytics.ReadingInput {
	in := analytics.ReadingInput{
		ArticleID: req.ArticleID,
		Token:     req.SessionToken,
		Context:   req.Context,
		Client: analytics.ClientInfo{
			UserAgent: r.UserAgent(),
			IP:        middleware.ClientIP(r),
		},
	}
	if req.Reader != nil {
		reader := model.NormalizeReader(*req.Reader)
		in.Reader = &reader
	}
	if req.Timestamp != nil {
		in.At = *req.Timestamp
	}
	return in
}

// ViewRequest is the body of POST /reading/view.
type ViewRequest struct {
	ReadingRequest
	Metadata json.RawMessage `json:"metadata"`
}

// ProgressRequest is the body of POST /reading/heartbeat and /reading/complete.
type ProgressRequest struct {
	ReadingRequest
	ProgressPercent *float64 `json:"progress_percent"`
	DurationSeconds *float64 `json:"duration_seconds"`
	// CreateIfMissing applies to heartbeats only and defaults to true.
	CreateIfMissing *bool `json:"create_if_missing"`
}

// ShareRequest is the body of POST /reading/share.
type ShareRequest struct {
	ReadingRequest
	Channel string `json:"channel"`
	Note    string `json:"note"`
}

// CustomEventRequest is the body of POST /reading/event.
type CustomEventRequest struct {
	ReadingRequest
	Name     string          `json:"name"`
	Metadata json.RawMessage `json:"metadata"`
}

// metadataValue passes client metadata through untouched; absent stays nil.
func metadataValue(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// RecordView handles POST /reading/view.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.tracker.RecordView(r.Context(), analytics.ViewInput{
		ReadingInput: req.input(r),
		Metadata:     metadataValue(req.Metadata),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, res)
}

// StartSession handles POST /reading/start.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.tracker.StartSession(r.Context(), req.input(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if res.Created {
		WriteCreated(w, res)
		return
	}
	WriteSuccess(w, res, nil)
}

// Heartbeat handles POST /reading/heartbeat.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	create := req.CreateIfMissing == nil || *req.CreateIfMissing
	res, err := h.tracker.Heartbeat(r.Context(), analytics.HeartbeatInput{
		ReadingInput:    req.input(r),
		Progress:        req.ProgressPercent,
		Duration:        req.DurationSeconds,
		CreateIfMissing: create,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res, nil)
}

// Complete handles POST /reading/complete. The session must already exist.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.tracker.Complete(r.Context(), analytics.CompleteInput{
		ReadingInput: req.input(r),
		Progress:     req.ProgressPercent,
		Duration:     req.DurationSeconds,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, res, nil)
}

// Share handles POST /reading/share.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	var req ShareRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.tracker.Share(r.Context(), analytics.ShareInput{
		ReadingInput: req.input(r),
		Channel:      req.Channel,
		Note:         req.Note,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, res)
}

// LogEvent handles POST /reading/event - application-defined events.
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var req CustomEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.tracker.LogCustom(r.Context(), analytics.CustomInput{
		ReadingInput: req.input(r),
		Name:         req.Name,
		Metadata:     metadataValue(req.Metadata),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, res)
}
