// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/newsroomhq/newsdesk/internal/handler"
)

// ListJobs handles GET /admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.jobs == nil {
		WriteNotFound(w, "Scheduler is not running")
		return
	}
	WriteSuccess(w, h.jobs.Jobs(), nil)
}

// TriggerJob handles POST /admin/jobs/{name}/run. The job runs synchronously;
// its error, if any, is reported in the job list rather than as a failure.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		WriteNotFound(w, "Scheduler is not running")
		return
	}
	name := chi.URLParam(r, "name")
	if !h.hasJob(name) {
		WriteNotFound(w, "Job not found")
		return
	}
	_ = h.jobs.Trigger(name)

	for _, j := range h.jobs.Jobs() {
		if j.Name == name {
			WriteSuccess(w, j, nil)
			return
		}
	}
	WriteNotFound(w, "Job not found")
}

func (h *Handler) hasJob(name string) bool {
	for _, j := range h.jobs.Jobs() {
		if j.Name == name {
			return true
		}
	}
	return false
}

// ListSystemEvents handles GET /admin/events - the most recent log entries.
func (h *Handler) ListSystemEvents(w http.ResponseWriter, r *http.Request) {
	limit := handler.QueryInt(r, "limit", 50, 1, 500)
	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(events), nil)
}
