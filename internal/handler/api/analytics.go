// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import "net/http"

// Dashboard handles GET /analytics/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tracker.Dashboard(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, stats, nil)
}

// Audience handles GET /analytics/audience.
func (h *Handler) Audience(w http.ResponseWriter, r *http.Request) {
	m, err := h.tracker.Audience(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, m, nil)
}

// ReadingStats handles GET /analytics/reading.
func (h *Handler) ReadingStats(w http.ResponseWriter, r *http.Request) {
	m, err := h.tracker.Reading(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, m, nil)
}

// ShareStats handles GET /analytics/shares.
func (h *Handler) ShareStats(w http.ResponseWriter, r *http.Request) {
	m, err := h.tracker.Shares(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, m, nil)
}
