// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/newsroomhq/newsdesk/internal/model"
)

// GetSettings handles GET /settings. Defaults are returned before the first save.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, s, nil)
}

// UpdateSettings handles PUT /settings. Omitted fields keep their value.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch model.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	s, err := h.settings.Upsert(r.Context(), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, s, nil)
}
