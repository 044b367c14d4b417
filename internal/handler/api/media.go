// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/newsroomhq/newsdesk/internal/service"
)

// CreateUploadURL handles POST /media/upload-url.
func (h *Handler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req service.UploadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	upload, err := h.media.GenerateUploadURL(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, upload)
}

// UploadBlob handles PUT /media/uploads/* for the filesystem backend. The
// raw request body is the file.
func (h *Handler) UploadBlob(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if err := h.media.Put(r.Context(), key, r.Body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, map[string]string{"key": key})
}

// DeleteBlob handles DELETE /media/*.
func (h *Handler) DeleteBlob(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if err := h.media.Delete(r.Context(), key); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
