// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/newsroomhq/newsdesk/internal/handler"
	"github.com/newsroomhq/newsdesk/internal/middleware"
	"github.com/newsroomhq/newsdesk/internal/service"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body of PATCH /users/{id}.
type UpdateUserRequest struct {
	Role string `json:"role"`
}

// Register handles POST /users.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, u)
}

// Login handles POST /auth/login. Repeated failures lock the account for a
// growing period when login protection is configured.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.login != nil {
		if locked, remaining := h.login.IsAccountLocked(req.Email); locked {
			middleware.WriteAccountLocked(w, remaining)
			return
		}
	}

	u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.login != nil && errors.Is(err, service.ErrInvalidCredentials) {
			if locked, d := h.login.RecordFailedAttempt(req.Email); locked {
				middleware.WriteAccountLocked(w, d)
				return
			}
		}
		h.writeServiceError(w, r, err)
		return
	}

	if h.login != nil {
		h.login.RecordSuccessfulLogin(req.Email)
	}
	WriteSuccess(w, u, nil)
}

// ListUsers handles GET /users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := handler.PageFromRequest(r)

	users, total, err := h.users.List(r.Context(), page.Number, page.PerPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, orEmpty(users), NewMeta(total, page))
}

// GetUser handles GET /users/{id}. A missing user yields data: null.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "user")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, u, nil)
}

// UpdateUser handles PATCH /users/{id}; only the role can change.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "user")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, u, nil)
}

// DeleteUser handles DELETE /users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, "user")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
