// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts every API endpoint on r, which is expected to live under /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListArticles)
		r.Post("/", h.CreateArticle)
		r.Get("/slug/{slug}", h.GetArticleBySlug)
		r.Get("/{id}", h.GetArticle)
		r.Patch("/{id}", h.UpdateArticle)
		r.Delete("/{id}", h.DeleteArticle)
		r.Get("/{id}/comments", h.ListArticleComments)
		r.Post("/{id}/comments", h.CreateComment)
	})

	r.Route("/comments", func(r chi.Router) {
		r.Get("/", h.ListComments)
		r.Patch("/{id}", h.ModerateComment)
		r.Delete("/{id}", h.DeleteComment)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.Register)
		r.Get("/{id}", h.GetUser)
		r.Patch("/{id}", h.UpdateUser)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Group(func(r chi.Router) {
		if h.login != nil {
			r.Use(h.login.Middleware())
		}
		r.Post("/auth/login", h.Login)
	})

	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.UpdateSettings)

	r.Route("/media", func(r chi.Router) {
		r.Post("/upload-url", h.CreateUploadURL)
		r.Put("/uploads/*", h.UploadBlob)
		r.Delete("/*", h.DeleteBlob)
	})

	r.Route("/reading", func(r chi.Router) {
		if h.ingest != nil {
			r.Use(h.ingest)
		}
		r.Post("/view", h.RecordView)
		r.Post("/start", h.StartSession)
		r.Post("/heartbeat", h.Heartbeat)
		r.Post("/complete", h.Complete)
		r.Post("/share", h.Share)
		r.Post("/event", h.LogEvent)
	})

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/audience", h.Audience)
		r.Get("/reading", h.ReadingStats)
		r.Get("/shares", h.ShareStats)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/articles", h.ListAllArticles)
		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs/{name}/run", h.TriggerJob)
		r.Get("/events", h.ListSystemEvents)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
}
