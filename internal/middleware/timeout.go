// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Timeout cancels the request context after d. When the handler has not
// started its response by then, the client gets a 503 "timeout" error and
// the handler's later output is dropped. Expired requests are logged at WARN
// so they reach the system event log.
func Timeout(d time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			dw := &deadlineWriter{w: w, header: make(http.Header)}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				dw.flushHeaderOnly()
			case <-ctx.Done():
				if dw.expire() {
					WriteAPIError(w, http.StatusServiceUnavailable, "timeout", "Request timed out", nil)
				}
				logger.Warn("request timed out",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", chimw.GetReqID(r.Context()),
					"timeout", d.String())
			}
		})
	}
}

// deadlineWriter buffers headers until the handler commits a status, so a
// handler still running after expiry never touches the real writer.
type deadlineWriter struct {
	w      http.ResponseWriter
	header http.Header

	mu      sync.Mutex
	status  int
	expired bool
}

func (dw *deadlineWriter) Header() http.Header {
	return dw.header
}

// commit sends the status and buffered headers once. Caller holds mu.
func (dw *deadlineWriter) commit(code int) {
	if dw.status != 0 {
		return
	}
	dw.status = code
	maps.Copy(dw.w.Header(), dw.header)
	dw.w.WriteHeader(code)
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return
	}
	dw.commit(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.commit(http.StatusOK)
	return dw.w.Write(b)
}

// expire marks the writer dead and reports whether nothing was sent yet.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return dw.status == 0
}

// flushHeaderOnly commits a 200 for handlers that set headers but never
// wrote, matching net/http's implicit response.
func (dw *deadlineWriter) flushHeaderOnly() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.commit(http.StatusOK)
}
