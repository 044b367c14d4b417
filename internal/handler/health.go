// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/version"
)

// Health check states, from best to worst.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

var statusRank = map[string]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}

// minFreeSpace is the free space below which the uploads disk is degraded.
const minFreeSpace = 100 * 1024 * 1024

// HealthHandler serves the liveness, readiness and detailed health endpoints.
type HealthHandler struct {
	db         *sql.DB
	uploadsDir string
	version    version.Info
	started    time.Time
}

// NewHealthHandler creates a new health handler. uploadsDir may be empty
// when cover images are not stored on local disk.
func NewHealthHandler(db *sql.DB, uploadsDir string, info version.Info) *HealthHandler {
	return &HealthHandler{db: db, uploadsDir: uploadsDir, version: info, started: time.Now()}
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Commit    string           `json:"commit,omitempty"`
	Checks    map[string]Check `json:"checks"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check is one health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// SystemInfo is the runtime section shown with ?verbose=true.
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutines"`
	NumCPU       int    `json:"num_cpus"`
	MemAlloc     string `json:"mem_alloc"`
	MemSys       string `json:"mem_sys"`
}

func (h *HealthHandler) runChecks(ctx context.Context) map[string]Check {
	checks := map[string]Check{
		"database": h.checkDatabase(ctx),
		"schema":   h.checkSchema(ctx),
	}
	if h.uploadsDir != "" {
		checks["disk"] = h.checkDiskSpace()
	}
	return checks
}

// overallStatus is the worst status among checks.
func overallStatus(checks map[string]Check) string {
	worst := StatusHealthy
	for _, c := range checks {
		if statusRank[c.Status] > statusRank[worst] {
			worst = c.Status
		}
	}
	return worst
}

// Health handles GET /health. An unhealthy check makes it answer 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := h.runChecks(r.Context())
	status := HealthStatus{
		Status:    overallStatus(checks),
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Version:   h.version.Version,
		Commit:    h.version.GitCommit,
		Checks:    checks,
	}
	if r.URL.Query().Get("verbose") == "true" {
		status.System = systemInfo()
	}

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness handles GET /health/ready. The database must answer and carry
// every embedded migration.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	for _, c := range []Check{h.checkDatabase(ctx), h.checkSchema(ctx)} {
		if c.Status != StatusHealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "reason": c.Message})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return Check{Status: StatusUnhealthy, Message: err.Error(), Latency: latency}
	}
	return Check{Status: StatusHealthy, Message: "Connected", Latency: latency}
}

// checkSchema compares the applied migration version with the embedded set.
func (h *HealthHandler) checkSchema(ctx context.Context) Check {
	applied, latest, err := store.SchemaVersion(ctx, h.db)
	switch {
	case err != nil:
		return Check{Status: StatusUnhealthy, Message: err.Error()}
	case applied < latest:
		return Check{Status: StatusUnhealthy, Message: fmt.Sprintf("schema at version %d, want %d", applied, latest)}
	}
	return Check{Status: StatusHealthy, Message: fmt.Sprintf("version %d", applied)}
}

// checkDiskSpace reports free space on the uploads volume.
func (h *HealthHandler) checkDiskSpace() Check {
	if _, err := os.Stat(h.uploadsDir); os.IsNotExist(err) {
		return Check{Status: StatusHealthy, Message: "Uploads directory does not exist yet"}
	}

	var fs syscall.Statfs_t
	if err := syscall.Statfs(h.uploadsDir, &fs); err != nil {
		return Check{Status: StatusUnhealthy, Message: "Failed to check disk space: " + err.Error()}
	}
	free := fs.Bavail * uint64(fs.Bsize)
	if free < minFreeSpace {
		return Check{Status: StatusDegraded, Message: "Low disk space: " + formatBytes(free) + " available"}
	}
	return Check{Status: StatusHealthy, Message: formatBytes(free) + " available"}
}

func systemInfo() *SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     formatBytes(m.Alloc),
		MemSys:       formatBytes(m.Sys),
	}
}

// formatBytes renders n with a binary unit, e.g. "1.50 MB".
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
