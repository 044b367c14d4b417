// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xForwarded string
		xRealIP    string
		want       string
	}{
		{"simple remote addr", "192.168.1.1:12345", "", "", "192.168.1.1"},
		{"ipv6 remote addr", "[2001:db8::1]:443", "", "", "2001:db8::1"},
		{"remote addr without port", "192.168.1.1", "", "", "192.168.1.1"},
		{"X-Forwarded-For single", "127.0.0.1:8080", "10.0.0.1", "", "10.0.0.1"},
		{"X-Forwarded-For multiple", "127.0.0.1:8080", "10.0.0.1, 10.0.0.2, 10.0.0.3", "", "10.0.0.1"},
		{"X-Forwarded-For with spaces", "127.0.0.1:8080", "  10.0.0.1  ", "", "10.0.0.1"},
		{"X-Real-IP", "127.0.0.1:8080", "", "10.0.0.5", "10.0.0.5"},
		{"X-Real-IP takes precedence", "127.0.0.1:8080", "10.0.0.1", "10.0.0.5", "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwarded)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
