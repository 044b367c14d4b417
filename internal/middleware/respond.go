// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for rate limiting, request
// metrics, security headers and timeouts.
package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error object of an API error response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// APIError is the JSON envelope of every error response, from the API
// handlers as well as rate limit and timeout rejections.
type APIError struct {
	Error ErrorBody `json:"error"`
}

// WriteAPIError writes status and an APIError envelope.
func WriteAPIError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
