// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blob stores article cover images in a local directory or an
// S3-compatible bucket. Clients upload directly to the URL returned by
// GenerateUploadURL; the API only ever handles object keys.
package blob

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blob not found")

// Upload describes where and how a client should upload an object.
type Upload struct {
	Key       string            `json:"key"`
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// Store is implemented by every blob backend.
type Store interface {
	// GenerateUploadURL returns a short-lived URL accepting a PUT of key.
	GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (Upload, error)
	// URL returns a URL the object can be read from.
	URL(ctx context.Context, key string) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
