// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newsroomhq/newsdesk/internal/blob"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// Image MIME types accepted for article covers.
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// DefaultUploadURLTTL applies when no TTL is configured.
const DefaultUploadURLTTL = 15 * time.Minute

// coverKeyPrefix groups cover images in the bucket.
const coverKeyPrefix = "articles/"

// AllowedMimeTypes defines the MIME types that can be uploaded.
var AllowedMimeTypes = map[string]bool{
	MimeTypeJPEG: true,
	MimeTypePNG:  true,
	MimeTypeGIF:  true,
	MimeTypeWebP: true,
}

// ErrDirectUploadUnsupported is returned by Put when the backend takes
// uploads itself (S3 presigned URLs).
var ErrDirectUploadUnsupported = errors.New("direct uploads are only available with filesystem storage")

// UploadRequest describes the file a client wants to upload.
type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// MediaService issues upload URLs and manages stored cover images.
type MediaService struct {
	blobs  blob.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewMediaService creates a new media service.
func NewMediaService(blobs blob.Store, ttl time.Duration, logger *slog.Logger) *MediaService {
	if ttl <= 0 {
		ttl = DefaultUploadURLTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{blobs: blobs, ttl: ttl, logger: logger}
}

// GenerateUploadURL allocates a fresh object key and returns where to PUT it.
func (s *MediaService) GenerateUploadURL(ctx context.Context, req UploadRequest) (blob.Upload, error) {
	ext, err := util.ImageExt(req.Filename)
	if err != nil {
		return blob.Upload{}, model.NewValidationError("filename", "Only JPEG, PNG, GIF and WebP images are allowed")
	}

	mimeType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if mimeType == "" {
		mimeType = getMimeTypeFromExtension(ext)
	}
	if !AllowedMimeTypes[mimeType] {
		return blob.Upload{}, model.NewValidationError("content_type", "Only JPEG, PNG, GIF and WebP images are allowed")
	}

	key := coverKeyPrefix + uuid.NewString() + ext
	up, err := s.blobs.GenerateUploadURL(ctx, key, mimeType, s.ttl)
	if err != nil {
		return blob.Upload{}, fmt.Errorf("generating upload URL: %w", err)
	}
	return up, nil
}

// URL resolves a stored key to a readable URL.
func (s *MediaService) URL(ctx context.Context, key string) (string, error) {
	return s.blobs.URL(ctx, key)
}

// Delete removes a stored object.
func (s *MediaService) Delete(ctx context.Context, key string) error {
	if err := util.ValidateBlobKey(key); err != nil {
		return model.NewValidationError("key", err.Error())
	}
	return s.blobs.Delete(ctx, key)
}

// Put stores an upload body on the filesystem backend.
func (s *MediaService) Put(ctx context.Context, key string, body io.Reader) error {
	fs, ok := s.blobs.(*blob.Filesystem)
	if !ok {
		return ErrDirectUploadUnsupported
	}
	if err := util.ValidateBlobKey(key); err != nil {
		return model.NewValidationError("key", err.Error())
	}
	if _, err := util.ImageExt(key); err != nil {
		return model.NewValidationError("key", "Only image keys can be uploaded")
	}
	return fs.Put(ctx, key, body)
}

// coverURL resolves an article image key, logging and dropping failures.
func (s *MediaService) coverURL(ctx context.Context, key string) string {
	if s == nil || key == "" {
		return ""
	}
	u, err := s.blobs.URL(ctx, key)
	if err != nil {
		s.logger.Warn("failed to resolve cover image", "key", key, "error", err)
		return ""
	}
	return u
}

// Helper functions

func getMimeTypeFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return MimeTypeJPEG
	case ".png":
		return MimeTypePNG
	case ".gif":
		return MimeTypeGIF
	case ".webp":
		return MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}
