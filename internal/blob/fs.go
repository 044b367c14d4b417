// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/newsroomhq/newsdesk/internal/util"
)

// Filesystem routes used by the local backend.
const (
	UploadPathPrefix = "/api/v1/media/uploads/"
	ServePathPrefix  = "/uploads/"
)

// MaxUploadSize limits a single uploaded object.
const MaxUploadSize = 10 * 1024 * 1024 // 10MB

// ErrTooLarge is returned when an upload body exceeds MaxUploadSize.
var ErrTooLarge = errors.New("upload exceeds maximum size")

// Filesystem stores objects under a local directory. Upload URLs point back
// at the API, which writes the body with Put.
type Filesystem struct {
	dir     string
	baseURL string
}

// NewFilesystem creates the upload directory if needed.
func NewFilesystem(dir, baseURL string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	return &Filesystem{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory objects are stored in.
func (f *Filesystem) Dir() string {
	return f.dir
}

func (f *Filesystem) path(key string) (string, error) {
	if err := util.ValidateBlobKey(key); err != nil {
		return "", err
	}
	return util.SafeJoinPath(f.dir, filepath.FromSlash(key))
}

// GenerateUploadURL returns the API upload route for key.
// Local uploads are not signed; the TTL is reported for parity with S3.
func (f *Filesystem) GenerateUploadURL(_ context.Context, key, contentType string, ttl time.Duration) (Upload, error) {
	if _, err := f.path(key); err != nil {
		return Upload{}, err
	}
	u := Upload{
		Key:       key,
		URL:       f.baseURL + UploadPathPrefix + key,
		Method:    http.MethodPut,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	if contentType != "" {
		u.Headers = map[string]string{"Content-Type": contentType}
	}
	return u, nil
}

// URL returns the public URL of an existing object.
func (f *Filesystem) URL(_ context.Context, key string) (string, error) {
	p, err := f.path(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return f.baseURL + ServePathPrefix + key, nil
}

// Put writes the object body, replacing any existing object.
func (f *Filesystem) Put(_ context.Context, key string, r io.Reader) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, io.LimitReader(r, MaxUploadSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("writing upload: %w", err)
	}
	if n > MaxUploadSize {
		return ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("storing upload: %w", err)
	}
	return nil
}

// Delete removes the object; a missing object is ignored.
func (f *Filesystem) Delete(_ context.Context, key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Handler serves stored objects below ServePathPrefix.
func (f *Filesystem) Handler() http.Handler {
	return http.StripPrefix(strings.TrimRight(ServePathPrefix, "/"), http.FileServer(http.Dir(f.dir)))
}
