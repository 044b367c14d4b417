// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestFS(t *testing.T) *Filesystem {
	t.Helper()
	f, err := NewFilesystem(t.TempDir(), "http://news.test/")
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return f
}

func TestFilesystem_RoundTrip(t *testing.T) {
	f := newTestFS(t)
	ctx := context.Background()
	key := "articles/cover.png"

	up, err := f.GenerateUploadURL(ctx, key, "image/png", 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateUploadURL: %v", err)
	}
	if up.URL != "http://news.test/api/v1/media/uploads/articles/cover.png" {
		t.Errorf("upload URL = %q", up.URL)
	}
	if up.Method != http.MethodPut {
		t.Errorf("method = %q, want PUT", up.Method)
	}

	if _, err := f.URL(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("URL before upload: err = %v, want ErrNotFound", err)
	}

	if err := f.Put(ctx, key, strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	u, err := f.URL(ctx, key)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if u != "http://news.test/uploads/articles/cover.png" {
		t.Errorf("URL = %q", u)
	}

	req := httptest.NewRequest(http.MethodGet, "/uploads/articles/cover.png", nil)
	w := httptest.NewRecorder()
	f.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve status = %d", w.Code)
	}
	body, _ := io.ReadAll(w.Body)
	if string(body) != "png-bytes" {
		t.Errorf("served body = %q", body)
	}

	if err := f.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.Delete(ctx, key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, err := f.URL(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("URL after delete: err = %v, want ErrNotFound", err)
	}
}

func TestFilesystem_RejectsBadKeys(t *testing.T) {
	f := newTestFS(t)
	ctx := context.Background()

	for _, key := range []string{"", "../etc/passwd", "/abs/path.png", "Upper.png", "a/../../b.png"} {
		if err := f.Put(ctx, key, strings.NewReader("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", key)
		}
		if _, err := f.GenerateUploadURL(ctx, key, "", time.Minute); err == nil {
			t.Errorf("GenerateUploadURL(%q) succeeded, want error", key)
		}
	}
}

func TestFilesystem_TooLarge(t *testing.T) {
	f := newTestFS(t)
	body := bytes.NewReader(make([]byte, MaxUploadSize+1))
	if err := f.Put(context.Background(), "big.png", body); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put oversized: err = %v, want ErrTooLarge", err)
	}
	if _, err := f.URL(context.Background(), "big.png"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oversized upload should not be stored, err = %v", err)
	}
}
