// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/newsroomhq/newsdesk/internal/blob"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/testutil"
)

func newTestMedia(t *testing.T) (*MediaService, *blob.Filesystem) {
	t.Helper()
	fs, err := blob.NewFilesystem(t.TempDir(), "http://news.test")
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return NewMediaService(fs, 5*time.Minute, testutil.TestLoggerSilent()), fs
}

func TestGetMimeTypeFromExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"image.jpg", MimeTypeJPEG},
		{"image.jpeg", MimeTypeJPEG},
		{"IMAGE.JPG", MimeTypeJPEG},
		{"photo.png", MimeTypePNG},
		{"animation.gif", MimeTypeGIF},
		{"modern.webp", MimeTypeWebP},
		{"document.pdf", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := getMimeTypeFromExtension(tt.filename); got != tt.want {
				t.Errorf("getMimeTypeFromExtension(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestMediaService_GenerateUploadURL(t *testing.T) {
	svc, _ := newTestMedia(t)

	up, err := svc.GenerateUploadURL(context.Background(), UploadRequest{Filename: "Cover.PNG"})
	if err != nil {
		t.Fatalf("GenerateUploadURL: %v", err)
	}
	if !strings.HasPrefix(up.Key, "articles/") || !strings.HasSuffix(up.Key, ".png") {
		t.Errorf("key = %q, want articles/<uuid>.png", up.Key)
	}
	if up.Headers["Content-Type"] != MimeTypePNG {
		t.Errorf("Content-Type header = %q", up.Headers["Content-Type"])
	}
	if !strings.HasSuffix(up.URL, "/api/v1/media/uploads/"+up.Key) {
		t.Errorf("URL = %q", up.URL)
	}

	other, err := svc.GenerateUploadURL(context.Background(), UploadRequest{})
	if err != nil {
		t.Fatalf("GenerateUploadURL without filename: %v", err)
	}
	if other.Key == up.Key || !strings.HasSuffix(other.Key, ".jpg") {
		t.Errorf("second key = %q", other.Key)
	}
}

func TestMediaService_GenerateUploadURL_Rejects(t *testing.T) {
	svc, _ := newTestMedia(t)

	for _, req := range []UploadRequest{
		{Filename: "script.js"},
		{Filename: "photo.png", ContentType: "text/html"},
	} {
		_, err := svc.GenerateUploadURL(context.Background(), req)
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("GenerateUploadURL(%+v) err = %v, want validation error", req, err)
		}
	}
}

func TestMediaService_PutAndDelete(t *testing.T) {
	svc, _ := newTestMedia(t)
	ctx := context.Background()

	if err := svc.Put(ctx, "articles/a.png", strings.NewReader("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	u, err := svc.URL(ctx, "articles/a.png")
	if err != nil || u != "http://news.test/uploads/articles/a.png" {
		t.Errorf("URL = %q, %v", u, err)
	}

	if err := svc.Put(ctx, "articles/a.exe", strings.NewReader("data")); !errors.Is(err, model.ErrValidation) {
		t.Errorf("Put non-image err = %v, want validation error", err)
	}

	if err := svc.Delete(ctx, "articles/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := svc.coverURL(ctx, "articles/a.png"); got != "" {
		t.Errorf("coverURL after delete = %q, want empty", got)
	}
}

type fakeBlobStore struct{ blob.Store }

func TestMediaService_PutRequiresFilesystem(t *testing.T) {
	svc := NewMediaService(fakeBlobStore{}, 0, nil)
	if err := svc.Put(context.Background(), "articles/a.png", strings.NewReader("x")); !errors.Is(err, ErrDirectUploadUnsupported) {
		t.Errorf("Put err = %v, want ErrDirectUploadUnsupported", err)
	}
}
