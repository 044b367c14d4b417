// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestS3(t *testing.T) *S3 {
	t.Helper()
	s, err := NewS3(context.Background(), S3Config{
		Bucket:       "covers",
		Region:       "eu-central-1",
		Endpoint:     "http://minio.test:9000",
		AccessKey:    "test-access",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	return s
}

func TestS3_GenerateUploadURL(t *testing.T) {
	s := newTestS3(t)

	up, err := s.GenerateUploadURL(context.Background(), "articles/abc.jpg", "image/jpeg", 10*time.Minute)
	if err != nil {
		t.Fatalf("GenerateUploadURL: %v", err)
	}

	u, err := url.Parse(up.URL)
	if err != nil {
		t.Fatalf("parsing presigned URL: %v", err)
	}
	if u.Host != "minio.test:9000" {
		t.Errorf("host = %q", u.Host)
	}
	if u.Path != "/covers/articles/abc.jpg" {
		t.Errorf("path = %q, want path-style bucket/key", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Signature") == "" {
		t.Error("presigned URL has no signature")
	}
	if q.Get("X-Amz-Expires") != "600" {
		t.Errorf("X-Amz-Expires = %q, want 600", q.Get("X-Amz-Expires"))
	}
	if up.Method != "PUT" {
		t.Errorf("method = %q", up.Method)
	}
}

func TestS3_URL(t *testing.T) {
	s := newTestS3(t)

	got, err := s.URL(context.Background(), "articles/abc.jpg")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if !strings.Contains(got, "/covers/articles/abc.jpg") || !strings.Contains(got, "X-Amz-Expires=3600") {
		t.Errorf("URL = %q", got)
	}
}

func TestS3_RejectsBadKey(t *testing.T) {
	s := newTestS3(t)
	if _, err := s.GenerateUploadURL(context.Background(), "../escape", "", time.Minute); err == nil {
		t.Error("expected error for traversal key")
	}
	if err := s.Delete(context.Background(), ""); err == nil {
		t.Error("expected error for empty key")
	}
}
