// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestImageExt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "jpeg", input: "cover.JPEG", want: ".jpeg"},
		{name: "png with directories", input: "../../photos/cover.png", want: ".png"},
		{name: "empty defaults to jpg", input: "", want: ".jpg"},
		{name: "no extension", input: "cover", wantErr: true},
		{name: "executable", input: "cover.exe", wantErr: true},
		{name: "svg not allowed", input: "logo.svg", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageExt(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ImageExt() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ImageExt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateBlobKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "simple", key: "articles/4b9f0c1e.jpg"},
		{name: "nested", key: "articles/2025/cover-1.png"},
		{name: "empty", key: "", wantErr: true},
		{name: "absolute", key: "/etc/passwd", wantErr: true},
		{name: "traversal", key: "articles/../../secret", wantErr: true},
		{name: "double slash", key: "articles//a.jpg", wantErr: true},
		{name: "uppercase", key: "Articles/a.jpg", wantErr: true},
		{name: "too long", key: strings.Repeat("a", MaxBlobKeyLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlobKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBlobKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinBase(t *testing.T) {
	uploadsDir := filepath.Join(t.TempDir(), "uploads")

	tests := []struct {
		name       string
		targetPath string
		wantErr    bool
	}{
		{name: "same directory", targetPath: uploadsDir},
		{name: "subdirectory", targetPath: filepath.Join(uploadsDir, "articles")},
		{name: "traversal to parent", targetPath: filepath.Join(uploadsDir, ".."), wantErr: true},
		{name: "traversal to sibling", targetPath: filepath.Join(uploadsDir, "..", "config"), wantErr: true},
		{name: "absolute path outside base", targetPath: "/etc/passwd", wantErr: true},
		{name: "similar prefix", targetPath: uploadsDir + "-malicious", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinBase(uploadsDir, tt.targetPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinBase() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	tmpDir := t.TempDir()

	got, err := SafeJoinPath(tmpDir, "articles", "a.jpg")
	if err != nil {
		t.Fatalf("SafeJoinPath: %v", err)
	}
	if want := filepath.Join(tmpDir, "articles", "a.jpg"); got != want {
		t.Errorf("SafeJoinPath() = %q, want %q", got, want)
	}

	if _, err := SafeJoinPath(tmpDir, "articles", "..", "..", "etc", "passwd"); err == nil {
		t.Error("SafeJoinPath() expected traversal error")
	}
}
