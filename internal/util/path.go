// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxBlobKeyLength bounds object keys accepted from clients.
const MaxBlobKeyLength = 255

var blobKeyRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9/._-]*$`)

// allowedImageExts lists the cover image extensions accepted for uploads.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageExt returns the lowercased extension of filename if it is an accepted
// image type. An empty filename yields ".jpg".
func ImageExt(filename string) (string, error) {
	if filename == "" {
		return ".jpg", nil
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}
	return ext, nil
}

// ValidateBlobKey checks that key is a relative, lowercase object key that
// cannot escape its bucket or directory.
func ValidateBlobKey(key string) error {
	if key == "" {
		return fmt.Errorf("blob key is empty")
	}
	if len(key) > MaxBlobKeyLength {
		return fmt.Errorf("blob key exceeds %d characters", MaxBlobKeyLength)
	}
	if !blobKeyRegex.MatchString(key) {
		return fmt.Errorf("blob key %q contains invalid characters", key)
	}
	if path.Clean(key) != key || strings.Contains(key, "..") {
		return fmt.Errorf("blob key %q is not a clean path", key)
	}
	return nil
}

// ValidatePathWithinBase ensures that a resolved path is within the expected
// base directory.
func ValidatePathWithinBase(basePath, targetPath string) error {
	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}

	absTarget, err := filepath.Abs(filepath.Clean(targetPath))
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}

	// Trailing separator so /uploads-other does not match /uploads
	if absTarget != absBase && !strings.HasPrefix(absTarget, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: path escapes base directory")
	}

	return nil
}

// SafeJoinPath joins path components and validates the result is within
// the base directory.
func SafeJoinPath(basePath string, components ...string) (string, error) {
	fullPath := filepath.Join(append([]string{basePath}, components...)...)

	if err := ValidatePathWithinBase(basePath, fullPath); err != nil {
		return "", err
	}

	return fullPath, nil
}
