// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxExternalURLLength is the maximum allowed length for an external article URL.
const MaxExternalURLLength = 2048

// ValidateExternalURL checks that rawURL is an absolute http(s) URL with a host.
func ValidateExternalURL(rawURL string) error {
	if len(rawURL) > MaxExternalURLLength {
		return fmt.Errorf("URL exceeds maximum length of %d characters", MaxExternalURLLength)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}

	if parsedURL.Hostname() == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	return nil
}

// ReferrerHost reduces a referrer URL to its lowercased host without port
// or a leading "www.". Values that do not parse as absolute URLs are
// treated as bare hosts.
func ReferrerHost(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ""
	}

	host := referrer
	if parsed, err := url.Parse(referrer); err == nil && parsed.Host != "" {
		host = parsed.Hostname()
	} else if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}

	host = strings.ToLower(host)
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host[:idx], ":") {
		host = host[:idx]
	}
	return strings.TrimPrefix(host, "www.")
}
