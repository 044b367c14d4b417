// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds slugs derived from headlines, before any numeric
// suffix added for uniqueness.
const MaxSlugLength = 80

var (
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	apostrophes    = strings.NewReplacer("'", "", "’", "", "`", "")
)

// Slugify turns a headline into a URL slug: accents are folded, other
// scripts transliterated, apostrophes dropped ("Mayor's" -> "mayors") and
// every other run of punctuation or space becomes one hyphen. Long results
// are cut back to the last whole word within MaxSlugLength.
func Slugify(s string) string {
	// A transform chain keeps state, so each call builds its own.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	ascii := unidecode.Unidecode(apostrophes.Replace(folded))
	slug := slugSeparators.ReplaceAllString(strings.ToLower(ascii), "-")
	return truncateSlug(strings.Trim(slug, "-"), MaxSlugLength)
}

func truncateSlug(slug string, limit int) string {
	if len(slug) <= limit {
		return slug
	}
	cut := slug[:limit]
	if i := strings.LastIndexByte(cut, '-'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, "-")
}

// IsValidSlug reports whether s is lowercase ASCII words joined by single
// hyphens, the only shape Slugify produces.
func IsValidSlug(s string) bool {
	return validSlug.MatchString(s)
}
