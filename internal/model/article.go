// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Article statuses
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusScheduled = "scheduled"
	ArticleStatusPublished = "published"
)

// Article sources
const (
	ArticleSourceInternal = "internal"
	ArticleSourceExternal = "external"
)

// Article represents a news article.
type Article struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Section     string     `json:"section"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Views       int64      `json:"views"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	ExternalURL string     `json:"external_url,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	ImageKey    string     `json:"image_key,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EffectivePublishDate returns the explicit publish date when set,
// otherwise the creation date.
func (a *Article) EffectivePublishDate() time.Time {
	if a.PublishDate != nil {
		return *a.PublishDate
	}
	return a.CreatedAt
}

// IsPubliclyVisible reports whether the article passes the default public filters at now.
func (a *Article) IsPubliclyVisible(now time.Time) bool {
	return a.Status == ArticleStatusPublished &&
		a.Source == ArticleSourceInternal &&
		!a.EffectivePublishDate().After(now)
}

// IsValidArticleStatus reports whether s is a known article status.
func IsValidArticleStatus(s string) bool {
	switch s {
	case ArticleStatusDraft, ArticleStatusScheduled, ArticleStatusPublished:
		return true
	}
	return false
}

// IsValidArticleSource reports whether s is a known article source.
func IsValidArticleSource(s string) bool {
	return s == ArticleSourceInternal || s == ArticleSourceExternal
}

// ArticleFilter narrows a public article listing.
// Zero values fall back to the public defaults.
type ArticleFilter struct {
	Section string
	Limit   int
	Status  string
	Source  string
}

// Default listing values.
const (
	DefaultArticleLimit = 5
	MaxArticleLimit     = 100
)

// WithDefaults returns a copy of f with empty fields replaced by the public defaults.
func (f ArticleFilter) WithDefaults() ArticleFilter {
	if f.Status == "" {
		f.Status = ArticleStatusPublished
	}
	if f.Source == "" {
		f.Source = ArticleSourceInternal
	}
	if f.Limit <= 0 {
		f.Limit = DefaultArticleLimit
	}
	if f.Limit > MaxArticleLimit {
		f.Limit = MaxArticleLimit
	}
	return f
}
