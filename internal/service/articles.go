// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/newsroomhq/newsdesk/internal/analytics"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// ErrArticleNotFound is shared with the reading tracker so handlers map both
// the same way.
var ErrArticleNotFound = analytics.ErrArticleNotFound

// Article field limits.
const (
	MaxTitleLength   = 300
	MaxSectionLength = 100
	maxSlugAttempts  = 100
)

// ArticleInput holds the fields of a new article.
type ArticleInput struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Section     string     `json:"section"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	ExternalURL string     `json:"external_url"`
	PublishDate *time.Time `json:"publish_date"`
	ImageKey    string     `json:"image_key"`
}

// ArticlePatch holds optional article changes. ClearPublishDate removes the
// explicit publish date so the creation date applies again.
type ArticlePatch struct {
	Title            *string
	Slug             *string
	Section          *string
	Content          *string
	Author           *string
	Status           *string
	Source           *string
	ExternalURL      *string
	ImageKey         *string
	PublishDate      *time.Time
	ClearPublishDate bool
}

// ArticleView is an article prepared for API responses.
type ArticleView struct {
	model.Article
	EffectivePublishDate time.Time `json:"effective_publish_date"`
	ImageURL             string    `json:"image_url,omitempty"`
	HTML                 string    `json:"html,omitempty"`
	Excerpt              string    `json:"excerpt"`
	WordCount            int       `json:"word_count"`
	ReadingMinutes       int       `json:"reading_minutes"`
}

// ArticleService manages articles.
type ArticleService struct {
	queries *store.Queries
	media   *MediaService
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
}

// NewArticleService creates a new ArticleService. media and events may be nil.
func NewArticleService(db *sql.DB, media *MediaService, events *EventService, logger *slog.Logger) *ArticleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleService{
		queries: store.New(db),
		media:   media,
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// Create validates and stores a new article.
func (s *ArticleService) Create(ctx context.Context, in ArticleInput) (*ArticleView, error) {
	now := s.now().UTC()
	a := model.Article{
		Title:       strings.TrimSpace(in.Title),
		Section:     strings.TrimSpace(in.Section),
		Content:     in.Content,
		Author:      strings.TrimSpace(in.Author),
		Status:      strings.TrimSpace(in.Status),
		Source:      strings.TrimSpace(in.Source),
		ExternalURL: strings.TrimSpace(in.ExternalURL),
		PublishDate: utcPtr(in.PublishDate),
		ImageKey:    strings.TrimSpace(in.ImageKey),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if a.Status == "" {
		a.Status = model.ArticleStatusDraft
	}
	if a.Source == "" {
		a.Source = model.ArticleSourceInternal
	}
	if err := validateArticle(&a); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, slugSource(in.Slug, a.Title), 0)
	if err != nil {
		return nil, err
	}
	a.Slug = slug

	created, err := s.queries.CreateArticle(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("creating article: %w", err)
	}

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryArticle, "Article created", map[string]any{
		"article_id": created.ID, "slug": created.Slug, "status": created.Status,
	})
	return s.view(ctx, created, true), nil
}

// Update applies patch to the article with id.
func (s *ArticleService) Update(ctx context.Context, id int64, patch ArticlePatch) (*ArticleView, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldImage := a.ImageKey

	setTrimmed(&a.Title, patch.Title)
	setTrimmed(&a.Section, patch.Section)
	setTrimmed(&a.Author, patch.Author)
	setTrimmed(&a.Status, patch.Status)
	setTrimmed(&a.Source, patch.Source)
	setTrimmed(&a.ExternalURL, patch.ExternalURL)
	setTrimmed(&a.ImageKey, patch.ImageKey)
	if patch.Content != nil {
		a.Content = *patch.Content
	}
	switch {
	case patch.ClearPublishDate:
		a.PublishDate = nil
	case patch.PublishDate != nil:
		a.PublishDate = utcPtr(patch.PublishDate)
	}

	if err := validateArticle(&a); err != nil {
		return nil, err
	}

	if patch.Slug != nil {
		slug, err := s.uniqueSlug(ctx, slugSource(*patch.Slug, a.Title), a.ID)
		if err != nil {
			return nil, err
		}
		a.Slug = slug
	}

	a.UpdatedAt = s.now().UTC()
	if err := s.queries.UpdateArticle(ctx, a); err != nil {
		return nil, fmt.Errorf("updating article: %w", err)
	}

	if oldImage != "" && oldImage != a.ImageKey {
		s.deleteImage(ctx, a.ID, oldImage)
	}

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryArticle, "Article updated", map[string]any{"article_id": a.ID})
	return s.view(ctx, a, true), nil
}

// Delete removes the article and its cover image. A failure to delete the
// image is logged and does not fail the call.
func (s *ArticleService) Delete(ctx context.Context, id int64) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.queries.DeleteArticle(ctx, id); err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if a.ImageKey != "" {
		s.deleteImage(ctx, id, a.ImageKey)
	}

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryArticle, "Article deleted", map[string]any{
		"article_id": id, "slug": a.Slug,
	})
	return nil
}

// Get returns the article with id, or nil when it does not exist.
func (s *ArticleService) Get(ctx context.Context, id int64) (*ArticleView, error) {
	a, err := s.queries.GetArticle(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading article: %w", err)
	}
	return s.view(ctx, a, true), nil
}

// GetBySlug returns the article with slug, or nil when it does not exist.
func (s *ArticleService) GetBySlug(ctx context.Context, slug string) (*ArticleView, error) {
	slug = strings.TrimSpace(slug)
	if !util.IsValidSlug(slug) {
		return nil, nil
	}
	a, err := s.queries.GetArticleBySlug(ctx, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading article: %w", err)
	}
	return s.view(ctx, a, true), nil
}

// ListPublic returns articles matching f, newest effective publish date first.
// Empty filter fields fall back to the public defaults.
func (s *ArticleService) ListPublic(ctx context.Context, f model.ArticleFilter) ([]ArticleView, error) {
	f = f.WithDefaults()
	if !model.IsValidArticleStatus(f.Status) {
		return nil, model.NewValidationError("status", "Invalid status")
	}
	if !model.IsValidArticleSource(f.Source) {
		return nil, model.NewValidationError("source", "Invalid source")
	}

	articles, err := s.queries.ListPublicArticles(ctx, f, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	return s.views(ctx, articles), nil
}

// ListAll returns one page of every article regardless of visibility.
func (s *ArticleService) ListAll(ctx context.Context, status string, page, perPage int) ([]ArticleView, int64, error) {
	if status != "" && !model.IsValidArticleStatus(status) {
		return nil, 0, model.NewValidationError("status", "Invalid status")
	}
	page, perPage = normalizePage(page, perPage)

	total, err := s.queries.CountArticles(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting articles: %w", err)
	}
	articles, err := s.queries.ListArticles(ctx, store.ListArticlesParams{
		Status: status,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing articles: %w", err)
	}
	return s.views(ctx, articles), total, nil
}

// PublishDue promotes scheduled articles whose publish date has passed.
func (s *ArticleService) PublishDue(ctx context.Context) (int64, error) {
	n, err := s.queries.PublishDueArticles(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("publishing due articles: %w", err)
	}
	if n > 0 {
		s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryArticle, "Scheduled articles published", map[string]any{"count": n})
	}
	return n, nil
}

func (s *ArticleService) load(ctx context.Context, id int64) (model.Article, error) {
	a, err := s.queries.GetArticle(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Article{}, ErrArticleNotFound
	}
	if err != nil {
		return model.Article{}, fmt.Errorf("loading article: %w", err)
	}
	return a, nil
}

func (s *ArticleService) deleteImage(ctx context.Context, articleID int64, key string) {
	if s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete article image", "article_id", articleID, "key", key, "error", err)
	}
}

func (s *ArticleService) view(ctx context.Context, a model.Article, withHTML bool) *ArticleView {
	v := &ArticleView{
		Article:              a,
		EffectivePublishDate: a.EffectivePublishDate(),
		ImageURL:             s.media.coverURL(ctx, a.ImageKey),
	}
	rendered, err := renderMarkdown(a.Content)
	if err != nil {
		s.logger.Warn("failed to render article", "article_id", a.ID, "error", err)
	}
	v.Excerpt = rendered.Excerpt
	v.WordCount = rendered.WordCount
	v.ReadingMinutes = readingMinutes(rendered.WordCount)
	if withHTML {
		v.HTML = rendered.HTML
	}
	return v
}

func (s *ArticleService) views(ctx context.Context, articles []model.Article) []ArticleView {
	out := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		out = append(out, *s.view(ctx, a, false))
	}
	return out
}

// uniqueSlug returns base, or base with a numeric suffix, that no other
// article uses.
func (s *ArticleService) uniqueSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	if base == "" {
		base = "article"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		exists, err := s.queries.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", model.NewValidationError("slug", "Could not generate a unique slug")
}

func slugSource(slug, title string) string {
	if s := util.Slugify(slug); s != "" {
		return s
	}
	return util.Slugify(title)
}

func validateArticle(a *model.Article) error {
	verr := &model.ValidationError{}

	switch {
	case a.Title == "":
		verr.Add("title", "Title is required")
	case utf8.RuneCountInString(a.Title) > MaxTitleLength:
		verr.Add("title", fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}
	if utf8.RuneCountInString(a.Section) > MaxSectionLength {
		verr.Add("section", fmt.Sprintf("Section must be at most %d characters", MaxSectionLength))
	}
	if !model.IsValidArticleStatus(a.Status) {
		verr.Add("status", "Status must be draft, scheduled or published")
	} else if a.Status == model.ArticleStatusScheduled && a.PublishDate == nil {
		verr.Add("publish_date", "Scheduled articles need a publish date")
	}
	if !model.IsValidArticleSource(a.Source) {
		verr.Add("source", "Source must be internal or external")
	} else if a.Source == model.ArticleSourceExternal {
		if err := util.ValidateExternalURL(a.ExternalURL); err != nil {
			verr.Add("external_url", err.Error())
		}
	}
	if a.ImageKey != "" {
		if err := util.ValidateBlobKey(a.ImageKey); err != nil {
			verr.Add("image_key", err.Error())
		}
	}

	return verr.OrNil()
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}
