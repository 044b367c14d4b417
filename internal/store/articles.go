// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

var articleColumns = []string{
	"id", "title", "slug", "section", "content", "author", "views", "status",
	"source", "external_url", "publish_date", "image_key", "created_at", "updated_at",
}

const selectArticle = `SELECT id, title, slug, section, content, author, views, status,
    source, external_url, publish_date, image_key, created_at, updated_at FROM articles`

// effectivePublishDate is the SQL expression for publish_date falling back to created_at.
const effectivePublishDate = "COALESCE(publish_date, created_at)"

func scanArticle(row rowScanner) (model.Article, error) {
	var (
		a                    model.Article
		publishDate          sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&a.ID, &a.Title, &a.Slug, &a.Section, &a.Content, &a.Author, &a.Views,
		&a.Status, &a.Source, &a.ExternalURL, &publishDate, &a.ImageKey, &createdAt, &updatedAt)
	if err != nil {
		return model.Article{}, err
	}
	a.PublishDate = util.TimePtrFromNullMillis(publishDate)
	a.CreatedAt = util.TimeFromMillis(createdAt)
	a.UpdatedAt = util.TimeFromMillis(updatedAt)
	return a, nil
}

func collectArticles(rows *sql.Rows) ([]model.Article, error) {
	defer func() { _ = rows.Close() }()
	var items []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateArticle inserts a new article and returns it with its ID.
func (q *Queries) CreateArticle(ctx context.Context, a model.Article) (model.Article, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO articles
        (title, slug, section, content, author, views, status, source, external_url,
         publish_date, image_key, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Slug, a.Section, a.Content, a.Author, a.Views, a.Status, a.Source,
		a.ExternalURL, util.NullMillisFromPtr(a.PublishDate), a.ImageKey,
		util.UnixMillis(a.CreatedAt), util.UnixMillis(a.UpdatedAt))
	if err != nil {
		return model.Article{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Article{}, err
	}
	return q.GetArticle(ctx, id)
}

// GetArticle returns the article with id or sql.ErrNoRows.
func (q *Queries) GetArticle(ctx context.Context, id int64) (model.Article, error) {
	return scanArticle(q.db.QueryRowContext(ctx, selectArticle+` WHERE id = ?`, id))
}

// GetArticleBySlug returns the article with slug or sql.ErrNoRows.
func (q *Queries) GetArticleBySlug(ctx context.Context, slug string) (model.Article, error) {
	return scanArticle(q.db.QueryRowContext(ctx, selectArticle+` WHERE slug = ?`, slug))
}

// SlugExists reports whether another article already uses slug.
func (q *Queries) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM articles WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateArticle writes every mutable column of a.
func (q *Queries) UpdateArticle(ctx context.Context, a model.Article) error {
	_, err := q.db.ExecContext(ctx, `UPDATE articles SET
        title = ?, slug = ?, section = ?, content = ?, author = ?, status = ?, source = ?,
        external_url = ?, publish_date = ?, image_key = ?, updated_at = ?
        WHERE id = ?`,
		a.Title, a.Slug, a.Section, a.Content, a.Author, a.Status, a.Source,
		a.ExternalURL, util.NullMillisFromPtr(a.PublishDate), a.ImageKey,
		util.UnixMillis(a.UpdatedAt), a.ID)
	return err
}

// DeleteArticle removes an article; sessions, events and comments cascade.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	return err
}

// IncrementArticleViews adds one to the view counter and returns the new value.
func (q *Queries) IncrementArticleViews(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE articles SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, sql.ErrNoRows
	}
	var views int64
	err = q.db.QueryRowContext(ctx, `SELECT views FROM articles WHERE id = ?`, id).Scan(&views)
	return views, err
}

// ListPublicArticles returns articles matching f whose effective publish date
// is not after now, newest first. f must already have defaults applied.
func (q *Queries) ListPublicArticles(ctx context.Context, f model.ArticleFilter, now time.Time) ([]model.Article, error) {
	b := sq.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"status": f.Status, "source": f.Source}).
		Where(sq.LtOrEq{effectivePublishDate: util.UnixMillis(now)}).
		OrderBy(effectivePublishDate+" DESC", "id DESC").
		Limit(uint64(f.Limit))
	if f.Section != "" {
		b = b.Where(sq.Eq{"section": f.Section})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building article query: %w", err)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// ListArticlesParams filters the admin article listing.
type ListArticlesParams struct {
	Status string
	Limit  int
	Offset int
}

func (p ListArticlesParams) where(b sq.SelectBuilder) sq.SelectBuilder {
	if p.Status != "" {
		b = b.Where(sq.Eq{"status": p.Status})
	}
	return b
}

// ListArticles returns a page of all articles, most recently updated first.
func (q *Queries) ListArticles(ctx context.Context, p ListArticlesParams) ([]model.Article, error) {
	b := p.where(sq.Select(articleColumns...).From("articles")).
		OrderBy("updated_at DESC", "id DESC").
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset))

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building article query: %w", err)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

// CountArticles counts articles, optionally restricted to one status.
func (q *Queries) CountArticles(ctx context.Context, status string) (int64, error) {
	query, args, err := ListArticlesParams{Status: status}.
		where(sq.Select("COUNT(*)").From("articles")).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}
	var n int64
	err = q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// PublishDueArticles moves scheduled articles whose publish date has passed to published.
func (q *Queries) PublishDueArticles(ctx context.Context, now time.Time) (int64, error) {
	ms := util.UnixMillis(now)
	res, err := q.db.ExecContext(ctx, `UPDATE articles SET status = ?, updated_at = ?
        WHERE status = ? AND publish_date IS NOT NULL AND publish_date <= ?`,
		model.ArticleStatusPublished, ms, model.ArticleStatusScheduled, ms)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ArticleStat is the slice of an article needed for analytics.
type ArticleStat struct {
	ID                   int64
	Title                string
	Section              string
	Views                int64
	EffectivePublishDate time.Time
}

// ListArticleStats returns view counters for every article.
func (q *Queries) ListArticleStats(ctx context.Context) ([]ArticleStat, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, section, views, `+effectivePublishDate+` FROM articles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ArticleStat
	for rows.Next() {
		var (
			s  ArticleStat
			ms int64
		)
		if err := rows.Scan(&s.ID, &s.Title, &s.Section, &s.Views, &ms); err != nil {
			return nil, err
		}
		s.EffectivePublishDate = util.TimeFromMillis(ms)
		items = append(items, s)
	}
	return items, rows.Err()
}
