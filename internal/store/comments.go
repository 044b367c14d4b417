// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

const selectComment = `SELECT id, article_id, author, email, content, status, created_at FROM comments`

func scanComment(row rowScanner) (model.Comment, error) {
	var (
		c         model.Comment
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.ArticleID, &c.Author, &c.Email, &c.Content, &c.Status, &createdAt); err != nil {
		return model.Comment{}, err
	}
	c.CreatedAt = util.TimeFromMillis(createdAt)
	return c, nil
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	defer func() { _ = rows.Close() }()
	var items []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateComment inserts c and returns it with its ID.
func (q *Queries) CreateComment(ctx context.Context, c model.Comment) (model.Comment, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO comments
        (article_id, author, email, content, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ArticleID, c.Author, c.Email, c.Content, c.Status, util.UnixMillis(c.CreatedAt))
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return q.GetComment(ctx, id)
}

// GetComment returns the comment with id or sql.ErrNoRows.
func (q *Queries) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, selectComment+` WHERE id = ?`, id))
}

// ListArticleComments returns an article's comments with status, oldest first.
func (q *Queries) ListArticleComments(ctx context.Context, articleID int64, status string) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx,
		selectComment+` WHERE article_id = ? AND status = ? ORDER BY created_at, id`, articleID, status)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

// ListCommentsByStatus returns a page of comments with status, newest first.
func (q *Queries) ListCommentsByStatus(ctx context.Context, status string, limit, offset int) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx,
		selectComment+` WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		status, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectComments(rows)
}

// UpdateCommentStatus sets the moderation status of a comment.
func (q *Queries) UpdateCommentStatus(ctx context.Context, id int64, status string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE comments SET status = ? WHERE id = ?`, status, id)
	return err
}

// DeleteComment removes a comment.
func (q *Queries) DeleteComment(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return err
}

// CountComments counts comments, optionally restricted to one status.
func (q *Queries) CountComments(ctx context.Context, status string) (int64, error) {
	var n int64
	var err error
	if status == "" {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&n)
	} else {
		err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE status = ?`, status).Scan(&n)
	}
	return n, err
}
