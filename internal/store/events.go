// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/util"
)

// InsertArticleEvent appends one article event row.
func (q *Queries) InsertArticleEvent(ctx context.Context, e model.ArticleEvent) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO article_events
        (article_id, session_id, kind, occurred_at, reader_type, user_id, visitor_key, metadata)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ArticleID, util.NullIDFromPtr(e.SessionID), e.Kind, util.UnixMillis(e.OccurredAt),
		string(e.Reader.Type), readerUserID(e.Reader), e.Reader.VisitorKey,
		util.NullStringFromValue(e.Metadata))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListArticleEvents returns the events of one article in insertion order,
// optionally restricted to a kind.
func (q *Queries) ListArticleEvents(ctx context.Context, articleID int64, kind string) ([]model.ArticleEvent, error) {
	query := `SELECT id, article_id, session_id, kind, occurred_at, reader_type, user_id, visitor_key, metadata
        FROM article_events WHERE article_id = ?`
	args := []any{articleID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	rows, err := q.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.ArticleEvent
	for rows.Next() {
		var (
			e                 model.ArticleEvent
			sessionID, userID sql.NullInt64
			occurredAt        int64
			readerType        string
			metadata          sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ArticleID, &sessionID, &e.Kind, &occurredAt,
			&readerType, &userID, &e.Reader.VisitorKey, &metadata); err != nil {
			return nil, err
		}
		e.SessionID = util.Int64PtrFromNull(sessionID)
		e.OccurredAt = util.TimeFromMillis(occurredAt)
		e.Reader.Type = model.ReaderType(readerType)
		if userID.Valid {
			e.Reader.UserID = userID.Int64
		}
		e.Metadata = metadata.String
		items = append(items, e)
	}
	return items, rows.Err()
}

// CountEventsByKind counts article events of one kind across all articles.
func (q *Queries) CountEventsByKind(ctx context.Context, kind string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM article_events WHERE kind = ?`, kind).Scan(&n)
	return n, err
}

// ListEventTimesSince returns occurrence times of events of kind at or after since.
func (q *Queries) ListEventTimesSince(ctx context.Context, kind string, since time.Time) ([]time.Time, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT occurred_at FROM article_events WHERE kind = ? AND occurred_at >= ? ORDER BY occurred_at`,
		kind, util.UnixMillis(since))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []time.Time
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, err
		}
		items = append(items, util.TimeFromMillis(ms))
	}
	return items, rows.Err()
}

// ViewerCount is the number of view events recorded for one reader identity.
type ViewerCount struct {
	ReaderType string
	UserID     int64
	Views      int64
}

// CountViewsByViewer groups view events by reader type and user.
func (q *Queries) CountViewsByViewer(ctx context.Context) ([]ViewerCount, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT reader_type, COALESCE(user_id, 0), COUNT(*)
        FROM article_events WHERE kind = ?
        GROUP BY reader_type, COALESCE(user_id, 0)`, model.EventKindView)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []ViewerCount
	for rows.Next() {
		var v ViewerCount
		if err := rows.Scan(&v.ReaderType, &v.UserID, &v.Views); err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}

// InsertShareEvent appends one share row.
func (q *Queries) InsertShareEvent(ctx context.Context, e model.ShareEvent) (int64, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO share_events
        (article_id, session_id, channel, reader_type, user_id, visitor_key, occurred_at, context)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ArticleID, util.NullIDFromPtr(e.SessionID), e.Channel,
		string(e.Reader.Type), readerUserID(e.Reader), e.Reader.VisitorKey,
		util.UnixMillis(e.OccurredAt), e.Context)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSharesSince returns share events at or after since; a zero since returns all.
func (q *Queries) ListSharesSince(ctx context.Context, since time.Time) ([]model.ShareEvent, error) {
	var from int64
	if !since.IsZero() {
		from = util.UnixMillis(since)
	}
	rows, err := q.db.QueryContext(ctx, `SELECT id, article_id, session_id, channel, reader_type,
        user_id, visitor_key, occurred_at, context
        FROM share_events WHERE occurred_at >= ? ORDER BY occurred_at, id`, from)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.ShareEvent
	for rows.Next() {
		var (
			e                 model.ShareEvent
			sessionID, userID sql.NullInt64
			readerType        string
			occurredAt        int64
		)
		if err := rows.Scan(&e.ID, &e.ArticleID, &sessionID, &e.Channel, &readerType,
			&userID, &e.Reader.VisitorKey, &occurredAt, &e.Context); err != nil {
			return nil, err
		}
		e.SessionID = util.Int64PtrFromNull(sessionID)
		e.Reader.Type = model.ReaderType(readerType)
		if userID.Valid {
			e.Reader.UserID = userID.Int64
		}
		e.OccurredAt = util.TimeFromMillis(occurredAt)
		items = append(items, e)
	}
	return items, rows.Err()
}
