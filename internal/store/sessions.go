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

const selectSession = `SELECT id, session_token, article_id, reader_type, user_id, visitor_key,
    started_at, last_event_at, completed_at, progress_percent, duration_seconds,
    referrer, utm_source, utm_medium, utm_campaign, device_type, country_code
    FROM reading_sessions`

func scanSession(row rowScanner) (model.ReadingSession, error) {
	var (
		s                    model.ReadingSession
		readerType           string
		userID, completedAt  sql.NullInt64
		startedAt, lastEvent int64
		progress, duration   sql.NullFloat64
	)
	err := row.Scan(&s.ID, &s.Token, &s.ArticleID, &readerType, &userID, &s.Reader.VisitorKey,
		&startedAt, &lastEvent, &completedAt, &progress, &duration,
		&s.Context.Referrer, &s.Context.UTMSource, &s.Context.UTMMedium, &s.Context.UTMCampaign,
		&s.Context.DeviceType, &s.Context.CountryCode)
	if err != nil {
		return model.ReadingSession{}, err
	}
	s.Reader.Type = model.ReaderType(readerType)
	if userID.Valid {
		s.Reader.UserID = userID.Int64
	}
	s.StartedAt = util.TimeFromMillis(startedAt)
	s.LastEventAt = util.TimeFromMillis(lastEvent)
	s.CompletedAt = util.TimePtrFromNullMillis(completedAt)
	s.ProgressPercent = util.Float64PtrFromNull(progress)
	s.DurationSeconds = util.Float64PtrFromNull(duration)
	return s, nil
}

func readerUserID(r model.Reader) sql.NullInt64 {
	if !r.IsRegistered() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: r.UserID, Valid: true}
}

// GetSessionByToken returns the session for token or sql.ErrNoRows.
func (q *Queries) GetSessionByToken(ctx context.Context, token string) (model.ReadingSession, error) {
	return scanSession(q.db.QueryRowContext(ctx, selectSession+` WHERE session_token = ?`, token))
}

// InsertSession inserts s unless a session with the same token already exists.
// It returns the new row ID and true when a row was written, or 0 and false
// when the token was taken.
func (q *Queries) InsertSession(ctx context.Context, s model.ReadingSession) (int64, bool, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO reading_sessions
        (session_token, article_id, reader_type, user_id, visitor_key, started_at, last_event_at,
         completed_at, progress_percent, duration_seconds,
         referrer, utm_source, utm_medium, utm_campaign, device_type, country_code)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(session_token) DO NOTHING`,
		s.Token, s.ArticleID, string(s.Reader.Type), readerUserID(s.Reader), s.Reader.VisitorKey,
		util.UnixMillis(s.StartedAt), util.UnixMillis(s.LastEventAt),
		util.NullMillisFromPtr(s.CompletedAt),
		util.NullFloat64FromPtr(s.ProgressPercent), util.NullFloat64FromPtr(s.DurationSeconds),
		s.Context.Referrer, s.Context.UTMSource, s.Context.UTMMedium, s.Context.UTMCampaign,
		s.Context.DeviceType, s.Context.CountryCode)
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	return id, err == nil, err
}

// UpdateSession writes a merged session back. The statement itself keeps
// the session invariants against a concurrent writer that merged from an
// older read: progress, duration and last_event_at never decrease,
// completed_at and context fields keep their first non-empty value.
func (q *Queries) UpdateSession(ctx context.Context, s model.ReadingSession) error {
	_, err := q.db.ExecContext(ctx, `UPDATE reading_sessions SET
        reader_type = ?1, user_id = ?2, visitor_key = ?3,
        last_event_at = MAX(last_event_at, ?4),
        completed_at = COALESCE(completed_at, ?5),
        progress_percent = MAX(COALESCE(progress_percent, ?6), COALESCE(?6, progress_percent)),
        duration_seconds = MAX(COALESCE(duration_seconds, ?7), COALESCE(?7, duration_seconds)),
        referrer = CASE WHEN referrer = '' THEN ?8 ELSE referrer END,
        utm_source = CASE WHEN utm_source = '' THEN ?9 ELSE utm_source END,
        utm_medium = CASE WHEN utm_medium = '' THEN ?10 ELSE utm_medium END,
        utm_campaign = CASE WHEN utm_campaign = '' THEN ?11 ELSE utm_campaign END,
        device_type = CASE WHEN device_type = '' THEN ?12 ELSE device_type END,
        country_code = CASE WHEN country_code = '' THEN ?13 ELSE country_code END
        WHERE id = ?14`,
		string(s.Reader.Type), readerUserID(s.Reader), s.Reader.VisitorKey,
		util.UnixMillis(s.LastEventAt), util.NullMillisFromPtr(s.CompletedAt),
		util.NullFloat64FromPtr(s.ProgressPercent), util.NullFloat64FromPtr(s.DurationSeconds),
		s.Context.Referrer, s.Context.UTMSource, s.Context.UTMMedium, s.Context.UTMCampaign,
		s.Context.DeviceType, s.Context.CountryCode, s.ID)
	return err
}

// ListSessionsStartedSince returns sessions whose start is at or after since.
// A zero since returns every session.
func (q *Queries) ListSessionsStartedSince(ctx context.Context, since time.Time) ([]model.ReadingSession, error) {
	var from int64
	if !since.IsZero() {
		from = util.UnixMillis(since)
	}
	rows, err := q.db.QueryContext(ctx, selectSession+` WHERE started_at >= ? ORDER BY started_at, id`, from)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.ReadingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// CountSessions returns the number of reading sessions.
func (q *Queries) CountSessions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reading_sessions`).Scan(&n)
	return n, err
}
