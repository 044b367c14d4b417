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

const selectUser = `SELECT id, email, password_hash, role, name, created_at, updated_at, last_login_at FROM users`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                    model.User
		createdAt, updatedAt int64
		lastLogin            sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name,
		&createdAt, &updatedAt, &lastLogin); err != nil {
		return model.User{}, err
	}
	u.CreatedAt = util.TimeFromMillis(createdAt)
	u.UpdatedAt = util.TimeFromMillis(updatedAt)
	u.LastLoginAt = util.TimePtrFromNullMillis(lastLogin)
	return u, nil
}

// CreateUserParams holds the columns of a new user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Role         string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a user. A duplicate email fails with a UNIQUE constraint error.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO users
        (email, password_hash, role, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.Role, arg.Name,
		util.UnixMillis(arg.CreatedAt), util.UnixMillis(arg.UpdatedAt))
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns the user with id or sql.ErrNoRows.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

// GetUserByEmail looks a user up case-insensitively.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, selectUser+` WHERE email = ? COLLATE NOCASE`, email))
}

// ListUsers returns a page of users ordered by ID.
func (q *Queries) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, selectUser+` ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// UpdateUserPassword replaces the stored password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, util.UnixMillis(now), id)
	return err
}

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, id int64, role string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, util.UnixMillis(now), id)
	return err
}

// UpdateUserLastLogin records a successful login.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE id = ?`,
		util.UnixMillis(at), id)
	return err
}

// DeleteUser removes a user.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// ListUserRoles maps every user ID to its current role.
func (q *Queries) ListUserRoles(ctx context.Context) (map[int64]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, role FROM users`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	roles := make(map[int64]string)
	for rows.Next() {
		var (
			id   int64
			role string
		)
		if err := rows.Scan(&id, &role); err != nil {
			return nil, err
		}
		roles[id] = role
	}
	return roles, rows.Err()
}
