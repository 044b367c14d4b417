// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/newsroomhq/newsdesk/internal/auth"
	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// User errors.
var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// Password limits.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

// RegisterInput holds the fields of a new account.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// UserService manages accounts and password login.
type UserService struct {
	queries *store.Queries
	events  *EventService
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, events *EventService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{queries: store.New(db), events: events, logger: logger, now: time.Now}
}

// Register creates an account. Emails are compared case-insensitively.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := model.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = model.RoleReader
	}

	verr := &model.ValidationError{}
	if email == "" {
		verr.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Invalid email address")
	}
	switch n := utf8.RuneCountInString(in.Password); {
	case n < MinPasswordLength:
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	case n > MaxPasswordLength:
		verr.Add("password", fmt.Sprintf("Password must be at most %d characters", MaxPasswordLength))
	}
	if !model.IsValidRole(role) {
		verr.Add("role", "Role must be admin, editor or reader")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.queries.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User registered", map[string]any{
		"user_id": user.ID, "role": user.Role,
	})
	return &user, nil
}

// Login checks credentials and records the login. Hashes in an outdated
// format are replaced with a fresh argon2id hash on success.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.queries.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	res, err := auth.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("unreadable password hash", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !res.Match {
		s.events.logAudit(ctx, model.EventLevelWarning, model.EventCategoryAuth, "Failed login attempt", map[string]any{"user_id": user.ID})
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	if res.NeedsUpgrade {
		s.upgradeHash(ctx, user.ID, password, res.Scheme, now)
	}

	if err := s.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("recording login: %w", err)
	}
	user.LastLoginAt = &now

	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryAuth, "User logged in", map[string]any{"user_id": user.ID})
	return &user, nil
}

// upgradeHash rewrites the stored hash. Failure only costs another upgrade
// attempt on the next login.
func (s *UserService) upgradeHash(ctx context.Context, id int64, password string, from auth.Scheme, now time.Time) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.queries.UpdateUserPassword(ctx, id, hash, now)
	}
	if err != nil {
		s.logger.Error("failed to upgrade password hash", "user_id", id, "scheme", from, "error", err)
		return
	}
	s.logger.Info("password hash upgraded", "user_id", id, "scheme", from)
}

// Get returns the user with id, or nil when it does not exist.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// List returns one page of users ordered by ID.
func (s *UserService) List(ctx context.Context, page, perPage int) ([]model.User, int64, error) {
	page, perPage = normalizePage(page, perPage)

	total, err := s.queries.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	users, err := s.queries.ListUsers(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

// UpdateRole changes a user's role.
func (s *UserService) UpdateRole(ctx context.Context, id int64, role string) (*model.User, error) {
	role = strings.TrimSpace(role)
	if !model.IsValidRole(role) {
		return nil, model.NewValidationError("role", "Role must be admin, editor or reader")
	}
	if _, err := s.mustGet(ctx, id); err != nil {
		return nil, err
	}

	if err := s.queries.UpdateUserRole(ctx, id, role, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}
	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User role changed", map[string]any{"user_id": id, "role": role})
	return s.mustGet(ctx, id)
}

// Delete removes a user. Reading history keeps the user ID, which analytics
// then reports under the "unknown" role.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if _, err := s.mustGet(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	s.events.logAudit(ctx, model.EventLevelInfo, model.EventCategoryUser, "User deleted", map[string]any{"user_id": id})
	return nil
}

func (s *UserService) mustGet(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}
