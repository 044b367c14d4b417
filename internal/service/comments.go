// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"
	"unicode/utf8"

	"github.com/newsroomhq/newsdesk/internal/model"
	"github.com/newsroomhq/newsdesk/internal/store"
)

// Comment errors.
var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrCommentsDisabled = errors.New("comments are disabled")
)

// Comment field limits.
const (
	MaxCommentAuthorLength  = 100
	MaxCommentContentLength = 5000
)

// CommentInput is a comment submitted by a reader.
type CommentInput struct {
	Author  string `json:"author"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

// CommentService handles comment submission and moderation.
type CommentService struct {
	queries  *store.Queries
	settings *SettingsService
	now      func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sql.DB, settings *SettingsService) *CommentService {
	return &CommentService{queries: store.New(db), settings: settings, now: time.Now}
}

// Create stores a pending comment on an article. Markup is stripped from
// author and content.
func (s *CommentService) Create(ctx context.Context, articleID int64, in CommentInput) (*model.Comment, error) {
	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		if !settings.CommentsEnabled {
			return nil, ErrCommentsDisabled
		}
	}

	if _, err := s.queries.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("loading article: %w", err)
	}

	c := model.Comment{
		ArticleID: articleID,
		Author:    sanitizeComment(in.Author),
		Email:     model.NormalizeEmail(in.Email),
		Content:   sanitizeComment(in.Content),
		Status:    model.CommentStatusPending,
		CreatedAt: s.now().UTC(),
	}

	verr := &model.ValidationError{}
	switch {
	case c.Author == "":
		verr.Add("author", "Name is required")
	case utf8.RuneCountInString(c.Author) > MaxCommentAuthorLength:
		verr.Add("author", fmt.Sprintf("Name must be at most %d characters", MaxCommentAuthorLength))
	}
	switch {
	case c.Content == "":
		verr.Add("content", "Comment is required")
	case utf8.RuneCountInString(c.Content) > MaxCommentContentLength:
		verr.Add("content", fmt.Sprintf("Comment must be at most %d characters", MaxCommentContentLength))
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			verr.Add("email", "Invalid email address")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	created, err := s.queries.CreateComment(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}
	return &created, nil
}

// ListApproved returns the approved comments of an article, oldest first.
func (s *CommentService) ListApproved(ctx context.Context, articleID int64) ([]model.Comment, error) {
	comments, err := s.queries.ListArticleComments(ctx, articleID, model.CommentStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

// ListByStatus returns one page of comments with status, newest first.
func (s *CommentService) ListByStatus(ctx context.Context, status string, page, perPage int) ([]model.Comment, int64, error) {
	if status == "" {
		status = model.CommentStatusPending
	}
	if !model.IsValidCommentStatus(status) {
		return nil, 0, model.NewValidationError("status", "Status must be pending, approved or rejected")
	}
	page, perPage = normalizePage(page, perPage)

	total, err := s.queries.CountComments(ctx, status)
	if err != nil {
		return nil, 0, fmt.Errorf("counting comments: %w", err)
	}
	comments, err := s.queries.ListCommentsByStatus(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("listing comments: %w", err)
	}
	return comments, total, nil
}

// Moderate sets the status of a comment.
func (s *CommentService) Moderate(ctx context.Context, id int64, status string) (*model.Comment, error) {
	if !model.IsValidCommentStatus(status) {
		return nil, model.NewValidationError("status", "Status must be pending, approved or rejected")
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.queries.UpdateCommentStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}
	c.Status = status
	return &c, nil
}

// Delete removes a comment.
func (s *CommentService) Delete(ctx context.Context, id int64) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeleteComment(ctx, id); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	return nil
}

func (s *CommentService) get(ctx context.Context, id int64) (model.Comment, error) {
	c, err := s.queries.GetComment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("loading comment: %w", err)
	}
	return c, nil
}
