package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
	"github.com/arjunmk/postpilot/internal/repository"
	"github.com/arjunmk/postpilot/internal/transfer"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrAccountNotFound = errors.New("account not found or inactive")
	ErrPostNotFound    = errors.New("post not found")
	ErrNotDraft        = errors.New("post is not in draft status")
)

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, userID, status string) ([]*models.Post, error)
	Approve(ctx context.Context, postID int64) (*models.Post, time.Duration, error)
	Get(ctx context.Context, postID int64) (*models.Post, error)
}

type postService struct {
	db *sql.DB
	pr repository.PostRepository
	sa repository.SocialAccountRepository
	pb PublisherService
}

func NewPostService(db *sql.DB, pr repository.PostRepository, sa repository.SocialAccountRepository, pb PublisherService) PostService {
	return &postService{
		db: db,
		pr: pr,
		sa: sa,
		pb: pb,
	}
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return nil, err
	}
	if pc.Content == "" || pc.AccountID == 0 {
		slog.Info(ErrMissingFields.Error())
		return nil, ErrMissingFields
	}

	account, err := s.sa.GetActiveByID(ctx, pc.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		slog.Info(ErrAccountNotFound.Error())
		return nil, ErrAccountNotFound
	}

	var scheduledAt *time.Time
	if pc.ScheduledAt != "" {
		parsed, err := parseScheduledTime(pc.ScheduledAt)
		if err != nil {
			err = fmt.Errorf("invalid scheduled time format: %w", err)
			slog.Error(err.Error())
			return nil, err
		}
		scheduledAt = &parsed
	}

	post := models.Post{
		AccountID:   pc.AccountID,
		Content:     pc.Content,
		ImageURL:    pc.ImageURL,
		ImagePrompt: pc.ImagePrompt,
		Hashtags:    pc.Hashtags,
		Status:      models.PostStatusDraft,
		ScheduledAt: scheduledAt,
	}
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}

	postID, err := s.pr.Create(ctx, nil, &post)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	return s.pr.GetByID(ctx, postID)
}

// parseScheduledTime accepts both the RFC 3339 form API clients send and
// the datetime-local form the dashboard submits.
func parseScheduledTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", value)
}

func (s *postService) List(ctx context.Context, userID, status string) ([]*models.Post, error) {
	posts, err := s.pr.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}
	return posts, nil
}

// Approve moves a draft to approved before any publish decision. An
// unscheduled post is then published on the spot; a scheduled one stays
// approved and the returned delay tells the caller when to enqueue it.
func (s *postService) Approve(ctx context.Context, postID int64) (*models.Post, time.Duration, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}
	if post == nil {
		slog.Info(ErrPostNotFound.Error())
		return nil, 0, ErrPostNotFound
	}

	if post.Status != models.PostStatusDraft {
		slog.Info(ErrNotDraft.Error())
		return nil, 0, ErrNotDraft
	}

	if err := s.pr.UpdateStatus(ctx, models.PostStatusApproved, postID); err != nil {
		return nil, 0, fmt.Errorf("error approving post: %w", err)
	}

	if post.ScheduledAt == nil {
		published, err := s.pb.PublishNow(ctx, postID)
		if err != nil {
			return nil, 0, fmt.Errorf("error publishing post: %w", err)
		}
		return published, 0, nil
	}

	delay := time.Until(*post.ScheduledAt)
	if delay < 0 {
		delay = 0
	}

	post, err = s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, 0, err
	}

	return post, delay, nil
}

func (s *postService) Get(ctx context.Context, postID int64) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		slog.Info(ErrPostNotFound.Error())
		return nil, ErrPostNotFound
	}
	return post, nil
}
