package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID, status string) ([]*models.Post, error)
	ListDueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error)
	CheckByUserID(ctx context.Context, postID int64, userID string) (bool, error)
	UpdateStatus(ctx context.Context, status string, postID int64) error
	MarkPosted(ctx context.Context, postID int64, platformPostID string) error
	MarkFailed(ctx context.Context, postID int64, errorMessage string) error
	SetImageURL(ctx context.Context, postID int64, imageURL string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO social_media_posts (account_id, content, image_url, image_prompt, hashtags, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	hashtags, err := json.Marshal(post.Hashtags)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.AccountID, post.Content, post.ImageURL, post.ImagePrompt, string(hashtags), post.Status, post.ScheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.AccountID, post.Content, post.ImageURL, post.ImagePrompt, string(hashtags), post.Status, post.ScheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(dest rowScanner) (*models.Post, error) {
	var post models.Post
	var hashtags sql.NullString
	err := dest.Scan(
		&post.ID,
		&post.AccountID,
		&post.Content,
		&post.ImageURL,
		&post.ImagePrompt,
		&hashtags,
		&post.Status,
		&post.ScheduledAt,
		&post.PostedAt,
		&post.PlatformPostID,
		&post.ErrorMessage,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Hashtags = []string{}
	if hashtags.Valid && hashtags.String != "" {
		if err := json.Unmarshal([]byte(hashtags.String), &post.Hashtags); err != nil {
			slog.Info(err.Error())
		}
	}

	return &post, nil
}

const postColumns = `id, account_id, content, COALESCE(image_url, ''), COALESCE(image_prompt, ''), hashtags, status, scheduled_at, posted_at, COALESCE(platform_post_id, ''), COALESCE(error_message, ''), created_at, updated_at`

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_media_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID, status string) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.account_id, p.content, COALESCE(p.image_url, ''), COALESCE(p.image_prompt, ''), p.hashtags, p.status, p.scheduled_at, p.posted_at, COALESCE(p.platform_post_id, ''), COALESCE(p.error_message, ''), p.created_at, p.updated_at
		FROM social_media_posts p
		JOIN social_media_accounts a ON a.id = p.account_id
		WHERE a.user_id = $1
	`

	args := []interface{}{userID}
	if status != "" {
		query += ` AND p.status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// ListDueScheduled returns approved posts whose scheduled time has passed.
func (r *postRepository) ListDueScheduled(ctx context.Context, cutoff time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM social_media_posts WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusApproved, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID int64, userID string) (bool, error) {
	query := `
		SELECT 1 FROM social_media_posts p
		JOIN social_media_accounts a ON a.id = p.account_id
		WHERE p.id = $1 AND a.user_id = $2
	`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	query := `
		UPDATE social_media_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkPosted(ctx context.Context, postID int64, platformPostID string) error {
	query := `
		UPDATE social_media_posts
		SET status = $1,
			platform_post_id = $2,
			posted_at = $3,
			error_message = NULL,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPosted, platformPostID, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, postID int64, errorMessage string) error {
	query := `
		UPDATE social_media_posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, errorMessage, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetImageURL(ctx context.Context, postID int64, imageURL string) error {
	query := `UPDATE social_media_posts SET image_url = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, imageURL, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
