package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/arjunmk/postpilot/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error)
	ListActiveByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error)
	ListExpiringBetween(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error)
	CheckByUserID(ctx context.Context, accountID int64, userID string) (bool, error)
	SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	Deactivate(ctx context.Context, id int64) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

func (r *socialAccountRepository) Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	var err error
	var id int64

	var query = `
		INSERT INTO social_media_accounts(
			user_id,
			platform,
			account_id,
			account_name,
			access_token,
			refresh_token,
			token_expires_at,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		ON CONFLICT (user_id, platform, account_id)
		DO UPDATE SET
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	if tx != nil {
		err = tx.QueryRowContext(ctx, query,
			sa.UserID,
			sa.Platform,
			sa.AccountID,
			sa.AccountName,
			sa.AccessToken,
			sa.RefreshToken,
			sa.TokenExpiresAt,
		).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query,
			sa.UserID,
			sa.Platform,
			sa.AccountID,
			sa.AccountName,
			sa.AccessToken,
			sa.RefreshToken,
			sa.TokenExpiresAt,
		).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at FROM social_media_accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

func (r *socialAccountRepository) GetActiveByID(ctx context.Context, id int64) (*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at FROM social_media_accounts WHERE id = $1 AND is_active = TRUE`
	row := r.db.QueryRowContext(ctx, query, id)

	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sa, nil
}

func (r *socialAccountRepository) ListActiveByUserID(ctx context.Context, userID string) ([]*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at FROM social_media_accounts WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) ListExpiringBetween(ctx context.Context, initialTime, finalTime time.Time) ([]*models.SocialAccount, error) {
	query := `SELECT id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, is_active, created_at, updated_at FROM social_media_accounts WHERE is_active = TRUE AND token_expires_at BETWEEN $1 AND $2`
	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.IsActive, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &sa)
	}
	return accounts, nil
}

func (r *socialAccountRepository) CheckByUserID(ctx context.Context, accountID int64, userID string) (bool, error) {
	query := "SELECT 1 FROM social_media_accounts WHERE id = $1 AND user_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *socialAccountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE social_media_accounts
		SET access_token = $1,
			refresh_token = $2,
			token_expires_at = $3,
			updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiresAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *socialAccountRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE social_media_accounts SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
