package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/arjunmk/postpilot/internal/models"
)

type ImageGenerationRepository interface {
	Create(ctx context.Context, gen *models.ImageGeneration) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ImageGeneration, error)
	MarkCompleted(ctx context.Context, id int64, imageURL, modelUsed string, generationTime float64) error
	MarkFailed(ctx context.Context, id int64, errorMessage string, generationTime float64) error
}

type imageGenerationRepository struct {
	db *sql.DB
}

func NewImageGenerationRepository(db *sql.DB) ImageGenerationRepository {
	return &imageGenerationRepository{db: db}
}

func (r *imageGenerationRepository) Create(ctx context.Context, gen *models.ImageGeneration) (int64, error) {
	query := `
		INSERT INTO ai_image_generations (prompt, model_used, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, gen.Prompt, gen.ModelUsed, gen.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *imageGenerationRepository) GetByID(ctx context.Context, id int64) (*models.ImageGeneration, error) {
	query := `SELECT id, prompt, COALESCE(image_url, ''), model_used, COALESCE(generation_time, 0), status, COALESCE(error_message, ''), created_at FROM ai_image_generations WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var gen models.ImageGeneration
	err := row.Scan(&gen.ID, &gen.Prompt, &gen.ImageURL, &gen.ModelUsed, &gen.GenerationTime, &gen.Status, &gen.ErrorMessage, &gen.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &gen, nil
}

func (r *imageGenerationRepository) MarkCompleted(ctx context.Context, id int64, imageURL, modelUsed string, generationTime float64) error {
	query := `
		UPDATE ai_image_generations
		SET status = $1,
			image_url = $2,
			model_used = $3,
			generation_time = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, models.GenerationStatusCompleted, imageURL, modelUsed, generationTime, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *imageGenerationRepository) MarkFailed(ctx context.Context, id int64, errorMessage string, generationTime float64) error {
	query := `
		UPDATE ai_image_generations
		SET status = $1,
			error_message = $2,
			generation_time = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.GenerationStatusFailed, errorMessage, generationTime, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
