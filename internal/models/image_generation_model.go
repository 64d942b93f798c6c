package models

import "time"

type ImageGeneration struct {
	ID             int64     `db:"id" json:"id"`
	Prompt         string    `db:"prompt" json:"prompt"`
	ImageURL       string    `db:"image_url" json:"image_url,omitempty"`
	ModelUsed      string    `db:"model_used" json:"model_used"`
	GenerationTime float64   `db:"generation_time" json:"generation_time"`
	Status         string    `db:"status" json:"status"` // pending, completed, failed
	ErrorMessage   string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const (
	GenerationStatusPending   = "pending"
	GenerationStatusCompleted = "completed"
	GenerationStatusFailed    = "failed"
)
