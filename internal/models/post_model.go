package models

import "time"

type Post struct {
	ID             int64      `db:"id" json:"id"`
	AccountID      int64      `db:"account_id" json:"account_id"`
	Content        string     `db:"content" json:"content"`
	ImageURL       string     `db:"image_url" json:"image_url,omitempty"`
	ImagePrompt    string     `db:"image_prompt" json:"image_prompt,omitempty"`
	Hashtags       []string   `db:"-" json:"hashtags"`
	Status         string     `db:"status" json:"status"` // draft, approved, scheduled, posted, failed
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	PostedAt       *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	PlatformPostID string     `db:"platform_post_id" json:"platform_post_id,omitempty"`
	ErrorMessage   string     `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusApproved  = "approved"
	PostStatusScheduled = "scheduled"
	PostStatusPosted    = "posted"
	PostStatusFailed    = "failed"
)
