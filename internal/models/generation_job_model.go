package models

import "time"

// GenerationJob tracks an async AI generation request. Job state lives in
// the database so workers and handlers share one source of truth.
type GenerationJob struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	ProfileURL string    `db:"profile_url" json:"profile_url"`
	Theme      string    `db:"theme" json:"theme"`
	Details    string    `db:"details" json:"details"`
	Platform   string    `db:"platform" json:"platform"`
	WithImage  bool      `db:"with_image" json:"with_image"`
	Status     string    `db:"status" json:"status"`
	PostID     *int64    `db:"post_id" json:"post_id"`
	Error      *string   `db:"error" json:"error"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)
