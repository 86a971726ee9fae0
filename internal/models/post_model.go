package models

import "time"

// Post is a generated piece of content. It can be published immediately or
// referenced by a ScheduledPost for later publishing.
type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	Platform  string    `db:"platform" json:"platform"`
	Theme     string    `db:"theme" json:"theme"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)
