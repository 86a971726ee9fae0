package models

import "time"

// ScheduledPost is a post queued for future publishing. scheduled_time is
// always stored in UTC; the timezone column keeps the caller's original
// IANA zone name for display only.
type ScheduledPost struct {
	ID                int64      `db:"id" json:"id"`
	UserID            int64      `db:"user_id" json:"user_id"`
	PostID            *int64     `db:"post_id" json:"post_id"`
	Title             string     `db:"title" json:"title"`
	Content           string     `db:"content" json:"content"`
	GeneratedImageURL string     `db:"generated_image_url" json:"generated_image_url"`
	Platform          string     `db:"platform" json:"platform"`
	ScheduledTime     time.Time  `db:"scheduled_time" json:"scheduled_time"`
	Timezone          string     `db:"timezone" json:"timezone"`
	Status            string     `db:"status" json:"status"`
	PublishedAt       *time.Time `db:"published_at" json:"published_at"`
	ErrorMessage      *string    `db:"error_message" json:"error_message"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusPublished = "published"
	ScheduleStatusFailed    = "failed"
	ScheduleStatusCancelled = "cancelled"
)

var SupportedPlatforms = map[string]struct{}{
	"linkedin":  {},
	"facebook":  {},
	"twitter":   {},
	"instagram": {},
}

func IsSupportedPlatform(platform string) bool {
	_, ok := SupportedPlatforms[platform]
	return ok
}

// IsDue reports whether the post should be published at the given instant.
func (p *ScheduledPost) IsDue(now time.Time) bool {
	return p.Status == ScheduleStatusScheduled && !p.ScheduledTime.After(now)
}
