package transfer

// ScheduleRequest carries the raw schedule endpoint payload. Date and time
// arrive as separate wall-clock fields interpreted in Timezone.
type ScheduleRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	ImageURL      string `json:"image_url"`
	Platform      string `json:"platform"`
	ScheduledDate string `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string `json:"scheduled_time"` // HH:MM
	Timezone      string `json:"timezone"`
	PostID        *int64 `json:"post_id"`
}

type RescheduleRequest struct {
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Timezone      string `json:"timezone"`
}

// PostContent is the content snapshot frozen into a scheduled post.
type PostContent struct {
	Title    string
	Content  string
	ImageURL string
}

// ProcessResult is the outcome of one due-post processing batch.
type ProcessResult struct {
	TotalProcessed int      `json:"total_processed"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors"`
	Skipped        bool     `json:"skipped,omitempty"`
}
