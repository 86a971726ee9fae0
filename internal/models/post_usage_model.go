package models

import "time"

// DefaultMonthlyPostLimit is the generation quota for accounts without a
// raised limit.
const DefaultMonthlyPostLimit = 3

// PostUsage tracks per-user generation quota. Counters cover the month of
// LastResetDate and roll over lazily on the next access.
type PostUsage struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	PostsGenerated int       `db:"posts_generated" json:"posts_generated"`
	PostsPosted    int       `db:"posts_posted" json:"posts_posted"`
	LastResetDate  time.Time `db:"last_reset_date" json:"last_reset_date"`
	MonthlyLimit   int       `db:"monthly_limit" json:"monthly_limit"`
	RemainingPosts int       `db:"-" json:"remaining_posts"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ResetIfNewMonth zeroes the counters when now falls in a different month
// than the last reset. Reports whether a reset happened.
func (u *PostUsage) ResetIfNewMonth(now time.Time) bool {
	if u.LastResetDate.Year() == now.Year() && u.LastResetDate.Month() == now.Month() {
		return false
	}
	u.PostsGenerated = 0
	u.PostsPosted = 0
	u.LastResetDate = now
	return true
}

// Remaining is the number of generations left this month, never negative.
func (u *PostUsage) Remaining() int {
	remaining := u.MonthlyLimit - u.PostsGenerated
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (u *PostUsage) CanGenerate() bool {
	return u.Remaining() > 0
}
