package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postloom/postloom/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, sp *models.ScheduledPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error)
	ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, errorMessage string) (bool, error)
	MarkCancelled(ctx context.Context, id, userID int64) (bool, error)
	UpdateSchedule(ctx context.Context, id, userID int64, scheduledTime time.Time, timezone string) (bool, error)
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, user_id, post_id, title, content, generated_image_url, platform, scheduled_time, timezone, status, published_at, error_message, created_at, updated_at`

func scanScheduledPost(row interface{ Scan(...any) error }) (*models.ScheduledPost, error) {
	var sp models.ScheduledPost
	err := row.Scan(&sp.ID, &sp.UserID, &sp.PostID, &sp.Title, &sp.Content,
		&sp.GeneratedImageURL, &sp.Platform, &sp.ScheduledTime, &sp.Timezone,
		&sp.Status, &sp.PublishedAt, &sp.ErrorMessage, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, sp *models.ScheduledPost) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (user_id, post_id, title, content, generated_image_url, platform, scheduled_time, timezone, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, sp.UserID, sp.PostID, sp.Title, sp.Content,
		sp.GeneratedImageURL, sp.Platform, sp.ScheduledTime, sp.Timezone, sp.Status).
		Scan(&sp.ID, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return sp.ID, nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`

	sp, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sp, nil
}

func (r *scheduledPostRepository) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_time DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, sp)
	}
	return posts, rows.Err()
}

func (r *scheduledPostRepository) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ScheduleStatusScheduled, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		sp, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, sp)
	}
	return posts, rows.Err()
}

// Terminal transitions below are guarded on the current status. A row that
// has already left the scheduled state is never overwritten: the UPDATE
// matches zero rows and the caller gets false.

func (r *scheduledPostRepository) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			published_at = $2,
			error_message = NULL,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, models.ScheduleStatusPublished, publishedAt, time.Now().UTC(), id, models.ScheduleStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return rowsAffected(res)
}

func (r *scheduledPostRepository) MarkFailed(ctx context.Context, id int64, errorMessage string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, models.ScheduleStatusFailed, errorMessage, time.Now().UTC(), id, models.ScheduleStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return rowsAffected(res)
}

func (r *scheduledPostRepository) MarkCancelled(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query, models.ScheduleStatusCancelled, time.Now().UTC(), id, userID, models.ScheduleStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return rowsAffected(res)
}

func (r *scheduledPostRepository) UpdateSchedule(ctx context.Context, id, userID int64, scheduledTime time.Time, timezone string) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET scheduled_time = $1,
			timezone = $2,
			updated_at = $3
		WHERE id = $4 AND user_id = $5 AND status = $6
	`
	res, err := r.db.ExecContext(ctx, query, scheduledTime, timezone, time.Now().UTC(), id, userID, models.ScheduleStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return rowsAffected(res)
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return n > 0, nil
}
