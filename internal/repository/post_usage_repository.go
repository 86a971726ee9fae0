package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postloom/postloom/internal/models"
)

type PostUsageRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*models.PostUsage, error)
	Update(ctx context.Context, usage *models.PostUsage) error
}

type postUsageRepository struct {
	db *sql.DB
}

func NewPostUsageRepository(db *sql.DB) PostUsageRepository {
	return &postUsageRepository{db: db}
}

const postUsageColumns = `id, user_id, posts_generated, posts_posted, last_reset_date, monthly_limit, created_at, updated_at`

// GetOrCreate returns the user's usage row, inserting a fresh one with the
// default limit on first access. The unique user_id constraint keeps
// concurrent first accesses from creating duplicates.
func (r *postUsageRepository) GetOrCreate(ctx context.Context, userID int64) (*models.PostUsage, error) {
	insert := `
		INSERT INTO post_usage (user_id, monthly_limit)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, userID, models.DefaultMonthlyPostLimit); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	query := `SELECT ` + postUsageColumns + ` FROM post_usage WHERE user_id = $1`

	var usage models.PostUsage
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&usage.ID, &usage.UserID,
		&usage.PostsGenerated, &usage.PostsPosted, &usage.LastResetDate,
		&usage.MonthlyLimit, &usage.CreatedAt, &usage.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &usage, nil
}

func (r *postUsageRepository) Update(ctx context.Context, usage *models.PostUsage) error {
	query := `
		UPDATE post_usage
		SET posts_generated = $1,
			posts_posted = $2,
			last_reset_date = $3,
			monthly_limit = $4,
			updated_at = $5
		WHERE user_id = $6
	`
	_, err := r.db.ExecContext(ctx, query, usage.PostsGenerated, usage.PostsPosted,
		usage.LastResetDate, usage.MonthlyLimit, time.Now(), usage.UserID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
