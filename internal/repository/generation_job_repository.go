package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postloom/postloom/internal/models"
)

type GenerationJobRepository interface {
	Create(ctx context.Context, job *models.GenerationJob) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.GenerationJob, error)
	SetStatus(ctx context.Context, id int64, status string) error
	SetCompleted(ctx context.Context, id, postID int64) error
	SetFailed(ctx context.Context, id int64, errMessage string) error
}

type generationJobRepository struct {
	db *sql.DB
}

func NewGenerationJobRepository(db *sql.DB) GenerationJobRepository {
	return &generationJobRepository{db: db}
}

func (r *generationJobRepository) Create(ctx context.Context, job *models.GenerationJob) (int64, error) {
	query := `
		INSERT INTO generation_jobs (user_id, profile_url, theme, details, platform, with_image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, job.UserID, job.ProfileURL, job.Theme,
		job.Details, job.Platform, job.WithImage, job.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *generationJobRepository) GetByID(ctx context.Context, id int64) (*models.GenerationJob, error) {
	query := `SELECT id, user_id, profile_url, theme, details, platform, with_image, status, post_id, error, created_at, updated_at
		FROM generation_jobs WHERE id = $1`

	var job models.GenerationJob
	err := r.db.QueryRowContext(ctx, query, id).Scan(&job.ID, &job.UserID, &job.ProfileURL,
		&job.Theme, &job.Details, &job.Platform, &job.WithImage, &job.Status,
		&job.PostID, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &job, nil
}

func (r *generationJobRepository) SetStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE generation_jobs SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *generationJobRepository) SetCompleted(ctx context.Context, id, postID int64) error {
	query := `UPDATE generation_jobs SET status = $1, post_id = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.JobStatusCompleted, postID, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *generationJobRepository) SetFailed(ctx context.Context, id int64, errMessage string) error {
	query := `UPDATE generation_jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, models.JobStatusFailed, errMessage, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
