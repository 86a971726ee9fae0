package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/transfer"
)

func (q *Queue) HandleGeneratePostTask(ctx context.Context, task *asynq.Task) error {
	var payload GeneratePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.RunGeneration(ctx, payload.JobID)
}

// RunGeneration executes one queued generation job end to end, recording
// the outcome on the job row.
func (q *Queue) RunGeneration(ctx context.Context, jobID int64) error {
	job, err := q.gj.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		slog.Info("generation job not found", "job_id", jobID)
		return nil
	}
	if job.Status != models.JobStatusPending {
		// Already picked up or finished; asynq retried a completed task.
		return nil
	}

	if err := q.gj.SetStatus(ctx, jobID, models.JobStatusProcessing); err != nil {
		return err
	}

	post, err := q.ps.Generate(ctx, job.UserID, &transfer.GenerateRequest{
		ProfileURL: job.ProfileURL,
		Theme:      job.Theme,
		Details:    job.Details,
		Platform:   job.Platform,
		WithImage:  job.WithImage,
	})
	if err != nil {
		slog.Error("generation job failed", "job_id", jobID, "error", err)
		if ferr := q.gj.SetFailed(ctx, jobID, err.Error()); ferr != nil {
			return fmt.Errorf("recording job failure: %w", ferr)
		}
		return nil
	}

	if err := q.gj.SetCompleted(ctx, jobID, post.ID); err != nil {
		return err
	}

	slog.Info("generation job completed", "job_id", jobID, "post_id", post.ID)
	return nil
}
