package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/transfer"
)

// SchedulerService owns every state transition of a ScheduledPost.
// Transitions out of the scheduled state go through status-guarded updates,
// so concurrent cancel/publish on the same row cannot both commit.
type SchedulerService interface {
	Schedule(ctx context.Context, userID int64, content transfer.PostContent, platform string, wallTime time.Time, timezone string, postID *int64) (*models.ScheduledPost, error)
	GetScheduled(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error)
	Cancel(ctx context.Context, scheduledPostID, userID int64) (bool, error)
	Reschedule(ctx context.Context, scheduledPostID, userID int64, wallTime time.Time, timezone string) (bool, error)
	GetDue(ctx context.Context) ([]*models.ScheduledPost, error)
	PublishOne(ctx context.Context, post *models.ScheduledPost) (bool, error)
	ProcessDue(ctx context.Context) *transfer.ProcessResult
}

type schedulerService struct {
	sp        repository.ScheduledPostRepository
	publisher Publisher
	now       func() time.Time
}

func NewSchedulerService(sp repository.ScheduledPostRepository, publisher Publisher) SchedulerService {
	return &schedulerService{
		sp:        sp,
		publisher: publisher,
		now:       time.Now,
	}
}

// ToUTC reinterprets the wall-clock components of t in the given IANA zone
// and returns the corresponding UTC instant.
func ToUTC(t time.Time, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unknown timezone %q", ErrValidation, timezone)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc).UTC(), nil
}

func (s *schedulerService) Schedule(ctx context.Context, userID int64, content transfer.PostContent, platform string, wallTime time.Time, timezone string, postID *int64) (*models.ScheduledPost, error) {
	if !models.IsSupportedPlatform(platform) {
		err := fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
		slog.Info(err.Error())
		return nil, err
	}

	if content.Content == "" {
		err := fmt.Errorf("%w: content cannot be empty", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	if timezone == "" {
		timezone = "UTC"
	}

	utcTime, err := ToUTC(wallTime, timezone)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	sp := &models.ScheduledPost{
		UserID:            userID,
		PostID:            postID,
		Title:             content.Title,
		Content:           content.Content,
		GeneratedImageURL: content.ImageURL,
		Platform:          platform,
		ScheduledTime:     utcTime,
		Timezone:          timezone,
		Status:            models.ScheduleStatusScheduled,
	}

	if _, err := s.sp.Create(ctx, sp); err != nil {
		return nil, fmt.Errorf("error scheduling post: %w", err)
	}

	slog.Info("post scheduled", "id", sp.ID, "platform", platform, "scheduled_time", utcTime)
	return sp, nil
}

func (s *schedulerService) GetScheduled(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	posts, err := s.sp.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("error getting scheduled posts: %w", err)
	}
	return posts, nil
}

func (s *schedulerService) Cancel(ctx context.Context, scheduledPostID, userID int64) (bool, error) {
	ok, err := s.sp.MarkCancelled(ctx, scheduledPostID, userID)
	if err != nil {
		return false, fmt.Errorf("error cancelling post %d: %w", scheduledPostID, err)
	}
	if !ok {
		slog.Info("scheduled post not found or not cancellable", "id", scheduledPostID)
		return false, nil
	}
	return true, nil
}

func (s *schedulerService) Reschedule(ctx context.Context, scheduledPostID, userID int64, wallTime time.Time, timezone string) (bool, error) {
	if timezone == "" {
		timezone = "UTC"
	}

	utcTime, err := ToUTC(wallTime, timezone)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	ok, err := s.sp.UpdateSchedule(ctx, scheduledPostID, userID, utcTime, timezone)
	if err != nil {
		return false, fmt.Errorf("error rescheduling post %d: %w", scheduledPostID, err)
	}
	if !ok {
		slog.Info("scheduled post not found or not reschedulable", "id", scheduledPostID)
		return false, nil
	}
	return true, nil
}

func (s *schedulerService) GetDue(ctx context.Context) ([]*models.ScheduledPost, error) {
	posts, err := s.sp.ListDue(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error getting due posts: %w", err)
	}
	return posts, nil
}

// PublishOne dispatches a due post to its platform adapter and persists the
// terminal state. It returns (true, nil) on publish, (false, err) when the
// adapter or store failed, and (false, nil) when a concurrent transition
// already finalized the row, in which case nothing is overwritten.
func (s *schedulerService) PublishOne(ctx context.Context, post *models.ScheduledPost) (bool, error) {
	if post.Status != models.ScheduleStatusScheduled {
		return false, nil
	}

	pubErr := s.publisher.Publish(ctx, post.Platform, post.UserID, post.Content, post.GeneratedImageURL)

	if pubErr == nil {
		publishedAt := s.now().UTC()
		ok, err := s.sp.MarkPublished(ctx, post.ID, publishedAt)
		if err != nil {
			return false, fmt.Errorf("error persisting published state for post %d: %w", post.ID, err)
		}
		if !ok {
			// Lost the race against cancel; the terminal status stands.
			slog.Info("post no longer scheduled, skipping publish record", "id", post.ID)
			return false, nil
		}
		post.Status = models.ScheduleStatusPublished
		post.PublishedAt = &publishedAt
		post.ErrorMessage = nil
		slog.Info("scheduled post published", "id", post.ID, "platform", post.Platform)
		return true, nil
	}

	slog.Error("publish failed", "id", post.ID, "platform", post.Platform, "error", pubErr)
	ok, err := s.sp.MarkFailed(ctx, post.ID, pubErr.Error())
	if err != nil {
		return false, fmt.Errorf("error persisting failed state for post %d: %w", post.ID, err)
	}
	if !ok {
		slog.Info("post no longer scheduled, skipping failure record", "id", post.ID)
		return false, nil
	}
	msg := pubErr.Error()
	post.Status = models.ScheduleStatusFailed
	post.ErrorMessage = &msg
	return false, pubErr
}

// ProcessDue publishes every due post one by one. Failures are isolated per
// item and collected into the result; the batch itself never fails.
func (s *schedulerService) ProcessDue(ctx context.Context) *transfer.ProcessResult {
	result := &transfer.ProcessResult{Errors: []string{}}

	due, err := s.GetDue(ctx)
	if err != nil {
		slog.Error(err.Error())
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.TotalProcessed = len(due)

	for _, post := range due {
		published, err := s.PublishOne(ctx, post)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("post %d: %v", post.ID, err))
		case published:
			result.Successful++
		}
		// Neither branch: the row was finalized concurrently, nothing to count.
	}

	slog.Info("processed scheduled posts",
		"total", result.TotalProcessed, "successful", result.Successful, "failed", result.Failed)
	return result
}
