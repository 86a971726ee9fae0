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

type PostService interface {
	Generate(ctx context.Context, userID int64, req *transfer.GenerateRequest) (*models.Post, error)
	List(ctx context.Context, userID int64) ([]*models.Post, error)
	PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error)
	Update(ctx context.Context, userID, postID int64, update *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, userID, postID int64) error
	PublishNow(ctx context.Context, userID, postID int64, platform string) error
	Usage(ctx context.Context, userID int64) (*models.PostUsage, error)
}

type postService struct {
	pr        repository.PostRepository
	pu        repository.PostUsageRepository
	ai        OpenAIService
	r2        *R2Service
	publisher Publisher
	now       func() time.Time
}

func NewPostService(pr repository.PostRepository, pu repository.PostUsageRepository, ai OpenAIService, r2 *R2Service, publisher Publisher) PostService {
	return &postService{
		pr:        pr,
		pu:        pu,
		ai:        ai,
		r2:        r2,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *postService) Generate(ctx context.Context, userID int64, req *transfer.GenerateRequest) (*models.Post, error) {
	if req == nil || req.Theme == "" {
		err := fmt.Errorf("%w: post theme is required", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	platform := req.Platform
	if platform == "" {
		platform = "linkedin"
	}
	if !models.IsSupportedPlatform(platform) {
		err := fmt.Errorf("%w: unsupported platform %q", ErrValidation, platform)
		slog.Info(err.Error())
		return nil, err
	}

	usage, err := s.pu.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading post usage: %w", err)
	}
	usage.ResetIfNewMonth(s.now().UTC())
	if !usage.CanGenerate() {
		err := fmt.Errorf("%w: monthly post limit of %d reached", ErrLimitReached, usage.MonthlyLimit)
		slog.Info(err.Error(), "user_id", userID)
		return nil, err
	}

	content, err := s.ai.GeneratePost(ctx, req.ProfileURL, req.Theme, req.Details, platform)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if req.WithImage {
		imagePrompt := s.ai.CreateImagePrompt(req.Theme, req.Details)
		imageBytes, err := s.ai.GenerateImage(ctx, imagePrompt)
		if err != nil {
			// The text still has value; keep the post and report no image.
			slog.Error("image generation failed", "error", err)
		} else {
			imageURL, err = s.r2.UploadImage(ctx, imageBytes)
			if err != nil {
				slog.Error("image upload failed", "error", err)
				imageURL = ""
			}
		}
	}

	post := &models.Post{
		UserID:   userID,
		Title:    req.Theme,
		Content:  content,
		ImageURL: imageURL,
		Platform: platform,
		Theme:    req.Theme,
		Status:   models.PostStatusDraft,
	}

	postID, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("error saving generated post: %w", err)
	}
	post.ID = postID

	usage.PostsGenerated++
	if err := s.pu.Update(ctx, usage); err != nil {
		// The post exists; a stale counter is the lesser problem.
		slog.Error("error updating post usage", "user_id", userID, "error", err)
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]*models.Post, error) {
	posts, err := s.pr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting posts")
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, postID, userID int64) (*models.Post, error) {
	var err error

	if userID == 0 {
		err = fmt.Errorf("%w: user id is not valid", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	if postID == 0 {
		err = fmt.Errorf("%w: post id is not valid", ErrValidation)
		slog.Info(err.Error())
		return nil, err
	}

	isValid, err := s.pr.CheckByUserID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if !isValid {
		err = fmt.Errorf("%w: post doesn't exist", ErrNotFound)
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("Error getting post info")
	}

	return post, nil
}

func (s *postService) Update(ctx context.Context, userID, postID int64, update *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	if update.Title != "" {
		post.Title = update.Title
	}
	if update.Content != "" {
		post.Content = update.Content
	}
	if update.ImageURL != "" {
		post.ImageURL = update.ImageURL
	}
	if update.Platform != "" {
		if !models.IsSupportedPlatform(update.Platform) {
			return nil, fmt.Errorf("%w: unsupported platform %q", ErrValidation, update.Platform)
		}
		post.Platform = update.Platform
	}

	if err := s.pr.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("Error updating post")
	}

	return post, nil
}

func (s *postService) Remove(ctx context.Context, userID, postID int64) error {
	_, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return err
	}

	err = s.pr.Remove(ctx, postID)
	if err != nil {
		return fmt.Errorf("Error removing post")
	}

	return nil
}

// PublishNow pushes a generated post straight to the platform, bypassing
// the scheduler.
func (s *postService) PublishNow(ctx context.Context, userID, postID int64, platform string) error {
	if platform == "" {
		err := fmt.Errorf("%w: platform is required", ErrValidation)
		slog.Info(err.Error())
		return err
	}

	post, err := s.PostInfo(ctx, postID, userID)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, platform, userID, post.Content, post.ImageURL); err != nil {
		return err
	}

	if err := s.pr.UpdateStatus(ctx, models.PostStatusPublished, postID); err != nil {
		return fmt.Errorf("error updating post status: %w", err)
	}

	if usage, err := s.pu.GetOrCreate(ctx, userID); err != nil {
		slog.Error("error loading post usage", "user_id", userID, "error", err)
	} else {
		usage.ResetIfNewMonth(s.now().UTC())
		usage.PostsPosted++
		if err := s.pu.Update(ctx, usage); err != nil {
			slog.Error("error updating post usage", "user_id", userID, "error", err)
		}
	}

	return nil
}

// Usage reports the caller's quota for the current month, rolling the
// counters over first when a new month has started.
func (s *postService) Usage(ctx context.Context, userID int64) (*models.PostUsage, error) {
	usage, err := s.pu.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error loading post usage: %w", err)
	}

	if usage.ResetIfNewMonth(s.now().UTC()) {
		if err := s.pu.Update(ctx, usage); err != nil {
			return nil, fmt.Errorf("error resetting post usage: %w", err)
		}
	}

	usage.RemainingPosts = usage.Remaining()
	return usage, nil
}
