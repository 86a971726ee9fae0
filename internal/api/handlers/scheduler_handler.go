package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/service"
	"github.com/postloom/postloom/internal/transfer"
)

type SchedulerHandler struct {
	s      service.SchedulerService
	ps     service.PostService
	poller *service.Poller
}

func NewSchedulerHandler(s service.SchedulerService, ps service.PostService, poller *service.Poller) *SchedulerHandler {
	return &SchedulerHandler{s: s, ps: ps, poller: poller}
}

const scheduleLayout = "2006-01-02 15:04"

// parseScheduleTime combines the date and time fields into a wall-clock
// time and verifies it lies in the future of the given timezone.
func parseScheduleTime(dateStr, timeStr, timezone string) (time.Time, error) {
	if dateStr == "" || timeStr == "" {
		return time.Time{}, fmt.Errorf("scheduled_date and scheduled_time are required")
	}

	wallTime, err := time.Parse(scheduleLayout, dateStr+" "+timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date/time format: %v", err)
	}

	if timezone == "" {
		timezone = "UTC"
	}
	utcTime, err := service.ToUTC(wallTime, timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone")
	}

	if !utcTime.After(time.Now().UTC()) {
		return time.Time{}, fmt.Errorf("scheduled time must be in the future")
	}

	return wallTime, nil
}

func (h *SchedulerHandler) SchedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.Content == "" || req.Platform == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required field: content and platform are required",
		})
	}

	wallTime, err := parseScheduleTime(req.ScheduledDate, req.ScheduledTime, req.Timezone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	content := transfer.PostContent{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}

	// Scheduling from an existing post freezes that post's content.
	if req.PostID != nil {
		post, err := h.ps.PostInfo(c.Context(), *req.PostID, userID)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Source post not found",
			})
		}
		if content.Content == "" {
			content.Content = post.Content
		}
		if content.Title == "" {
			content.Title = post.Title
		}
		if content.ImageURL == "" {
			content.ImageURL = post.ImageURL
		}
	}

	sp, err := h.s.Schedule(c.Context(), userID, content, req.Platform, wallTime, req.Timezone, req.PostID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Post scheduled successfully",
		"scheduled_post": sp,
	})
}

func (h *SchedulerHandler) ScheduleExistingPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.PostID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required field: post_id",
		})
	}

	post, err := h.ps.PostInfo(c.Context(), *req.PostID, userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Source post not found",
		})
	}

	platform := req.Platform
	if platform == "" {
		platform = post.Platform
	}

	wallTime, err := parseScheduleTime(req.ScheduledDate, req.ScheduledTime, req.Timezone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	content := transfer.PostContent{
		Title:    post.Title,
		Content:  post.Content,
		ImageURL: post.ImageURL,
	}

	sp, err := h.s.Schedule(c.Context(), userID, content, platform, wallTime, req.Timezone, req.PostID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":        "Post scheduled successfully",
		"scheduled_post": sp,
	})
}

func (h *SchedulerHandler) ListScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	// Viewing the schedule doubles as an opportunistic due-post check; the
	// poller's debounce keeps request volume from turning into DB scans.
	h.poller.CheckAndProcess(c.Context())

	status := c.Query("status")

	posts, err := h.s.GetScheduled(c.Context(), userID, status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list scheduled posts",
		})
	}

	if posts == nil {
		posts = []*models.ScheduledPost{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"scheduled_posts": posts,
	})
}

func (h *SchedulerHandler) CancelScheduled(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled post id",
		})
	}

	ok, err := h.s.Cancel(c.Context(), int64(id), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to cancel scheduled post",
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Failed to cancel scheduled post or post not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Scheduled post cancelled successfully",
	})
}

func (h *SchedulerHandler) Reschedule(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled post id",
		})
	}

	var req transfer.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	wallTime, err := parseScheduleTime(req.ScheduledDate, req.ScheduledTime, req.Timezone)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ok, err := h.s.Reschedule(c.Context(), int64(id), userID, wallTime, req.Timezone)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Failed to reschedule post or post not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post rescheduled successfully",
	})
}

// ProcessScheduled forces a processing pass regardless of the poller's
// debounce window.
func (h *SchedulerHandler) ProcessScheduled(c *fiber.Ctx) error {
	results := h.s.ProcessDue(c.Context())

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Scheduled posts processed",
		"results": results,
	})
}
