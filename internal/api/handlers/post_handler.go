package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/queue"
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/service"
	"github.com/postloom/postloom/internal/transfer"
)

type PostHandler struct {
	ps          service.PostService
	gj          repository.GenerationJobRepository
	asynqClient *asynq.Client
}

func NewPostHandler(ps service.PostService, gj repository.GenerationJobRepository, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{
		ps:          ps,
		gj:          gj,
		asynqClient: asynqClient,
	}
}

func (h *PostHandler) Generate(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.ps.Generate(c.Context(), userID, &req)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post generated successfully",
		"post":    post,
	})
}

// GenerateAsync records a generation job and hands it to the worker queue;
// the client polls the job endpoint for the outcome.
func (h *PostHandler) GenerateAsync(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if req.Theme == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required field: theme",
		})
	}

	job := &models.GenerationJob{
		UserID:     userID,
		ProfileURL: req.ProfileURL,
		Theme:      req.Theme,
		Details:    req.Details,
		Platform:   req.Platform,
		WithImage:  req.WithImage,
		Status:     models.JobStatusPending,
	}

	jobID, err := h.gj.Create(c.Context(), job)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to create generation job",
		})
	}

	if err := queue.EnqueueGeneration(h.asynqClient, queue.GeneratePostPayload{JobID: jobID}); err != nil {
		slog.Error("failed to enqueue generation", "job_id", jobID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to enqueue generation job",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Generation job queued",
		"job_id":  jobID,
	})
}

func (h *PostHandler) GetGenerationJob(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid job id",
		})
	}

	job, err := h.gj.GetByID(c.Context(), int64(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to look up generation job",
		})
	}
	if job == nil || job.UserID != userID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Generation job not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"job": job,
	})
}

func (h *PostHandler) GetUsage(c *fiber.Ctx) error {
	userID := GetUserID(c)

	usage, err := h.ps.Usage(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load post usage",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"usage": usage,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	posts, err := h.ps.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"posts": posts,
	})
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.ps.PostInfo(c.Context(), int64(id), userID)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"post": post,
	})
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var update transfer.PostUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	post, err := h.ps.Update(c.Context(), userID, int64(id), &update)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post updated successfully",
		"post":    post,
	})
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.ps.Remove(c.Context(), userID, int64(id)); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}

func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	var body struct {
		Platform string `json:"platform"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.ps.PublishNow(c.Context(), userID, int64(id), body.Platform); err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post published successfully",
	})
}
