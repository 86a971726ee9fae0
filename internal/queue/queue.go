package queue

import (
	"github.com/postloom/postloom/internal/repository"
	"github.com/postloom/postloom/internal/service"
)

type Queue struct {
	gj repository.GenerationJobRepository
	ps service.PostService
}

func NewQueue(gj repository.GenerationJobRepository, ps service.PostService) *Queue {
	return &Queue{
		gj: gj,
		ps: ps,
	}
}

const TaskTypeGeneratePost = "generate:post"

type GeneratePostPayload struct {
	JobID int64 `json:"job_id"`
}
