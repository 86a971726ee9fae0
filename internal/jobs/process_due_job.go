package job

import (
	"context"
	"log/slog"

	"github.com/postloom/postloom/internal/service"
)

// ProcessDueJob is the fixed-timer path into the scheduled-post poller. The
// poller's own debounce decides whether a tick does any work, so the cron
// interval only needs to be at least as frequent as the debounce window.
type ProcessDueJob struct {
	poller *service.Poller
}

func NewProcessDueJob(poller *service.Poller) *ProcessDueJob {
	return &ProcessDueJob{
		poller: poller,
	}
}

func (j *ProcessDueJob) Run() {
	ctx := context.Background()

	result := j.poller.CheckAndProcess(ctx)
	if result.Skipped {
		return
	}

	if result.TotalProcessed > 0 {
		slog.Info("scheduler tick",
			"total", result.TotalProcessed, "successful", result.Successful, "failed", result.Failed)
	}
	for _, e := range result.Errors {
		slog.Error("scheduler tick error", "error", e)
	}
}
