package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/postloom/postloom/internal/transfer"
)

// DefaultPollInterval is the minimum wall-clock time between two effective
// due-post checks.
const DefaultPollInterval = 60 * time.Second

// Poller debounces ProcessDue so it can be triggered opportunistically from
// request handlers as well as from a fixed timer without thrashing the
// database. Construct one instance and share it; it is safe for concurrent
// use.
type Poller struct {
	scheduler SchedulerService
	interval  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
}

func NewPoller(scheduler SchedulerService, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		scheduler: scheduler,
		interval:  interval,
		now:       time.Now,
	}
}

// CheckAndProcess runs one processing pass unless a pass already ran within
// the debounce interval, in which case it reports a no-op result. It never
// panics out into the invoking context.
func (p *Poller) CheckAndProcess(ctx context.Context) (result *transfer.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler check panicked", "panic", r)
			result = &transfer.ProcessResult{Errors: []string{fmt.Sprint(r)}}
		}
	}()

	p.mu.Lock()
	now := p.now()
	if !p.lastCheck.IsZero() && now.Sub(p.lastCheck) < p.interval {
		p.mu.Unlock()
		return &transfer.ProcessResult{Skipped: true, Errors: []string{}}
	}
	p.lastCheck = now
	p.mu.Unlock()

	return p.scheduler.ProcessDue(ctx)
}
