package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/transfer"
)

type countingScheduler struct {
	mu    sync.Mutex
	runs  int
	panic bool
}

func (c *countingScheduler) Schedule(ctx context.Context, userID int64, content transfer.PostContent, platform string, wallTime time.Time, timezone string, postID *int64) (*models.ScheduledPost, error) {
	return nil, nil
}

func (c *countingScheduler) GetScheduled(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (c *countingScheduler) Cancel(ctx context.Context, scheduledPostID, userID int64) (bool, error) {
	return false, nil
}

func (c *countingScheduler) Reschedule(ctx context.Context, scheduledPostID, userID int64, wallTime time.Time, timezone string) (bool, error) {
	return false, nil
}

func (c *countingScheduler) GetDue(ctx context.Context) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (c *countingScheduler) PublishOne(ctx context.Context, post *models.ScheduledPost) (bool, error) {
	return false, nil
}

func (c *countingScheduler) ProcessDue(ctx context.Context) *transfer.ProcessResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	if c.panic {
		panic("processing blew up")
	}
	return &transfer.ProcessResult{TotalProcessed: 1, Successful: 1, Errors: []string{}}
}

func (c *countingScheduler) runCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func TestPollerDebounce(t *testing.T) {
	sched := &countingScheduler{}
	p := NewPoller(sched, time.Minute)

	clock := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	ctx := context.Background()

	r := p.CheckAndProcess(ctx)
	if r.Skipped {
		t.Error("first check was skipped")
	}
	if sched.runCount() != 1 {
		t.Fatalf("runs = %d, want 1", sched.runCount())
	}

	// Within the interval: nothing happens.
	clock = clock.Add(30 * time.Second)
	r = p.CheckAndProcess(ctx)
	if !r.Skipped {
		t.Error("check inside the debounce window was not skipped")
	}
	if sched.runCount() != 1 {
		t.Errorf("runs = %d, want still 1", sched.runCount())
	}

	// Interval elapsed: runs again.
	clock = clock.Add(31 * time.Second)
	r = p.CheckAndProcess(ctx)
	if r.Skipped {
		t.Error("check after the debounce window was skipped")
	}
	if sched.runCount() != 2 {
		t.Errorf("runs = %d, want 2", sched.runCount())
	}
}

func TestPollerConcurrentChecksRunOnce(t *testing.T) {
	sched := &countingScheduler{}
	p := NewPoller(sched, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.CheckAndProcess(ctx)
		}()
	}
	wg.Wait()

	if sched.runCount() != 1 {
		t.Errorf("runs = %d, want 1 across concurrent checks", sched.runCount())
	}
}

func TestPollerRecoversFromPanic(t *testing.T) {
	sched := &countingScheduler{panic: true}
	p := NewPoller(sched, time.Minute)

	r := p.CheckAndProcess(context.Background())
	if r == nil {
		t.Fatal("result is nil after panic")
	}
	if len(r.Errors) != 1 {
		t.Errorf("errors = %v, want the panic message", r.Errors)
	}
}

func TestPollerDefaultInterval(t *testing.T) {
	p := NewPoller(&countingScheduler{}, 0)
	if p.interval != DefaultPollInterval {
		t.Errorf("interval = %v, want %v", p.interval, DefaultPollInterval)
	}
}
