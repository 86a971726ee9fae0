package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/postloom/postloom/internal/models"
	"github.com/postloom/postloom/internal/transfer"
)

type mockScheduledPostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]*models.ScheduledPost

	createErr error
	listErr   error
	markErr   error

	// invoked inside the status guard, before the transition commits
	beforeMark func()
}

func newMockScheduledPostRepo() *mockScheduledPostRepo {
	return &mockScheduledPostRepo{
		nextID: 1,
		posts:  make(map[int64]*models.ScheduledPost),
	}
}

func (m *mockScheduledPostRepo) Create(ctx context.Context, sp *models.ScheduledPost) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sp.ID = m.nextID
	m.nextID++
	sp.CreatedAt = time.Now().UTC()
	sp.UpdatedAt = sp.CreatedAt
	stored := *sp
	m.posts[sp.ID] = &stored
	return sp.ID, nil
}

func (m *mockScheduledPostRepo) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *sp
	return &cp, nil
}

func (m *mockScheduledPostRepo) ListByUserID(ctx context.Context, userID int64, status string) ([]*models.ScheduledPost, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ScheduledPost
	for _, sp := range m.posts {
		if sp.UserID != userID {
			continue
		}
		if status != "" && sp.Status != status {
			continue
		}
		cp := *sp
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockScheduledPostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ScheduledPost
	for _, sp := range m.posts {
		if sp.Status == models.ScheduleStatusScheduled && !sp.ScheduledTime.After(now) {
			cp := *sp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockScheduledPostRepo) transition(id int64, apply func(*models.ScheduledPost)) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.posts[id]
	if !ok || sp.Status != models.ScheduleStatusScheduled {
		return false, nil
	}
	if m.beforeMark != nil {
		m.beforeMark()
		if sp.Status != models.ScheduleStatusScheduled {
			return false, nil
		}
	}
	apply(sp)
	sp.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *mockScheduledPostRepo) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) (bool, error) {
	return m.transition(id, func(sp *models.ScheduledPost) {
		sp.Status = models.ScheduleStatusPublished
		sp.PublishedAt = &publishedAt
		sp.ErrorMessage = nil
	})
}

func (m *mockScheduledPostRepo) MarkFailed(ctx context.Context, id int64, errorMessage string) (bool, error) {
	return m.transition(id, func(sp *models.ScheduledPost) {
		sp.Status = models.ScheduleStatusFailed
		sp.ErrorMessage = &errorMessage
	})
}

func (m *mockScheduledPostRepo) MarkCancelled(ctx context.Context, id, userID int64) (bool, error) {
	m.mu.Lock()
	sp, ok := m.posts[id]
	if ok && sp.UserID != userID {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()
	return m.transition(id, func(sp *models.ScheduledPost) {
		sp.Status = models.ScheduleStatusCancelled
	})
}

func (m *mockScheduledPostRepo) UpdateSchedule(ctx context.Context, id, userID int64, scheduledTime time.Time, timezone string) (bool, error) {
	m.mu.Lock()
	sp, ok := m.posts[id]
	if ok && sp.UserID != userID {
		m.mu.Unlock()
		return false, nil
	}
	m.mu.Unlock()
	return m.transition(id, func(sp *models.ScheduledPost) {
		sp.ScheduledTime = scheduledTime
		sp.Timezone = timezone
	})
}

type mockPublisher struct {
	mu     sync.Mutex
	calls  int
	err    error
	perErr map[int]error // error by call order, 0-based
}

func (m *mockPublisher) Publish(ctx context.Context, platform string, userID int64, content, imageURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.calls
	m.calls++
	if m.perErr != nil {
		if err, ok := m.perErr[call]; ok {
			return err
		}
	}
	return m.err
}

func newTestScheduler(repo *mockScheduledPostRepo, pub *mockPublisher, now time.Time) *schedulerService {
	return &schedulerService{
		sp:        repo,
		publisher: pub,
		now:       func() time.Time { return now },
	}
}

func scheduleOne(t *testing.T, s *schedulerService, userID int64, when time.Time) *models.ScheduledPost {
	t.Helper()
	sp, err := s.Schedule(context.Background(), userID, transfer.PostContent{Content: "hello"}, "linkedin", when, "UTC", nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return sp
}

func TestScheduleValidation(t *testing.T) {
	s := newTestScheduler(newMockScheduledPostRepo(), &mockPublisher{}, time.Now())
	ctx := context.Background()
	when := time.Now().Add(time.Hour)

	_, err := s.Schedule(ctx, 1, transfer.PostContent{Content: "x"}, "myspace", when, "UTC", nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unsupported platform: got %v, want ErrValidation", err)
	}

	_, err = s.Schedule(ctx, 1, transfer.PostContent{}, "linkedin", when, "UTC", nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("empty content: got %v, want ErrValidation", err)
	}

	_, err = s.Schedule(ctx, 1, transfer.PostContent{Content: "x"}, "linkedin", when, "Mars/Olympus", nil)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown timezone: got %v, want ErrValidation", err)
	}
}

func TestScheduleConvertsWallClockToUTC(t *testing.T) {
	repo := newMockScheduledPostRepo()
	s := newTestScheduler(repo, &mockPublisher{}, time.Now())

	// 15:00 in New York on a date under EST is 20:00 UTC.
	wall := time.Date(2026, 1, 15, 15, 0, 0, 0, time.UTC)
	sp, err := s.Schedule(context.Background(), 1, transfer.PostContent{Content: "x"}, "linkedin", wall, "America/New_York", nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	want := time.Date(2026, 1, 15, 20, 0, 0, 0, time.UTC)
	if !sp.ScheduledTime.Equal(want) {
		t.Errorf("scheduled time = %v, want %v", sp.ScheduledTime, want)
	}
	if sp.Status != models.ScheduleStatusScheduled {
		t.Errorf("status = %q, want %q", sp.Status, models.ScheduleStatusScheduled)
	}
	if sp.Timezone != "America/New_York" {
		t.Errorf("timezone = %q, want America/New_York", sp.Timezone)
	}
}

func TestScheduleDefaultsTimezoneToUTC(t *testing.T) {
	repo := newMockScheduledPostRepo()
	s := newTestScheduler(repo, &mockPublisher{}, time.Now())

	sp, err := s.Schedule(context.Background(), 1, transfer.PostContent{Content: "x"}, "twitter", time.Now().Add(time.Hour), "", nil)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if sp.Timezone != "UTC" {
		t.Errorf("timezone = %q, want UTC", sp.Timezone)
	}
}

func TestToUTCHandlesDST(t *testing.T) {
	// Same wall clock, opposite sides of the DST switch.
	winter := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

	w, err := ToUTC(winter, "America/New_York")
	if err != nil {
		t.Fatalf("ToUTC winter: %v", err)
	}
	s, err := ToUTC(summer, "America/New_York")
	if err != nil {
		t.Fatalf("ToUTC summer: %v", err)
	}

	if w.Hour() != 17 {
		t.Errorf("winter noon = %d UTC, want 17", w.Hour())
	}
	if s.Hour() != 16 {
		t.Errorf("summer noon = %d UTC, want 16", s.Hour())
	}
}

func TestCancelOnlyAffectsScheduled(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	s := newTestScheduler(repo, &mockPublisher{}, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(time.Hour))

	ok, err := s.Cancel(ctx, sp.ID, 1)
	if err != nil || !ok {
		t.Fatalf("Cancel scheduled post: ok=%v err=%v", ok, err)
	}

	// Second cancel finds a cancelled row and reports failure.
	ok, err = s.Cancel(ctx, sp.ID, 1)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ok {
		t.Error("cancelling a cancelled post reported success")
	}

	// Unknown id.
	ok, err = s.Cancel(ctx, 9999, 1)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ok {
		t.Error("cancelling an unknown post reported success")
	}
}

func TestCancelChecksOwnership(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	s := newTestScheduler(repo, &mockPublisher{}, now)

	sp := scheduleOne(t, s, 1, now.Add(time.Hour))

	ok, err := s.Cancel(context.Background(), sp.ID, 2)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if ok {
		t.Error("another user's cancel reported success")
	}

	stored, _ := repo.GetByID(context.Background(), sp.ID)
	if stored.Status != models.ScheduleStatusScheduled {
		t.Errorf("status = %q, want still scheduled", stored.Status)
	}
}

func TestRescheduleOnlyAffectsScheduled(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	s := newTestScheduler(repo, &mockPublisher{}, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(time.Hour))

	newWall := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ok, err := s.Reschedule(ctx, sp.ID, 1, newWall, "UTC")
	if err != nil || !ok {
		t.Fatalf("Reschedule: ok=%v err=%v", ok, err)
	}

	stored, _ := repo.GetByID(ctx, sp.ID)
	if !stored.ScheduledTime.Equal(newWall) {
		t.Errorf("scheduled time = %v, want %v", stored.ScheduledTime, newWall)
	}

	if ok, _ := s.Cancel(ctx, sp.ID, 1); !ok {
		t.Fatal("Cancel failed")
	}
	ok, err = s.Reschedule(ctx, sp.ID, 1, newWall.Add(time.Hour), "UTC")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if ok {
		t.Error("rescheduling a cancelled post reported success")
	}
}

func TestGetDueBoundary(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	s := newTestScheduler(repo, &mockPublisher{}, now)
	ctx := context.Background()

	past := scheduleOne(t, s, 1, now.Add(-time.Minute))
	exact := scheduleOne(t, s, 1, now)
	_ = scheduleOne(t, s, 1, now.Add(time.Minute))

	due, err := s.GetDue(ctx)
	if err != nil {
		t.Fatalf("GetDue: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due posts, want 2", len(due))
	}
	ids := map[int64]bool{due[0].ID: true, due[1].ID: true}
	if !ids[past.ID] || !ids[exact.ID] {
		t.Errorf("due ids = %v, want %d and %d", ids, past.ID, exact.ID)
	}
}

func TestPublishOneSuccess(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	pub := &mockPublisher{}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(-time.Minute))

	published, err := s.PublishOne(ctx, sp)
	if err != nil {
		t.Fatalf("PublishOne: %v", err)
	}
	if !published {
		t.Fatal("PublishOne reported not published")
	}
	if sp.Status != models.ScheduleStatusPublished {
		t.Errorf("in-memory status = %q, want published", sp.Status)
	}
	if sp.PublishedAt == nil || !sp.PublishedAt.Equal(now) {
		t.Errorf("published_at = %v, want %v", sp.PublishedAt, now)
	}

	stored, _ := repo.GetByID(ctx, sp.ID)
	if stored.Status != models.ScheduleStatusPublished {
		t.Errorf("stored status = %q, want published", stored.Status)
	}
	if pub.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", pub.calls)
	}
}

func TestPublishOneFailure(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{err: errors.New("rate limited")}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(-time.Minute))

	published, err := s.PublishOne(ctx, sp)
	if published {
		t.Error("PublishOne reported published on adapter failure")
	}
	if err == nil {
		t.Fatal("PublishOne returned nil error on adapter failure")
	}

	stored, _ := repo.GetByID(ctx, sp.ID)
	if stored.Status != models.ScheduleStatusFailed {
		t.Errorf("stored status = %q, want failed", stored.Status)
	}
	if stored.ErrorMessage == nil || *stored.ErrorMessage != "rate limited" {
		t.Errorf("error message = %v, want rate limited", stored.ErrorMessage)
	}
	if stored.PublishedAt != nil {
		t.Errorf("published_at = %v, want nil", stored.PublishedAt)
	}
}

func TestPublishOneSkipsNonScheduled(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(-time.Minute))
	if ok, _ := s.Cancel(ctx, sp.ID, 1); !ok {
		t.Fatal("Cancel failed")
	}
	sp.Status = models.ScheduleStatusCancelled

	published, err := s.PublishOne(ctx, sp)
	if published || err != nil {
		t.Errorf("PublishOne on cancelled post: published=%v err=%v, want false,nil", published, err)
	}
	if pub.calls != 0 {
		t.Errorf("publisher calls = %d, want 0", pub.calls)
	}
}

func TestPublishOneLosesRaceToCancel(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	sp := scheduleOne(t, s, 1, now.Add(-time.Minute))

	// The row flips to cancelled between the adapter call and the guarded
	// update, as a concurrent cancel request would do.
	cancelled := false
	repo.beforeMark = func() {
		if !cancelled {
			cancelled = true
			repo.posts[sp.ID].Status = models.ScheduleStatusCancelled
		}
	}

	published, err := s.PublishOne(ctx, sp)
	if err != nil {
		t.Fatalf("PublishOne: %v", err)
	}
	if published {
		t.Error("PublishOne reported published after losing the race")
	}

	repo.beforeMark = nil
	stored, _ := repo.GetByID(ctx, sp.ID)
	if stored.Status != models.ScheduleStatusCancelled {
		t.Errorf("stored status = %q, want cancelled to stand", stored.Status)
	}
	if stored.PublishedAt != nil {
		t.Error("published_at was set on a cancelled row")
	}
}

func TestProcessDueCounts(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{perErr: map[int]error{1: errors.New("boom")}}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	scheduleOne(t, s, 1, now.Add(-3*time.Minute))
	scheduleOne(t, s, 1, now.Add(-2*time.Minute))
	scheduleOne(t, s, 1, now.Add(-time.Minute))
	scheduleOne(t, s, 1, now.Add(time.Hour)) // not due

	result := s.ProcessDue(ctx)

	if result.TotalProcessed != 3 {
		t.Errorf("total = %d, want 3", result.TotalProcessed)
	}
	if result.Successful != 2 {
		t.Errorf("successful = %d, want 2", result.Successful)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", result.Errors)
	}
}

func TestProcessDueIsolatesFailures(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{perErr: map[int]error{0: errors.New("first fails")}}
	s := newTestScheduler(repo, pub, now)
	ctx := context.Background()

	scheduleOne(t, s, 1, now.Add(-2*time.Minute))
	scheduleOne(t, s, 1, now.Add(-time.Minute))

	result := s.ProcessDue(ctx)

	if result.Successful != 1 || result.Failed != 1 {
		t.Errorf("successful=%d failed=%d, want 1 and 1", result.Successful, result.Failed)
	}
	if pub.calls != 2 {
		t.Errorf("publisher calls = %d, want 2 (second item still attempted)", pub.calls)
	}
}

func TestProcessDueListError(t *testing.T) {
	repo := newMockScheduledPostRepo()
	repo.listErr = errors.New("db down")
	s := newTestScheduler(repo, &mockPublisher{}, time.Now())

	result := s.ProcessDue(context.Background())
	if result.TotalProcessed != 0 || result.Successful != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want zero counts", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", result.Errors)
	}
}

func TestConcurrentCancelAndPublish(t *testing.T) {
	// Whatever the interleaving, exactly one transition commits.
	for i := 0; i < 50; i++ {
		repo := newMockScheduledPostRepo()
		now := time.Now().UTC()
		s := newTestScheduler(repo, &mockPublisher{}, now)
		ctx := context.Background()

		sp := scheduleOne(t, s, 1, now.Add(-time.Minute))

		var wg sync.WaitGroup
		var published, cancelled bool
		wg.Add(2)
		go func() {
			defer wg.Done()
			cp := *sp
			published, _ = s.PublishOne(ctx, &cp)
		}()
		go func() {
			defer wg.Done()
			cancelled, _ = s.Cancel(ctx, sp.ID, 1)
		}()
		wg.Wait()

		if published == cancelled {
			t.Fatalf("iteration %d: published=%v cancelled=%v, want exactly one winner", i, published, cancelled)
		}

		stored, _ := repo.GetByID(ctx, sp.ID)
		want := models.ScheduleStatusPublished
		if cancelled {
			want = models.ScheduleStatusCancelled
		}
		if stored.Status != want {
			t.Fatalf("iteration %d: stored status = %q, want %q", i, stored.Status, want)
		}
	}
}

func TestGetScheduledFiltersByStatus(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	s := newTestScheduler(repo, &mockPublisher{}, now)
	ctx := context.Background()

	a := scheduleOne(t, s, 1, now.Add(time.Hour))
	scheduleOne(t, s, 1, now.Add(2*time.Hour))
	scheduleOne(t, s, 2, now.Add(time.Hour)) // other user

	if ok, _ := s.Cancel(ctx, a.ID, 1); !ok {
		t.Fatal("Cancel failed")
	}

	all, err := s.GetScheduled(ctx, 1, "")
	if err != nil {
		t.Fatalf("GetScheduled: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d posts for user 1, want 2", len(all))
	}

	cancelledOnly, err := s.GetScheduled(ctx, 1, models.ScheduleStatusCancelled)
	if err != nil {
		t.Fatalf("GetScheduled: %v", err)
	}
	if len(cancelledOnly) != 1 || cancelledOnly[0].ID != a.ID {
		t.Errorf("cancelled filter returned %v, want just post %d", cancelledOnly, a.ID)
	}
}

func TestProcessDueErrorMessageFormat(t *testing.T) {
	repo := newMockScheduledPostRepo()
	now := time.Now().UTC()
	pub := &mockPublisher{err: errors.New("boom")}
	s := newTestScheduler(repo, pub, now)

	sp := scheduleOne(t, s, 1, now.Add(-time.Minute))

	result := s.ProcessDue(context.Background())
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want one entry", result.Errors)
	}
	want := fmt.Sprintf("post %d: boom", sp.ID)
	if result.Errors[0] != want {
		t.Errorf("error = %q, want %q", result.Errors[0], want)
	}
}
