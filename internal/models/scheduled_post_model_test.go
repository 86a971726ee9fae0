package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestIsDue(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status string
		when   time.Time
		want   bool
	}{
		{"scheduled in the past", ScheduleStatusScheduled, now.Add(-time.Minute), true},
		{"scheduled exactly now", ScheduleStatusScheduled, now, true},
		{"scheduled in the future", ScheduleStatusScheduled, now.Add(time.Minute), false},
		{"already published", ScheduleStatusPublished, now.Add(-time.Minute), false},
		{"cancelled", ScheduleStatusCancelled, now.Add(-time.Minute), false},
		{"failed", ScheduleStatusFailed, now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &ScheduledPost{Status: tt.status, ScheduledTime: tt.when}
			if got := p.IsDue(now); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSupportedPlatform(t *testing.T) {
	for _, platform := range []string{"linkedin", "facebook", "twitter", "instagram"} {
		if !IsSupportedPlatform(platform) {
			t.Errorf("%s reported unsupported", platform)
		}
	}
	if IsSupportedPlatform("myspace") {
		t.Error("myspace reported supported")
	}
	if IsSupportedPlatform("") {
		t.Error("empty platform reported supported")
	}
}

func TestScheduledPostJSONNulls(t *testing.T) {
	p := &ScheduledPost{
		ID:            1,
		UserID:        2,
		Content:       "hello",
		Platform:      "linkedin",
		ScheduledTime: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Timezone:      "UTC",
		Status:        ScheduleStatusScheduled,
	}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)

	for _, want := range []string{`"post_id":null`, `"published_at":null`, `"error_message":null`} {
		if !strings.Contains(s, want) {
			t.Errorf("serialized post missing %s: %s", want, s)
		}
	}
}
