package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2025, time.March, 10, 7, 50, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Peek(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, time.Second)
	nowFn := clock.NowFunc()

	first, second := nowFn(), nowFn()
	if !first.Equal(start) || !second.Equal(start.Add(time.Second)) {
		t.Fatalf("expected consecutive seconds, got %v and %v", first, second)
	}
	if got := clock.Peek(); !got.Equal(start.Add(2 * time.Second)) {
		t.Fatalf("expected Peek to show next reading, got %v", got)
	}
}
