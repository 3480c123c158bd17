package frame

import (
	"context"
	"testing"
	"time"

	"github.com/tilerender/vectormap/camera"
	"github.com/tilerender/vectormap/tilecoord"
)

type countingPlanner struct {
	calls int
}

func (p *countingPlanner) Plan(ctx context.Context, viewport tilecoord.BBox, z, buffer int) {
	p.calls++
}

func TestPanPlansImmediately(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)

	d.OnPan(10, 5, time.Now())

	if planner.calls != 1 {
		t.Errorf("planner.calls = %d, want 1", planner.calls)
	}
	if d.State() != StateIdle {
		t.Errorf("state = %v, want Idle after pan settles", d.State())
	}
}

func TestRotationDebouncesAndFiresOnceAfterQuietPeriod(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)

	start := time.Now()
	// 60Hz for 300ms ~ 18 events, each resetting the debounce timer.
	var last time.Time
	for i := 0; i < 18; i++ {
		now := start.Add(time.Duration(i) * (time.Second / 60))
		d.OnRotateOrPitch(1, 0, now)
		d.Tick(now)
		last = now
	}
	if planner.calls != 0 {
		t.Fatalf("planner.calls = %d during tumble, want 0", planner.calls)
	}
	if d.State() != StateDebouncing {
		t.Fatalf("state = %v, want Debouncing mid-tumble", d.State())
	}

	// Still within the 500ms window: no plan yet.
	d.Tick(last.Add(499 * time.Millisecond))
	if planner.calls != 0 {
		t.Fatalf("planner.calls = %d at 499ms, want 0", planner.calls)
	}

	// Past the window: exactly one plan.
	d.Tick(last.Add(501 * time.Millisecond))
	if planner.calls != 1 {
		t.Fatalf("planner.calls = %d at 501ms, want 1", planner.calls)
	}
	if d.State() != StateIdle {
		t.Errorf("state = %v, want Idle after debounce fires", d.State())
	}

	// Further ticks don't re-fire.
	d.Tick(last.Add(2 * time.Second))
	if planner.calls != 1 {
		t.Errorf("planner.calls = %d after extra ticks, want still 1", planner.calls)
	}
}

func TestNewInteractionResetsDebounceTimer(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)

	start := time.Now()
	d.OnRotateOrPitch(1, 0, start)
	d.Tick(start.Add(400 * time.Millisecond)) // not yet 500ms
	if planner.calls != 0 {
		t.Fatalf("planner.calls = %d, want 0 before window elapses", planner.calls)
	}

	// A new event at 400ms resets the timer.
	resetAt := start.Add(400 * time.Millisecond)
	d.OnRotateOrPitch(1, 0, resetAt)
	d.Tick(resetAt.Add(400 * time.Millisecond)) // 800ms from start, but only 400ms since reset
	if planner.calls != 0 {
		t.Fatalf("planner.calls = %d, want 0 (timer was reset)", planner.calls)
	}

	d.Tick(resetAt.Add(501 * time.Millisecond))
	if planner.calls != 1 {
		t.Fatalf("planner.calls = %d, want 1 after the reset window elapses", planner.calls)
	}
}

func TestZoomBelowThresholdDoesNotImmediatelyPlan(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	cam.Zoom = 10
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)
	d.OnZoom(0.1, 400, 300, time.Now()) // bootstrap plan (havePlanned was false)
	if planner.calls != 1 {
		t.Fatalf("expected bootstrap plan, got %d calls", planner.calls)
	}

	d.OnZoom(0.1, 400, 300, time.Now()) // small delta after a plan exists
	if planner.calls != 1 {
		t.Errorf("planner.calls = %d, want still 1 for a sub-threshold zoom delta", planner.calls)
	}
}

func TestZoomAboveThresholdPlansImmediately(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	cam.Zoom = 10
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)
	d.OnZoom(0.1, 400, 300, time.Now())
	d.OnZoom(1.0, 400, 300, time.Now())
	if planner.calls != 2 {
		t.Errorf("planner.calls = %d, want 2 (second zoom exceeds threshold)", planner.calls)
	}
}

func TestPanDuringPendingDebounceCancelsIt(t *testing.T) {
	cam := camera.New(800, 600, 0, 20)
	planner := &countingPlanner{}
	d := New(cam, planner, 1, 18)

	start := time.Now()
	d.OnRotateOrPitch(10, 0, start)
	d.OnPan(5, 5, start.Add(10*time.Millisecond))
	if planner.calls != 1 {
		t.Fatalf("planner.calls = %d, want 1 (the pan's immediate plan)", planner.calls)
	}

	// The debounce timer that rotate started must not fire a second plan.
	d.Tick(start.Add(time.Second))
	if planner.calls != 1 {
		t.Errorf("planner.calls = %d, want still 1 (cancelled debounce must not fire)", planner.calls)
	}
}
