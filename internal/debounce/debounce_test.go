package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescesBurst(t *testing.T) {
	var fired atomic.Int32
	s := New(30*time.Millisecond, func() { fired.Add(1) })

	// A burst of triggers inside the quiet period fires exactly once.
	for i := 0; i < 10; i++ {
		s.Trigger()
		time.Sleep(2 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestTrailingEdge(t *testing.T) {
	var fired atomic.Int32
	s := New(40*time.Millisecond, func() { fired.Add(1) })

	s.Trigger()
	time.Sleep(25 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("fired before quiet period elapsed")
	}

	// Re-arming slides the window forward.
	s.Trigger()
	time.Sleep(25 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatal("re-armed timer fired early")
	}

	time.Sleep(40 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("fired %d times, want 1", got)
	}
}

func TestCancel(t *testing.T) {
	var fired atomic.Int32
	s := New(20*time.Millisecond, func() { fired.Add(1) })

	s.Trigger()
	if !s.Pending() {
		t.Fatal("expected pending firing")
	}
	if !s.Cancel() {
		t.Fatal("Cancel should report a pending firing")
	}
	if s.Pending() {
		t.Fatal("still pending after cancel")
	}

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled firing still ran")
	}

	// Cancel with nothing pending is a no-op.
	if s.Cancel() {
		t.Error("Cancel with no pending firing should return false")
	}
}

func TestSeparateBurstsFireSeparately(t *testing.T) {
	var fired atomic.Int32
	s := New(15*time.Millisecond, func() { fired.Add(1) })

	s.Trigger()
	time.Sleep(50 * time.Millisecond)
	s.Trigger()
	time.Sleep(50 * time.Millisecond)

	if got := fired.Load(); got != 2 {
		t.Errorf("fired %d times, want 2", got)
	}
}
