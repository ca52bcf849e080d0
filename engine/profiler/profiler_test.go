package profiler

import (
	"testing"
	"time"
)

type fakeCounter map[string]int

func (f fakeCounter) LiveCounts() map[string]int { return f }

func TestTickReportsPerInterval(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	p := NewProfiler(
		WithInterval(time.Second),
		WithClock(clock),
		WithLiveCounter(fakeCounter{"buffer": 3}),
	)

	for i := 0; i < 9; i++ {
		now = now.Add(100 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("tick %d reported before the interval", i)
		}
	}
	now = now.Add(100 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("no report after the interval elapsed")
	}
	s := p.Last()
	if s.Frames != 10 || s.FPS != 10 {
		t.Errorf("frames=%d fps=%v, want 10 and 10", s.Frames, s.FPS)
	}
	if s.Live["buffer"] != 3 {
		t.Errorf("live = %v", s.Live)
	}

	now = now.Add(10 * time.Millisecond)
	if p.Tick() {
		t.Error("counter not reset after a report")
	}
}
