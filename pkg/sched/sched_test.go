package sched

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLoop() (*Loop, *ManualClock) {
	clock := NewManualClock(time.Unix(0, 0))
	return NewLoop(WithClock(clock)), clock
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l, _ := newTestLoop()
	var got []int
	l.Post(func() {
		got = append(got, 1)
		l.Post(func() { got = append(got, 3) })
	})
	l.Post(func() { got = append(got, 2) })

	if n := l.RunPending(); n != 3 {
		t.Errorf("RunPending = %d, want 3", n)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestGoPostsContinuation(t *testing.T) {
	l, _ := newTestLoop()
	release := make(chan struct{})
	var result string

	Go(l, func() (string, error) {
		<-release
		return "loaded", nil
	}, func(v string, err error) {
		result = v
	})

	if l.Inflight() != 1 {
		t.Fatalf("Inflight = %d, want 1", l.Inflight())
	}
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Settle(ctx); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if result != "loaded" {
		t.Errorf("result = %q", result)
	}
}

func TestSettleHonorsContext(t *testing.T) {
	l, _ := newTestLoop()
	block := make(chan struct{})
	defer close(block)
	Go(l, func() (int, error) { <-block; return 0, nil }, func(int, error) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Settle(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Settle = %v, want deadline exceeded", err)
	}
}

func TestAfterFuncUsesClock(t *testing.T) {
	l, clock := newTestLoop()
	fired := false
	l.AfterFunc(100*time.Millisecond, func() { fired = true })

	clock.Advance(99 * time.Millisecond)
	l.RunPending()
	if fired {
		t.Fatal("fired before deadline")
	}
	clock.Advance(time.Millisecond)
	l.RunPending()
	if !fired {
		t.Fatal("did not fire at deadline")
	}
}

func TestManualTimerStop(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })
	if !timer.Stop() {
		t.Error("first Stop should report true")
	}
	if timer.Stop() {
		t.Error("second Stop should report false")
	}
	clock.Advance(time.Hour)
	if fired || clock.Pending() != 0 {
		t.Error("stopped timer fired")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	l, clock := newTestLoop()
	d := NewDebouncer(l, 100*time.Millisecond)

	runs := 0
	last := 0
	for i := 1; i <= 5; i++ {
		d.Schedule(func() { runs++; last = i })
		clock.Advance(50 * time.Millisecond)
		l.RunPending()
	}
	if runs != 0 {
		t.Fatalf("ran %d times inside the window", runs)
	}

	clock.Advance(100 * time.Millisecond)
	l.RunPending()
	if runs != 1 || last != 5 {
		t.Errorf("runs=%d last=%d, want 1 and 5", runs, last)
	}
	if d.Pending() {
		t.Error("Pending after run")
	}
}

func TestDebouncerFlushAndCancel(t *testing.T) {
	l, clock := newTestLoop()
	d := NewDebouncer(l, 100*time.Millisecond)

	runs := 0
	d.Schedule(func() { runs++ })
	if !d.Flush() {
		t.Fatal("Flush should run the pending task")
	}
	if d.Flush() {
		t.Error("second Flush should be a no-op")
	}

	// the flushed task's timer must not run it again
	clock.Advance(time.Second)
	l.RunPending()
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}

	d.Schedule(func() { runs++ })
	d.Cancel()
	clock.Advance(time.Second)
	l.RunPending()
	if runs != 1 {
		t.Errorf("cancelled task ran: runs = %d", runs)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), RealClock{}, 0); err != nil {
		t.Errorf("Sleep(0) = %v", err)
	}
	if err := Sleep(context.Background(), RealClock{}, time.Millisecond); err != nil {
		t.Errorf("Sleep = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, NewManualClock(time.Unix(0, 0)), time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled ctx = %v", err)
	}
}
