package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSpinnerShowsSteps(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Designing Classic Tee")
	s.Start()
	s.Step(2, 5, "image")

	waitFor(t, func() bool { return strings.Contains(out.String(), "Designing Classic Tee [2/5] image") })
	s.Stop()

	if !strings.HasSuffix(out.String(), "\r") {
		t.Errorf("Stop should clear the line, got %q", out.String())
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "idle")

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
	if out.String() != "" {
		t.Errorf("unstarted spinner wrote %q", out.String())
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "twice")
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	s := newSpinnerTo(ctx, &out, "cancelled")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after context cancellation")
	}
	s.Stop()
}

func TestNewSpinnerNilContext(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated
	s := newSpinnerTo(nil, &syncBuffer{}, "nil")
	s.Start()
	s.Stop()
}
