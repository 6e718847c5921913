package cli

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestSpinnerNonTerminalIsSilent(t *testing.T) {
	var w bytes.Buffer
	s := newSpinner(context.Background(), &w, "Converting define.xml...")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if w.Len() != 0 {
		t.Errorf("spinner drew on a non-terminal: %q", w.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Loading...")
	s.Start()
	cancel()
	s.Stop()
	if !s.Cancelled() {
		t.Error("a cancelled context should be reported")
	}
}

func TestSpinnerStop(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		idle := newSpinner(context.Background(), &bytes.Buffer{}, "Idle")
		idle.Stop()

		s := newSpinner(context.Background(), &bytes.Buffer{}, "Working...")
		s.Start()
		s.Stop()
		s.Stop()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked")
	}
}
