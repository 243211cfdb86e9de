package schedule

import (
	"context"
	"testing"
	"time"
)

func TestManualRunsInDueOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.After(20*time.Millisecond, func() { order = append(order, "b") })
	m.After(10*time.Millisecond, func() { order = append(order, "a") })
	m.After(20*time.Millisecond, func() { order = append(order, "c") })
	m.Advance(15 * time.Millisecond)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("expected only a, got %v", order)
	}
	m.Advance(5 * time.Millisecond)
	if got := len(order); got != 3 || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected a b c, got %v", order)
	}
	if m.Now() != 20*time.Millisecond {
		t.Fatalf("unexpected clock %s", m.Now())
	}
}

func TestManualRunsChainedTasksWithinWindow(t *testing.T) {
	m := NewManual()
	count := 0
	var step func()
	step = func() {
		count++
		m.After(10*time.Millisecond, step)
	}
	m.After(10*time.Millisecond, step)
	m.Advance(35 * time.Millisecond)
	if count != 3 {
		t.Fatalf("expected 3 runs, got %d", count)
	}
	if m.Pending() != 1 {
		t.Fatalf("expected the next run to be pending, got %d", m.Pending())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	ran := false
	task := m.After(time.Millisecond, func() { ran = true })
	if !task.Stop() {
		t.Fatalf("expected first stop to cancel")
	}
	if task.Stop() {
		t.Fatalf("expected second stop to report nothing cancelled")
	}
	m.Advance(time.Second)
	if ran {
		t.Fatalf("stopped task ran")
	}
}

func TestLoopRunsPostedAndTimedWork(t *testing.T) {
	loop := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	results := make(chan string, 4)
	loop.Post(func() {
		results <- "posted"
		loop.Post(func() { results <- "nested" })
	})
	loop.After(10*time.Millisecond, func() { results <- "timer" })
	stopped := loop.After(10*time.Millisecond, func() { results <- "stopped" })
	if !stopped.Stop() {
		t.Fatalf("expected pending timer to stop")
	}

	for _, want := range []string{"posted", "nested", "timer"} {
		select {
		case got := <-results:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	select {
	case got := <-results:
		t.Fatalf("unexpected callback %s", got)
	default:
	}
}
