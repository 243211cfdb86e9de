// Package schedule runs callbacks on a single goroutine, either driven by
// real timers or by a manually advanced clock.
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Task is a pending callback.
type Task interface {
	// Stop cancels the callback. It reports whether the call prevented
	// the callback from running.
	Stop() bool
}

// Scheduler runs callbacks one at a time.
type Scheduler interface {
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func()) Task
	// Post runs fn as soon as possible.
	Post(fn func())
}

// Loop is a Scheduler whose callbacks all run on the goroutine calling Run.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues fn. It never blocks, so callbacks may post further work.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) After(d time.Duration, fn func()) Task {
	t := &timerTask{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Run executes posted callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()
		for _, fn := range batch {
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

type timerTask struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *timerTask) Stop() bool {
	t.timer.Stop()
	return t.stopped.CompareAndSwap(false, true)
}
