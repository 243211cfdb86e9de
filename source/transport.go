// Package source provides the visual sources frames are sampled from.
package source

import (
	"context"
	"image"
	"sync"
	"time"
)

// transport holds the playback controls and the latest frame shared between
// a decoding goroutine and the renderer.
type transport struct {
	name string

	mu       sync.Mutex
	playing  bool
	rewind   bool
	frame    image.Image
	duration time.Duration
	wake     chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func newTransport(name string) transport {
	return transport{name: name, wake: make(chan struct{}, 1)}
}

func (t *transport) Name() string {
	return t.name
}

func (t *transport) Play() {
	t.mu.Lock()
	t.playing = true
	t.mu.Unlock()
	t.signal()
}

func (t *transport) Pause() {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()
}

func (t *transport) Rewind() {
	t.mu.Lock()
	t.rewind = true
	t.mu.Unlock()
	t.signal()
}

func (t *transport) Frame() image.Image {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}

func (t *transport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

func (t *transport) setFrame(img image.Image) {
	t.mu.Lock()
	t.frame = img
	t.mu.Unlock()
}

func (t *transport) setDuration(d time.Duration) {
	t.mu.Lock()
	t.duration = d
	t.mu.Unlock()
}

func (t *transport) isPlaying() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playing
}

func (t *transport) takeRewind() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.rewind
	t.rewind = false
	return r
}

func (t *transport) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// waitPlaying blocks while paused. It returns false once ctx is done.
func (t *transport) waitPlaying(ctx context.Context) bool {
	for !t.isPlaying() {
		select {
		case <-ctx.Done():
			return false
		case <-t.wake:
		}
	}
	return ctx.Err() == nil
}

// start runs fn on its own goroutine until Close.
func (t *transport) start(fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go func() {
		defer close(t.done)
		fn(ctx)
	}()
}

// Close stops the decoding goroutine and waits for it to exit.
func (t *transport) Close() error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	<-t.done
	return nil
}
