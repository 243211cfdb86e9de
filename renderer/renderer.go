// Package renderer turns frames of a visual source into two-glyph text at a
// fixed frame rate.
//
// A Renderer is not safe for concurrent use. All of its methods, and the
// callbacks it schedules, must run on the goroutine of its Scheduler.
package renderer

import (
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/boriwo/blockplay/schedule"
	xdraw "golang.org/x/image/draw"
)

const (
	DefaultFrameRate   = 30
	DefaultMaxLoadTime = 10 * time.Second
	DefaultMargin      = 0.95
)

// Options configures a Renderer. Zero values select the defaults.
type Options struct {
	FrameRate   int
	Threshold   float64
	MaxLoadTime time.Duration
	// GlyphWidth and GlyphHeight are the size of one character in display
	// area units.
	GlyphWidth  float64
	GlyphHeight float64
	// Margin is the share of the display area frames may cover.
	Margin float64
	// Bounds limit manual resolutions. Zero maxima are replaced by the
	// resolution fitted at construction.
	Bounds   Bounds
	Inverted bool
	// OnReady runs on the scheduler each time a loaded source is ready.
	OnReady func()
}

func (o *Options) applyDefaults() {
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultFrameRate
	}
	if o.Threshold <= 0 {
		o.Threshold = ascii.DefaultThreshold
	}
	if o.MaxLoadTime <= 0 {
		o.MaxLoadTime = DefaultMaxLoadTime
	}
	if o.GlyphWidth <= 0 {
		o.GlyphWidth = 1
	}
	if o.GlyphHeight <= 0 {
		o.GlyphHeight = 1
	}
	if o.Margin <= 0 || o.Margin > 1 {
		o.Margin = DefaultMargin
	}
	if o.Bounds.MinWidth < 1 {
		o.Bounds.MinWidth = 1
	}
	if o.Bounds.MinHeight < 1 {
		o.Bounds.MinHeight = 1
	}
}

// Renderer samples the bound source on a timer and shows each frame.
type Renderer struct {
	opts    Options
	sched   schedule.Scheduler
	display Display

	res  Resolution
	grid *image.RGBA

	source   Source
	name     string
	gen      int
	state    State
	inverted bool
	history  []ascii.Frame

	tick      schedule.Task
	loadTimer schedule.Task
}

// New creates a renderer and fits its resolution to the display.
func New(opts Options, sched schedule.Scheduler, display Display) *Renderer {
	opts.applyDefaults()
	r := &Renderer{
		opts:     opts,
		sched:    sched,
		display:  display,
		state:    Stopped,
		inverted: opts.Inverted,
	}
	res := r.ConfigureResolution(false, 0, 0)
	if r.opts.Bounds.MaxWidth == 0 {
		r.opts.Bounds.MaxWidth = res.Width
	}
	if r.opts.Bounds.MaxHeight == 0 {
		r.opts.Bounds.MaxHeight = res.Height
	}
	return r
}

func (r *Renderer) State() State {
	return r.state
}

func (r *Renderer) Resolution() Resolution {
	return r.res
}

// Bounds are the limits applied to manual resolutions.
func (r *Renderer) Bounds() Bounds {
	return r.opts.Bounds
}

func (r *Renderer) Inverted() bool {
	return r.inverted
}

func (r *Renderer) SetInverted(inverted bool) {
	r.inverted = inverted
}

func (r *Renderer) ToggleInvert() {
	r.inverted = !r.inverted
}

// History returns a copy of the frames shown since the source was loaded.
func (r *Renderer) History() []ascii.Frame {
	out := make([]ascii.Frame, len(r.history))
	copy(out, r.history)
	return out
}

// LoadSource binds src, discarding the previous source and its history.
// If src has not reported a duration within the maximum load time the
// display shows StatusNoLoad.
func (r *Renderer) LoadSource(src Source) {
	r.release()
	r.gen++
	gen := r.gen
	r.source = src
	r.name = DisplayName(src.Name())
	r.history = nil
	r.state = Loading
	r.display.ShowStatus(StatusLoading)
	log.Printf("event=load source=%q", src.Name())

	src.Open(
		func() { r.sched.Post(func() { r.whenCurrent(gen, r.OnSourceDecoded) }) },
		func() { r.sched.Post(func() { r.whenCurrent(gen, r.OnSourceEnded) }) },
	)
	r.loadTimer = r.sched.After(r.opts.MaxLoadTime, func() { r.checkLoaded(gen) })
}

func (r *Renderer) whenCurrent(gen int, fn func()) {
	if gen == r.gen {
		fn()
	}
}

// checkLoaded reports a load failure unless the source decoded in time or
// has since been replaced.
func (r *Renderer) checkLoaded(gen int) {
	if gen != r.gen || r.state != Loading || r.source.Duration() > 0 {
		return
	}
	log.Printf("event=load_timeout source=%q after=%s", r.source.Name(), r.opts.MaxLoadTime)
	r.display.ShowStatus(StatusNoLoad)
}

// OnSourceDecoded rewinds the freshly loaded source and waits for playback.
func (r *Renderer) OnSourceDecoded() {
	if r.source == nil || r.state != Loading {
		return
	}
	r.source.Pause()
	r.source.Rewind()
	r.state = Ready
	log.Printf("event=ready source=%q duration=%s", r.source.Name(), r.source.Duration())
	r.display.ShowStatus(fmt.Sprintf(statusReadyFmt, r.name))
	if r.opts.OnReady != nil {
		r.opts.OnReady()
	}
}

// OnSourceEnded stops playback at the end of the source.
func (r *Renderer) OnSourceEnded() {
	if r.source == nil {
		return
	}
	r.stopTick()
	r.state = Stopped
	log.Printf("event=ended source=%q frames=%d", r.source.Name(), len(r.history))
	r.display.ShowStatus(StatusEnded)
}

// TogglePlayback pauses a playing source and plays any other. It returns
// the first sampling tick when playback starts, nil otherwise. Without a
// source or while loading it does nothing.
func (r *Renderer) TogglePlayback() schedule.Task {
	if r.source == nil || r.state == Loading {
		return nil
	}
	r.stopTick()
	if r.state == Playing {
		r.source.Pause()
		r.state = Paused
		return nil
	}
	r.source.Play()
	r.state = Playing
	r.tick = r.sched.After(r.interval(), r.onTick)
	return r.tick
}

// SampleFrame converts the current source image. With repeat set and the
// source still playing the frame is recorded, shown, and the next sample is
// scheduled; the returned task is that next sample. Otherwise the frame is
// only returned.
func (r *Renderer) SampleFrame(repeat bool) (ascii.Frame, schedule.Task) {
	r.drawSource()
	frame := ascii.Convert(r.grid, r.opts.Threshold, r.inverted)
	if !repeat || r.state != Playing {
		return frame, nil
	}
	r.history = append(r.history, frame)
	r.display.ShowFrame(frame)
	r.stopTick()
	r.tick = r.sched.After(r.interval(), r.onTick)
	return frame, r.tick
}

func (r *Renderer) onTick() {
	r.tick = nil
	r.SampleFrame(true)
}

// drawSource scales the current source image onto the sampling grid. The
// grid keeps its previous content while the source has no image.
func (r *Renderer) drawSource() {
	if r.source == nil {
		return
	}
	img := r.source.Frame()
	if img == nil || r.grid.Bounds().Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(r.grid, r.grid.Bounds(), img, img.Bounds(), xdraw.Src, nil)
}

func (r *Renderer) interval() time.Duration {
	return time.Second / time.Duration(r.opts.FrameRate)
}

func (r *Renderer) stopTick() {
	if r.tick != nil {
		r.tick.Stop()
		r.tick = nil
	}
}

func (r *Renderer) release() {
	r.stopTick()
	if r.loadTimer != nil {
		r.loadTimer.Stop()
		r.loadTimer = nil
	}
	if r.source != nil {
		if err := r.source.Close(); err != nil {
			log.Printf("event=close_source source=%q error=%q", r.source.Name(), err)
		}
	}
}

// Close releases the bound source and cancels pending work.
func (r *Renderer) Close() {
	r.release()
	r.source = nil
	r.state = Stopped
}

// DisplayName strips any directory prefix and the trailing extension from a
// source reference.
func DisplayName(ref string) string {
	if i := strings.LastIndexAny(ref, `/\`); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.LastIndexByte(ref, '.'); i >= 0 {
		ref = ref[:i]
	}
	return ref
}
