package renderer

import (
	"image"
	"time"

	"github.com/boriwo/blockplay/ascii"
)

// Source produces sequential bitmap frames, like a video element.
type Source interface {
	// Name is the reference the source was opened from.
	Name() string
	// Open starts decoding in the background. decoded is called once the
	// first frame is available, ended when playback runs out. Both may be
	// called from any goroutine.
	Open(decoded, ended func())
	// Duration is zero until the source knows its length.
	Duration() time.Duration
	Play()
	Pause()
	// Rewind seeks back to the first frame.
	Rewind()
	// Frame is the image at the current playback position, nil before the
	// first frame has been decoded.
	Frame() image.Image
	Close() error
}

// Display presents status messages and frames.
type Display interface {
	// Area is the space available for frame text, in the same unit as the
	// glyph size the renderer is configured with.
	Area() (width, height float64)
	ShowStatus(msg string)
	ShowFrame(f ascii.Frame)
}
