package source

import (
	"time"

	"github.com/boriwo/blockplay/renderer"
)

// Options select how references are opened.
type Options struct {
	// Audio plays the sound track of media files.
	Audio bool
	// FrameRate paces image directories.
	FrameRate int
	// StillTime is how long a single picture plays.
	StillTime time.Duration
}

// Open picks a source for ref: pictures, gifs and directories are played
// as images, anything else is handed to the media decoder.
func Open(ref string, opts Options) renderer.Source {
	if opts.FrameRate <= 0 {
		opts.FrameRate = renderer.DefaultFrameRate
	}
	if opts.StillTime <= 0 {
		opts.StillTime = 5 * time.Second
	}
	if isImage(ref) || isGIF(ref) || isDir(ref) {
		return NewImages(ref, time.Second/time.Duration(opts.FrameRate), opts.StillTime)
	}
	return NewMedia(ref, opts.Audio)
}
