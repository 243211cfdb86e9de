// Package display presents renderer output on terminals, windows, browsers
// and message brokers.
package display

import (
	"github.com/boriwo/blockplay/ascii"
	"github.com/boriwo/blockplay/renderer"
	"github.com/pkg/errors"
)

// ErrQuit is returned by interactive displays when the user asks to leave.
var ErrQuit = errors.New("quit")

// Controls are the user actions a display can forward to the renderer.
type Controls interface {
	TogglePlayback()
	ToggleInvert()
	// SetResolution requests a manual resolution; manual false or a zero
	// size fits the resolution to the display.
	SetResolution(manual bool, width, height int)
	// ScaleResolution grows or shrinks the current resolution by percent.
	ScaleResolution(percent int)
	// Load replaces the current source with the one at ref.
	Load(ref string)
	Quit()
}

// Multi shows everything on several displays. The first one measures the
// area.
type Multi []renderer.Display

func (m Multi) Area() (float64, float64) {
	if len(m) == 0 {
		return 0, 0
	}
	return m[0].Area()
}

func (m Multi) ShowStatus(msg string) {
	for _, d := range m {
		d.ShowStatus(msg)
	}
}

func (m Multi) ShowFrame(f ascii.Frame) {
	for _, d := range m {
		d.ShowFrame(f)
	}
}
