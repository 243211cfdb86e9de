package renderer

import (
	"image"
	"math"
)

// Resolution is the size of the sampling grid in cells.
type Resolution struct {
	Width  int
	Height int
}

// Bounds limits manually entered resolutions.
type Bounds struct {
	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int
}

// ConfigureResolution sets the sampling grid size. Without manual input,
// or with both dimensions zero, the grid is fitted to the display area.
// Manual dimensions are clamped to the configured bounds. A manual request
// with exactly one zero dimension leaves the resolution unchanged.
func (r *Renderer) ConfigureResolution(manual bool, width, height int) Resolution {
	switch {
	case !manual || (width == 0 && height == 0):
		r.setResolution(r.fitResolution())
	case width != 0 && height != 0:
		width = clamp(width, r.opts.Bounds.MinWidth, r.opts.Bounds.MaxWidth)
		height = clamp(height, r.opts.Bounds.MinHeight, r.opts.Bounds.MaxHeight)
		r.setResolution(Resolution{Width: width, Height: height})
	}
	return r.res
}

// fitResolution counts how many glyphs fit on each axis of the margin
// reduced display area, keeping one glyph of slack.
func (r *Renderer) fitResolution() Resolution {
	w, h := r.display.Area()
	return Resolution{
		Width:  fit(w*r.opts.Margin, r.opts.GlyphWidth),
		Height: fit(h*r.opts.Margin, r.opts.GlyphHeight),
	}
}

func fit(area, glyph float64) int {
	if area <= 0 || glyph <= 0 {
		return 0
	}
	n := int(math.Ceil(area/glyph)) - 1
	if n < 0 {
		return 0
	}
	return n
}

// clamp applies hi before lo, so lo wins when the bounds cross. A hi
// of zero is unbounded.
func clamp(v, lo, hi int) int {
	if hi > 0 && v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func (r *Renderer) setResolution(res Resolution) {
	r.res = res
	r.grid = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
}
