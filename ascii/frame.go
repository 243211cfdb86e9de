package ascii

import (
	"image"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultThreshold splits 8-bit brightness into filled and empty cells.
	DefaultThreshold = 128
	FilledBlock      = '█'
	EmptyBlock       = ' '
)

// Glyphs holds the two characters a frame is drawn with.
type Glyphs struct {
	Filled rune
	Empty  rune
}

// DefaultGlyphs draws filled cells as full blocks and empty cells as spaces.
var DefaultGlyphs = Glyphs{Filled: FilledBlock, Empty: EmptyBlock}

// Frame is one sampled video instant as a grid of binary cells in row major order.
type Frame struct {
	Width  int
	Height int
	Cells  []bool
}

// NewFrame creates an empty frame of the given size.
func NewFrame(width, height int) Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Frame{Width: width, Height: height, Cells: make([]bool, width*height)}
}

// Filled reports whether the cell at column x, row y is filled.
func (f Frame) Filled(x, y int) bool {
	return f.Cells[y*f.Width+x]
}

// Set marks the cell at column x, row y.
func (f Frame) Set(x, y int, filled bool) {
	f.Cells[y*f.Width+x] = filled
}

// Lines renders each row with the given glyphs, without line breaks.
func (f Frame) Lines(g Glyphs) []string {
	lines := make([]string, f.Height)
	var sb strings.Builder
	for y := 0; y < f.Height; y++ {
		sb.Reset()
		for x := 0; x < f.Width; x++ {
			if f.Filled(x, y) {
				sb.WriteRune(g.Filled)
			} else {
				sb.WriteRune(g.Empty)
			}
		}
		lines[y] = sb.String()
	}
	return lines
}

// Text renders the frame with a line break after every row.
func (f Frame) Text(g Glyphs) string {
	var sb strings.Builder
	for _, line := range f.Lines(g) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f Frame) String() string {
	return f.Text(DefaultGlyphs)
}

// Brightness is the unweighted mean of the three color channels.
func Brightness(r, g, b uint8) float64 {
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Classify decides whether a cell of the given brightness is filled. Dark
// cells are filled unless inverted, in which case bright cells are. A
// brightness exactly at the threshold is never filled.
func Classify(brightness, threshold float64, inverted bool) bool {
	if inverted {
		return brightness > threshold
	}
	return brightness < threshold
}

// Convert classifies every pixel of img as one cell.
func Convert(img *image.RGBA, threshold float64, inverted bool) Frame {
	defer TrackTime(time.Now(), "convert_frame")
	bounds := img.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())
	var wait sync.WaitGroup
	for l := 0; l < frame.Height; l++ {
		wait.Add(1)
		go func(l int) {
			defer wait.Done()
			row := img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+l):]
			for o := 0; o < frame.Width; o++ {
				px := row[o*4 : o*4+3]
				frame.Set(o, l, Classify(Brightness(px[0], px[1], px[2]), threshold, inverted))
			}
		}(l)
	}
	wait.Wait()
	return frame
}
