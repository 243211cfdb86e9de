package display

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/boriwo/blockplay/ascii"
	"golang.org/x/term"
)

// Stream writes frames as plain text with ANSI cursor movement, for pipes
// and terminals without full screen support.
type Stream struct {
	w      *bufio.Writer
	fd     int
	glyphs ascii.Glyphs
	cols   int
	rows   int
	failed bool
}

// NewStream writes to w. When w is a terminal its size is the display
// area, otherwise cols x rows.
func NewStream(w io.Writer, glyphs ascii.Glyphs, cols, rows int) *Stream {
	fd := -1
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Stream{w: bufio.NewWriter(w), fd: fd, glyphs: glyphs, cols: cols, rows: rows}
}

func (s *Stream) Area() (float64, float64) {
	if s.fd >= 0 {
		if w, h, err := term.GetSize(s.fd); err == nil {
			return float64(w), float64(h)
		}
	}
	return float64(s.cols), float64(s.rows)
}

func (s *Stream) ShowStatus(msg string) {
	fmt.Fprint(s.w, ascii.ClearScreen+ascii.CursorHome)
	fmt.Fprintln(s.w, msg)
	s.flush()
}

func (s *Stream) ShowFrame(f ascii.Frame) {
	fmt.Fprint(s.w, ascii.CursorHome)
	if err := ascii.PrintASCII(s.w, f.Lines(s.glyphs)); err != nil {
		s.report(err)
		return
	}
	s.flush()
}

func (s *Stream) flush() {
	if err := s.w.Flush(); err != nil {
		s.report(err)
	}
}

// report logs the first write failure only.
func (s *Stream) report(err error) {
	if !s.failed {
		s.failed = true
		log.Printf("event=stream_write error=%q", err)
	}
}
