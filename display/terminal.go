package display

import (
	"context"

	"github.com/boriwo/blockplay/ascii"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const resizeStep = 10

// Terminal draws frames full screen with tcell and reads keyboard controls.
type Terminal struct {
	screen tcell.Screen
	glyphs ascii.Glyphs
	style  tcell.Style
	width  int
}

// NewTerminal takes over screen, or the controlling terminal when screen
// is nil.
func NewTerminal(screen tcell.Screen, glyphs ascii.Glyphs) (*Terminal, error) {
	if screen == nil {
		var err error
		screen, err = tcell.NewScreen()
		if err != nil {
			return nil, err
		}
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()
	return &Terminal{
		screen: screen,
		glyphs: glyphs,
		style:  tcell.StyleDefault,
		width:  GlyphCells(glyphs),
	}, nil
}

// GlyphCells is the number of terminal columns the wider glyph takes.
func GlyphCells(g ascii.Glyphs) int {
	w := runewidth.RuneWidth(g.Filled)
	if e := runewidth.RuneWidth(g.Empty); e > w {
		w = e
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (t *Terminal) Area() (float64, float64) {
	w, h := t.screen.Size()
	return float64(w), float64(h)
}

func (t *Terminal) ShowStatus(msg string) {
	t.screen.Clear()
	x := 0
	for _, r := range msg {
		t.screen.SetContent(x, 0, r, nil, t.style)
		x += runewidth.RuneWidth(r)
	}
	t.screen.Show()
}

func (t *Terminal) ShowFrame(f ascii.Frame) {
	t.screen.Clear()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r := t.glyphs.Empty
			if f.Filled(x, y) {
				r = t.glyphs.Filled
			}
			t.screen.SetContent(x*t.width, y, r, nil, t.style)
		}
	}
	t.screen.Show()
}

// Run forwards key presses and resizes to controls until ctx is done or
// the user quits. Space toggles playback, i inverts, a fits the resolution
// to the screen, + and - grow and shrink it, q and Esc quit.
func (t *Terminal) Run(ctx context.Context, controls Controls) error {
	events := make(chan tcell.Event)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if quit := t.handle(ev, controls); quit {
				controls.Quit()
				return ErrQuit
			}
		}
	}
}

func (t *Terminal) handle(ev tcell.Event, controls Controls) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		t.screen.Sync()
		controls.SetResolution(false, 0, 0)
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			switch ev.Rune() {
			case ' ':
				controls.TogglePlayback()
			case 'i', 'I':
				controls.ToggleInvert()
			case 'a', 'A':
				controls.SetResolution(false, 0, 0)
			case '+':
				controls.ScaleResolution(resizeStep)
			case '-':
				controls.ScaleResolution(-resizeStep)
			case 'q', 'Q':
				return true
			}
		}
	}
	return false
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Fini()
}
