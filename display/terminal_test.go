package display

import (
	"context"
	"testing"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/gdamore/tcell/v2"
)

func readScreenLine(screen tcell.Screen, x, y, width int) string {
	runes := make([]rune, width)
	for i := 0; i < width; i++ {
		ch, _, _, _ := screen.GetContent(x+i, y)
		if ch == 0 {
			ch = ' '
		}
		runes[i] = ch
	}
	return string(runes)
}

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term, err := NewTerminal(screen, ascii.DefaultGlyphs)
	if err != nil {
		t.Fatalf("NewTerminal: %v", err)
	}
	screen.SetSize(20, 6)
	t.Cleanup(term.Close)
	return term, screen
}

func TestTerminalDrawsFrame(t *testing.T) {
	term, screen := newSimTerminal(t)
	if w, h := term.Area(); w != 20 || h != 6 {
		t.Fatalf("expected screen area, got %vx%v", w, h)
	}
	term.ShowFrame(checkerFrame())
	if got := readScreenLine(screen, 0, 0, 3); got != "█ █" {
		t.Fatalf("unexpected first row %q", got)
	}
	if got := readScreenLine(screen, 0, 1, 3); got != " █ " {
		t.Fatalf("unexpected second row %q", got)
	}
	term.ShowStatus("Loading...")
	if got := readScreenLine(screen, 0, 0, 10); got != "Loading..." {
		t.Fatalf("unexpected status %q", got)
	}
	if got := readScreenLine(screen, 0, 1, 3); got != "   " {
		t.Fatalf("status did not clear the frame: %q", got)
	}
}

func TestTerminalKeys(t *testing.T) {
	term, screen := newSimTerminal(t)
	controls := newRecordedControls()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, controls) }()

	keys := []struct {
		r    rune
		want string
	}{
		{' ', "toggle"},
		{'i', "invert"},
		{'a', "auto"},
		{'+', "grow"},
		{'-', "shrink"},
	}
	for _, k := range keys {
		screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, k.r, 0))
		if got := nextAction(ctx, t, controls, k.want); got != k.want {
			t.Fatalf("key %q: expected %s, got %s", k.r, k.want, got)
		}
	}

	screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', 0))
	select {
	case err := <-done:
		if err != ErrQuit {
			t.Fatalf("expected ErrQuit, got %v", err)
		}
	case <-ctx.Done():
		t.Fatalf("terminal did not quit")
	}
	if got := nextAction(ctx, t, controls, "quit"); got != "quit" {
		t.Fatalf("expected quit control, got %s", got)
	}
}

// nextAction returns the next recorded control, skipping the refits that
// screen resize events trigger.
func nextAction(ctx context.Context, t *testing.T, c *recordedControls, want string) string {
	t.Helper()
	for {
		select {
		case got := <-c.calls:
			if got == "auto" && want != "auto" {
				continue
			}
			return got
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s", want)
			return ""
		}
	}
}

func TestGlyphCells(t *testing.T) {
	if n := GlyphCells(ascii.Glyphs{Filled: '#', Empty: ' '}); n != 1 {
		t.Fatalf("expected 1 cell, got %d", n)
	}
	if n := GlyphCells(ascii.Glyphs{Filled: '漢', Empty: ' '}); n != 2 {
		t.Fatalf("expected wide glyph to take 2 cells, got %d", n)
	}
}
