package ascii

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestClassifyThreshold(t *testing.T) {
	const threshold = DefaultThreshold
	for b := 0.0; b <= 255; b += 0.5 {
		normal := Classify(b, threshold, false)
		inverted := Classify(b, threshold, true)
		switch {
		case b > threshold:
			if normal || !inverted {
				t.Fatalf("brightness %v: expected empty, inverted filled", b)
			}
		case b < threshold:
			if !normal || inverted {
				t.Fatalf("brightness %v: expected filled, inverted empty", b)
			}
		default:
			if normal || inverted {
				t.Fatalf("brightness at threshold must be empty in both modes")
			}
		}
	}
}

func TestBrightnessIsChannelMean(t *testing.T) {
	if got := Brightness(255, 0, 129); got != 128 {
		t.Fatalf("expected 128, got %v", got)
	}
	if got := Brightness(1, 1, 2); got != 4.0/3 {
		t.Fatalf("expected fractional mean, got %v", got)
	}
}

func TestConvertRows(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.White)
	img.Set(1, 0, color.RGBA{R: 128, G: 128, B: 128, A: 255})
	img.Set(2, 0, color.Black)
	img.Set(0, 1, color.RGBA{R: 200, G: 200, B: 0, A: 255})
	img.Set(1, 1, color.RGBA{R: 10, G: 250, B: 10, A: 255})
	img.Set(2, 1, color.Transparent)

	frame := Convert(img, DefaultThreshold, false)
	if got, want := frame.String(), "  █\n ██\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	frame = Convert(img, DefaultThreshold, true)
	if got, want := frame.String(), "█  \n█  \n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestConvertSubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.White)
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)
	frame := Convert(sub, DefaultThreshold, false)
	if got, want := frame.String(), " █\n██\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFrameTextGlyphs(t *testing.T) {
	frame := NewFrame(2, 2)
	frame.Set(0, 0, true)
	frame.Set(1, 1, true)
	got := frame.Text(Glyphs{Filled: '#', Empty: '.'})
	if got != "#.\n.#\n" {
		t.Fatalf("unexpected text %q", got)
	}
	if lines := frame.Lines(DefaultGlyphs); len(lines) != 2 || lines[1] != " █" {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestPrintHTMLEscapes(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintHTML(&buf, []string{"<█>"}, true); err != nil {
		t.Fatalf("PrintHTML: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "&lt;█&gt;") || !strings.Contains(out, "#000000") {
		t.Fatalf("unexpected html %q", out)
	}
}

func TestMeasureGlyph(t *testing.T) {
	f, err := LoadFont("")
	if err != nil {
		t.Fatalf("LoadFont: %v", err)
	}
	face := NewFace(f, 10, 72)
	w, h := MeasureGlyph(face, FilledBlock)
	mw, _ := MeasureGlyph(face, 'M')
	if w <= 0 || h <= 0 {
		t.Fatalf("expected positive glyph size, got %vx%v", w, h)
	}
	if w != mw {
		t.Fatalf("expected monospaced advance, got %v and %v", w, mw)
	}
}
