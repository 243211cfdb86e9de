package ascii

import (
	"io/ioutil"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

// LoadFont parses a ttf file. An empty name selects the bundled Go Mono font.
func LoadFont(ttfFile string) (*truetype.Font, error) {
	defer TrackTime(time.Now(), "load_font")
	data := gomono.TTF
	if ttfFile != "" {
		var err error
		data, err = ioutil.ReadFile(ttfFile)
		if err != nil {
			return nil, errors.Wrapf(err, "read font %s", ttfFile)
		}
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse font")
	}
	return f, nil
}

// NewFace creates a face of the given point size at dpi.
func NewFace(f *truetype.Font, size, dpi float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// MeasureGlyph returns the advance width and line height in pixels of r
// drawn with face.
func MeasureGlyph(face font.Face, r rune) (width, height float64) {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		adv, _ = face.GlyphAdvance('M')
	}
	return toFloat(adv), toFloat(face.Metrics().Height)
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
