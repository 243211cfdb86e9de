package display

import (
	"image/color"
	"sync"

	"github.com/boriwo/blockplay/ascii"
	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/hajimehoshi/ebiten/text"
	"golang.org/x/image/font"
)

// WindowOptions configure the desktop window. Frame text is drawn at
// FrameSize points, status messages at the larger StatusSize.
type WindowOptions struct {
	Title      string
	Width      int
	Height     int
	FontFile   string
	FrameSize  float64
	StatusSize float64
	DPI        float64
}

// Window draws frames into a desktop window with ebiten.
type Window struct {
	opts       WindowOptions
	glyphs     ascii.Glyphs
	frameFace  font.Face
	statusFace font.Face
	glyphW     float64
	glyphH     float64

	mu       sync.Mutex
	text     string
	status   bool
	width    int
	height   int
	controls Controls
}

func NewWindow(opts WindowOptions, glyphs ascii.Glyphs) (*Window, error) {
	f, err := ascii.LoadFont(opts.FontFile)
	if err != nil {
		return nil, err
	}
	w := &Window{
		opts:       opts,
		glyphs:     glyphs,
		frameFace:  ascii.NewFace(f, opts.FrameSize, opts.DPI),
		statusFace: ascii.NewFace(f, opts.StatusSize, opts.DPI),
		width:      opts.Width,
		height:     opts.Height,
	}
	w.glyphW, w.glyphH = ascii.MeasureGlyph(w.frameFace, glyphs.Filled)
	return w, nil
}

// GlyphSize is the pixel size of one frame character.
func (w *Window) GlyphSize() (float64, float64) {
	return w.glyphW, w.glyphH
}

func (w *Window) Area() (float64, float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return float64(w.width), float64(w.height)
}

func (w *Window) ShowStatus(msg string) {
	w.mu.Lock()
	w.text, w.status = msg, true
	w.mu.Unlock()
}

func (w *Window) ShowFrame(f ascii.Frame) {
	txt := f.Text(w.glyphs)
	w.mu.Lock()
	w.text, w.status = txt, false
	w.mu.Unlock()
}

// Run opens the window and blocks until it is closed or the user quits.
// It must be called from the main goroutine.
func (w *Window) Run(controls Controls) error {
	w.mu.Lock()
	w.controls = controls
	w.mu.Unlock()
	ebiten.SetWindowSize(w.opts.Width, w.opts.Height)
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizable(true)
	return ebiten.RunGame(w)
}

// Update handles keys like the terminal display and draws the latest text.
func (w *Window) Update(screen *ebiten.Image) error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		w.controls.Quit()
		return ErrQuit
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		w.controls.TogglePlayback()
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		w.controls.ToggleInvert()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		w.controls.SetResolution(false, 0, 0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		w.controls.ScaleResolution(resizeStep)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		w.controls.ScaleResolution(-resizeStep)
	}
	if ebiten.IsDrawingSkipped() {
		return nil
	}
	w.mu.Lock()
	txt, status := w.text, w.status
	w.mu.Unlock()
	if err := screen.Fill(color.Black); err != nil {
		return err
	}
	face := w.frameFace
	if status {
		face = w.statusFace
	}
	text.Draw(screen, txt, face, 0, face.Metrics().Ascent.Ceil(), color.White)
	return nil
}

// Layout tracks the window size and refits the resolution when it changes.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	changed := outsideWidth != w.width || outsideHeight != w.height
	w.width, w.height = outsideWidth, outsideHeight
	controls := w.controls
	w.mu.Unlock()
	if changed && controls != nil {
		controls.SetResolution(false, 0, 0)
	}
	return outsideWidth, outsideHeight
}
