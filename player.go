package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/boriwo/blockplay/config"
	"github.com/boriwo/blockplay/display"
	"github.com/boriwo/blockplay/renderer"
	"github.com/boriwo/blockplay/schedule"
	"github.com/boriwo/blockplay/source"
	"github.com/pkg/errors"
)

const logFile = "blockplay.log"

// Player wires the renderer to its displays and runs every renderer call on
// the event loop.
type Player struct {
	cfg      config.Config
	glyphs   ascii.Glyphs
	loop     *schedule.Loop
	renderer *renderer.Renderer
	cancel   context.CancelFunc

	terminal *display.Terminal
	window   *display.Window
	web      *display.Web
	mqtt     *display.MQTT
	logfile  *os.File

	videoTotalFramesPlayed int
	videoPlaybackFPS       int
}

func NewPlayer(cfg config.Config) (*Player, error) {
	filled, empty := cfg.GlyphRunes()
	player := &Player{
		cfg:    cfg,
		glyphs: ascii.Glyphs{Filled: filled, Empty: empty},
		loop:   schedule.NewLoop(),
	}
	displays, glyphW, glyphH, err := player.openDisplays()
	if err != nil {
		player.closeDisplays()
		return nil, err
	}
	player.renderer = renderer.New(renderer.Options{
		FrameRate:   cfg.FrameRate,
		Threshold:   cfg.Threshold,
		MaxLoadTime: cfg.MaxLoadTime,
		GlyphWidth:  glyphW,
		GlyphHeight: glyphH,
		Margin:      cfg.Margin,
		Bounds: renderer.Bounds{
			MinWidth:  cfg.Resolution.MinWidth,
			MaxWidth:  cfg.Resolution.MaxWidth,
			MinHeight: cfg.Resolution.MinHeight,
			MaxHeight: cfg.Resolution.MaxHeight,
		},
		Inverted: cfg.Invert,
		OnReady:  player.onReady,
	}, player.loop, &meter{Display: displays, player: player})
	if cfg.Resolution.Width != 0 || cfg.Resolution.Height != 0 {
		player.renderer.ConfigureResolution(true, cfg.Resolution.Width, cfg.Resolution.Height)
	}
	res := player.renderer.Resolution()
	log.Printf("event=resolution width=%d height=%d", res.Width, res.Height)
	return player, nil
}

// openDisplays creates the configured displays. The glyph size comes from
// the first one, which also measures the area.
func (player *Player) openDisplays() (display.Multi, float64, float64, error) {
	var displays display.Multi
	var glyphW, glyphH float64
	for i, name := range player.cfg.Displays {
		var d renderer.Display
		w, h := 1.0, 1.0
		switch name {
		case config.DisplayTerminal:
			if err := player.redirectLog(); err != nil {
				return nil, 0, 0, err
			}
			t, err := display.NewTerminal(nil, player.glyphs)
			if err != nil {
				return nil, 0, 0, errors.Wrap(err, "open terminal")
			}
			player.terminal = t
			d, w = t, float64(display.GlyphCells(player.glyphs))
		case config.DisplayStream:
			d, w = display.NewStream(os.Stdout, player.glyphs, player.cfg.Stream.Columns, player.cfg.Stream.Rows), float64(display.GlyphCells(player.glyphs))
		case config.DisplayWindow:
			c := player.cfg.Window
			win, err := display.NewWindow(display.WindowOptions{
				Title:      "blockplay",
				Width:      c.Width,
				Height:     c.Height,
				FontFile:   c.FontFile,
				FrameSize:  c.FrameSize,
				StatusSize: c.StatusSize,
				DPI:        c.DPI,
			}, player.glyphs)
			if err != nil {
				return nil, 0, 0, errors.Wrap(err, "open window")
			}
			player.window = win
			d = win
			w, h = win.GlyphSize()
		case config.DisplayWeb:
			c := player.cfg.Web
			player.web = display.NewWeb(display.WebOptions{Address: c.Address, Width: c.Width, Height: c.Height}, player.glyphs)
			d, w, h = player.web, c.GlyphWidth, c.LineHeight
		case config.DisplayMQTT:
			c := player.cfg.Mqtt
			m, err := display.DialMQTT(display.MQTTOptions{
				URL:         c.URL,
				ClientID:    c.ClientID,
				Username:    c.Username,
				Password:    c.Password,
				FrameTopic:  c.Topics.Frame,
				StatusTopic: c.Topics.Status,
				Columns:     c.Columns,
				Rows:        c.Rows,
			}, player.glyphs)
			if err != nil {
				return nil, 0, 0, err
			}
			player.mqtt = m
			d = m
		}
		if i == 0 {
			glyphW, glyphH = w, h
		}
		displays = append(displays, d)
	}
	return displays, glyphW, glyphH, nil
}

// redirectLog keeps log output off a full screen terminal.
func (player *Player) redirectLog() error {
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "open %s", logFile)
	}
	player.logfile = f
	log.SetOutput(f)
	return nil
}

// Run plays ref, or the configured default source when ref is empty, until
// ctx is done or a display quits.
func (player *Player) Run(ctx context.Context, ref string) error {
	ctx, player.cancel = context.WithCancel(ctx)
	defer player.cancel()
	if ref == "" {
		ref = player.cfg.DefaultSource
	}
	player.Load(ref)
	player.loop.After(time.Second, player.perSecond)

	loopDone := make(chan error, 1)
	go func() { loopDone <- player.loop.Run(ctx) }()
	errs := make(chan error, 3)
	if player.web != nil {
		player.web.Attach(player)
		go func() { errs <- player.web.Serve(ctx) }()
	}
	if player.terminal != nil {
		go func() { errs <- player.terminal.Run(ctx, player) }()
	}

	var err error
	if player.window != nil {
		err = player.window.Run(player)
	} else {
		select {
		case <-ctx.Done():
		case err = <-errs:
		}
	}
	player.cancel()
	<-loopDone
	player.renderer.Close()
	player.closeDisplays()
	log.Printf("event=exit frames=%d", player.videoTotalFramesPlayed)
	if err == display.ErrQuit {
		return nil
	}
	return err
}

// Load opens ref and binds it to the renderer.
func (player *Player) Load(ref string) {
	src := source.Open(ref, source.Options{
		Audio:     player.cfg.Audio,
		FrameRate: player.cfg.FrameRate,
	})
	player.loop.Post(func() {
		log.Printf("event=load source=%q", ref)
		player.renderer.LoadSource(src)
	})
}

func (player *Player) onReady() {
	if player.cfg.Autoplay {
		player.loop.Post(func() { player.renderer.TogglePlayback() })
	}
}

func (player *Player) TogglePlayback() {
	player.loop.Post(func() {
		player.renderer.TogglePlayback()
		log.Printf("event=toggle state=%s", player.renderer.State())
	})
}

func (player *Player) ToggleInvert() {
	player.loop.Post(player.renderer.ToggleInvert)
}

func (player *Player) SetResolution(manual bool, width, height int) {
	player.loop.Post(func() {
		res := player.renderer.ConfigureResolution(manual, width, height)
		log.Printf("event=resolution manual=%t width=%d height=%d", manual, res.Width, res.Height)
	})
}

func (player *Player) ScaleResolution(percent int) {
	player.loop.Post(func() {
		res := player.renderer.Resolution()
		width, height := scale(res.Width, percent), scale(res.Height, percent)
		res = player.renderer.ConfigureResolution(true, width, height)
		log.Printf("event=resolution manual=true width=%d height=%d", res.Width, res.Height)
	})
}

// scale changes v by percent, by at least one.
func scale(v, percent int) int {
	d := v * percent / 100
	if d == 0 {
		if percent > 0 {
			d = 1
		} else if percent < 0 {
			d = -1
		}
	}
	return v + d
}

func (player *Player) Quit() {
	if player.cancel != nil {
		player.cancel()
	}
}

// perSecond logs playback metrics once a second in debug mode.
func (player *Player) perSecond() {
	if player.cfg.Debug {
		res := player.renderer.Resolution()
		log.Printf("event=metrics state=%s frames=%d fps=%d width=%d height=%d",
			player.renderer.State(), player.videoTotalFramesPlayed, player.videoPlaybackFPS, res.Width, res.Height)
	}
	player.videoPlaybackFPS = 0
	player.loop.After(time.Second, player.perSecond)
}

func (player *Player) closeDisplays() {
	if player.terminal != nil {
		player.terminal.Close()
	}
	if player.mqtt != nil {
		player.mqtt.Close()
	}
	if player.logfile != nil {
		log.SetOutput(os.Stderr)
		player.logfile.Close()
	}
}

// meter counts frames on their way to the displays.
type meter struct {
	renderer.Display
	player *Player
}

func (m *meter) ShowFrame(f ascii.Frame) {
	m.player.videoTotalFramesPlayed++
	m.player.videoPlaybackFPS++
	m.Display.ShowFrame(f)
}
