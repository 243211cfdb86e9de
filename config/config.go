// Package config reads the player settings from a YAML file.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	DisplayTerminal = "terminal"
	DisplayStream   = "stream"
	DisplayWindow   = "window"
	DisplayWeb      = "web"
	DisplayMQTT     = "mqtt"
)

type Config struct {
	FrameRate     int           `yaml:"frameRate"`
	Threshold     float64       `yaml:"threshold"`
	MaxLoadTime   time.Duration `yaml:"maxLoadTime"`
	Margin        float64       `yaml:"margin"`
	DefaultSource string        `yaml:"defaultSource"`
	Invert        bool          `yaml:"invert"`
	Audio         bool          `yaml:"audio"`
	Autoplay      bool          `yaml:"autoplay"`
	Debug         bool          `yaml:"debug"`
	// Displays lists where frames are shown; the first one measures the
	// area the resolution is fitted to.
	Displays []string `yaml:"displays"`

	Glyphs struct {
		Filled string `yaml:"filled"`
		Empty  string `yaml:"empty"`
	} `yaml:"glyphs"`

	Resolution struct {
		Width     int `yaml:"width"`
		Height    int `yaml:"height"`
		MinWidth  int `yaml:"minWidth"`
		MaxWidth  int `yaml:"maxWidth"`
		MinHeight int `yaml:"minHeight"`
		MaxHeight int `yaml:"maxHeight"`
	} `yaml:"resolution"`

	Stream struct {
		Columns int `yaml:"columns"`
		Rows    int `yaml:"rows"`
	} `yaml:"stream"`

	Window struct {
		Width      int     `yaml:"width"`
		Height     int     `yaml:"height"`
		FontFile   string  `yaml:"fontFile"`
		FrameSize  float64 `yaml:"frameSize"`
		StatusSize float64 `yaml:"statusSize"`
		DPI        float64 `yaml:"dpi"`
	} `yaml:"window"`

	Web struct {
		Address    string  `yaml:"address"`
		Width      float64 `yaml:"width"`
		Height     float64 `yaml:"height"`
		GlyphWidth float64 `yaml:"glyphWidth"`
		LineHeight float64 `yaml:"lineHeight"`
	} `yaml:"web"`

	Mqtt struct {
		URL      string `yaml:"url"`
		ClientID string `yaml:"clientId"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Columns  int    `yaml:"columns"`
		Rows     int    `yaml:"rows"`
		Topics   struct {
			Frame  string `yaml:"frame"`
			Status string `yaml:"status"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	var c Config
	c.FrameRate = 30
	c.Threshold = 128
	c.MaxLoadTime = 10 * time.Second
	c.Margin = 0.95
	c.DefaultSource = "videos/Bad Apple.mp4"
	c.Displays = []string{DisplayTerminal}
	c.Glyphs.Filled = "█"
	c.Glyphs.Empty = " "
	c.Resolution.MinWidth = 1
	c.Resolution.MinHeight = 1
	c.Stream.Columns = 160
	c.Stream.Rows = 48
	c.Window.Width = 1280
	c.Window.Height = 720
	c.Window.FrameSize = 5
	c.Window.StatusSize = 16
	c.Window.DPI = 72
	c.Web.Address = "localhost:5000"
	c.Web.Width = 1280
	c.Web.Height = 720
	c.Web.GlyphWidth = 3
	c.Web.LineHeight = 5
	c.Mqtt.URL = "tcp://localhost:1883"
	c.Mqtt.ClientID = "blockplay"
	c.Mqtt.Columns = 80
	c.Mqtt.Rows = 24
	c.Mqtt.Topics.Frame = "blockplay/frame"
	c.Mqtt.Topics.Status = "blockplay/status"
	return c
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	c := Default()
	f, err := os.Open(path)
	if err != nil {
		return c, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()
	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err := decoder.Decode(&c); err != nil {
		return c, errors.Wrapf(err, "decode config %s", path)
	}
	return c, c.Validate()
}

// Validate rejects settings the player cannot run with.
func (c Config) Validate() error {
	if c.FrameRate <= 0 {
		return errors.Errorf("frameRate must be positive, got %d", c.FrameRate)
	}
	if c.Threshold <= 0 || c.Threshold >= 255 {
		return errors.Errorf("threshold must be between 0 and 255, got %v", c.Threshold)
	}
	if c.Margin <= 0 || c.Margin > 1 {
		return errors.Errorf("margin must be in (0,1], got %v", c.Margin)
	}
	if len([]rune(c.Glyphs.Filled)) != 1 || len([]rune(c.Glyphs.Empty)) != 1 {
		return errors.New("glyphs must be single characters")
	}
	if len(c.Displays) == 0 {
		return errors.New("at least one display is required")
	}
	local, seen := 0, map[string]bool{}
	for _, d := range c.Displays {
		switch d {
		case DisplayTerminal, DisplayStream, DisplayWindow:
			local++
		case DisplayWeb, DisplayMQTT:
		default:
			return errors.Errorf("unknown display %q", d)
		}
		if seen[d] {
			return errors.Errorf("display %q listed twice", d)
		}
		seen[d] = true
	}
	if local > 1 {
		return errors.New("terminal, stream and window displays cannot be combined")
	}
	return nil
}

// GlyphRunes returns the glyph pair. Validate guarantees one rune each.
func (c Config) GlyphRunes() (filled, empty rune) {
	return []rune(c.Glyphs.Filled)[0], []rune(c.Glyphs.Empty)[0]
}
