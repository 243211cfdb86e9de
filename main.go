package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/boriwo/blockplay/ascii"
	"github.com/boriwo/blockplay/config"
)

func main() {
	configPath := flag.String("config", "", "YAML config file, defaults are used when omitted")
	filename := flag.String("file", "", "video file, gif, image or directory of images; defaults to the configured default source")
	displays := flag.String("display", "", "comma separated displays: terminal, stream, window, web, mqtt")
	width := flag.Int("width", 0, "width in characters, 0 fits the display")
	height := flag.Int("height", 0, "height in characters, 0 fits the display")
	invert := flag.Bool("invert", false, "fill bright instead of dark cells")
	audio := flag.Bool("audio", false, "play the sound track, unsynchronised")
	autoplay := flag.Bool("autoplay", false, "start playing as soon as the video is loaded")
	debug := flag.Bool("debug", false, "if set to true some performance data will be logged")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		handleError(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "display":
			cfg.Displays = strings.Split(*displays, ",")
		case "width":
			cfg.Resolution.Width = *width
		case "height":
			cfg.Resolution.Height = *height
		case "invert":
			cfg.Invert = *invert
		case "audio":
			cfg.Audio = *audio
		case "autoplay":
			cfg.Autoplay = *autoplay
		case "debug":
			cfg.Debug = *debug
		}
	})
	handleError(cfg.Validate())
	ascii.Debug = cfg.Debug

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	player, err := NewPlayer(cfg)
	handleError(err)
	handleError(player.Run(ctx, *filename))
}

func handleError(err error) {
	if err != nil {
		log.Fatalf("event=fatal error=%q", err)
	}
}
