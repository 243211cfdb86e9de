package source

import (
	"bufio"
	"context"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/boriwo/blockplay/ascii"
	"github.com/pkg/errors"
)

// Images plays decoded pictures: a single still, the frames of an animated
// gif, or every png and jpeg file of a directory in name order.
type Images struct {
	transport
	frameDelay time.Duration
	stillTime  time.Duration
}

// NewImages creates an image source for path. Directory entries are shown
// for frameDelay each, a still image for stillTime.
func NewImages(path string, frameDelay, stillTime time.Duration) *Images {
	return &Images{
		transport:  newTransport(path),
		frameDelay: frameDelay,
		stillTime:  stillTime,
	}
}

type still struct {
	img   image.Image
	delay time.Duration
}

func (s *Images) Open(decoded, ended func()) {
	s.start(func(ctx context.Context) {
		frames, err := s.load()
		if err != nil {
			log.Printf("event=open_failed source=%q error=%q", s.name, err)
			return
		}
		var total time.Duration
		for _, f := range frames {
			total += f.delay
		}
		s.setDuration(total)
		s.setFrame(frames[0].img)
		decoded()
		s.play(ctx, frames, ended)
	})
}

func (s *Images) play(ctx context.Context, frames []still, ended func()) {
	for {
		for i := 0; i < len(frames); i++ {
			if !s.waitPlaying(ctx) {
				return
			}
			if s.takeRewind() {
				i = 0
			}
			s.setFrame(frames[i].img)
			select {
			case <-ctx.Done():
				return
			case <-time.After(frames[i].delay):
			}
		}
		s.Pause()
		ended()
		if !s.waitPlaying(ctx) {
			return
		}
		s.takeRewind()
	}
}

func (s *Images) load() ([]still, error) {
	defer ascii.TrackTime(time.Now(), "load_images")
	info, err := os.Stat(s.name)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", s.name)
	}
	if info.IsDir() {
		return s.loadDir()
	}
	if isGIF(s.name) {
		return loadGIF(s.name)
	}
	img, err := getImage(s.name)
	if err != nil {
		return nil, err
	}
	return []still{{img: img, delay: s.stillTime}}, nil
}

func (s *Images) loadDir() ([]still, error) {
	fileInfos, err := ioutil.ReadDir(s.name)
	if err != nil {
		return nil, errors.Wrapf(err, "read dir %s", s.name)
	}
	var names []string
	for _, info := range fileInfos {
		if !info.IsDir() && isImage(info.Name()) {
			names = append(names, info.Name())
		}
	}
	if len(names) == 0 {
		return nil, errors.Errorf("no images in %s", s.name)
	}
	sort.Strings(names)
	frames := make([]still, 0, len(names))
	for _, name := range names {
		img, err := getImage(filepath.Join(s.name, name))
		if err != nil {
			return nil, err
		}
		frames = append(frames, still{img: img, delay: s.frameDelay})
	}
	return frames, nil
}

// loadGIF composes every gif frame onto the full canvas.
func loadGIF(name string) ([]still, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()
	g, err := gif.DecodeAll(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "decode gif %s", name)
	}
	if len(g.Image) == 0 {
		return nil, errors.Errorf("gif %s has no frames", name)
	}
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	frames := make([]still, len(g.Image))
	for i, p := range g.Image {
		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)
		snapshot := image.NewRGBA(bounds)
		copy(snapshot.Pix, canvas.Pix)
		delay := 100 * time.Millisecond
		if i < len(g.Delay) && g.Delay[i] > 0 {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		frames[i] = still{img: snapshot, delay: delay}
		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return frames, nil
}

func getImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()
	b := bufio.NewReader(f)
	var img image.Image
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".png") {
		img, err = png.Decode(b)
	} else {
		img, err = jpeg.Decode(b)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return img, nil
}

func isImage(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}

func isGIF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gif")
}

func isDir(name string) bool {
	info, err := os.Stat(name)
	return err == nil && info.IsDir()
}
