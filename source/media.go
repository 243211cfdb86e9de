package source

import (
	"bytes"
	"context"
	"encoding/binary"
	"log"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/pkg/errors"
	"github.com/zergon321/reisen"
)

const (
	sampleBufferSize                  = 32 * 2 * 8 * 1024
	speakerSampleRate beep.SampleRate = 44100
	resampleQuality                   = 4
)

var speakerOnce sync.Once

// Media decodes a video file with ffmpeg through reisen. Frames advance at
// the stream frame rate while playing. Audio, when enabled, is played as it
// is decoded without synchronisation to the picture.
type Media struct {
	transport
	audio bool

	samples chan [2]float64
	ctrl    *beep.Ctrl
}

func NewMedia(path string, audio bool) *Media {
	return &Media{
		transport: newTransport(path),
		audio:     audio,
	}
}

func (m *Media) Open(decoded, ended func()) {
	m.start(func(ctx context.Context) {
		m.run(ctx, decoded, ended)
	})
}

func (m *Media) Play() {
	m.transport.Play()
	m.setAudioPaused(false)
}

func (m *Media) Pause() {
	m.transport.Pause()
	m.setAudioPaused(true)
}

func (m *Media) Close() error {
	m.setAudioPaused(true)
	return m.transport.Close()
}

func (m *Media) run(ctx context.Context, decoded, ended func()) {
	announced := false
	for {
		rewound, err := m.session(ctx, func() {
			if !announced {
				announced = true
				decoded()
			}
		})
		if err != nil {
			log.Printf("event=decode_failed source=%q error=%q", m.name, err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		if rewound {
			continue
		}
		m.Pause()
		ended()
		if !m.waitPlaying(ctx) {
			return
		}
		m.takeRewind()
	}
}

// session decodes the file once from the start. It reports whether it was
// cut short by a rewind.
func (m *Media) session(ctx context.Context, firstFrame func()) (bool, error) {
	media, err := reisen.NewMedia(m.name)
	if err != nil {
		return false, errors.Wrapf(err, "open media %s", m.name)
	}
	defer media.Close()
	frameDuration := time.Second / 30
	for _, stream := range media.Streams() {
		if stream.Type() == reisen.StreamVideo {
			num, den := stream.FrameRate()
			if num > 0 && den > 0 {
				frameDuration = time.Duration(float64(time.Second) * float64(den) / float64(num))
			}
		}
	}
	if err := media.OpenDecode(); err != nil {
		return false, errors.Wrap(err, "open decode")
	}
	defer media.CloseDecode()
	videoStreams := media.VideoStreams()
	if len(videoStreams) == 0 {
		return false, errors.Errorf("%s has no video stream", m.name)
	}
	videoStream := videoStreams[0]
	if err := videoStream.Open(); err != nil {
		return false, errors.Wrap(err, "open video stream")
	}
	defer videoStream.Close()
	audioStream, err := m.openAudio(media)
	if err != nil {
		return false, err
	}
	if audioStream != nil {
		defer audioStream.Close()
	}
	if d, err := media.Duration(); err == nil {
		m.setDuration(d)
	}

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()
	frames := 0
	for {
		if frames > 0 {
			if !m.waitPlaying(ctx) {
				return false, nil
			}
			if m.takeRewind() && frames > 1 {
				return true, nil
			}
		}
		packet, gotPacket, err := readPacket(media.ReadPacket)
		if err != nil {
			return false, errors.Wrap(err, "read packet")
		}
		if !gotPacket {
			return false, nil
		}
		switch packet.Type() {
		case reisen.StreamVideo:
			s := media.Streams()[packet.StreamIndex()].(*reisen.VideoStream)
			videoFrame, gotFrame, err := s.ReadVideoFrame()
			if err != nil || !gotFrame || videoFrame == nil {
				continue
			}
			if frames > 0 {
				select {
				case <-ctx.Done():
					return false, nil
				case <-ticker.C:
				}
			}
			m.setFrame(videoFrame.Image())
			frames++
			if frames == 1 {
				firstFrame()
			}
		case reisen.StreamAudio:
			if audioStream == nil {
				continue
			}
			s := media.Streams()[packet.StreamIndex()].(*reisen.AudioStream)
			audioFrame, gotFrame, err := s.ReadAudioFrame()
			if err != nil || !gotFrame || audioFrame == nil {
				continue
			}
			if !m.pushSamples(ctx, audioFrame.Data()) {
				return false, nil
			}
		}
	}
}

// readPacket returns the next packet. The demuxer reports a retry as a
// read without a packet, which is skipped.
func readPacket(read func() (*reisen.Packet, bool, error)) (*reisen.Packet, bool, error) {
	for {
		packet, gotPacket, err := read()
		if err != nil || !gotPacket {
			return nil, false, err
		}
		if packet != nil {
			return packet, true, nil
		}
	}
}

// openAudio opens the first audio stream and starts the speaker, if audio
// is enabled and the file has sound.
func (m *Media) openAudio(media *reisen.Media) (*reisen.AudioStream, error) {
	if !m.audio || len(media.AudioStreams()) == 0 {
		return nil, nil
	}
	audioStream := media.AudioStreams()[0]
	if err := audioStream.Open(); err != nil {
		return nil, errors.Wrap(err, "open audio stream")
	}
	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(speakerSampleRate, speakerSampleRate.N(time.Second/10))
	})
	if initErr != nil {
		audioStream.Close()
		return nil, errors.Wrap(initErr, "init speaker")
	}
	if m.samples == nil {
		m.samples = make(chan [2]float64, sampleBufferSize)
		rate := beep.SampleRate(audioStream.SampleRate())
		ctrl := &beep.Ctrl{Streamer: resampled(m.samples, rate), Paused: !m.isPlaying()}
		m.mu.Lock()
		m.ctrl = ctrl
		m.mu.Unlock()
		speaker.Play(ctrl)
	}
	return audioStream, nil
}

// pushSamples turns raw little endian float64 stereo data into samples.
func (m *Media) pushSamples(ctx context.Context, data []byte) bool {
	reader := bytes.NewReader(data)
	for reader.Len() >= 16 {
		var sample [2]float64
		if err := binary.Read(reader, binary.LittleEndian, &sample); err != nil {
			log.Printf("event=audio_sample source=%q error=%q", m.name, err)
			return true
		}
		select {
		case m.samples <- sample:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (m *Media) setAudioPaused(paused bool) {
	m.mu.Lock()
	ctrl := m.ctrl
	m.mu.Unlock()
	if ctrl == nil {
		return
	}
	speaker.Lock()
	ctrl.Paused = paused
	speaker.Unlock()
}

// resampled converts samples decoded at rate to the rate the speaker was
// started with.
func resampled(sampleSource <-chan [2]float64, rate beep.SampleRate) *beep.Resampler {
	return beep.Resample(resampleQuality, rate, speakerSampleRate, streamSamples(sampleSource))
}

// streamSamples creates a streamer for playing audio samples provided by
// the source channel.
// See https://github.com/faiface/beep/wiki/Making-own-streamers
// for reference.
func streamSamples(sampleSource <-chan [2]float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		numRead := 0
		for i := 0; i < len(samples); i++ {
			select {
			case sample := <-sampleSource:
				samples[i] = sample
			default:
				// silence on underrun
				samples[i] = [2]float64{}
			}
			numRead++
		}
		return numRead, true
	})
}
