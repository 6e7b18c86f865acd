package audio

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/zjrosen/padkit/internal/pool"
)

const resampleQuality = 4

// Sample is one fully decoded audio asset, playable any number of times
// concurrently.
type Sample struct {
	name   string
	buffer *beep.Buffer
}

// DecodeSample reads a WAV stream and buffers it at the target format,
// resampling when the file's rate differs from the speaker's.
func DecodeSample(name string, r io.ReadCloser, target beep.Format) (*Sample, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.SampleRate != target.SampleRate {
		src = beep.Resample(resampleQuality, format.SampleRate, target.SampleRate, streamer)
	}

	buffer := beep.NewBuffer(target)
	buffer.Append(src)
	if buffer.Len() == 0 {
		return nil, fmt.Errorf("decoding %s: no audio frames", name)
	}
	return &Sample{name: name, buffer: buffer}, nil
}

// Name returns the sample's file name.
func (s *Sample) Name() string { return s.name }

// Len returns the buffered frame count.
func (s *Sample) Len() int { return s.buffer.Len() }

// Play starts the sample from the beginning on a fresh speaker slot.
func (s *Sample) Play() (pool.Playback, error) {
	p := &playback{}
	streamer := s.buffer.Streamer(0, s.buffer.Len())
	p.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(streamer, beep.Callback(func() {
			p.done.Store(true)
		})),
	}
	speaker.Play(p.ctrl)
	return p, nil
}

// playback tracks one emission of a sample. The completion callback runs
// on the speaker goroutine and only flips the atomic flag; everything
// else happens on the caller's goroutine.
type playback struct {
	ctrl *beep.Ctrl
	done atomic.Bool
}

// Active implements pool.Playback.
func (p *playback) Active() bool {
	return !p.done.Load()
}

// Stop implements pool.Playback. Idempotent.
func (p *playback) Stop() {
	if p.done.Swap(true) {
		return
	}
	speaker.Lock()
	p.ctrl.Streamer = nil
	speaker.Unlock()
}
