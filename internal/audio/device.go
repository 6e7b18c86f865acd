// Package audio is the playback backend. Samples are decoded from WAV
// into memory buffers at the speaker's format; playing a sample hands
// back a pool.Playback whose completion is observed by polling an atomic
// flag, so the audio goroutine never touches arbitration state.
package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/zjrosen/padkit/internal/log"
)

// Device represents the initialized speaker.
type Device struct {
	format beep.Format
}

// Open initializes the speaker at the given sample rate. bufferLen is the
// internal buffer duration; shorter means lower latency.
func Open(sampleRate int, bufferLen time.Duration) (*Device, error) {
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := speaker.Init(format.SampleRate, format.SampleRate.N(bufferLen)); err != nil {
		return nil, fmt.Errorf("initializing speaker: %w", err)
	}
	log.Debug(log.CatAudio, "speaker initialized", "rate", sampleRate, "buffer", bufferLen)
	return &Device{format: format}, nil
}

// Format returns the speaker format samples must be resampled to.
func (d *Device) Format() beep.Format {
	return d.format
}

// Close shuts the speaker down.
func (d *Device) Close() {
	speaker.Close()
}
