package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultSampleRate is the output rate used when none is configured.
const DefaultSampleRate beep.SampleRate = 44100

// Device is the audio output every Context connects its destination to.
type Device interface {
	SampleRate() beep.SampleRate
	Connect(s beep.Streamer) error
}

// SpeakerDevice plays through the process-wide beep speaker. The speaker
// is initialised on first Connect and never closed.
type SpeakerDevice struct {
	err        error
	rate       beep.SampleRate
	bufferSize time.Duration
	once       sync.Once
}

// NewSpeakerDevice creates a speaker-backed device. A zero rate selects
// DefaultSampleRate; a zero buffer selects 100ms.
func NewSpeakerDevice(rate beep.SampleRate, buffer time.Duration) *SpeakerDevice {
	if rate == 0 {
		rate = DefaultSampleRate
	}
	if buffer <= 0 {
		buffer = 100 * time.Millisecond
	}
	return &SpeakerDevice{rate: rate, bufferSize: buffer}
}

func (d *SpeakerDevice) SampleRate() beep.SampleRate {
	return d.rate
}

// Connect starts streaming s on the speaker.
func (d *SpeakerDevice) Connect(s beep.Streamer) error {
	d.once.Do(func() {
		d.err = speaker.Init(d.rate, d.rate.N(d.bufferSize))
	})
	if d.err != nil {
		return d.err
	}
	speaker.Play(s)
	return nil
}
