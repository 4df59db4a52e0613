package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// Sound is a decoded clip that can be played any number of times,
// including over itself. The buffer is immutable after Load.
type Sound struct {
	ctx    *Context
	buffer *beep.Buffer
	path   string
	volume float64
}

// Play routes a fresh source through a fresh gain stage into the clip's
// context and starts it immediately. Volume is linear: 1 is unchanged,
// 0 is silent, 2 doubles the amplitude. Plays never affect each other.
func (s *Sound) Play(volume float64) {
	source := s.buffer.Streamer(0, s.buffer.Len())
	gain := &effects.Gain{Streamer: source, Gain: volume - 1}
	s.ctx.dest.add(gain)
}

// PlayDefault plays at the clip's own volume.
func (s *Sound) PlayDefault() {
	s.Play(s.volume)
}

// Volume is the clip's default volume, 1 unless changed by WithVolume.
func (s *Sound) Volume() float64 {
	return s.volume
}

// WithVolume returns a handle sharing the decoded clip with a different
// default volume. Plays already started keep their volume.
func (s *Sound) WithVolume(volume float64) *Sound {
	c := *s
	c.volume = volume
	return &c
}

// Path is the location the clip was loaded from.
func (s *Sound) Path() string {
	return s.path
}

// Context returns the context owned by this clip.
func (s *Sound) Context() *Context {
	return s.ctx
}

// Format describes the decoded buffer.
func (s *Sound) Format() beep.Format {
	return s.buffer.Format()
}

// Len is the clip length in samples at the context rate.
func (s *Sound) Len() int {
	return s.buffer.Len()
}

func (s *Sound) Duration() time.Duration {
	return s.buffer.Format().SampleRate.D(s.buffer.Len())
}
