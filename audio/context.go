package audio

import (
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/wippyai/gamehost/errors"
)

// Context owns the destination one Sound plays into. Each Load creates
// exactly one Context; contexts are never shared or pooled.
type Context struct {
	device Device
	dest   *destination
	once   sync.Once
	err    error
}

func newContext(device Device) *Context {
	return &Context{
		device: device,
		dest:   &destination{},
	}
}

// SampleRate is the rate decoded buffers are converted to.
func (c *Context) SampleRate() beep.SampleRate {
	return c.device.SampleRate()
}

// Destination returns the mixing point plays are routed to. It streams
// silence when nothing is playing.
func (c *Context) Destination() beep.Streamer {
	return c.dest
}

// Active reports how many plays are still routed to the destination.
func (c *Context) Active() int {
	return c.dest.Len()
}

// open connects the destination to the device. Called once, after a
// successful decode, so failed loads never reach the output.
func (c *Context) open() error {
	c.once.Do(func() {
		if err := c.device.Connect(c.dest); err != nil {
			c.err = errors.LoadFailure(errors.PhaseLoad, "connect audio output", err)
		}
	})
	return c.err
}

// destination is a mixer guarded for concurrent Add from Play while the
// device goroutine streams it.
type destination struct {
	mixer beep.Mixer
	mu    sync.Mutex
}

func (d *destination) Stream(samples [][2]float64) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mixer.Stream(samples)
}

func (d *destination) Err() error {
	return nil
}

func (d *destination) add(s beep.Streamer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mixer.Add(s)
}

func (d *destination) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mixer.Len()
}
