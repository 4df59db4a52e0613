package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/wippyai/gamehost/fetch"
)

// fakeDevice records connected destinations instead of playing them.
type fakeDevice struct {
	err       error
	connected []beep.Streamer
	rate      beep.SampleRate
	mu        sync.Mutex
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{rate: 44100}
}

func (d *fakeDevice) SampleRate() beep.SampleRate {
	return d.rate
}

func (d *fakeDevice) Connect(s beep.Streamer) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = append(d.connected, s)
	return nil
}

func (d *fakeDevice) connections() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.connected)
}

// memFetcher serves payloads from a map keyed by path.
func memFetcher(files map[string][]byte) fetch.Fetcher {
	return fetch.FetcherFunc(func(_ context.Context, path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			_, err := fetch.Fetch(context.Background(), "/nonexistent/"+path)
			return nil, err
		}
		return data, nil
	})
}

// pcm16WAV encodes frames as a 16-bit PCM RIFF/WAVE payload. Mono files
// take the left channel of each frame.
func pcm16WAV(rate, channels int, frames [][2]float64) []byte {
	dataLen := len(frames) * channels * 2

	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate*channels*2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(channels*2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(dataLen))

	for _, f := range frames {
		for c := 0; c < channels; c++ {
			_ = binary.Write(&b, binary.LittleEndian, toInt16(f[c]))
		}
	}
	return b.Bytes()
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(v * math.MaxInt16)
}

func constantFrames(n int, v float64) [][2]float64 {
	frames := make([][2]float64, n)
	for i := range frames {
		frames[i] = [2]float64{v, v}
	}
	return frames
}
