package runtime

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/gamehost/engine"
	"github.com/wippyai/gamehost/internal/wasmtest"
)

const observeModule = "test"

// startCall is what the guest's start forwarded to test#observe.
type startCall struct {
	entry  string
	width  uint32
	height uint32
	frozen []string
}

// observer records start arguments relayed by test games.
type observer struct {
	calls   []startCall
	handles []int32
	mu      sync.Mutex
}

func (o *observer) last() startCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[len(o.calls)-1]
}

func (o *observer) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func readList(t *testing.T, m api.Module, ptr, n uint32) []string {
	mem := engine.NewMemory(m.Memory())
	var out []string
	for i := uint32(0); i < n; i++ {
		sp, err := mem.ReadU32(ptr + i*8)
		require.NoError(t, err)
		sl, err := mem.ReadU32(ptr + i*8 + 4)
		require.NoError(t, err)
		s, err := mem.ReadString(sp, sl)
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func newTestRuntime(t *testing.T) (*Runtime, *observer) {
	t.Helper()
	ctx := context.Background()

	rt, err := New(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close(ctx) })

	obs := &observer{}
	_, err = rt.NewHostModule(observeModule).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, w, h, fp, fl uint32) {
			call := startCall{width: w, height: h, frozen: readList(t, m, fp, fl)}
			obs.mu.Lock()
			obs.calls = append(obs.calls, call)
			obs.mu.Unlock()
		}).
		Export("observe").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ep, el, w, h, fp, fl uint32) {
			entry, err := engine.NewMemory(m.Memory()).ReadString(ep, el)
			require.NoError(t, err)
			call := startCall{entry: entry, width: w, height: h, frozen: readList(t, m, fp, fl)}
			obs.mu.Lock()
			obs.calls = append(obs.calls, call)
			obs.mu.Unlock()
		}).
		Export("observe-named").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, handle int32) {
			obs.mu.Lock()
			obs.handles = append(obs.handles, handle)
			obs.mu.Unlock()
		}).
		Export("handle").
		Instantiate(ctx)
	require.NoError(t, err)

	return rt, obs
}

func i32s(n int) []byte {
	return bytes.Repeat([]byte{wasmtest.I32}, n)
}

// relayGame builds a game whose start forwards its arguments to
// test#observe (or test#observe-named).
func relayGame(named bool) []byte {
	n, name := 4, "observe"
	if named {
		n, name = 6, "observe-named"
	}

	b := wasmtest.New()
	observe := b.ImportFunc(observeModule, name, i32s(n), nil)
	b.Memory(1)
	b.BumpAllocator(1024)

	var body []byte
	for i := 0; i < n; i++ {
		body = append(body, wasmtest.LocalGet(uint32(i))...)
	}
	body = append(body, wasmtest.Call(observe)...)
	start := b.Func(i32s(n), nil, nil, body...)
	b.ExportFunc(StartExport, start)
	return b.Bytes()
}

// soundGame loads path through gamehost:audio, reports the handle to
// test#handle and plays it at volume.
func soundGame(path string, volume float32) []byte {
	b := wasmtest.New()
	load := b.ImportFunc(AudioModule, "load-sound", i32s(2), i32s(1))
	play := b.ImportFunc(AudioModule, "play-sound", []byte{wasmtest.I32, wasmtest.F32}, nil)
	report := b.ImportFunc(observeModule, "handle", i32s(1), nil)
	b.Memory(1)
	b.Data(16, []byte(path))
	b.BumpAllocator(1024)
	g := b.GlobalI32(0)

	body := wasmtest.Concat(
		wasmtest.I32Const(16), wasmtest.I32Const(int32(len(path))), wasmtest.Call(load),
		wasmtest.GlobalSet(g),
		wasmtest.GlobalGet(g), wasmtest.Call(report),
		wasmtest.GlobalGet(g), wasmtest.F32Const(volume), wasmtest.Call(play),
	)
	start := b.Func(i32s(4), nil, nil, body...)
	b.ExportFunc(StartExport, start)
	return b.Bytes()
}

type fakeDevice struct {
	connected []beep.Streamer
	mu        sync.Mutex
}

func (d *fakeDevice) SampleRate() beep.SampleRate { return 44100 }

func (d *fakeDevice) Connect(s beep.Streamer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = append(d.connected, s)
	return nil
}

// monoWAV encodes n frames of a constant 16-bit sample at 44.1kHz.
func monoWAV(n int, sample int16) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+n*2))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1))
	_ = binary.Write(&b, binary.LittleEndian, uint32(44100))
	_ = binary.Write(&b, binary.LittleEndian, uint32(44100*2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(2))
	_ = binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(n*2))
	for i := 0; i < n; i++ {
		_ = binary.Write(&b, binary.LittleEndian, sample)
	}
	return b.Bytes()
}
