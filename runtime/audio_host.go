package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost/audio"
	"github.com/wippyai/gamehost/engine"
	"github.com/wippyai/gamehost/errors"
	"github.com/wippyai/gamehost/resource"
)

// AudioModule is the import namespace of the audio host functions.
const AudioModule = "gamehost:audio"

// RegisterAudio installs the audio host module backed by loader.
// Must be called BEFORE loading games that import it.
func (r *Runtime) RegisterAudio(ctx context.Context, loader *audio.Loader) error {
	if loader == nil {
		return errors.InvalidInput(errors.PhaseHost, "audio loader is nil")
	}
	if r.engine.HasModule(AudioModule) {
		return errors.InvalidInput(errors.PhaseHost, AudioModule+" already registered")
	}

	h := &audioHost{loader: loader, sounds: r.sounds}
	_, err := r.engine.NewHostModule(AudioModule).
		NewFunctionBuilder().WithFunc(h.loadSound).Export("load-sound").
		NewFunctionBuilder().WithFunc(h.playSound).Export("play-sound").
		NewFunctionBuilder().WithFunc(h.dropSound).Export("drop-sound").
		Instantiate(ctx)
	if err != nil {
		return errors.Wrap(errors.PhaseHost, errors.KindInstantiation, err, "instantiate "+AudioModule)
	}
	return nil
}

type audioHost struct {
	loader *audio.Loader
	sounds *resource.Table[*audio.Sound]
}

func (h *audioHost) loadSound(ctx context.Context, m api.Module, ptr, length uint32) int32 {
	mem := m.Memory()
	if mem == nil {
		engine.Logger().Warn("load-sound: guest has no memory")
		return -1
	}
	path, err := engine.NewMemory(mem).ReadString(ptr, length)
	if err != nil {
		engine.Logger().Warn("load-sound: bad path", zap.Error(err))
		return -1
	}

	snd, err := h.loader.Load(ctx, path)
	if err != nil {
		engine.Logger().Warn("load-sound failed", zap.String("path", path), zap.Error(err))
		return -1
	}

	handle := h.sounds.Insert(snd)
	if handle == 0 {
		return -1
	}
	return int32(handle)
}

func (h *audioHost) playSound(_ context.Context, handle int32, volume float32) {
	snd, ok := h.lookup(handle)
	if !ok {
		engine.Logger().Warn("play-sound: unknown handle", zap.Int32("handle", handle))
		return
	}
	snd.Play(float64(volume))
}

func (h *audioHost) dropSound(_ context.Context, handle int32) {
	if handle <= 0 {
		return
	}
	h.sounds.Remove(resource.Handle(handle))
}

func (h *audioHost) lookup(handle int32) (*audio.Sound, bool) {
	if handle <= 0 {
		return nil, false
	}
	return h.sounds.Get(resource.Handle(handle))
}
