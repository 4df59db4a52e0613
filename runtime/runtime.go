package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost/audio"
	"github.com/wippyai/gamehost/engine"
	"github.com/wippyai/gamehost/errors"
	"github.com/wippyai/gamehost/resource"
)

type Runtime struct {
	engine *engine.WazeroEngine
	sounds *resource.Table[*audio.Sound]
}

// New creates a runtime. A nil cfg uses engine defaults.
func New(ctx context.Context, cfg *engine.Config) (*Runtime, error) {
	eng, err := engine.NewWazeroEngineWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseLoad, "create engine", err)
	}

	sounds := resource.NewTable[*audio.Sound]()
	sounds.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		engine.Logger().Debug("sound handle",
			zap.Stringer("event", e.Type),
			zap.Uint32("handle", uint32(e.Handle)),
			zap.Int("live", e.Len))
	}))

	return &Runtime{
		engine: eng,
		sounds: sounds,
	}, nil
}

// Close releases all runtime resources.
// Games must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	_ = r.sounds.Close()
	return r.engine.Close(ctx)
}

// NewHostModule starts a custom host module. Instantiate it before
// loading games that import it.
func (r *Runtime) NewHostModule(name string) wazero.HostModuleBuilder {
	return r.engine.NewHostModule(name)
}

// Sounds is the table backing audio host handles.
func (r *Runtime) Sounds() *resource.Table[*audio.Sound] {
	return r.sounds
}

func (r *Runtime) Engine() *engine.WazeroEngine {
	return r.engine
}
