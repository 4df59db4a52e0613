package runtime

import (
	"context"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost/bootstrap"
	"github.com/wippyai/gamehost/engine"
	"github.com/wippyai/gamehost/errors"
)

// StartExport is the game's entry point export.
const StartExport = "start"

var (
	startParams      = []wit.Type{wit.U32{}, wit.U32{}, engine.StringList()}
	namedStartParams = []wit.Type{wit.String{}, wit.U32{}, wit.U32{}, engine.StringList()}
)

// Game is an instantiated game module whose entry point has not been, or
// has been exactly once, invoked.
type Game struct {
	module   *engine.WazeroModule
	instance *engine.WazeroInstance
	start    api.Function
	named    bool
	started  bool
	mu       sync.Mutex
}

// LoadGame compiles and instantiates a game. The start export must match
// one of the two entry shapes; anything else is a type_mismatch.
func (r *Runtime) LoadGame(ctx context.Context, wasm []byte) (*Game, error) {
	mod, err := r.engine.Compile(ctx, wasm)
	if err != nil {
		return nil, err
	}

	def := mod.ExportedFunction(StartExport)
	if def == nil {
		_ = mod.Close(ctx)
		return nil, errors.NotFound(errors.PhaseLoad, "export", StartExport)
	}

	var named bool
	switch {
	case engine.MatchSignature(def, startParams):
	case engine.MatchSignature(def, namedStartParams):
		named = true
	default:
		_ = mod.Close(ctx)
		return nil, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
			Path(StartExport).
			Got(describeSignature(def)).
			Want("func(u32, u32, list<string>) or func(string, u32, u32, list<string>)").
			Detail("unexpected entry point signature").
			Build()
	}

	inst, err := mod.Instantiate(ctx, nil)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	engine.Logger().Debug("game loaded",
		zap.Bool("named_entry", named),
		zap.Strings("exports", mod.ExportNames()))

	return &Game{
		module:   mod,
		instance: inst,
		start:    inst.Function(StartExport),
		named:    named,
	}, nil
}

// NamedEntry reports whether start takes an entry-module name.
func (g *Game) NamedEntry() bool {
	return g.named
}

// Start invokes the entry point. A game starts at most once; the entry
// name in args is passed only to named-entry games.
func (g *Game) Start(ctx context.Context, args bootstrap.StartArgs) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.instance == nil {
		return errors.InvalidInput(errors.PhaseStart, "game is closed")
	}
	if g.started {
		return errors.AlreadyRun("game start")
	}
	g.started = true

	types, vals := startParams, []any{args.Width, args.Height, args.FrozenModules}
	if g.named {
		types = namedStartParams
		vals = append([]any{args.Entry}, vals...)
	}

	flat, err := g.instance.Lower(ctx, types, vals)
	if err != nil {
		return err
	}

	if _, err := g.start.Call(ctx, flat...); err != nil {
		return errors.New(errors.PhaseStart, errors.KindTrap).
			Cause(err).
			Detail("%s trapped", StartExport).
			Build()
	}
	return nil
}

// Started reports whether Start has been called.
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Close releases the instance and compiled code.
func (g *Game) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.instance == nil {
		return nil
	}
	err := g.instance.Close(ctx)
	g.instance = nil
	if cerr := g.module.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func describeSignature(def api.FunctionDefinition) string {
	var b strings.Builder
	b.WriteString("func(")
	for i, t := range def.ParamTypes() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(api.ValueTypeName(t))
	}
	b.WriteString(")")
	if results := def.ResultTypes(); len(results) > 0 {
		b.WriteString(" ")
		for i, t := range results {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(api.ValueTypeName(t))
		}
	}
	return b.String()
}

var (
	_ bootstrap.Module       = (*Game)(nil)
	_ bootstrap.EntryPointer = (*Game)(nil)
)
