package bootstrap

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost/config"
	"github.com/wippyai/gamehost/errors"
)

var tracer = otel.Tracer("github.com/wippyai/gamehost/bootstrap")

// State is the bootstrap's position in its state machine.
type State int32

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateStarted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStarted:
		return "started"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Options configure a Bootstrap. The zero value is the permissive
// variant: no named entry unless the module reports one, absent
// configuration is not an error.
type Options struct {
	// OnLoaded is notified once the module has loaded, before any start.
	OnLoaded func()

	// OnUnhandled receives the error of a failed detached run (Go).
	OnUnhandled func(error)

	// Registry receives the loaded module. Nil uses DefaultRegistry.
	Registry *Registry

	// Logger is the diagnostic channel. Nil discards.
	Logger *zap.Logger

	// NamedEntry passes the configured entry module as the first start
	// argument for modules that do not implement EntryPointer.
	NamedEntry bool

	// RequireConfig fails the run when configuration is absent at ready
	// time instead of stopping quietly in Ready.
	RequireConfig bool
}

// Bootstrap runs the load-then-start sequence for one module.
type Bootstrap struct {
	loader Loader
	config config.Source
	opts   Options
	log    *zap.Logger
	module Module
	mu     sync.Mutex
	state  atomic.Int32
	ran    atomic.Bool
}

// New creates a bootstrap. A nil source behaves like config.None.
func New(loader Loader, source config.Source, opts Options) *Bootstrap {
	if source == nil {
		source = config.None()
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Bootstrap{
		loader: loader,
		config: source,
		opts:   opts,
		log:    log,
	}
}

// State reports the current state.
func (b *Bootstrap) State() State {
	return State(b.state.Load())
}

// Module returns the loaded module once the run has passed Loading.
func (b *Bootstrap) Module() (Module, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.module, b.module != nil
}

// Run executes the sequence. It may be called once; later calls return an
// already_run error without side effects. A nil error means the run ended
// in Started, or in Ready when configuration was absent and not required.
func (b *Bootstrap) Run(ctx context.Context) error {
	if !b.ran.CompareAndSwap(false, true) {
		return errors.AlreadyRun("bootstrap")
	}

	runID := uuid.NewString()
	log := b.log.With(zap.String("run", runID))

	ctx, span := tracer.Start(ctx, "bootstrap.Run", trace.WithAttributes(attribute.String("bootstrap.run", runID)))
	defer span.End()

	b.setState(StateLoading)
	log.Debug("loading module")

	mod, err := b.loader.Load(ctx)
	if err != nil {
		if !errors.IsKind(err, errors.KindLoadFailure) {
			err = errors.LoadFailure(errors.PhaseLoad, "load module", err)
		}
		return b.fail(span, log, "error while loading module", err)
	}
	if mod == nil {
		return b.fail(span, log, "error while loading module",
			errors.LoadFailure(errors.PhaseLoad, "loader returned no module", nil))
	}

	b.mu.Lock()
	b.module = mod
	b.mu.Unlock()
	b.setState(StateReady)
	span.AddEvent("ready")

	b.opts.Registry.Publish(mod)
	if b.opts.OnLoaded != nil {
		b.opts.OnLoaded()
	}

	cfg, ok := b.config.Get()
	if !ok {
		if b.opts.RequireConfig {
			return b.fail(span, log, "error while starting module", errors.ConfigMissing())
		}
		log.Info("runtime config absent at ready; module not started")
		return nil
	}

	args := b.startArgs(mod, cfg)
	span.SetAttributes(
		attribute.Int64("bootstrap.width", int64(args.Width)),
		attribute.Int64("bootstrap.height", int64(args.Height)),
		attribute.StringSlice("bootstrap.frozen_modules", args.FrozenModules),
		attribute.Bool("bootstrap.named_entry", args.NamedEntry),
	)

	if err := mod.Start(ctx, args); err != nil {
		return b.fail(span, log, "error while starting module", err)
	}

	b.setState(StateStarted)
	log.Info("module started",
		zap.Uint32("width", args.Width),
		zap.Uint32("height", args.Height),
		zap.Strings("frozen_modules", args.FrozenModules))
	return nil
}

func (b *Bootstrap) startArgs(mod Module, cfg config.RuntimeConfig) StartArgs {
	named := b.opts.NamedEntry
	if ep, ok := mod.(EntryPointer); ok {
		named = ep.NamedEntry()
	}
	args := StartArgs{
		Width:         cfg.Width,
		Height:        cfg.Height,
		FrozenModules: cfg.FrozenModules,
		NamedEntry:    named,
	}
	if named {
		args.Entry = cfg.EntryModule
	}
	return args
}

func (b *Bootstrap) fail(span trace.Span, log *zap.Logger, msg string, err error) error {
	b.setState(StateFailed)
	log.Error(msg, zap.Error(err))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (b *Bootstrap) setState(s State) {
	b.state.Store(int32(s))
}

// Task is a detached bootstrap run.
type Task struct {
	err  error
	done chan struct{}
}

// Go runs the bootstrap on its own goroutine. Nothing cancels it except
// ctx; a stalled load stalls the task.
func (b *Bootstrap) Go(ctx context.Context) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.err = b.Run(ctx)
		if t.err != nil && b.opts.OnUnhandled != nil {
			b.opts.OnUnhandled(t.err)
		}
	}()
	return t
}

// Done is closed when the run has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.err
}
