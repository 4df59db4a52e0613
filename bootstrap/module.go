package bootstrap

import (
	"context"
	"sync"
)

// StartArgs are the arguments of a module's start entry, in call order.
type StartArgs struct {
	Entry         string
	Width         uint32
	Height        uint32
	FrozenModules []string
	NamedEntry    bool
}

// Module is a loaded executable unit.
type Module interface {
	Start(ctx context.Context, args StartArgs) error
}

// EntryPointer is implemented by modules that know whether their start
// entry takes a leading entry name.
type EntryPointer interface {
	NamedEntry() bool
}

// Loader obtains the module. It is called once per run.
type Loader interface {
	Load(ctx context.Context) (Module, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Module, error)

func (f LoaderFunc) Load(ctx context.Context) (Module, error) {
	return f(ctx)
}

// Registry holds the most recently loaded module for reuse outside the
// bootstrap, e.g. by tooling that inspects the running game.
type Registry struct {
	module Module
	mu     sync.RWMutex
}

// DefaultRegistry is used by bootstraps that do not set Options.Registry.
var DefaultRegistry = &Registry{}

// Publish stores m, replacing any earlier module.
func (r *Registry) Publish(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.module = m
}

// Module returns the published module, if any.
func (r *Registry) Module() (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.module, r.module != nil
}
