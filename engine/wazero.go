package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost"
	"github.com/wippyai/gamehost/errors"
)

// WazeroEngine owns the wazero runtime every guest and host module of a
// game lives in.
type WazeroEngine struct {
	runtime      wazero.Runtime
	cfg          Config
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// Stdout and Stderr receive guest WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// NewWazeroEngine creates a new wazero-based engine
func NewWazeroEngine(ctx context.Context) (*WazeroEngine, error) {
	return NewWazeroEngineWithConfig(ctx, nil)
}

// NewWazeroEngineWithConfig creates a new engine with custom configuration.
// Guest calls are interrupted when their context is done.
func NewWazeroEngineWithConfig(ctx context.Context, cfg *Config) (*WazeroEngine, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)

	e := &WazeroEngine{}
	if cfg != nil {
		e.cfg = *cfg
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e, nil
}

// Close releases the runtime and every module instantiated in it.
func (e *WazeroEngine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// NewHostModule starts a host module definition. Host modules must be
// instantiated before compiling guests that import them.
func (e *WazeroEngine) NewHostModule(name string) wazero.HostModuleBuilder {
	return e.runtime.NewHostModuleBuilder(name)
}

// HasModule reports whether a module with that name is instantiated.
func (e *WazeroEngine) HasModule(name string) bool {
	return e.runtime.Module(name) != nil
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls.
func (e *WazeroEngine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasiModuleName) != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := instantiateWASI(ctx, e.runtime); err != nil {
		if e.runtime.Module(wasiModuleName) == nil {
			return fmt.Errorf("instantiate WASI: %w", err)
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// Compile validates and compiles a core module. WASI is instantiated
// first when the module imports it.
func (e *WazeroEngine) Compile(ctx context.Context, wasm []byte) (*WazeroModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.LoadFailure(errors.PhaseLoad, "compile module", err)
	}

	for _, def := range compiled.ImportedFunctions() {
		if ns, _, ok := def.Import(); ok && ns == wasiModuleName {
			if err := e.InitWASI(ctx); err != nil {
				_ = compiled.Close(ctx)
				return nil, errors.LoadFailure(errors.PhaseLoad, "init WASI", err)
			}
			break
		}
	}

	return &WazeroModule{engine: e, compiled: compiled}, nil
}

// WazeroModule is a compiled guest module
type WazeroModule struct {
	engine   *WazeroEngine
	compiled wazero.CompiledModule
}

// MissingImports lists imported functions no instantiated module exports,
// as "namespace#function".
func (m *WazeroModule) MissingImports() []string {
	var missing []string
	for _, def := range m.compiled.ImportedFunctions() {
		ns, name, ok := def.Import()
		if !ok {
			continue
		}
		mod := m.engine.runtime.Module(ns)
		if mod == nil || mod.ExportedFunction(name) == nil {
			missing = append(missing, ns+"#"+name)
		}
	}
	return missing
}

// ExportedFunction returns the definition of an exported function, or nil.
func (m *WazeroModule) ExportedFunction(name string) api.FunctionDefinition {
	return m.compiled.ExportedFunctions()[name]
}

// ExportNames lists exported function names.
func (m *WazeroModule) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Close releases the compiled code.
func (m *WazeroModule) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// InstanceConfig holds configuration for module instantiation
type InstanceConfig struct {
	// Name registers the instance under that name so other modules can
	// import from it. Empty keeps it anonymous.
	Name string
	Args []string
	Env  map[string]string
}

// Instantiate links the module against the runtime and runs _initialize
// if the module exports it. Unresolved imports fail with a
// MissingImportsError.
func (m *WazeroModule) Instantiate(ctx context.Context, cfg *InstanceConfig) (*WazeroInstance, error) {
	if missing := m.MissingImports(); len(missing) > 0 {
		return nil, errors.NewMissingImportsError(missing)
	}

	modConfig := wazero.NewModuleConfig().
		WithStartFunctions("_initialize").
		WithSysWalltime().
		WithSysNanotime()
	if w := m.engine.cfg.Stdout; w != nil {
		modConfig = modConfig.WithStdout(w)
	}
	if w := m.engine.cfg.Stderr; w != nil {
		modConfig = modConfig.WithStderr(w)
	}
	if cfg != nil {
		modConfig = modConfig.WithName(cfg.Name)
		if len(cfg.Args) > 0 {
			modConfig = modConfig.WithArgs(cfg.Args...)
		}
		for k, v := range cfg.Env {
			modConfig = modConfig.WithEnv(k, v)
		}
	} else {
		modConfig = modConfig.WithName("")
	}

	instance, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst := &WazeroInstance{
		module:    m,
		instance:  instance,
		funcCache: make(map[string]api.Function),
	}
	if mem := instance.Memory(); mem != nil {
		inst.memory = &WazeroMemory{mem: mem}
	}
	inst.alloc = newAllocator(instance)

	Logger().Debug("module instantiated",
		zap.String("name", instance.Name()),
		zap.Bool("memory", inst.memory != nil),
		zap.Bool("allocator", inst.alloc != nil))

	return inst, nil
}

// WazeroInstance is an instantiated guest module. Calls into one instance
// must not overlap; callers serialize them.
type WazeroInstance struct {
	module    *WazeroModule
	instance  api.Module
	memory    *WazeroMemory
	alloc     *wazeroAllocator
	funcCache map[string]api.Function
	mu        sync.Mutex
}

// Function returns an exported function, or nil.
func (i *WazeroInstance) Function(name string) api.Function {
	i.mu.Lock()
	defer i.mu.Unlock()
	if fn, ok := i.funcCache[name]; ok {
		return fn
	}
	fn := i.instance.ExportedFunction(name)
	if fn != nil {
		i.funcCache[name] = fn
	}
	return fn
}

// Memory returns the exported memory, or nil when the module has none.
func (i *WazeroInstance) Memory() *WazeroMemory {
	return i.memory
}

// Allocator returns the discovered allocator, or nil.
func (i *WazeroInstance) Allocator() gamehost.Allocator {
	if i.alloc == nil {
		return nil
	}
	return i.alloc
}

// Name is the instance's registered name.
func (i *WazeroInstance) Name() string {
	return i.instance.Name()
}

func (i *WazeroInstance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	i.memory = nil
	i.alloc = nil
	i.funcCache = nil
	return err
}

// wazeroAllocator calls the guest's exported allocator.
type wazeroAllocator struct {
	allocFn  api.Function
	stackBuf []uint64
	simple   bool
	mu       sync.Mutex
}

func newAllocator(instance api.Module) *wazeroAllocator {
	defs := instance.ExportedFunctionDefinitions()
	for _, name := range []string{CabiRealloc, legacyRealloc, legacyAlloc, simpleAlloc} {
		def, ok := defs[name]
		if !ok {
			continue
		}
		return &wazeroAllocator{
			allocFn:  instance.ExportedFunction(name),
			stackBuf: make([]uint64, 4),
			simple:   len(def.ParamTypes()) < 4,
		}
	}
	return nil
}

func (a *wazeroAllocator) Alloc(ctx context.Context, size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.simple {
		a.stackBuf[0] = uint64(size)
		if err := a.allocFn.CallWithStack(ctx, a.stackBuf[:1]); err != nil {
			return 0, err
		}
		return uint32(a.stackBuf[0]), nil
	}
	a.stackBuf[0] = 0
	a.stackBuf[1] = 0
	a.stackBuf[2] = uint64(align)
	a.stackBuf[3] = uint64(size)
	if err := a.allocFn.CallWithStack(ctx, a.stackBuf[:4]); err != nil {
		return 0, err
	}
	return uint32(a.stackBuf[0]), nil
}

// WazeroMemory wraps wazero memory to implement gamehost.Memory
type WazeroMemory struct {
	mem api.Memory
}

// NewMemory wraps a guest memory, e.g. the caller's inside a host function.
func NewMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

func (m *WazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Detail("read out of bounds: offset=%d, length=%d", offset, length).
			Build()
	}
	return data, nil
}

func (m *WazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return errors.New(errors.PhaseHost, errors.KindOutOfBounds).
			Detail("write out of bounds: offset=%d, length=%d", offset, len(data)).
			Build()
	}
	return nil
}

func (m *WazeroMemory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseHost, nil, int(offset), int(m.mem.Size()))
	}
	return val, nil
}

func (m *WazeroMemory) WriteU32(offset uint32, value uint32) error {
	if !m.mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseHost, nil, int(offset), int(m.mem.Size()))
	}
	return nil
}

// ReadString copies a guest string out of memory.
func (m *WazeroMemory) ReadString(ptr, length uint32) (string, error) {
	data, err := m.Read(ptr, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements gamehost.Memory and MemorySizer
var _ gamehost.Memory = (*WazeroMemory)(nil)
var _ gamehost.MemorySizer = (*WazeroMemory)(nil)

// Compile-time check that wazeroAllocator implements gamehost.Allocator
var _ gamehost.Allocator = (*wazeroAllocator)(nil)
