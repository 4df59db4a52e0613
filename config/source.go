package config

import "sync"

// Source yields the runtime configuration if it has been provided.
// Get never blocks.
type Source interface {
	Get() (RuntimeConfig, bool)
}

type staticSource struct {
	cfg RuntimeConfig
}

// Static returns a Source that always has cfg.
func Static(cfg RuntimeConfig) Source {
	return staticSource{cfg: cfg.Clone()}
}

func (s staticSource) Get() (RuntimeConfig, bool) {
	return s.cfg.Clone(), true
}

type noneSource struct{}

// None returns a Source that never has a configuration.
func None() Source {
	return noneSource{}
}

func (noneSource) Get() (RuntimeConfig, bool) {
	return RuntimeConfig{}, false
}

// Cell is a write-once Source: the first Set wins, later ones are ignored.
// The zero value is empty and ready to use.
type Cell struct {
	cfg   *RuntimeConfig
	ready chan struct{}
	mu    sync.Mutex
}

// NewCell returns an empty cell.
func NewCell() *Cell {
	return &Cell{}
}

// Set stores cfg if the cell is still empty and reports whether it did.
func (c *Cell) Set(cfg RuntimeConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg != nil {
		return false
	}
	v := cfg.Clone()
	c.cfg = &v
	close(c.readyLocked())
	return true
}

// Get returns the stored configuration, if any.
func (c *Cell) Get() (RuntimeConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg == nil {
		return RuntimeConfig{}, false
	}
	return c.cfg.Clone(), true
}

// Ready is closed once the cell holds a configuration.
func (c *Cell) Ready() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readyLocked()
}

func (c *Cell) readyLocked() chan struct{} {
	if c.ready == nil {
		c.ready = make(chan struct{})
	}
	return c.ready
}
