package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/gamehost/errors"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
entry_module: run
width: 800
height: 600
frozen_modules: [a, b]
`))
	require.NoError(t, err)
	require.Equal(t, RuntimeConfig{
		EntryModule:   "run",
		Width:         800,
		Height:        600,
		FrozenModules: []string{"a", "b"},
	}, cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		path string
	}{
		{"zero width", "height: 10", "width"},
		{"zero height", "width: 10", "height"},
		{"empty frozen entry", "width: 1\nheight: 1\nfrozen_modules: [a, '']", "frozen_modules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.True(t, errors.IsKind(err, errors.KindInvalidConfig), "got %v", err)
			require.Contains(t, err.Error(), tt.path)
		})
	}

	_, err := Parse([]byte("width: [not a number"))
	require.True(t, errors.IsKind(err, errors.KindInvalidConfig))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")

	want := RuntimeConfig{Width: 320, Height: 240, FrozenModules: []string{"util"}}
	data, err := Marshal(want)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	require.True(t, errors.IsKind(err, errors.KindLoadFailure))
}

func TestStaticAndNone(t *testing.T) {
	frozen := []string{"a"}
	src := Static(RuntimeConfig{Width: 1, Height: 2, FrozenModules: frozen})
	frozen[0] = "mutated"

	cfg, ok := src.Get()
	require.True(t, ok)
	require.Equal(t, []string{"a"}, cfg.FrozenModules, "static source must not alias the caller's slice")

	cfg.FrozenModules[0] = "changed"
	again, _ := src.Get()
	require.Equal(t, "a", again.FrozenModules[0])

	_, ok = None().Get()
	require.False(t, ok)
}

func TestCell_WriteOnce(t *testing.T) {
	var c Cell

	_, ok := c.Get()
	require.False(t, ok)
	select {
	case <-c.Ready():
		t.Fatal("ready closed before Set")
	default:
	}

	require.True(t, c.Set(RuntimeConfig{Width: 800, Height: 600}))
	require.False(t, c.Set(RuntimeConfig{Width: 1, Height: 1}))

	cfg, ok := c.Get()
	require.True(t, ok)
	require.Equal(t, uint32(800), cfg.Width)

	select {
	case <-c.Ready():
	default:
		t.Fatal("ready not closed after Set")
	}
}

func TestCell_ConcurrentSet(t *testing.T) {
	c := NewCell()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(w uint32) {
			defer wg.Done()
			if c.Set(RuntimeConfig{Width: w, Height: w}) {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}(uint32(i))
	}
	wg.Wait()
	require.Equal(t, 1, won)
}
