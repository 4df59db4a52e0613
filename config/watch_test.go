package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatch_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 800\nheight: 600\n"), 0o644))

	cell := NewCell()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, Watch(ctx, path, cell, zaptest.NewLogger(t)))
	cfg, ok := cell.Get()
	require.True(t, ok)
	require.Equal(t, uint32(800), cfg.Width)
}

func TestWatch_LateArrival(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")

	cell := NewCell()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, cell, zaptest.NewLogger(t)) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	_, ok := cell.Get()
	require.False(t, ok)

	// An unrelated file is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("width: 1\nheight: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("width: 640\nheight: 480\nfrozen_modules: [a]\n"), 0o644))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not deliver the config")
	}

	cfg, ok := cell.Get()
	require.True(t, ok)
	require.Equal(t, RuntimeConfig{Width: 640, Height: 480, FrozenModules: []string{"a"}}, cfg)
}

func TestWatch_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	cell := NewCell()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, filepath.Join(dir, "never.yaml"), cell, nil) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop on cancel")
	}
	_, ok := cell.Get()
	require.False(t, ok)
}
