package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/wippyai/gamehost/errors"
)

// Watch fills cell from the YAML file at path as soon as a valid version
// of it exists: immediately if it is already there, otherwise when it is
// created or written. It returns after the first successful Set, when ctx
// is done, or when the watcher fails. Invalid intermediate writes are
// logged and skipped.
func Watch(ctx context.Context, path string, cell *Cell, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindLoadFailure, err, "create watcher")
	}
	defer w.Close()

	// Watch the directory: the file may not exist yet, and editors replace
	// files by rename.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindLoadFailure, err, "watch "+dir)
	}

	if tryLoad(path, cell, log) {
		return nil
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if tryLoad(path, cell, log) {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(errors.PhaseConfig, errors.KindLoadFailure, err, "watch "+path)
		}
	}
}

func tryLoad(path string, cell *Cell, log *zap.Logger) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	cfg, err := LoadFile(path)
	if err != nil {
		log.Debug("runtime config not usable yet", zap.String("path", path), zap.Error(err))
		return false
	}
	if cell.Set(cfg) {
		log.Info("runtime config delivered",
			zap.String("path", path),
			zap.Uint32("width", cfg.Width),
			zap.Uint32("height", cfg.Height),
			zap.Strings("frozen_modules", cfg.FrozenModules))
	}
	return true
}
