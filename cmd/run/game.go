package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/gamehost/audio"
	"github.com/wippyai/gamehost/bootstrap"
	"github.com/wippyai/gamehost/config"
	"github.com/wippyai/gamehost/engine"
	"github.com/wippyai/gamehost/runtime"
)

// session is everything one game run owns.
type session struct {
	rt     *runtime.Runtime
	loader *audio.Loader
	boot   *bootstrap.Bootstrap
	sounds []*audio.Sound
	log    *zap.Logger

	// cell and watchPath are set with --watch.
	cell      *config.Cell
	watchPath string
}

func runGame(ctx context.Context, s settings) error {
	log := newLogger(s.Debug)
	defer func() { _ = log.Sync() }()
	engine.SetLogger(log.Named("engine"))

	if s.Trace {
		shutdown, err := setupTracing(os.Stderr)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	sess, err := newSession(ctx, s, audio.NewSpeakerDevice(0, 0), log)
	if err != nil {
		return err
	}
	defer sess.close(context.Background())

	if s.Interactive {
		return runInteractive(ctx, sess, s)
	}

	if err := sess.run(ctx); err != nil {
		return err
	}
	log.Info("bootstrap finished", zap.Stringer("state", sess.boot.State()))
	return nil
}

func newSession(ctx context.Context, s settings, device audio.Device, log *zap.Logger) (*session, error) {
	rt, err := runtime.New(ctx, &engine.Config{Stdout: os.Stdout, Stderr: os.Stderr})
	if err != nil {
		return nil, err
	}
	sess := &session{rt: rt, loader: audio.NewLoader(device, nil), log: log}

	if err := rt.RegisterAudio(ctx, sess.loader); err != nil {
		sess.close(ctx)
		return nil, err
	}

	for _, path := range s.Sounds {
		snd, err := sess.loader.Load(ctx, path)
		if err != nil {
			sess.close(ctx)
			return nil, fmt.Errorf("preload %s: %w", path, err)
		}
		sess.sounds = append(sess.sounds, snd.WithVolume(s.Volume))
		log.Debug("clip loaded", zap.String("path", path), zap.Duration("duration", snd.Duration()))
	}

	source, err := configSource(s)
	if err != nil {
		sess.close(ctx)
		return nil, err
	}
	if cell, ok := source.(*config.Cell); ok {
		sess.cell, sess.watchPath = cell, s.Config
	}

	sess.boot = bootstrap.New(runtime.Loader(rt, s.Wasm, nil), source, bootstrap.Options{
		Logger:        log,
		NamedEntry:    s.NamedEntry,
		RequireConfig: s.RequireConfig,
		OnLoaded: func() {
			log.Info("game loaded", zap.String("wasm", s.Wasm))
		},
	})
	return sess, nil
}

// configSource resolves where the runtime configuration comes from. With
// --watch it is an empty Cell that run fills while the module loads.
func configSource(s settings) (config.Source, error) {
	if s.Config == "" {
		return config.None(), nil
	}
	if !s.Watch {
		cfg, err := config.LoadFile(s.Config)
		if err != nil {
			return nil, err
		}
		return config.Static(cfg), nil
	}

	return config.NewCell(), nil
}

// run executes the bootstrap. With --watch the config watcher runs
// alongside it and is stopped once the run returns.
func (s *session) run(ctx context.Context) error {
	if s.cell == nil {
		return s.boot.Run(ctx)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := config.Watch(watchCtx, s.watchPath, s.cell, s.log)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("config watch stopped", zap.String("path", s.watchPath), zap.Error(err))
		}
	}()

	s.log.Info("watching for configuration", zap.String("path", s.watchPath))
	err := s.boot.Run(ctx)
	cancel()
	wg.Wait()

	if err == nil && s.boot.State() == bootstrap.StateReady {
		s.log.Warn("configuration did not arrive before the game loaded; not started",
			zap.String("path", s.watchPath))
	}
	return err
}

func (s *session) close(ctx context.Context) {
	if s.boot != nil {
		if mod, ok := s.boot.Module(); ok {
			if g, ok := mod.(*runtime.Game); ok {
				_ = g.Close(ctx)
			}
		}
	}
	if err := s.rt.Close(ctx); err != nil {
		s.log.Warn("close runtime", zap.Error(err))
	}
}
