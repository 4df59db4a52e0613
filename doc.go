// Package gamehost runs separately compiled WebAssembly game modules and
// the short audio clips they play.
//
// # Architecture Overview
//
//	gamehost/            Root package with guest Memory and Allocator interfaces
//	├── bootstrap/       One-shot load-then-start state machine
//	├── runtime/         Game modules on top of the engine, audio host functions
//	├── engine/          wazero integration, allocator discovery, argument lowering
//	├── audio/           Clip loading (fetch, decode) and per-play gain routing
//	├── config/          Runtime configuration, write-once delivery, file watching
//	├── fetch/           Byte retrieval from URLs and files
//	├── resource/        Handle table for host objects referenced by guests
//	├── errors/          Structured error types
//	└── cmd/run/         Command-line host and interactive sound board
//
// # Quick Start
//
// Start a game once its configuration is known:
//
//	rt, err := runtime.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	cell := config.NewCell()
//	b := bootstrap.New(runtime.Loader(rt, "game.wasm", nil), cell, bootstrap.Options{
//	    OnLoaded: func() { fmt.Println("module loaded") },
//	    Logger:   logger,
//	})
//	task := b.Go(ctx)
//
//	cell.Set(config.RuntimeConfig{Width: 800, Height: 600})
//	if err := task.Wait(); err != nil {
//	    log.Fatal(err)
//	}
//
// Play a clip:
//
//	loader := audio.NewLoader(audio.NewSpeakerDevice(0, 0), nil)
//	jump, err := loader.Load(ctx, "sfx/jump.ogg")
//	if err != nil {
//	    return err
//	}
//	jump.Play(0.8)
//
// # Game Module Contract
//
// A game module is a core WebAssembly module exporting memory, an
// allocator (cabi_realloc or one of its legacy names) and a start function
// following the canonical ABI for either
//
//	start: func(width: u32, height: u32, frozen-modules: list<string>)
//	start: func(entry: string, width: u32, height: u32, frozen-modules: list<string>)
//
// The second form is detected from the export's signature and receives
// the configured entry module name.
//
// # Thread Safety
//
// Runtime and audio Loader are safe for concurrent use. A Game wraps one
// instance and serializes calls into it. Sound.Play may be called from any
// goroutine.
package gamehost
