// Package runtime hosts a compiled game module.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Host modules must exist before the game is compiled
//	if err := rt.RegisterAudio(ctx, audio.NewLoader(device, nil)); err != nil {
//	    log.Fatal(err)
//	}
//
//	game, err := rt.LoadGame(ctx, wasmBytes)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = game.Start(ctx, bootstrap.StartArgs{Width: 800, Height: 600})
//
// Usually the game is driven by a bootstrap.Bootstrap through Loader, which
// fetches and loads the module on the bootstrap's schedule.
//
// # Entry Point
//
// The game exports "start" in one of two shapes, lowered with the
// canonical ABI:
//
//	start(width: u32, height: u32, frozen: list<string>)
//	start(entry: string, width: u32, height: u32, frozen: list<string>)
//
// The second shape makes the game a named-entry module. Strings and lists
// are copied into guest memory through its cabi_realloc export.
//
// # Audio Host Module
//
// RegisterAudio installs "gamehost:audio":
//
//	load-sound(path_ptr: i32, path_len: i32) -> i32   handle, -1 on failure
//	play-sound(handle: i32, volume: f32)
//	drop-sound(handle: i32)
//
// Handles index a per-runtime table. Failures are logged, never trapped.
package runtime
