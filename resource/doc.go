// Package resource maps guest-visible integer handles to host values.
//
// Game code never sees host objects directly. The host inserts a value and
// passes the handle across the wasm boundary; later calls resolve the handle
// back to the value:
//
//	sounds := resource.NewTable[*audio.Sound]()
//	h := sounds.Insert(snd)      // h >= 1
//	snd, ok := sounds.Get(h)
//	sounds.Remove(h)
//
// Handle 0 is never issued, so guests can use it as "no handle".
// Handles are not reused within a table.
//
// Observers receive an Event for every insert and remove, which the runtime
// uses for debug logging.
package resource
