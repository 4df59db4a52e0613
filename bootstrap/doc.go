// Package bootstrap starts a compiled game module exactly once.
//
// A Bootstrap obtains the module through a Loader (the only suspension
// point), then, synchronously:
//
//  1. publishes the module to a Registry,
//  2. invokes the OnLoaded notification,
//  3. reads the runtime configuration once and, if present, calls the
//     module's start entry with (entry?, width, height, frozen modules).
//
// The notification always precedes start, so observers can react to
// "module present" independently of "module started".
//
// # States
//
//	Loading ──load ok──▶ Ready ──config present, start ok──▶ Started
//	   │                   │
//	   └──load error──▶ Failed ◀──start error / config required──┘
//
// Ready without configuration is final: nothing polls for configuration
// that arrives later.
//
// # Variants
//
// Two capability flags replace per-variant code paths. A named entry is
// passed when the module reports EntryPointer.NamedEntry, or when
// Options.NamedEntry is set for modules that do not report it.
// Options.RequireConfig turns absent configuration into a failure instead
// of a quiet stop in Ready.
//
// # Errors
//
// Failures are logged once at Error level on the configured zap logger and
// returned to the caller. Detached runs started with Go also hand the error
// to Options.OnUnhandled.
package bootstrap
