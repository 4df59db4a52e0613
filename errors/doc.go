// Package errors provides structured error types for the game host.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The two kinds callers usually branch on are KindLoadFailure (bytes or module could
// not be obtained) and KindDecodeFailure (audio payload malformed or unsupported).
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStart, errors.KindTypeMismatch).
//		Path("start", "frozen_modules").
//		Want("list<string>").
//		Detail("expected i32 pair").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.LoadFailure(errors.PhaseFetch, "GET /sfx/jump.wav", cause)
//	err := errors.DecodeFailure("unknown container", nil)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on kind alone, across the cause chain.
package errors
