package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in the host the error occurred
type Phase string

const (
	PhaseFetch       Phase = "fetch"       // byte retrieval
	PhaseDecode      Phase = "decode"      // audio decoding
	PhaseLoad        Phase = "load"        // module compilation and loading
	PhaseInstantiate Phase = "instantiate" // module instantiation
	PhaseConfig      Phase = "config"      // runtime configuration
	PhaseStart       Phase = "start"       // entry point invocation
	PhaseHost        Phase = "host"        // host function calls from the guest
)

// Kind categorizes the error
type Kind string

const (
	KindLoadFailure   Kind = "load_failure"
	KindDecodeFailure Kind = "decode_failure"
	KindConfigMissing Kind = "config_missing"
	KindInvalidConfig Kind = "invalid_config"
	KindNotFound      Kind = "not_found"
	KindTypeMismatch  Kind = "type_mismatch"
	KindInvalidInput  Kind = "invalid_input"
	KindInstantiation Kind = "instantiation"
	KindAlreadyRun    Kind = "already_run"
	KindOutOfBounds   Kind = "out_of_bounds"
	KindAllocation    Kind = "allocation"
	KindTrap          Kind = "trap"
)

// Error is the structured error type used throughout the host.
//
// Got and Want carry the two sides of a mismatch: the entry point signature
// a module exports against the one the host calls, or the Go value handed
// to the lowering code against the parameter type it was lowered into.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Got    string
	Want   string
	Detail string
	Path   []string
}

// Error renders "phase kind at path: detail (got X, want Y): cause",
// omitting whatever is unset.
func (e *Error) Error() string {
	msg := string(e.Phase) + " " + string(e.Kind)
	if len(e.Path) > 0 {
		msg += " at " + strings.Join(e.Path, ".")
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Got != "" && e.Want != "":
		msg += fmt.Sprintf(" (got %s, want %s)", e.Got, e.Want)
	case e.Got != "":
		msg += " (got " + e.Got + ")"
	case e.Want != "":
		msg += " (want " + e.Want + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same phase and kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Phase == t.Phase && e.Kind == t.Kind
}

// IsKind reports whether any *Error in err's chain has the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder assembles an Error field by field.
type Builder struct {
	err Error
}

func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder { b.err.Path = path; return b }
func (b *Builder) Got(s string) *Builder        { b.err.Got = s; return b }
func (b *Builder) Want(s string) *Builder       { b.err.Want = s; return b }
func (b *Builder) Value(v any) *Builder         { b.err.Value = v; return b }
func (b *Builder) Cause(err error) *Builder     { b.err.Cause = err; return b }

// Detail sets the message, formatting it when args are given.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	b.err.Detail = msg
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// LoadFailure creates a retrieval failure: network, filesystem or module load.
func LoadFailure(phase Phase, detail string, cause error) *Error {
	return &Error{Phase: phase, Kind: KindLoadFailure, Detail: detail, Cause: cause}
}

// DecodeFailure creates a malformed or unsupported payload error
func DecodeFailure(detail string, cause error) *Error {
	return &Error{Phase: PhaseDecode, Kind: KindDecodeFailure, Detail: detail, Cause: cause}
}

// ConfigMissing reports that runtime configuration was absent when it was read
func ConfigMissing() *Error {
	return &Error{Phase: PhaseConfig, Kind: KindConfigMissing, Detail: "runtime configuration not set"}
}

func InvalidConfig(path []string, detail string) *Error {
	return &Error{Phase: PhaseConfig, Kind: KindInvalidConfig, Path: path, Detail: detail}
}

// TypeMismatch reports a value or signature that does not fit the type the
// host expects at path.
func TypeMismatch(phase Phase, path []string, got, want string) *Error {
	return &Error{Phase: phase, Kind: KindTypeMismatch, Path: path, Got: got, Want: want}
}

// OutOfBounds reports a guest memory access past the end of linear memory.
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

func NotFound(phase Phase, what, name string) *Error {
	return &Error{Phase: phase, Kind: KindNotFound, Detail: fmt.Sprintf("%s %q not found", what, name)}
}

func InvalidInput(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidInput, Detail: detail}
}

func Instantiation(cause error) *Error {
	return &Error{Phase: PhaseInstantiate, Kind: KindInstantiation, Detail: "instantiate module", Cause: cause}
}

// AlreadyRun reports a second run of a one-shot procedure
func AlreadyRun(what string) *Error {
	return &Error{Phase: PhaseStart, Kind: KindAlreadyRun, Detail: what + " already ran"}
}

func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

// MissingImport is one host function a game module imports but the runtime
// does not provide.
type MissingImport struct {
	Namespace string // e.g. "gamehost:audio"
	Function  string // e.g. "play-sound"
}

func (m MissingImport) String() string {
	if m.Function == "" {
		return m.Namespace
	}
	return m.Namespace + "#" + symbolName(m.Function)
}

// MissingImportsError is returned when instantiation would leave imports
// unresolved.
type MissingImportsError struct {
	Imports []MissingImport
}

// NewMissingImportsError parses "namespace#function" keys.
func NewMissingImportsError(keys []string) *MissingImportsError {
	imports := make([]MissingImport, 0, len(keys))
	for _, key := range keys {
		ns, fn, _ := strings.Cut(key, "#")
		imports = append(imports, MissingImport{Namespace: ns, Function: fn})
	}
	return &MissingImportsError{Imports: imports}
}

// Error lists the imports on one line in the order they were reported.
func (e *MissingImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "load missing_import: none reported"
	}
	names := make([]string, len(e.Imports))
	for i, imp := range e.Imports {
		names[i] = imp.String()
	}
	return fmt.Sprintf("load missing_import: %d host function(s) not provided: %s",
		len(names), strings.Join(names, ", "))
}

func (e *MissingImportsError) Is(target error) bool {
	_, ok := target.(*MissingImportsError)
	return ok
}

// symbolName turns a legacy-mangled Rust symbol (_ZN<len><ident>...E) into
// a::b::c, dropping the trailing hash segment. Anything else is returned as is.
func symbolName(sym string) string {
	rest, ok := strings.CutPrefix(sym, "_ZN")
	if !ok {
		return sym
	}
	var parts []string
	for rest != "" && rest[0] != 'E' {
		digits := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
		if digits <= 0 {
			break
		}
		n, err := strconv.Atoi(rest[:digits])
		if err != nil || n > len(rest)-digits {
			break
		}
		ident := rest[digits : digits+n]
		rest = rest[digits+n:]
		if !isHashSegment(ident) {
			parts = append(parts, ident)
		}
	}
	if len(parts) == 0 {
		return sym
	}
	return strings.Join(parts, "::")
}

// isHashSegment matches the h<16 hex digits> disambiguator rustc appends.
func isHashSegment(ident string) bool {
	if len(ident) != 17 || ident[0] != 'h' {
		return false
	}
	_, err := strconv.ParseUint(ident[1:], 16, 64)
	return err == nil
}
