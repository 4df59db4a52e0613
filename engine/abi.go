package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/gamehost/errors"
)

const (
	CabiRealloc = "cabi_realloc"

	// Legacy names from pre-standardization component model implementations
	legacyRealloc = "canonical_abi_realloc"
	legacyAlloc   = "allocate"
	simpleAlloc   = "alloc"
)

// StringList is the WIT type list<string>.
func StringList() wit.Type {
	return &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}
}

// FlatCount returns the number of core values t lowers to, or 0 when t is
// not supported by Lower.
func FlatCount(t wit.Type) int {
	switch v := t.(type) {
	case wit.Bool, wit.U32, wit.S32, wit.F32:
		return 1
	case wit.String:
		return 2
	case *wit.TypeDef:
		if isStringList(v) {
			return 2
		}
	}
	return 0
}

// FlatParams returns the core value types a parameter list lowers to.
func FlatParams(types []wit.Type) ([]api.ValueType, error) {
	var out []api.ValueType
	for i, t := range types {
		switch FlatCount(t) {
		case 1:
			if _, ok := t.(wit.F32); ok {
				out = append(out, api.ValueTypeF32)
			} else {
				out = append(out, api.ValueTypeI32)
			}
		case 2:
			out = append(out, api.ValueTypeI32, api.ValueTypeI32)
		default:
			return nil, errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
				Path(fmt.Sprintf("param%d", i)).
				Got(fmt.Sprintf("%T", t)).
				Detail("unsupported parameter type").
				Build()
		}
	}
	return out, nil
}

// MatchSignature reports whether def's parameters are exactly the
// lowering of types and it returns nothing.
func MatchSignature(def api.FunctionDefinition, types []wit.Type) bool {
	want, err := FlatParams(types)
	if err != nil {
		return false
	}
	got := def.ParamTypes()
	if len(got) != len(want) || len(def.ResultTypes()) != 0 {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// Lower converts args to core values according to types, copying strings
// and lists into guest memory through the instance allocator.
func (i *WazeroInstance) Lower(ctx context.Context, types []wit.Type, args []any) ([]uint64, error) {
	if len(types) != len(args) {
		return nil, errors.InvalidInput(errors.PhaseStart,
			fmt.Sprintf("expected %d arguments, got %d", len(types), len(args)))
	}

	out := make([]uint64, 0, len(types)*2)
	for idx, t := range types {
		path := fmt.Sprintf("param%d", idx)
		arg := args[idx]

		switch t.(type) {
		case wit.U32:
			v, ok := arg.(uint32)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "u32")
			}
			out = append(out, api.EncodeU32(v))
		case wit.S32:
			v, ok := arg.(int32)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "s32")
			}
			out = append(out, api.EncodeI32(v))
		case wit.F32:
			v, ok := arg.(float32)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "f32")
			}
			out = append(out, api.EncodeF32(v))
		case wit.Bool:
			v, ok := arg.(bool)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "bool")
			}
			var b uint64
			if v {
				b = 1
			}
			out = append(out, b)
		case wit.String:
			s, ok := arg.(string)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "string")
			}
			ptr, n, err := i.LowerString(ctx, s)
			if err != nil {
				return nil, err
			}
			out = append(out, uint64(ptr), uint64(n))
		case *wit.TypeDef:
			if FlatCount(t) != 2 {
				return nil, errors.New(errors.PhaseStart, errors.KindTypeMismatch).
					Path(path).
					Detail("unsupported type definition").
					Build()
			}
			list, ok := arg.([]string)
			if !ok {
				return nil, errors.TypeMismatch(errors.PhaseStart, []string{path}, fmt.Sprintf("%T", arg), "list<string>")
			}
			ptr, n, err := i.LowerStringList(ctx, list)
			if err != nil {
				return nil, err
			}
			out = append(out, uint64(ptr), uint64(n))
		default:
			return nil, errors.New(errors.PhaseStart, errors.KindTypeMismatch).
				Path(path).
				Got(fmt.Sprintf("%T", arg)).
				Detail("unsupported parameter type %T", t).
				Build()
		}
	}
	return out, nil
}

// LowerString copies s into guest memory and returns (ptr, len).
// The empty string lowers to (0, 0) without allocating.
func (i *WazeroInstance) LowerString(ctx context.Context, s string) (uint32, uint32, error) {
	if len(s) == 0 {
		return 0, 0, nil
	}
	if len(s) > math.MaxUint32 {
		return 0, 0, errors.InvalidInput(errors.PhaseStart, "string too long")
	}
	ptr, err := i.allocate(ctx, uint32(len(s)), 1)
	if err != nil {
		return 0, 0, err
	}
	if err := i.memory.Write(ptr, []byte(s)); err != nil {
		return 0, 0, err
	}
	return ptr, uint32(len(s)), nil
}

// LowerStringList copies list into guest memory as an array of
// (ptr, len) i32 pairs and returns (array ptr, element count).
func (i *WazeroInstance) LowerStringList(ctx context.Context, list []string) (uint32, uint32, error) {
	if len(list) == 0 {
		return 0, 0, nil
	}
	arr, err := i.allocate(ctx, uint32(len(list))*8, 4)
	if err != nil {
		return 0, 0, err
	}
	for idx, s := range list {
		ptr, n, err := i.LowerString(ctx, s)
		if err != nil {
			return 0, 0, err
		}
		off := arr + uint32(idx)*8
		if err := i.memory.WriteU32(off, ptr); err != nil {
			return 0, 0, err
		}
		if err := i.memory.WriteU32(off+4, n); err != nil {
			return 0, 0, err
		}
	}
	return arr, uint32(len(list)), nil
}

func (i *WazeroInstance) allocate(ctx context.Context, size, align uint32) (uint32, error) {
	if i.memory == nil {
		return 0, errors.NotFound(errors.PhaseStart, "export", "memory")
	}
	if i.alloc == nil {
		return 0, errors.NotFound(errors.PhaseStart, "export", CabiRealloc)
	}
	ptr, err := i.alloc.Alloc(ctx, size, align)
	if err != nil {
		return 0, errors.New(errors.PhaseStart, errors.KindAllocation).
			Cause(err).
			Detail("failed to allocate %d bytes (align %d)", size, align).
			Build()
	}
	return ptr, nil
}

func isStringList(td *wit.TypeDef) bool {
	l, ok := td.Kind.(*wit.List)
	if !ok {
		return false
	}
	_, ok = l.Type.(wit.String)
	return ok
}
