// Package wasmtest assembles small core wasm binaries for tests.
package wasmtest

import "math"

// Value types.
const (
	I32 byte = 0x7F
	I64 byte = 0x7E
	F32 byte = 0x7D
	F64 byte = 0x7C
)

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02
)

type funcType struct {
	params, results []byte
}

type importFunc struct {
	module, name string
	typeIdx      uint32
}

type function struct {
	typeIdx uint32
	locals  []byte
	body    []byte
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type segment struct {
	offset uint32
	data   []byte
}

// Module is a core module under construction. Imports must be declared
// before defined functions so function indices stay stable.
type Module struct {
	types   []funcType
	imports []importFunc
	funcs   []function
	memory  *uint32
	globals []int32
	exports []export
	data    []segment
}

// New returns an empty module.
func New() *Module {
	return &Module{}
}

// Type returns the index of the function type, adding it if needed.
func (m *Module) Type(params, results []byte) uint32 {
	for i, t := range m.types {
		if string(t.params) == string(params) && string(t.results) == string(results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// ImportFunc declares an imported function and returns its index.
func (m *Module) ImportFunc(module, name string, params, results []byte) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmtest: imports must precede functions")
	}
	m.imports = append(m.imports, importFunc{module: module, name: name, typeIdx: m.Type(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func defines a function and returns its index. body is the instruction
// sequence without the trailing end opcode; locals lists extra local types.
func (m *Module) Func(params, results, locals []byte, body ...byte) uint32 {
	m.funcs = append(m.funcs, function{typeIdx: m.Type(params, results), locals: locals, body: body})
	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// ExportFunc exports the function at idx.
func (m *Module) ExportFunc(name string, idx uint32) *Module {
	m.exports = append(m.exports, export{name: name, kind: kindFunc, idx: idx})
	return m
}

// Memory declares memory 0 with min pages and exports it as "memory".
func (m *Module) Memory(pages uint32) *Module {
	m.memory = &pages
	m.exports = append(m.exports, export{name: "memory", kind: kindMemory, idx: 0})
	return m
}

// GlobalI32 declares a mutable i32 global and returns its index.
func (m *Module) GlobalI32(init int32) uint32 {
	m.globals = append(m.globals, init)
	return uint32(len(m.globals) - 1)
}

// Data places an active data segment in memory 0.
func (m *Module) Data(offset uint32, data []byte) *Module {
	m.data = append(m.data, segment{offset: offset, data: data})
	return m
}

// BumpAllocator defines and exports cabi_realloc as a bump allocator over
// a global starting at heap. Alignment is not honored.
func (m *Module) BumpAllocator(heap int32) uint32 {
	g := m.GlobalI32(heap)
	body := Concat(
		GlobalGet(g),
		GlobalGet(g), LocalGet(3), []byte{OpI32Add}, GlobalSet(g),
	)
	idx := m.Func([]byte{I32, I32, I32, I32}, []byte{I32}, nil, body...)
	m.ExportFunc("cabi_realloc", idx)
	return idx
}

// Bytes encodes the module.
func (m *Module) Bytes() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	if len(m.types) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.types)))
		for _, t := range m.types {
			sec = append(sec, 0x60)
			sec = appendBytes(sec, t.params)
			sec = appendBytes(sec, t.results)
		}
		out = appendSection(out, secType, sec)
	}

	if len(m.imports) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.imports)))
		for _, imp := range m.imports {
			sec = appendBytes(sec, []byte(imp.module))
			sec = appendBytes(sec, []byte(imp.name))
			sec = append(sec, kindFunc)
			sec = appendU32(sec, imp.typeIdx)
		}
		out = appendSection(out, secImport, sec)
	}

	if len(m.funcs) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			sec = appendU32(sec, f.typeIdx)
		}
		out = appendSection(out, secFunction, sec)
	}

	if m.memory != nil {
		sec := []byte{0x01, 0x00}
		sec = appendU32(sec, *m.memory)
		out = appendSection(out, secMemory, sec)
	}

	if len(m.globals) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.globals)))
		for _, g := range m.globals {
			sec = append(sec, I32, 0x01)
			sec = append(sec, I32Const(g)...)
			sec = append(sec, OpEnd)
		}
		out = appendSection(out, secGlobal, sec)
	}

	if len(m.exports) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.exports)))
		for _, e := range m.exports {
			sec = appendBytes(sec, []byte(e.name))
			sec = append(sec, e.kind)
			sec = appendU32(sec, e.idx)
		}
		out = appendSection(out, secExport, sec)
	}

	if len(m.funcs) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var body []byte
			body = appendU32(body, uint32(len(f.locals)))
			for _, l := range f.locals {
				body = append(body, 0x01, l)
			}
			body = append(body, f.body...)
			body = append(body, OpEnd)
			sec = appendBytes(sec, body)
		}
		out = appendSection(out, secCode, sec)
	}

	if len(m.data) > 0 {
		var sec []byte
		sec = appendU32(sec, uint32(len(m.data)))
		for _, d := range m.data {
			sec = append(sec, 0x00)
			sec = append(sec, I32Const(int32(d.offset))...)
			sec = append(sec, OpEnd)
			sec = appendBytes(sec, d.data)
		}
		out = appendSection(out, secData, sec)
	}

	return out
}

// Opcodes used by the helpers.
const (
	OpUnreachable byte = 0x00
	OpEnd         byte = 0x0B
	OpCall        byte = 0x10
	OpDrop        byte = 0x1A
	OpLocalGet    byte = 0x20
	OpGlobalGet   byte = 0x23
	OpGlobalSet   byte = 0x24
	OpI32Const    byte = 0x41
	OpF32Const    byte = 0x43
	OpI32Add      byte = 0x6A
)

func LocalGet(i uint32) []byte  { return appendU32([]byte{OpLocalGet}, i) }
func GlobalGet(i uint32) []byte { return appendU32([]byte{OpGlobalGet}, i) }
func GlobalSet(i uint32) []byte { return appendU32([]byte{OpGlobalSet}, i) }
func Call(i uint32) []byte      { return appendU32([]byte{OpCall}, i) }
func I32Const(v int32) []byte   { return appendS32([]byte{OpI32Const}, v) }

func F32Const(v float32) []byte {
	b := math.Float32bits(v)
	return []byte{OpF32Const, byte(b), byte(b >> 8), byte(b >> 16), byte(b >> 24)}
}

// Concat joins instruction fragments.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	return appendBytes(out, body)
}

func appendBytes(out, b []byte) []byte {
	out = appendU32(out, uint32(len(b)))
	return append(out, b...)
}

func appendU32(out []byte, v uint32) []byte {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			out = append(out, c|0x80)
			continue
		}
		return append(out, c)
	}
}

func appendS32(out []byte, v int32) []byte {
	for {
		c := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && c&0x40 == 0) || (v == -1 && c&0x40 != 0) {
			return append(out, c)
		}
		out = append(out, c|0x80)
	}
}
