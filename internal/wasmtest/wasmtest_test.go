package wasmtest

import (
	"bytes"
	"testing"
)

func TestLEB128(t *testing.T) {
	tests := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{OpI32Const, 0x00}},
		{63, []byte{OpI32Const, 0x3F}},
		{64, []byte{OpI32Const, 0xC0, 0x00}},
		{-1, []byte{OpI32Const, 0x7F}},
		{1024, []byte{OpI32Const, 0x80, 0x08}},
	}
	for _, tc := range tests {
		if got := I32Const(tc.v); !bytes.Equal(got, tc.want) {
			t.Errorf("I32Const(%d) = %x, want %x", tc.v, got, tc.want)
		}
	}

	if got := LocalGet(200); !bytes.Equal(got, []byte{OpLocalGet, 0xC8, 0x01}) {
		t.Errorf("LocalGet(200) = %x", got)
	}
}

func TestEmptyModule(t *testing.T) {
	want := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	if got := New().Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got %x", got)
	}
}

func TestTypeDedup(t *testing.T) {
	m := New()
	a := m.Type([]byte{I32}, nil)
	b := m.Type([]byte{I32}, nil)
	c := m.Type(nil, []byte{I32})
	if a != b || a == c {
		t.Errorf("indices %d %d %d", a, b, c)
	}
}

func TestImportAfterFuncPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	m := New()
	m.Func(nil, nil, nil)
	m.ImportFunc("env", "f", nil, nil)
}
