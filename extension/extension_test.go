package extension

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/objlink/objlink/dispatch"
	"github.com/objlink/objlink/marshal"
	"github.com/objlink/objlink/object"
)

type mathlib struct{}

func newDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	reg := object.NewRegistry()
	_, err := reg.Register("ext.Math", mathlib{},
		object.WithStaticMethod("open", func() string { return "math module" }),
		object.WithStaticMethod("entry", func(args []any) (any, error) {
			return int64(len(args)), nil
		}),
	)
	require.NoError(t, err)
	return dispatch.New(marshal.New(reg))
}

func TestLoadModule(t *testing.T) {
	d := newDispatcher(t)

	opener, msg := LoadModule(d, "ext.Math", "open")
	require.Empty(t, msg)
	require.NotNil(t, opener)

	res, err := opener()
	require.NoError(t, err)
	assert.Equal(t, "math module", res)
}

func TestLoadModule_EntryPointConvention(t *testing.T) {
	d := newDispatcher(t)

	// A static method with the canonical entry point shape receives the
	// whole argument list as one value.
	opener, msg := LoadModule(d, "ext.Math", "entry")
	require.Empty(t, msg)

	res, err := opener("a", int64(2), true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res)

	res, err = opener()
	require.NoError(t, err)
	assert.Equal(t, int64(0), res)
}

func TestLoadModule_Absence(t *testing.T) {
	d := newDispatcher(t)

	// Absence is a message, not an error.
	opener, msg := LoadModule(d, "ext.Missing", "open")
	assert.Nil(t, opener)
	assert.Contains(t, msg, "ext.Missing")

	opener, msg = LoadModule(d, "ext.Math", "close")
	assert.Nil(t, opener)
	assert.Contains(t, msg, "close")
}

// emptyModule is the smallest valid WASM binary: magic plus version, no
// sections.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestWasmLoader_Load(t *testing.T) {
	ctx := context.Background()
	l := NewWasmLoader(ctx)
	defer l.Close(ctx)

	// A valid module without the requested export is an absence, and the
	// failed load must not claim the module name.
	_, msg := l.Load(ctx, Manifest{Name: "m", Binary: emptyModule, Export: "run"})
	assert.Contains(t, msg, `no function "run"`)
	_, msg = l.Load(ctx, Manifest{Name: "m", Binary: emptyModule, Export: "run"})
	assert.NotContains(t, msg, "already loaded")
}

func TestWasmLoader_ManifestValidation(t *testing.T) {
	ctx := context.Background()
	l := NewWasmLoader(ctx)
	defer l.Close(ctx)

	tests := []struct {
		name string
		m    Manifest
	}{
		{"missing name", Manifest{Binary: emptyModule, Export: "run"}},
		{"missing export", Manifest{Name: "m", Binary: emptyModule}},
		{"no source", Manifest{Name: "m", Export: "run"}},
		{"both sources", Manifest{Name: "m", Path: "x.wasm", Binary: emptyModule, Export: "run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, msg := l.Load(ctx, tt.m)
			assert.Nil(t, cb)
			assert.True(t, strings.HasPrefix(msg, "invalid manifest"), msg)
		})
	}
}

func TestWasmLoader_MissingPath(t *testing.T) {
	ctx := context.Background()
	l := NewWasmLoader(ctx)
	defer l.Close(ctx)

	cb, msg := l.Load(ctx, Manifest{Name: "m", Path: "testdata/nope.wasm", Export: "run"})
	assert.Nil(t, cb)
	assert.Contains(t, msg, "nope.wasm")
}

func TestEncodeWasmValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   api.ValueType
		want  uint64
		ok    bool
	}{
		{"int to i64", int64(42), api.ValueTypeI64, 42, true},
		{"int to i32", int64(-1), api.ValueTypeI32, uint64(uint32(0xffffffff)), true},
		{"integral float to i64", float64(7), api.ValueTypeI64, 7, true},
		{"fractional float to i64", float64(7.5), api.ValueTypeI64, 0, false},
		{"float to f64", 2.5, api.ValueTypeF64, api.EncodeF64(2.5), true},
		{"int to f64", int64(3), api.ValueTypeF64, api.EncodeF64(3), true},
		{"bool to i32", true, api.ValueTypeI32, 1, true},
		{"bool to f64", true, api.ValueTypeF64, 0, false},
		{"string rejected", "x", api.ValueTypeI64, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := encodeWasmValue(tt.value, tt.typ)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDecodeWasmValue(t *testing.T) {
	assert.Equal(t, int64(-1), decodeWasmValue(uint64(uint32(0xffffffff)), api.ValueTypeI32))
	assert.Equal(t, int64(9), decodeWasmValue(9, api.ValueTypeI64))
	assert.Equal(t, 2.5, decodeWasmValue(api.EncodeF64(2.5), api.ValueTypeF64))
}
