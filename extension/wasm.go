package extension

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/errors"
)

var validate = validator.New()

// Manifest describes one WASM extension module to load.
type Manifest struct {
	// Name instantiates the module under this name; it must be unique
	// within the loader.
	Name string `validate:"required"`

	// Path locates the .wasm binary on disk. Exactly one of Path and
	// Binary must be set.
	Path string `validate:"required_without=Binary,excluded_with=Binary"`

	// Binary is the raw module bytes, for embedded extensions.
	Binary []byte `validate:"required_without=Path"`

	// Export names the function to expose as the module's entry point.
	Export string `validate:"required"`
}

// WasmLoader loads sandboxed extension modules and exposes their exported
// functions as script callables. All modules share one wazero runtime
// with WASI preview 1 available.
type WasmLoader struct {
	runtime wazero.Runtime
	logger  *zap.Logger

	mu   sync.Mutex
	mods map[string]api.Module
}

// WasmOption configures a WasmLoader.
type WasmOption func(*WasmLoader)

// WithWasmLogger sets the logger. Defaults to a no-op logger.
func WithWasmLogger(l *zap.Logger) WasmOption {
	return func(w *WasmLoader) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWasmLoader creates a loader with a fresh wazero runtime.
func NewWasmLoader(ctx context.Context, opts ...WasmOption) *WasmLoader {
	l := &WasmLoader{
		runtime: wazero.NewRuntime(ctx),
		logger:  zap.NewNop(),
		mods:    make(map[string]api.Module),
	}
	for _, opt := range opts {
		opt(l)
	}
	wasi_snapshot_preview1.MustInstantiate(ctx, l.runtime)
	return l
}

// Load compiles and instantiates the manifest's module and wraps its
// exported entry point as a callable. Like the native searcher it returns
// an absence message rather than an error when the module cannot serve.
func (l *WasmLoader) Load(ctx context.Context, m Manifest) (objlink.Callable, string) {
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Sprintf("invalid manifest: %v", err)
	}

	bin := m.Binary
	if len(bin) == 0 {
		data, err := os.ReadFile(m.Path)
		if err != nil {
			return nil, fmt.Sprintf("read %s: %v", m.Path, err)
		}
		bin = data
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.mods[m.Name]; exists {
		return nil, fmt.Sprintf("module %q already loaded", m.Name)
	}

	compiled, err := l.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Sprintf("compile %s: %v", m.Name, err)
	}
	mod, err := l.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(m.Name))
	if err != nil {
		return nil, fmt.Sprintf("instantiate %s: %v", m.Name, err)
	}

	fn := mod.ExportedFunction(m.Export)
	if fn == nil {
		_ = mod.Close(ctx)
		return nil, fmt.Sprintf("module %q exports no function %q", m.Name, m.Export)
	}

	l.mods[m.Name] = mod
	l.logger.Info("wasm extension loaded",
		zap.String("module", m.Name),
		zap.String("export", m.Export),
	)
	return wrapFunction(ctx, m.Name, m.Export, fn), ""
}

// wrapFunction adapts a WASM export to the callable convention. Only
// numeric parameters and results cross the sandbox boundary.
func wrapFunction(ctx context.Context, module, export string, fn api.Function) objlink.Callable {
	def := fn.Definition()
	name := module + "." + export

	return func(args ...any) (any, error) {
		params := def.ParamTypes()
		if len(args) != len(params) {
			return nil, errors.NoMatchingOverload(name, 1, len(args))
		}

		stack := make([]uint64, len(args))
		for i, a := range args {
			enc, ok := encodeWasmValue(a, params[i])
			if !ok {
				return nil, errors.TypeMismatch(errors.StageLoad, []string{name},
					fmt.Sprintf("%T", a), wasmTypeName(params[i]))
			}
			stack[i] = enc
		}

		out, err := fn.Call(ctx, stack...)
		if err != nil {
			return nil, errors.HostInvocation(name, err)
		}

		results := def.ResultTypes()
		switch len(out) {
		case 0:
			return nil, nil
		case 1:
			return decodeWasmValue(out[0], results[0]), nil
		default:
			vals := make([]any, len(out))
			for i, v := range out {
				vals[i] = decodeWasmValue(v, results[i])
			}
			return vals, nil
		}
	}
}

func encodeWasmValue(v any, t api.ValueType) (uint64, bool) {
	var i int64
	var f float64
	switch x := v.(type) {
	case int64:
		i, f = x, float64(x)
	case float64:
		if t == api.ValueTypeI32 || t == api.ValueTypeI64 {
			if x != float64(int64(x)) {
				return 0, false
			}
			i = int64(x)
		}
		f = x
	case bool:
		if t != api.ValueTypeI32 && t != api.ValueTypeI64 {
			return 0, false
		}
		if x {
			i = 1
		}
	default:
		return 0, false
	}

	switch t {
	case api.ValueTypeI32:
		return uint64(uint32(int32(i))), true
	case api.ValueTypeI64:
		return uint64(i), true
	case api.ValueTypeF32:
		return uint64(api.EncodeF32(float32(f))), true
	case api.ValueTypeF64:
		return api.EncodeF64(f), true
	}
	return 0, false
}

func decodeWasmValue(v uint64, t api.ValueType) any {
	switch t {
	case api.ValueTypeI32:
		return int64(int32(uint32(v)))
	case api.ValueTypeI64:
		return int64(v)
	case api.ValueTypeF32:
		return float64(api.DecodeF32(v))
	case api.ValueTypeF64:
		return api.DecodeF64(v)
	}
	return int64(v)
}

func wasmTypeName(t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return "i32"
	case api.ValueTypeI64:
		return "i64"
	case api.ValueTypeF32:
		return "f32"
	case api.ValueTypeF64:
		return "f64"
	}
	return "unknown"
}

// Unload closes one module and forgets it.
func (l *WasmLoader) Unload(ctx context.Context, name string) error {
	l.mu.Lock()
	mod, ok := l.mods[name]
	delete(l.mods, name)
	l.mu.Unlock()

	if !ok {
		return errors.NotFound(errors.StageLoad, "module", name)
	}
	return mod.Close(ctx)
}

// Close tears down every module and the shared runtime.
func (l *WasmLoader) Close(ctx context.Context) error {
	l.mu.Lock()
	l.mods = make(map[string]api.Module)
	l.mu.Unlock()
	return l.runtime.Close(ctx)
}
