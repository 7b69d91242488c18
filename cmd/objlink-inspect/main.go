package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/objlink/objlink"
	"github.com/objlink/objlink/bridge"
	"github.com/objlink/objlink/extension"
	"github.com/objlink/objlink/object"
)

func main() {
	var (
		className   = flag.String("class", "", "Registered class to inspect")
		member      = flag.String("member", "", "Member to access or call")
		callArgs    = flag.String("args", "", "Call arguments (comma-separated)")
		wasmFile    = flag.String("wasm", "", "Path to a wasm extension module")
		wasmExport  = flag.String("export", "run", "Exported function of the wasm module")
		list        = flag.Bool("list", false, "List registered classes and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logger = dev
		defer logger.Sync()
	}

	b := bridge.New(demoRegistry(), bridge.WithLogger(logger))
	defer b.Close()

	if *interactive {
		if err := runInteractive(b); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(b, logger, *className, *member, *callArgs, *wasmFile, *wasmExport, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(b *bridge.Bridge, logger *zap.Logger, className, member, argsStr, wasmFile, wasmExport string, listOnly bool) error {
	if wasmFile != "" {
		return runWasm(b, logger, wasmFile, wasmExport, argsStr)
	}

	if listOnly || className == "" {
		fmt.Println("Registered classes:")
		for _, name := range b.Registry().Names() {
			cls, _ := b.Registry().Lookup(name)
			fmt.Printf("  %s\n", name)
			for _, m := range cls.MemberNames() {
				fmt.Printf("    .%s\n", m)
			}
		}
		if className == "" && !listOnly {
			fmt.Println("\nUse -class to inspect one, -i for interactive mode.")
		}
		return nil
	}

	v, err := b.Import(className)
	if err != nil {
		return fmt.Errorf("import %s: %w", className, err)
	}
	cls, ok := v.(*object.Class)
	if !ok {
		return fmt.Errorf("%s is a package, not a class", className)
	}

	if member == "" {
		fmt.Printf("Class: %s\n\nMembers:\n", cls.Name())
		for _, m := range cls.MemberNames() {
			fmt.Printf("  %s\n", m)
		}
		return nil
	}

	resolved, err := b.Access(cls, member)
	if err != nil {
		return fmt.Errorf("access %s.%s: %w", className, member, err)
	}

	cb, callable := resolved.(objlink.Callable)
	if !callable {
		fmt.Printf("%s.%s = %v\n", className, member, resolved)
		return nil
	}

	args := parseArgs(argsStr)
	fmt.Printf("Calling %s.%s(%s)...\n", className, member, argsStr)
	result, err := cb(args...)
	if err != nil {
		if thrown := b.Catched(); thrown != nil {
			fmt.Printf("Host throwable: %v\n", thrown)
		}
		return fmt.Errorf("call: %w", err)
	}
	fmt.Printf("Result: %v\n", b.ToScriptValue(result))
	return nil
}

func runWasm(b *bridge.Bridge, logger *zap.Logger, wasmFile, export, argsStr string) error {
	ctx := context.Background()
	loader := extension.NewWasmLoader(ctx, extension.WithWasmLogger(logger))
	defer loader.Close(ctx)

	cb, msg := loader.Load(ctx, extension.Manifest{
		Name:   strings.TrimSuffix(wasmFile, ".wasm"),
		Path:   wasmFile,
		Export: export,
	})
	if msg != "" {
		return fmt.Errorf("load %s: %s", wasmFile, msg)
	}

	args := parseArgs(argsStr)
	fmt.Printf("Calling %s:%s(%s)...\n", wasmFile, export, argsStr)
	result, err := cb(args...)
	if err != nil {
		return fmt.Errorf("call: %w", err)
	}
	fmt.Printf("Result: %v\n", result)
	return nil
}

// parseArgs reads a comma-separated argument list into script values:
// integers, floats, booleans, and everything else as strings.
func parseArgs(s string) []any {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	args := make([]any, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			args[i] = n
			continue
		}
		if f, err := strconv.ParseFloat(p, 64); err == nil {
			args[i] = f
			continue
		}
		if p == "true" || p == "false" {
			args[i] = p == "true"
			continue
		}
		args[i] = strings.Trim(p, `"`)
	}
	return args
}
