package main

import (
	"strings"

	"github.com/objlink/objlink/object"
)

// counter is a small stateful demo class.
type counter struct {
	Count int
}

func (c *counter) Add(n int) int {
	c.Count += n
	return c.Count
}

func (c *counter) Reset() {
	c.Count = 0
}

// demoRegistry registers the classes the inspector exposes out of the box.
func demoRegistry() *object.Registry {
	reg := object.NewRegistry()

	reg.Register("demo.Strings", struct{}{},
		object.WithStaticMethod("Upper", strings.ToUpper),
		object.WithStaticMethod("Lower", strings.ToLower),
		object.WithStaticMethod("Repeat", strings.Repeat),
		object.WithStaticMethod("Join", func(parts []string, sep string) string {
			return strings.Join(parts, sep)
		}),
	)

	reg.Register("demo.Counter", counter{},
		object.WithConstructor(func() *counter { return &counter{} }),
		object.WithConstructor(func(start int) *counter { return &counter{Count: start} }),
		object.WithStatic("Version", "1.0"),
	)

	reg.RegisterInterface("demo.Handler", []string{"Handle"},
		object.WithDefault("Handle", func(self any, args ...any) (any, error) {
			return "unhandled", nil
		}),
	)

	return reg
}
