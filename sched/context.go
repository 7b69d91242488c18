package sched

import (
	"sync"

	"go.uber.org/zap"

	"github.com/objlink/objlink/errors"
)

// Context identifies one script execution state attached to the bridge.
// The main context is created eagerly when the registry is built; script
// coroutine states are registered lazily the first time they cross the
// boundary.
type Context struct {
	id       int32
	main     bool
	state    any
	detached bool

	mu       sync.Mutex
	onDetach []func()
}

// ID returns the context's registration id. The main context is always 0.
func (c *Context) ID() int32 { return c.id }

// Main reports whether this is the root context.
func (c *Context) Main() bool { return c.main }

// State returns the opaque script execution state this context tracks.
func (c *Context) State() any { return c.state }

// Detached reports whether the context has been released.
func (c *Context) Detached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.detached
}

// OnDetach registers a cleanup callback, run once when the context is
// detached. The bridge uses this to release handles rooted by the context.
func (c *Context) OnDetach(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDetach = append(c.onDetach, fn)
}

// Registry tracks every live context. Lookup by state is identity-based:
// the same state value always yields the same context until detached.
type Registry struct {
	mu      sync.Mutex
	main    *Context
	byState map[any]*Context
	nextID  int32
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry builds a registry with the main context already registered
// under id 0. mainState is the root script state, and may be nil for
// embeddings that never hand it back across the boundary.
func NewRegistry(mainState any, opts ...Option) *Registry {
	r := &Registry{
		byState: make(map[any]*Context),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.main = &Context{id: 0, main: true, state: mainState}
	r.nextID = 1
	if mainState != nil {
		r.byState[mainState] = r.main
	}
	return r
}

// Main returns the root context.
func (r *Registry) Main() *Context { return r.main }

// Acquire returns the context registered for state, creating one on first
// sight. This is the lazy path for script-created coroutine states.
func (r *Registry) Acquire(state any) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.byState[state]; ok {
		return c
	}
	c := r.register(state)
	r.logger.Debug("context acquired", zap.Int32("id", c.id))
	return c
}

// NewContext eagerly registers a host-created context for state. Fails if
// the state is already tracked.
func (r *Registry) NewContext(state any) (*Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byState[state]; ok {
		return nil, errors.InvalidContext("state already registered")
	}
	c := r.register(state)
	r.logger.Debug("context created", zap.Int32("id", c.id))
	return c, nil
}

// register assumes r.mu is held.
func (r *Registry) register(state any) *Context {
	c := &Context{id: r.nextID, state: state}
	r.nextID++
	if state != nil {
		r.byState[state] = c
	}
	return c
}

// Detach releases a context: its cleanup callbacks run and its state is
// forgotten. The main context can never be detached, and detaching an
// already detached context fails rather than being ignored.
func (r *Registry) Detach(c *Context) error {
	if c == nil {
		return errors.InvalidContext("nil context")
	}
	if c.main {
		return errors.InvalidContext("main context cannot be detached")
	}

	c.mu.Lock()
	if c.detached {
		c.mu.Unlock()
		return errors.InvalidContext("context already detached")
	}
	c.detached = true
	callbacks := c.onDetach
	c.onDetach = nil
	c.mu.Unlock()

	r.mu.Lock()
	if c.state != nil {
		delete(r.byState, c.state)
	}
	r.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	r.logger.Debug("context detached", zap.Int32("id", c.id))
	return nil
}

// Len returns the number of tracked states, the main context included
// when its state was supplied.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byState)
}
