package dispatch

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/objlink/objlink/errors"
	"github.com/objlink/objlink/marshal"
	"github.com/objlink/objlink/object"
)

// Dispatcher invokes host methods from script argument lists.
//
// Overload selection is a strict linear scan: candidates are tried in
// discovery order and the first one whose parameter types accept every
// supplied argument is invoked. Later candidates are never consulted, even
// when Go's own rules would consider one more specific. Selection is
// therefore deterministic and intentionally order-dependent.
type Dispatcher struct {
	marshaler *marshal.Marshaler
	thrown    *ThrownSlot
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithThrownSlot injects the throwable slot, letting the bridge share one
// slot across dispatchers and tests observe it directly.
func WithThrownSlot(s *ThrownSlot) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.thrown = s
		}
	}
}

// New creates a dispatcher over the given marshaler.
func New(m *marshal.Marshaler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		marshaler: m,
		thrown:    NewThrownSlot(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Thrown returns the dispatcher's throwable slot.
func (d *Dispatcher) Thrown() *ThrownSlot { return d.thrown }

// Marshaler returns the dispatcher's marshaler.
func (d *Dispatcher) Marshaler() *marshal.Marshaler { return d.marshaler }

// Invoke dispatches args over the candidate set. recv supplies the
// receiver for instance methods and is ignored for static candidates.
// Fails with NoMatchingOverload when no candidate accepts the arguments,
// or with HostInvocationFailure when the matched call raises; the raised
// value is retained in the throwable slot until the next host call
// overwrites it.
func (d *Dispatcher) Invoke(recv *object.Object, name string, cands []*object.Method, args []any) (any, error) {
	for i, m := range cands {
		in, ok := d.convertArgs(m, args)
		if !ok {
			continue
		}

		d.logger.Debug("candidate matched",
			zap.String("method", name),
			zap.Int("index", i),
			zap.String("signature", m.Signature()),
		)
		return d.call(recv, name, m, in)
	}
	return nil, errors.NoMatchingOverload(name, len(cands), len(args))
}

// convertArgs attempts all-or-nothing conversion of args against one
// candidate's parameter types. Variadic candidates dispatch on exact
// arity: the variadic slot takes one explicitly constructed sequence.
func (d *Dispatcher) convertArgs(m *object.Method, args []any) ([]reflect.Value, bool) {
	params := m.Params()
	if len(args) != len(params) {
		return nil, false
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		rv, ok := d.marshaler.ToHost(a, params[i])
		if !ok {
			return nil, false
		}
		in[i] = rv
	}
	return in, true
}

// call invokes the matched candidate, capturing panics and non-nil error
// results as host invocation failures.
func (d *Dispatcher) call(recv *object.Object, name string, m *object.Method, in []reflect.Value) (result any, err error) {
	var recvValue reflect.Value
	if !m.Static() {
		if recv == nil {
			return nil, errors.InvalidInput(errors.StageDispatch, "instance method "+name+" called without receiver")
		}
		recvValue = recv.Value()
	}

	defer func() {
		if r := recover(); r != nil {
			d.thrown.Record(r)
			d.logger.Debug("host call panicked", zap.String("method", name), zap.Any("thrown", r))
			result = nil
			err = errors.HostInvocation(name, r)
		}
	}()

	out := m.Call(recvValue, in)

	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			thrown := errv.Interface()
			d.thrown.Record(thrown)
			return nil, errors.HostInvocation(name, thrown)
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return d.marshaler.ToScript(out[0].Interface(), marshal.ModeFull), nil
	default:
		results := make([]any, len(out))
		for i, rv := range out {
			results[i] = d.marshaler.ToScript(rv.Interface(), marshal.ModeFull)
		}
		return results, nil
	}
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
