package sched

import (
	goerrors "errors"
	"testing"

	oerrors "github.com/objlink/objlink/errors"
)

type fakeState struct{ name string }

func invalidContext(t *testing.T, err error) {
	t.Helper()
	var oerr *oerrors.Error
	if !goerrors.As(err, &oerr) || oerr.Kind != oerrors.KindInvalidContext {
		t.Fatalf("got %v, want invalid_context", err)
	}
}

func TestRegistry_MainEager(t *testing.T) {
	main := &fakeState{name: "main"}
	r := NewRegistry(main)

	if r.Main() == nil || !r.Main().Main() {
		t.Fatal("main context missing")
	}
	if r.Main().ID() != 0 {
		t.Errorf("main id = %d, want 0", r.Main().ID())
	}
	if got := r.Acquire(main); got != r.Main() {
		t.Error("acquiring the main state should yield the main context")
	}
}

func TestRegistry_AcquireLazy(t *testing.T) {
	r := NewRegistry(nil)
	st := &fakeState{name: "coro"}

	c1 := r.Acquire(st)
	if c1.Main() {
		t.Error("acquired context should not be main")
	}
	if c1.ID() == 0 {
		t.Error("script context id should not collide with main")
	}

	// Same state, same context.
	if c2 := r.Acquire(st); c2 != c1 {
		t.Error("re-acquire should return the existing context")
	}

	// Distinct states get distinct ids.
	other := r.Acquire(&fakeState{name: "other"})
	if other == c1 || other.ID() == c1.ID() {
		t.Error("distinct states must get distinct contexts")
	}
}

func TestRegistry_NewContext(t *testing.T) {
	r := NewRegistry(nil)
	st := &fakeState{}

	c, err := r.NewContext(st)
	if err != nil {
		t.Fatalf("new context: %v", err)
	}
	if got := r.Acquire(st); got != c {
		t.Error("acquire should find the eagerly registered context")
	}

	_, err = r.NewContext(st)
	invalidContext(t, err)
}

func TestRegistry_Detach(t *testing.T) {
	r := NewRegistry(&fakeState{name: "main"})
	st := &fakeState{name: "coro"}
	c := r.Acquire(st)

	released := 0
	c.OnDetach(func() { released++ })

	if err := r.Detach(c); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if released != 1 {
		t.Errorf("cleanup ran %d times, want 1", released)
	}
	if !c.Detached() {
		t.Error("context should report detached")
	}

	// A second detach fails rather than being ignored.
	invalidContext(t, r.Detach(c))

	// The state is forgotten; re-acquiring mints a fresh context.
	if fresh := r.Acquire(st); fresh == c {
		t.Error("detached state should not resolve to the old context")
	}
}

func TestRegistry_DetachMain(t *testing.T) {
	r := NewRegistry(&fakeState{})
	invalidContext(t, r.Detach(r.Main()))
	invalidContext(t, r.Detach(nil))
}

func TestRegistry_Len(t *testing.T) {
	r := NewRegistry(&fakeState{})
	if r.Len() != 1 {
		t.Fatalf("len = %d, want 1", r.Len())
	}
	c := r.Acquire(&fakeState{})
	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	r.Detach(c)
	if r.Len() != 1 {
		t.Fatalf("len after detach = %d, want 1", r.Len())
	}
}
