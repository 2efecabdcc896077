package dataflow

import "fmt"

// Assumption is a lattice element.
//
// Join must be commutative and monotone (the result is at least as large as
// both operands), and a.Join(a) must equal a. Equal must compare structure,
// not identity: the solver uses it to decide whether anything changed.
//
// Bottom is not a value of A; it is represented by an empty Maybe.
type Assumption[A any] interface {
	Join(other A) A
	Equal(other A) bool
}

// Maybe holds an assumption or nothing. The zero value is bottom.
type Maybe[A any] struct {
	value A
	ok    bool
}

// Some wraps a.
func Some[A any](a A) Maybe[A] {
	return Maybe[A]{value: a, ok: true}
}

// None returns bottom.
func None[A any]() Maybe[A] {
	return Maybe[A]{}
}

// Get returns the value and whether there is one.
func (m Maybe[A]) Get() (A, bool) {
	return m.value, m.ok
}

// IsBottom reports whether m holds nothing.
func (m Maybe[A]) IsBottom() bool {
	return !m.ok
}

// OrElse returns the value, or def when m is bottom.
func (m Maybe[A]) OrElse(def A) A {
	if !m.ok {
		return def
	}
	return m.value
}

func (m Maybe[A]) String() string {
	if !m.ok {
		return "⊥"
	}
	return fmt.Sprint(m.value)
}

// JoinMaybe joins two possibly absent assumptions. Bottom is the identity.
func JoinMaybe[A Assumption[A]](a, b Maybe[A]) Maybe[A] {
	switch {
	case !a.ok:
		return b
	case !b.ok:
		return a
	}
	return Some(a.value.Join(b.value))
}

// EqualMaybe compares two possibly absent assumptions.
func EqualMaybe[A Assumption[A]](a, b Maybe[A]) bool {
	if a.ok != b.ok {
		return false
	}
	if !a.ok {
		return true
	}
	return a.value.Equal(b.value)
}

// AssumptionOf decodes an edge data slot. Empty slots and slots holding
// something other than a Maybe[A] read as bottom.
func AssumptionOf[A any](data any) Maybe[A] {
	v, _ := data.(Maybe[A])
	return v
}

// JoinEdges joins the assumptions found on edges.
func JoinEdges[E comparable, A Assumption[A]](m AssumptionMap[E, A], edges []E) Maybe[A] {
	var result Maybe[A]
	for _, e := range edges {
		result = JoinMaybe(result, m.Get(e))
	}
	return result
}

// SetEdges writes v to every edge.
func SetEdges[E comparable, A any](m AssumptionMap[E, A], edges []E, v Maybe[A]) {
	for _, e := range edges {
		m.Set(e, v)
	}
}
