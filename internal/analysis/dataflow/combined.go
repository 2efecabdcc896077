package dataflow

import (
	"fmt"
	"strings"
)

// Combined is an element of a product lattice: one slot per constituent of a
// CombinedIntegratedAnalysis. A nil slot is that constituent's bottom.
//
// Values are shared between edges and must be treated as immutable; the
// combinator clones a vector before changing any of its slots.
type Combined struct {
	slots []any
	ops   []sliceOps
}

// sliceOps gives the combinator typed access to one constituent's lattice.
type sliceOps interface {
	join(a, b any) any
	equal(a, b any) bool
}

type typedOps[A Assumption[A]] struct{}

func (typedOps[A]) join(a, b any) any {
	return a.(A).Join(b.(A))
}

func (typedOps[A]) equal(a, b any) bool {
	return a.(A).Equal(b.(A))
}

func newCombined(ops []sliceOps) Combined {
	return Combined{slots: make([]any, len(ops)), ops: ops}
}

// Len returns the number of slots.
func (c Combined) Len() int {
	return len(c.slots)
}

func (c Combined) clone() Combined {
	slots := make([]any, len(c.slots))
	copy(slots, c.slots)
	return Combined{slots: slots, ops: c.ops}
}

// Join joins slot by slot.
func (c Combined) Join(other Combined) Combined {
	if len(c.slots) != len(other.slots) {
		panic(fmt.Sprintf("dataflow: joining product values of width %d and %d", len(c.slots), len(other.slots)))
	}
	result := c.clone()
	for i, b := range other.slots {
		a := result.slots[i]
		switch {
		case b == nil:
		case a == nil:
			result.slots[i] = b
		default:
			result.slots[i] = c.ops[i].join(a, b)
		}
	}
	return result
}

// Equal compares slot by slot.
func (c Combined) Equal(other Combined) bool {
	if len(c.slots) != len(other.slots) {
		return false
	}
	for i, a := range c.slots {
		b := other.slots[i]
		if a == nil || b == nil {
			if a != b {
				return false
			}
			continue
		}
		if !c.ops[i].equal(a, b) {
			return false
		}
	}
	return true
}

func (c Combined) String() string {
	parts := make([]string, len(c.slots))
	for i, v := range c.slots {
		if v == nil {
			parts[i] = "⊥"
			continue
		}
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Slice identifies one constituent's lattice inside Combined values.
type Slice[A Assumption[A]] struct {
	index int
}

// Index returns the constituent's registration position.
func (s Slice[A]) Index() int {
	return s.index
}

// Of projects v onto this slice.
func (s Slice[A]) Of(v Maybe[Combined]) Maybe[A] {
	c, ok := v.Get()
	if !ok || s.index >= len(c.slots) {
		return None[A]()
	}
	return slotValue[A](c.slots[s.index])
}

// From decodes an edge data slot written by a solver running the combined
// analysis and projects it onto this slice.
func (s Slice[A]) From(data any) Maybe[A] {
	return s.Of(AssumptionOf[Combined](data))
}

func slotValue[A any](v any) Maybe[A] {
	if v == nil {
		return None[A]()
	}
	return Some(v.(A))
}

func slotOf[A any](v Maybe[A]) any {
	a, ok := v.Get()
	if !ok {
		return nil
	}
	return a
}

// CombinedIntegratedAnalysis runs several integrated analyses as one, over
// the product of their lattices.
//
// Constituents are interpreted in registration order for every node. The
// first one that proposes a transformation wins: its transformation is
// returned and the assumption writes staged by the constituents before it are
// dropped. Otherwise all staged writes are committed.
type CombinedIntegratedAnalysis[N, E comparable, T any, G Graph[N, E, T]] struct {
	constituents []constituent[N, E, T, G]
	ops          []sliceOps
}

// NewCombinedIntegratedAnalysis returns an analysis with no constituents.
func NewCombinedIntegratedAnalysis[N, E comparable, T any, G Graph[N, E, T]]() *CombinedIntegratedAnalysis[N, E, T, G] {
	return &CombinedIntegratedAnalysis[N, E, T, G]{}
}

// AddAnalysis registers a as the next constituent of c and returns the slice
// holding its assumptions. All constituents must be registered before c is
// solved.
func AddAnalysis[N, E comparable, T any, G Graph[N, E, T], A Assumption[A]](
	c *CombinedIntegratedAnalysis[N, E, T, G],
	a IntegratedAnalysis[N, E, T, G, A],
) Slice[A] {
	slice := Slice[A]{index: len(c.constituents)}
	c.constituents = append(c.constituents, &typedConstituent[N, E, T, G, A]{analysis: a, slice: slice})
	c.ops = append(c.ops, typedOps[A]{})
	return slice
}

// Len returns the number of constituents.
func (c *CombinedIntegratedAnalysis[N, E, T, G]) Len() int {
	return len(c.constituents)
}

func (c *CombinedIntegratedAnalysis[N, E, T, G]) IntegratedFlowFunction() IntegratedFlowFunction[N, E, T, G, Combined] {
	return c
}

// SeedInitialAssumptions lets every constituent seed its own slice.
func (c *CombinedIntegratedAnalysis[N, E, T, G]) SeedInitialAssumptions(g G, m AssumptionMap[E, Combined]) {
	for _, k := range c.constituents {
		k.seed(g, m, c.ops)
	}
}

// InterpretOrReplace interprets node with every constituent in turn.
func (c *CombinedIntegratedAnalysis[N, E, T, G]) InterpretOrReplace(node N, g G, m AssumptionMap[E, Combined]) *Transformation[T, G] {
	st := &staging[E]{outer: m, ops: c.ops, private: make(map[E]Combined)}
	for _, k := range c.constituents {
		if t := k.interpretOrReplace(node, g, st); t != nil {
			return t
		}
	}
	st.commit()
	return nil
}

type constituent[N, E comparable, T, G any] interface {
	seed(g G, outer AssumptionMap[E, Combined], ops []sliceOps)
	interpretOrReplace(node N, g G, st *staging[E]) *Transformation[T, G]
}

type typedConstituent[N, E comparable, T any, G Graph[N, E, T], A Assumption[A]] struct {
	analysis IntegratedAnalysis[N, E, T, G, A]
	slice    Slice[A]
	flow     IntegratedFlowFunction[N, E, T, G, A]
}

func (k *typedConstituent[N, E, T, G, A]) seed(g G, outer AssumptionMap[E, Combined], ops []sliceOps) {
	k.analysis.SeedInitialAssumptions(g, &seedView[E, A]{outer: outer, ops: ops, index: k.slice.index})
}

func (k *typedConstituent[N, E, T, G, A]) interpretOrReplace(node N, g G, st *staging[E]) *Transformation[T, G] {
	if k.flow == nil {
		k.flow = k.analysis.IntegratedFlowFunction()
	}
	view := &sliceView[E, A]{st: st, index: k.slice.index}
	t := k.flow.InterpretOrReplace(node, g, view)
	if t != nil && view.written {
		violate(KindSetAndReplace, "constituent %d wrote assumptions at node %v and returned a transformation", k.slice.index, node)
	}
	return t
}

// staging collects the writes of all constituents for one node. Each edge's
// vector is cloned on its first write and reused for later ones.
type staging[E comparable] struct {
	outer   AssumptionMap[E, Combined]
	ops     []sliceOps
	private map[E]Combined
	order   []E
}

func (st *staging[E]) get(e E, index int) any {
	if c, ok := st.private[e]; ok {
		return c.slots[index]
	}
	c, ok := st.outer.Get(e).Get()
	if !ok {
		return nil
	}
	return c.slots[index]
}

func (st *staging[E]) set(e E, index int, v any) {
	c, ok := st.private[e]
	if !ok {
		if cur, has := st.outer.Get(e).Get(); has {
			c = cur.clone()
		} else {
			c = newCombined(st.ops)
		}
		st.private[e] = c
		st.order = append(st.order, e)
	}
	c.slots[index] = v
}

func (st *staging[E]) commit() {
	for _, e := range st.order {
		st.outer.Set(e, Some(st.private[e]))
	}
}

// sliceView is a constituent's window onto the staged product values.
type sliceView[E comparable, A any] struct {
	st      *staging[E]
	index   int
	written bool
}

func (v *sliceView[E, A]) Get(e E) Maybe[A] {
	return slotValue[A](v.st.get(e, v.index))
}

func (v *sliceView[E, A]) Set(e E, value Maybe[A]) {
	v.written = true
	v.st.set(e, v.index, slotOf(value))
}

// seedView writes one slice straight through to the outer map.
type seedView[E comparable, A any] struct {
	outer AssumptionMap[E, Combined]
	ops   []sliceOps
	index int
}

func (v *seedView[E, A]) Get(e E) Maybe[A] {
	c, ok := v.outer.Get(e).Get()
	if !ok {
		return None[A]()
	}
	return slotValue[A](c.slots[v.index])
}

func (v *seedView[E, A]) Set(e E, value Maybe[A]) {
	var c Combined
	if cur, ok := v.outer.Get(e).Get(); ok {
		c = cur.clone()
	} else {
		c = newCombined(v.ops)
	}
	c.slots[v.index] = slotOf(value)
	v.outer.Set(e, Some(c))
}
