package dataflow

// AssumptionMap gives a flow function access to edge assumptions.
//
// The map handed to a flow function is scoped to the node being interpreted
// and is only valid during that call: touching an edge that does not start or
// end at that node panics.
type AssumptionMap[E comparable, A any] interface {
	Get(e E) Maybe[A]
	Set(e E, v Maybe[A])
}

func load[N, E comparable, T any, A any](g Graph[N, E, T], e E) Maybe[A] {
	return AssumptionOf[A](g.EdgeData(e))
}

func loadAll[N, E comparable, T any, A any](g Graph[N, E, T], edges []E) []Maybe[A] {
	values := make([]Maybe[A], len(edges))
	for i, e := range edges {
		values[i] = load[N, E, T, A](g, e)
	}
	return values
}

// graphMap reads and writes any edge of a graph. Used for seeding.
type graphMap[N, E comparable, T any, A any] struct {
	g Graph[N, E, T]
}

func (m *graphMap[N, E, T, A]) Get(e E) Maybe[A] {
	return load[N, E, T, A](m.g, e)
}

func (m *graphMap[N, E, T, A]) Set(e E, v Maybe[A]) {
	m.g.SetEdgeData(e, v)
}

// nodeMap is the map a flow function receives while one node is interpreted.
type nodeMap[N, E comparable, T any, A Assumption[A]] struct {
	g    Graph[N, E, T]
	node N

	// enqueue is called with the node across an edge whose assumption changed.
	enqueue func(N)
	// frozen maps belong to the actualize pass; changing an assumption
	// through them panics.
	frozen bool
	// dryRun maps record changes without applying them.
	dryRun bool

	written bool
	changed bool
}

// neighbor returns the endpoint of e that is not the current node. The second
// result is false for boundary edges whose other side is absent.
func (m *nodeMap[N, E, T, A]) neighbor(e E) (N, bool) {
	start, hasStart := m.g.Start(e)
	end, hasEnd := m.g.End(e)
	switch {
	case hasStart && start == m.node:
		return end, hasEnd
	case hasEnd && end == m.node:
		return start, hasStart
	}
	violate(KindScope, "edge %v is not incident on node %v", e, m.node)
	panic("unreachable")
}

func (m *nodeMap[N, E, T, A]) Get(e E) Maybe[A] {
	m.neighbor(e)
	return load[N, E, T, A](m.g, e)
}

func (m *nodeMap[N, E, T, A]) Set(e E, v Maybe[A]) {
	next, hasNext := m.neighbor(e)
	m.written = true
	if EqualMaybe(load[N, E, T, A](m.g, e), v) {
		return
	}
	if m.frozen {
		violate(KindActualizeWrite, "node %v changed edge %v after the fixed point", m.node, e)
	}
	m.changed = true
	if m.dryRun {
		return
	}
	m.g.SetEdgeData(e, v)
	if hasNext && m.enqueue != nil {
		m.enqueue(next)
	}
}
