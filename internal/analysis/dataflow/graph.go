package dataflow

// Graph is what the solver needs from a directed graph.
//
// Nodes and edges are opaque comparable handles. Start and End report false
// for the missing side of a boundary edge. GraphInEdges and GraphOutEdges list
// the edges crossing the outer boundary, in the order they correspond to the
// edges of a node being replaced by this graph.
//
// Each edge owns one data slot. The solver keeps assumptions there for the
// duration of a solve and nothing else may read or write it meanwhile.
type Graph[N, E comparable, T any] interface {
	Nodes() []N
	InEdges(n N) []E
	OutEdges(n N) []E
	Start(e E) (N, bool)
	End(e E) (N, bool)
	GraphInEdges() []E
	GraphOutEdges() []E
	EdgeData(e E) any
	SetEdgeData(e E, v any)

	// Transform applies t to n in the host representation. It returns false
	// and leaves the host untouched when the rewrite cannot be applied.
	Transform(n N, t T) bool
}

// allEdges lists every edge of g once: node edges first, then boundary edges
// that are not attached to any node.
func allEdges[N, E comparable, T any](g Graph[N, E, T]) []E {
	seen := make(map[E]bool)
	var edges []E
	add := func(list []E) {
		for _, e := range list {
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
		}
	}
	for _, n := range g.Nodes() {
		add(g.InEdges(n))
		add(g.OutEdges(n))
	}
	add(g.GraphInEdges())
	add(g.GraphOutEdges())
	return edges
}

// resetEdges sets every edge of g back to bottom.
func resetEdges[N, E comparable, T any](g Graph[N, E, T]) {
	for _, e := range allEdges(g) {
		g.SetEdgeData(e, nil)
	}
}
