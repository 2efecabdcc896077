package dataflow

import "reflect"

// Transformation is what an integrated flow function returns to request a
// rewrite: a replacement graph and a transformer that the host graph knows how
// to apply.
//
// The replacement's GraphInEdges and GraphOutEdges must match, one to one and
// in order, the InEdges and OutEdges of the node being replaced. The
// transformer is opaque to the solver; it is handed back to Graph.Transform
// during actualize and must not be nil.
type Transformation[T, G any] struct {
	Graph       G
	Transformer T
}

// NewTransformation pairs a replacement graph with its transformer.
func NewTransformation[T, G any](g G, t T) *Transformation[T, G] {
	return &Transformation[T, G]{Graph: g, Transformer: t}
}

// SubgraphAssumptions carries the assumptions on a subgraph's boundary edges,
// in GraphInEdges and GraphOutEdges order.
type SubgraphAssumptions[A any] struct {
	In  []Maybe[A]
	Out []Maybe[A]
}

func checkTransformer[T, G any](t *Transformation[T, G]) {
	if isNil(t.Transformer) {
		violate(KindNilTransformer, "transformation has no transformer")
	}
}

// isNil also catches typed nils, such as a nil pointer stored in an
// interface-typed T.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
