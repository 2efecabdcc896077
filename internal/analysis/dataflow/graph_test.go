package dataflow

import (
	"fmt"
	"sort"
	"strings"
)

// rewriter is the transformer type of testGraph.
type rewriter interface {
	Apply(g *testGraph, n int) bool
}

type accept struct{ tag string }

func (accept) Apply(*testGraph, int) bool { return true }

type reject struct{}

func (reject) Apply(*testGraph, int) bool { return false }

type pointerRewriter struct{}

func (*pointerRewriter) Apply(*testGraph, int) bool { return true }

type testEdge struct {
	start, end int
	data       any
}

// testGraph is a small arena graph. -1 marks the absent side of a boundary
// edge.
type testGraph struct {
	names    []string
	in, out  [][]int
	edges    []testEdge
	graphIn  []int
	graphOut []int

	transformed []string
	applied     []rewriter
}

func newTestGraph(names ...string) *testGraph {
	g := &testGraph{names: names}
	g.in = make([][]int, len(names))
	g.out = make([][]int, len(names))
	return g
}

func (g *testGraph) node(name string) int {
	for i, n := range g.names {
		if n == name {
			return i
		}
	}
	panic("no node " + name)
}

func (g *testGraph) addEdge(start, end int) int {
	id := len(g.edges)
	g.edges = append(g.edges, testEdge{start: start, end: end})
	if start >= 0 {
		g.out[start] = append(g.out[start], id)
	}
	if end >= 0 {
		g.in[end] = append(g.in[end], id)
	}
	return id
}

func (g *testGraph) connect(from, to string) int {
	return g.addEdge(g.node(from), g.node(to))
}

func (g *testGraph) entry(to string) int {
	id := g.addEdge(-1, g.node(to))
	g.graphIn = append(g.graphIn, id)
	return id
}

func (g *testGraph) exit(from string) int {
	id := g.addEdge(g.node(from), -1)
	g.graphOut = append(g.graphOut, id)
	return id
}

func (g *testGraph) Nodes() []int {
	nodes := make([]int, len(g.names))
	for i := range nodes {
		nodes[i] = i
	}
	return nodes
}

func (g *testGraph) InEdges(n int) []int  { return g.in[n] }
func (g *testGraph) OutEdges(n int) []int { return g.out[n] }

func (g *testGraph) Start(e int) (int, bool) {
	s := g.edges[e].start
	return s, s >= 0
}

func (g *testGraph) End(e int) (int, bool) {
	s := g.edges[e].end
	return s, s >= 0
}

func (g *testGraph) GraphInEdges() []int  { return g.graphIn }
func (g *testGraph) GraphOutEdges() []int { return g.graphOut }

func (g *testGraph) EdgeData(e int) any       { return g.edges[e].data }
func (g *testGraph) SetEdgeData(e int, v any) { g.edges[e].data = v }

func (g *testGraph) Transform(n int, t rewriter) bool {
	g.transformed = append(g.transformed, g.names[n])
	g.applied = append(g.applied, t)
	return t.Apply(g, n)
}

// snapshot renders every edge assumption as "start->end: value".
func (g *testGraph) snapshot() map[string]string {
	out := make(map[string]string, len(g.edges))
	for id, e := range g.edges {
		from, to := "in", "out"
		if e.start >= 0 {
			from = g.names[e.start]
		}
		if e.end >= 0 {
			to = g.names[e.end]
		}
		out[fmt.Sprintf("%s->%s#%d", from, to, id)] = fmt.Sprint(e.data)
	}
	return out
}

// consts maps variables to known constant values. A missing variable is
// unknown, so joining keeps only agreeing bindings.
type consts map[string]int

func (c consts) Join(other consts) consts {
	out := consts{}
	for k, v := range c {
		if w, ok := other[k]; ok && w == v {
			out[k] = v
		}
	}
	return out
}

func (c consts) Equal(other consts) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		if w, ok := other[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func (c consts) with(k string, v int) consts {
	out := consts{}
	for key, val := range c {
		out[key] = val
	}
	out[k] = v
	return out
}

func (c consts) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, c[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// visited is a set of node names, joined by union.
type visited map[string]bool

func (v visited) Join(other visited) visited {
	out := visited{}
	for k := range v {
		out[k] = true
	}
	for k := range other {
		out[k] = true
	}
	return out
}

func (v visited) Equal(other visited) bool {
	if len(v) != len(other) {
		return false
	}
	for k := range v {
		if !other[k] {
			return false
		}
	}
	return true
}

func (v visited) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "[" + strings.Join(keys, " ") + "]"
}

type (
	constMap   = AssumptionMap[int, consts]
	constFlow  = IntegratedFlowFunc[int, int, rewriter, *testGraph, consts]
	constPlain = FlowFunc[int, int, *testGraph, consts]
)

func newConstSolver(forward bool, opts ...SolverOption) *Solver[int, int, rewriter, *testGraph, consts] {
	return NewSolver[int, int, rewriter, *testGraph, consts](forward, opts...)
}

// constAnalysis is a forward analysis. Node "A" defines x=5 (or whatever
// assign says); every other node forwards the join of its inputs. A node
// whose inputs are all bottom stays bottom.
type constAnalysis struct {
	assign  map[string]consts
	replace func(n int, g *testGraph, m constMap) *Transformation[rewriter, *testGraph]
	visits  []string
}

func (a *constAnalysis) interpret(n int, g *testGraph, m constMap) {
	a.visits = append(a.visits, g.names[n])
	in := JoinEdges(m, g.InEdges(n))
	out := in
	reached := !in.IsBottom() || len(g.InEdges(n)) == 0
	if defs, ok := a.assign[g.names[n]]; ok && reached {
		cur := in.OrElse(consts{})
		for k, v := range defs {
			cur = cur.with(k, v)
		}
		out = Some(cur)
	}
	SetEdges(m, g.OutEdges(n), out)
}

func (a *constAnalysis) FlowFunction() FlowFunction[int, int, *testGraph, consts] {
	return constPlain(a.interpret)
}

func (a *constAnalysis) IntegratedFlowFunction() IntegratedFlowFunction[int, int, rewriter, *testGraph, consts] {
	return constFlow(func(n int, g *testGraph, m constMap) *Transformation[rewriter, *testGraph] {
		if a.replace != nil {
			if t := a.replace(n, g, m); t != nil {
				return t
			}
		}
		a.interpret(n, g, m)
		return nil
	})
}

func (a *constAnalysis) SeedInitialAssumptions(g *testGraph, m constMap) {
	SetEdges(m, g.GraphInEdges(), Some(consts{}))
}
