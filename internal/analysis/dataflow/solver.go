package dataflow

import (
	"go.uber.org/zap"
)

// DefaultMaxSteps bounds the node visits of a single fixed-point computation.
const DefaultMaxSteps = 1_000_000

// SolverOption configures a Solver.
type SolverOption func(*solverOptions)

type solverOptions struct {
	maxSteps int
	logger   *zap.Logger
}

// WithMaxSteps sets the visit limit per fixed-point computation. Exceeding it
// panics with KindNoConvergence. Zero or less disables the limit.
func WithMaxSteps(n int) SolverOption {
	return func(o *solverOptions) {
		o.maxSteps = n
	}
}

// WithLogger enables debug tracing.
func WithLogger(logger *zap.Logger) SolverOption {
	return func(o *solverOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Solver computes fixed points of analyses over graphs of type G.
//
// The direction only decides the initial worklist order: nodes in Nodes()
// order when forward, reversed otherwise. Both orders reach a valid fixed
// point; the matching one gets there with fewer visits.
type Solver[N, E comparable, T any, G Graph[N, E, T], A Assumption[A]] struct {
	forward  bool
	maxSteps int
	logger   *zap.Logger
}

// NewSolver returns a solver running in the given direction.
func NewSolver[N, E comparable, T any, G Graph[N, E, T], A Assumption[A]](forward bool, opts ...SolverOption) *Solver[N, E, T, G, A] {
	o := solverOptions{
		maxSteps: DefaultMaxSteps,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Solver[N, E, T, G, A]{
		forward:  forward,
		maxSteps: o.maxSteps,
		logger:   o.logger,
	}
}

// Forward reports the solver's direction.
func (s *Solver[N, E, T, G, A]) Forward() bool {
	return s.forward
}

// Solve runs a plain analysis to its fixed point. The resulting assumptions
// stay in the graph's edge slots.
func (s *Solver[N, E, T, G, A]) Solve(g G, a Analysis[N, E, G, A]) {
	s.solve(g, observer[N, E, T, G, A]{analysis: a}, false)
}

// Analyze runs an integrated analysis to its fixed point without applying
// any transformation. Proposed rewrites are still evaluated, so the
// assumptions reflect the program as if they had been applied.
func (s *Solver[N, E, T, G, A]) Analyze(g G, a IntegratedAnalysis[N, E, T, G, A]) {
	s.solve(g, a, false)
}

// SolveIntegrated runs an integrated analysis to its fixed point and then
// applies the transformations it still proposes there. It reports whether
// any Graph.Transform call changed the host.
func (s *Solver[N, E, T, G, A]) SolveIntegrated(g G, a IntegratedAnalysis[N, E, T, G, A]) bool {
	return s.solve(g, a, true)
}

func (s *Solver[N, E, T, G, A]) solve(g G, a IntegratedAnalysis[N, E, T, G, A], actualize bool) bool {
	resetEdges[N, E, T](g)
	a.SeedInitialAssumptions(g, &graphMap[N, E, T, A]{g: g})

	ff := a.IntegratedFlowFunction()
	s.iterate(g, ff)
	if !actualize {
		return false
	}
	return s.actualize(g, ff)
}

func (s *Solver[N, E, T, G, A]) iterate(g G, ff IntegratedFlowFunction[N, E, T, G, A]) {
	nodes := g.Nodes()
	work := newWorklist[N](len(nodes))
	if s.forward {
		for _, n := range nodes {
			work.push(n)
		}
	} else {
		for i := len(nodes) - 1; i >= 0; i-- {
			work.push(nodes[i])
		}
	}

	steps := 0
	for !work.empty() {
		n := work.pop()
		steps++
		if s.maxSteps > 0 && steps > s.maxSteps {
			violate(KindNoConvergence, "no fixed point after %d steps over %d nodes", s.maxSteps, len(nodes))
		}

		m := &nodeMap[N, E, T, A]{g: g, node: n, enqueue: work.push}
		t := ff.InterpretOrReplace(n, g, m)
		if t == nil {
			continue
		}
		if m.written {
			violate(KindSetAndReplace, "node %v wrote assumptions and returned a transformation", n)
		}
		s.interpretReplacement(g, n, t, ff, m)
	}

	s.logger.Debug("fixed point reached",
		zap.Bool("forward", s.forward),
		zap.Int("nodes", len(nodes)),
		zap.Int("steps", steps))
}

// interpretReplacement evaluates t as if it had replaced n: the replacement
// graph is solved with n's current boundary assumptions and its resulting
// boundary assumptions are written back onto n's edges through m.
func (s *Solver[N, E, T, G, A]) interpretReplacement(g G, n N, t *Transformation[T, G], ff IntegratedFlowFunction[N, E, T, G, A], m *nodeMap[N, E, T, A]) {
	checkTransformer(t)

	in, out := g.InEdges(n), g.OutEdges(n)
	result := s.solveSubgraph(t.Graph, ff, SubgraphAssumptions[A]{
		In:  loadAll[N, E, T, A](g, in),
		Out: loadAll[N, E, T, A](g, out),
	})
	for i, e := range in {
		m.Set(e, result.In[i])
	}
	for i, e := range out {
		m.Set(e, result.Out[i])
	}
}

func (s *Solver[N, E, T, G, A]) solveSubgraph(sub G, ff IntegratedFlowFunction[N, E, T, G, A], seed SubgraphAssumptions[A]) SubgraphAssumptions[A] {
	subIn, subOut := sub.GraphInEdges(), sub.GraphOutEdges()
	if len(subIn) != len(seed.In) || len(subOut) != len(seed.Out) {
		violate(KindBoundaryMismatch, "replacement has %d in/%d out boundary edges, node has %d in/%d out",
			len(subIn), len(subOut), len(seed.In), len(seed.Out))
	}

	resetEdges[N, E, T](sub)
	for i, e := range subIn {
		sub.SetEdgeData(e, seed.In[i])
	}
	for i, e := range subOut {
		sub.SetEdgeData(e, seed.Out[i])
	}

	s.iterate(sub, ff)

	return SubgraphAssumptions[A]{
		In:  loadAll[N, E, T, A](sub, subIn),
		Out: loadAll[N, E, T, A](sub, subOut),
	}
}

func (s *Solver[N, E, T, G, A]) actualize(g G, ff IntegratedFlowFunction[N, E, T, G, A]) bool {
	changed := false
	for _, n := range g.Nodes() {
		m := &nodeMap[N, E, T, A]{g: g, node: n, frozen: true}
		t := ff.InterpretOrReplace(n, g, m)
		if t == nil {
			continue
		}
		if m.written {
			violate(KindSetAndReplace, "node %v wrote assumptions and returned a transformation", n)
		}
		checkTransformer(t)
		if g.Transform(n, t.Transformer) {
			s.logger.Debug("node transformed", zap.Any("node", n))
			changed = true
		}
	}
	return changed
}

// IsFixedPoint reports whether interpreting every node once with ff would
// leave all assumptions of g unchanged. Nothing is written.
func (s *Solver[N, E, T, G, A]) IsFixedPoint(g G, ff FlowFunction[N, E, G, A]) bool {
	for _, n := range g.Nodes() {
		m := &nodeMap[N, E, T, A]{g: g, node: n, dryRun: true}
		ff.Interpret(n, g, m)
		if m.changed {
			return false
		}
	}
	return true
}
