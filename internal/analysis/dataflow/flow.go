package dataflow

// FlowFunction is the transfer function of an analysis. Interpret reads the
// assumptions on some of node's edges and writes the others. It must depend
// only on what it reads and may run any number of times per node.
type FlowFunction[N, E comparable, G, A any] interface {
	Interpret(node N, g G, m AssumptionMap[E, A])
}

// IntegratedFlowFunction either behaves like a FlowFunction and returns nil,
// or returns a transformation replacing node. In the latter case it must not
// have written any assumption during the same call.
type IntegratedFlowFunction[N, E comparable, T, G, A any] interface {
	InterpretOrReplace(node N, g G, m AssumptionMap[E, A]) *Transformation[T, G]
}

// Analysis couples a flow function with its initial facts.
type Analysis[N, E comparable, G, A any] interface {
	FlowFunction() FlowFunction[N, E, G, A]
	// SeedInitialAssumptions runs once per solve, before the first iteration.
	// The map it receives is not scoped to a node.
	SeedInitialAssumptions(g G, m AssumptionMap[E, A])
}

// IntegratedAnalysis is an Analysis whose flow function may propose rewrites.
type IntegratedAnalysis[N, E comparable, T, G, A any] interface {
	IntegratedFlowFunction() IntegratedFlowFunction[N, E, T, G, A]
	SeedInitialAssumptions(g G, m AssumptionMap[E, A])
}

// FlowFunc adapts a plain function to FlowFunction.
type FlowFunc[N, E comparable, G, A any] func(node N, g G, m AssumptionMap[E, A])

func (f FlowFunc[N, E, G, A]) Interpret(node N, g G, m AssumptionMap[E, A]) {
	f(node, g, m)
}

// IntegratedFlowFunc adapts a plain function to IntegratedFlowFunction.
type IntegratedFlowFunc[N, E comparable, T, G, A any] func(node N, g G, m AssumptionMap[E, A]) *Transformation[T, G]

func (f IntegratedFlowFunc[N, E, T, G, A]) InterpretOrReplace(node N, g G, m AssumptionMap[E, A]) *Transformation[T, G] {
	return f(node, g, m)
}

// observer runs a plain analysis through the integrated machinery. It never
// proposes a transformation.
type observer[N, E comparable, T, G, A any] struct {
	analysis Analysis[N, E, G, A]
}

func (o observer[N, E, T, G, A]) IntegratedFlowFunction() IntegratedFlowFunction[N, E, T, G, A] {
	ff := o.analysis.FlowFunction()
	return IntegratedFlowFunc[N, E, T, G, A](func(node N, g G, m AssumptionMap[E, A]) *Transformation[T, G] {
		ff.Interpret(node, g, m)
		return nil
	})
}

func (o observer[N, E, T, G, A]) SeedInitialAssumptions(g G, m AssumptionMap[E, A]) {
	o.analysis.SeedInitialAssumptions(g, m)
}
