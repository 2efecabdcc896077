// Package dataflow implements a generic worklist solver for iterative dataflow
// analyses over arbitrary directed graphs.
//
// Assumptions are lattice values stored on graph edges. A flow function reads
// the assumptions around one node and writes the ones on the opposite side
// (out-edges for forward analyses, in-edges for backward ones). The solver
// re-runs flow functions until no assumption changes.
//
// Integrated analyses may, instead of writing assumptions, propose replacing a
// node with a small subgraph. The solver evaluates the proposal by solving the
// subgraph recursively and splicing its boundary assumptions back. Once the
// fixed point is reached, the actualize pass asks every node again and applies
// the chosen rewrites through Graph.Transform.
//
// Several integrated analyses can share one schedule through
// CombinedIntegratedAnalysis, which runs them over a product lattice.
//
// Misuse of the contracts (touching edges of other nodes, writing assumptions
// while also proposing a rewrite, writing during actualize, mismatched
// replacement boundaries, missing transformers) panics with a
// *ContractViolation. Callers that want to report such failures recover them
// at their own boundary.
//
// Termination relies on the lattice having finite height and on Join being
// monotone. The solver caps the number of node visits per fixed-point
// computation (see WithMaxSteps). Recursion through replacement subgraphs is
// not bounded here: an analysis that keeps proposing replacements inside its
// own replacements recurses until the stack runs out.
package dataflow
