// # Description
//
// Package cfg builds Control Flow Graphs (CFG) for Go function bodies and
// exposes them to the dataflow solver.
//
// ## Control Flow Graph (CFG)
//
// A CFG is a representation, using graph notation, of all paths that might be traversed
// through a program during its execution. In this package:
//
//   - Each node is a simple statement, a branch condition, a loop header, or one
//     of the synthetic entry and exit nodes.
//   - The directed edges represent jumps in the control flow. Edges leaving a
//     condition carry a role (then/else).
//   - The entry node has one incoming boundary edge and the exit node one outgoing
//     boundary edge, so analyses can seed facts on them.
//
// Nodes and edges are integer handles into the graph's arenas. Every edge owns a
// data slot used by the dataflow solver.
//
// ## Package Functionality
//
//  1. CFG Construction: `FromFunc` or `FromBody` turn a function body into a Graph.
//  2. Rewriting: a Graph is tied to the body it was built from. `Transform` runs a
//     Rewriter that edits that body (`ReplaceExpr`, `DeleteStmt`), refusing edits
//     that would leave a local variable unused.
//  3. Replacement subgraphs: `Replacement` builds a one-node graph with the same
//     boundary as an existing node, for analyses that propose rewrites.
//  4. Output: `PrintDot` writes GraphViz DOT, `RenderToGraphVizFile` renders it.
//
// goto and fallthrough are not modeled. Graphs containing them report a reason
// from `Unsupported` and should not be optimized.
package cfg
