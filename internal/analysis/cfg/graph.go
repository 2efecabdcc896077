package cfg

import (
	"go/ast"
)

// NodeID identifies a node of a Graph.
type NodeID int

// EdgeID identifies an edge of a Graph.
type EdgeID int

// NoNode marks the absent end of a boundary edge.
const NoNode NodeID = -1

// Kind classifies nodes.
type Kind int

const (
	Entry  Kind = iota
	Exit        // function exit, target of every return
	Stmt        // a simple statement
	Cond        // if or for condition; nil condition means always true
	Range       // range loop header
	Branch      // switch, type switch or select header
	Nop         // does nothing; used by replacements
)

func (k Kind) String() string {
	switch k {
	case Entry:
		return "ENTRY"
	case Exit:
		return "EXIT"
	case Stmt:
		return "STMT"
	case Cond:
		return "COND"
	case Range:
		return "RANGE"
	case Branch:
		return "BRANCH"
	case Nop:
		return "NOP"
	default:
		return "UNKNOWN"
	}
}

// Role tells which way a branch goes.
type Role int

const (
	Normal Role = iota
	Then        // condition true, or loop body
	Else        // condition false, or loop done
)

func (r Role) String() string {
	switch r {
	case Then:
		return "then"
	case Else:
		return "else"
	default:
		return ""
	}
}

type node struct {
	kind Kind
	stmt ast.Stmt
	cond ast.Expr
	in   []EdgeID
	out  []EdgeID
}

type edge struct {
	start NodeID
	end   NodeID
	role  Role
	data  any
}

// Graph is a control flow graph over one function body.
type Graph struct {
	nodes    []node
	edges    []edge
	graphIn  []EdgeID
	graphOut []EdgeID

	Entry NodeID
	Exit  NodeID

	body        *ast.BlockStmt
	vars        *Vars
	unsupported string
	pass        string
	edits       []Edit
}

// NewSubgraph returns an empty graph sharing host's variables. It is not
// attached to any body, so Transform on it always fails.
func NewSubgraph(host *Graph) *Graph {
	g := &Graph{Entry: NoNode, Exit: NoNode}
	if host != nil {
		g.vars = host.vars
	}
	return g
}

// AddNode appends a node.
func (g *Graph) AddNode(kind Kind, stmt ast.Stmt, cond ast.Expr) NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, node{kind: kind, stmt: stmt, cond: cond})
	return id
}

// AddEdge connects two nodes. Either end may be NoNode.
func (g *Graph) AddEdge(from, to NodeID, role Role) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, edge{start: from, end: to, role: role})
	if from != NoNode {
		g.nodes[from].out = append(g.nodes[from].out, id)
	}
	if to != NoNode {
		g.nodes[to].in = append(g.nodes[to].in, id)
	}
	return id
}

// AddGraphInEdge adds a boundary edge entering the graph at to.
func (g *Graph) AddGraphInEdge(to NodeID) EdgeID {
	id := g.AddEdge(NoNode, to, Normal)
	g.graphIn = append(g.graphIn, id)
	return id
}

// AddGraphOutEdge adds a boundary edge leaving the graph from from.
func (g *Graph) AddGraphOutEdge(from NodeID, role Role) EdgeID {
	id := g.AddEdge(from, NoNode, role)
	g.graphOut = append(g.graphOut, id)
	return id
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) Nodes() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range ids {
		ids[i] = NodeID(i)
	}
	return ids
}

// Edges returns every edge, boundary edges included.
func (g *Graph) Edges() []EdgeID {
	ids := make([]EdgeID, len(g.edges))
	for i := range ids {
		ids[i] = EdgeID(i)
	}
	return ids
}

func (g *Graph) InEdges(n NodeID) []EdgeID  { return g.nodes[n].in }
func (g *Graph) OutEdges(n NodeID) []EdgeID { return g.nodes[n].out }

func (g *Graph) Start(e EdgeID) (NodeID, bool) {
	s := g.edges[e].start
	return s, s != NoNode
}

func (g *Graph) End(e EdgeID) (NodeID, bool) {
	s := g.edges[e].end
	return s, s != NoNode
}

func (g *Graph) GraphInEdges() []EdgeID  { return g.graphIn }
func (g *Graph) GraphOutEdges() []EdgeID { return g.graphOut }

func (g *Graph) EdgeData(e EdgeID) any       { return g.edges[e].data }
func (g *Graph) SetEdgeData(e EdgeID, v any) { g.edges[e].data = v }

// Kind returns the kind of n.
func (g *Graph) Kind(n NodeID) Kind { return g.nodes[n].kind }

// Stmt returns the statement n was built from. For Cond, Range and Branch
// nodes it is the enclosing if, for, range, switch or select statement.
func (g *Graph) Stmt(n NodeID) ast.Stmt { return g.nodes[n].stmt }

// Cond returns the condition of a Cond node or the tag of a switch.
func (g *Graph) Cond(n NodeID) ast.Expr { return g.nodes[n].cond }

// Role returns the role of e.
func (g *Graph) Role(e EdgeID) Role { return g.edges[e].role }

// Succs returns the successors of n; boundary edges are skipped.
func (g *Graph) Succs(n NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.nodes[n].out {
		if end := g.edges[e].end; end != NoNode {
			out = append(out, end)
		}
	}
	return out
}

// Preds returns the predecessors of n; boundary edges are skipped.
func (g *Graph) Preds(n NodeID) []NodeID {
	var out []NodeID
	for _, e := range g.nodes[n].in {
		if start := g.edges[e].start; start != NoNode {
			out = append(out, start)
		}
	}
	return out
}

// Body returns the function body the graph was built from.
func (g *Graph) Body() *ast.BlockStmt { return g.body }

// Vars returns the local variable table.
func (g *Graph) Vars() *Vars { return g.vars }

// Unsupported returns why the graph does not model the body faithfully, or
// "" when it does.
func (g *Graph) Unsupported() string { return g.unsupported }

// Replacement builds a one-node graph whose boundary mirrors n: one in-edge
// per in-edge of n and one out-edge per out-edge of n, with the same roles.
func (g *Graph) Replacement(n NodeID, kind Kind, stmt ast.Stmt, cond ast.Expr) *Graph {
	sub := NewSubgraph(g)
	id := sub.AddNode(kind, stmt, cond)
	for range g.nodes[n].in {
		sub.AddGraphInEdge(id)
	}
	for _, e := range g.nodes[n].out {
		sub.AddGraphOutEdge(id, g.edges[e].role)
	}
	return sub
}
