package cfg

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"
)

// Rewriter edits the host AST on behalf of one node. It is the transformer
// type the dataflow solver hands back through Transform.
type Rewriter interface {
	Rewrite(g *Graph, n NodeID) bool
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(g *Graph, n NodeID) bool

func (f RewriterFunc) Rewrite(g *Graph, n NodeID) bool { return f(g, n) }

// Transform applies r to node n and reports whether the body changed.
// Graphs without a body, such as replacement subgraphs, never change.
func (g *Graph) Transform(n NodeID, r Rewriter) bool {
	if r == nil || g.body == nil {
		return false
	}
	return r.Rewrite(g, n)
}

// Named tags the edits r makes with the name of a pass.
func Named(pass string, r Rewriter) Rewriter {
	return RewriterFunc(func(g *Graph, n NodeID) bool {
		prev := g.pass
		g.pass = pass
		defer func() { g.pass = prev }()
		return r.Rewrite(g, n)
	})
}

// EditKind tells how a body was changed.
type EditKind int

const (
	Replaced EditKind = iota
	Deleted
)

func (k EditKind) String() string {
	if k == Deleted {
		return "delete"
	}
	return "replace"
}

// Edit records one change made to the body.
type Edit struct {
	Pass string
	Kind EditKind
	Old  ast.Node
	New  ast.Node // nil for deletions
}

// Edits returns the changes applied to the body through this graph, in
// order.
func (g *Graph) Edits() []Edit {
	return g.edits
}

// ReplaceExpr swaps old for repl in the body.
func (g *Graph) ReplaceExpr(old, repl ast.Expr) bool {
	return g.apply(old, repl, func(c *astutil.Cursor) bool {
		c.Replace(repl)
		return true
	})
}

// ReplaceStmt swaps old for repl in the body.
func (g *Graph) ReplaceStmt(old, repl ast.Stmt) bool {
	return g.apply(old, repl, func(c *astutil.Cursor) bool {
		c.Replace(repl)
		return true
	})
}

// DeleteStmt removes old from the statement list holding it. Statements that
// are not list elements, like an if's init, are left alone.
func (g *Graph) DeleteStmt(old ast.Stmt) bool {
	return g.apply(old, nil, func(c *astutil.Cursor) bool {
		if c.Index() < 0 {
			return false
		}
		c.Delete()
		return true
	})
}

func (g *Graph) apply(target, repl ast.Node, edit func(*astutil.Cursor) bool) bool {
	if g.body == nil || target == nil {
		return false
	}
	found, done := false, false
	astutil.Apply(g.body, func(c *astutil.Cursor) bool {
		if found {
			return false
		}
		if c.Node() == target {
			found = true
			done = edit(c)
			return false
		}
		return true
	}, nil)
	if done {
		kind := Replaced
		if repl == nil {
			kind = Deleted
		}
		g.edits = append(g.edits, Edit{Pass: g.pass, Kind: kind, Old: target, New: repl})
	}
	return done
}
