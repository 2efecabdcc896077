package cfg

import (
	"go/ast"
	"go/token"

	"github.com/gnolang/gflow/internal/analysis/dataflow"
)

var _ dataflow.Graph[NodeID, EdgeID, Rewriter] = (*Graph)(nil)

// Transformation is a dataflow transformation over control flow graphs.
type Transformation = dataflow.Transformation[Rewriter, *Graph]

// Combined is a product analysis over control flow graphs.
type Combined = dataflow.CombinedIntegratedAnalysis[NodeID, EdgeID, Rewriter, *Graph]

// NewSolver returns a dataflow solver over control flow graphs.
func NewSolver[A dataflow.Assumption[A]](forward bool, opts ...dataflow.SolverOption) *dataflow.Solver[NodeID, EdgeID, Rewriter, *Graph, A] {
	return dataflow.NewSolver[NodeID, EdgeID, Rewriter, *Graph, A](forward, opts...)
}

// NewCombined returns an empty product analysis.
func NewCombined() *Combined {
	return dataflow.NewCombinedIntegratedAnalysis[NodeID, EdgeID, Rewriter, *Graph]()
}

// AddAnalysis registers a as the next constituent of c.
func AddAnalysis[A dataflow.Assumption[A]](c *Combined, a dataflow.IntegratedAnalysis[NodeID, EdgeID, Rewriter, *Graph, A]) dataflow.Slice[A] {
	return dataflow.AddAnalysis[NodeID, EdgeID, Rewriter, *Graph, A](c, a)
}

// Replace returns a transformation swapping n for a single node of the given
// kind, applied to the body by r.
func (g *Graph) Replace(n NodeID, kind Kind, stmt ast.Stmt, cond ast.Expr, r Rewriter) *Transformation {
	return dataflow.NewTransformation[Rewriter, *Graph](g.Replacement(n, kind, stmt, cond), r)
}

// Delete removes the statement of a node from the body. It refuses when the
// body would stop compiling: the statement must be a list element and
// everything it reads must stay read elsewhere.
var Delete Rewriter = RewriterFunc(func(g *Graph, n NodeID) bool {
	s := g.Stmt(n)
	if s == nil || !g.vars.KeepsReads(s) {
		return false
	}
	return g.DeleteStmt(s)
})

// Removable reports whether s may be deleted without changing which
// statements terminate a block.
func Removable(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.AssignStmt:
		return s.Tok != token.DEFINE
	case *ast.IncDecStmt, *ast.SendStmt, *ast.GoStmt, *ast.DeferStmt:
		return true
	case *ast.ExprStmt:
		call, ok := ast.Unparen(s.X).(*ast.CallExpr)
		if !ok {
			return true
		}
		id, ok := ast.Unparen(call.Fun).(*ast.Ident)
		return !ok || id.Name != "panic" || id.Obj != nil
	}
	return false
}

// IsPure reports whether evaluating x can neither panic nor have effects.
func IsPure(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.Ident, *ast.BasicLit:
		return true
	case *ast.ParenExpr:
		return IsPure(x.X)
	case *ast.UnaryExpr:
		switch x.Op {
		case token.ADD, token.SUB, token.NOT, token.XOR:
			return IsPure(x.X)
		}
	case *ast.BinaryExpr:
		switch x.Op {
		case token.QUO, token.REM, token.SHL, token.SHR:
			return false
		case token.EQL, token.NEQ:
			// interface comparisons panic on uncomparable dynamic types
			return false
		}
		return IsPure(x.X) && IsPure(x.Y)
	}
	return false
}

// BranchUses returns the keys read when a switch or type switch header is
// evaluated, including the case expressions.
func (v *Vars) BranchUses(s ast.Stmt) []string {
	var nodes []ast.Node
	switch s := s.(type) {
	case *ast.SwitchStmt:
		if s.Tag != nil {
			nodes = append(nodes, s.Tag)
		}
		for _, cl := range s.Body.List {
			for _, x := range cl.(*ast.CaseClause).List {
				nodes = append(nodes, x)
			}
		}
	case *ast.TypeSwitchStmt:
		nodes = append(nodes, s.Assign)
	}
	var out []string
	for _, n := range nodes {
		out = append(out, v.Uses(n)...)
	}
	return out
}
