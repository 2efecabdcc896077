// Package liveness computes live local variables backwards and removes
// stores nobody reads.
package liveness

import (
	"go/ast"
	"go/token"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
)

// Name identifies the pass in configuration and output.
const Name = "liveness"

// Map is the assumption map the analysis works on.
type Map = dataflow.AssumptionMap[cfg.EdgeID, lattice.VarSet]

// Analysis is a backward analysis over lattice.VarSet. The set on an edge
// holds the variables whose current value may still be read. As an
// integrated analysis it deletes assignments to variables that are dead
// afterwards.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

// SeedInitialAssumptions marks nothing live when the function returns.
func (a *Analysis) SeedInitialAssumptions(g *cfg.Graph, m Map) {
	dataflow.SetEdges(m, g.GraphOutEdges(), dataflow.Some(lattice.NewVarSet()))
}

func (a *Analysis) FlowFunction() dataflow.FlowFunction[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.VarSet] {
	return dataflow.FlowFunc[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.VarSet](func(n cfg.NodeID, g *cfg.Graph, m Map) {
		a.interpret(n, g, m, false)
	})
}

func (a *Analysis) IntegratedFlowFunction() dataflow.IntegratedFlowFunction[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.VarSet] {
	return dataflow.IntegratedFlowFunc[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.VarSet](func(n cfg.NodeID, g *cfg.Graph, m Map) *cfg.Transformation {
		return a.interpret(n, g, m, true)
	})
}

func (a *Analysis) interpret(n cfg.NodeID, g *cfg.Graph, m Map, eliminate bool) *cfg.Transformation {
	live, ok := dataflow.JoinEdges(m, g.OutEdges(n)).Get()
	if !ok {
		return nil
	}
	vars := g.Vars()

	switch g.Kind(n) {
	case cfg.Stmt:
		s := g.Stmt(n)
		if eliminate && DeadStore(s, live, vars) {
			return g.Replace(n, cfg.Nop, nil, nil, cfg.Named(Name, cfg.Delete))
		}
		live = live.Without(vars.Defs(s)...).With(vars.Uses(s)...)

	case cfg.Cond:
		if cond := g.Cond(n); cond != nil {
			live = live.With(vars.Uses(cond)...)
		}

	case cfg.Range:
		// Key and value are only assigned on the way into the body, so
		// nothing is killed here.
		r := g.Stmt(n).(*ast.RangeStmt)
		live = live.With(vars.Uses(r.X)...)
		if r.Tok != token.DEFINE {
			for _, x := range []ast.Expr{r.Key, r.Value} {
				if _, isIdent := x.(*ast.Ident); x != nil && !isIdent {
					live = live.With(vars.Uses(x)...)
				}
			}
		}

	case cfg.Branch:
		live = live.With(vars.BranchUses(g.Stmt(n))...)
	}

	dataflow.SetEdges(m, g.InEdges(n), dataflow.Some(live))
	return nil
}

// DeadStore reports whether s only assigns tracked variables that are not
// live afterwards, from operands that are safe to drop.
func DeadStore(s ast.Stmt, live lattice.VarSet, vars *cfg.Vars) bool {
	deadTarget := func(x ast.Expr) bool {
		id, ok := x.(*ast.Ident)
		if !ok {
			return false
		}
		key, ok := vars.Key(id)
		return ok && !live.Contains(key)
	}

	switch s := s.(type) {
	case *ast.AssignStmt:
		switch s.Tok {
		case token.DEFINE, token.QUO_ASSIGN, token.REM_ASSIGN, token.SHL_ASSIGN, token.SHR_ASSIGN:
			return false
		}
		if len(s.Lhs) != len(s.Rhs) {
			return false
		}
		for i := range s.Lhs {
			if !deadTarget(s.Lhs[i]) || !cfg.IsPure(s.Rhs[i]) {
				return false
			}
		}
		return true
	case *ast.IncDecStmt:
		return deadTarget(s.X)
	}
	return false
}
