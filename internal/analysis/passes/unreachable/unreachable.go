// Package unreachable finds statements no path from the function entry
// reaches and removes them.
package unreachable

import (
	"go/ast"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
)

// Name identifies the pass in configuration and output.
const Name = "unreachable"

// Map is the assumption map the analysis works on.
type Map = dataflow.AssumptionMap[cfg.EdgeID, lattice.Reach]

// Analysis is a forward analysis over lattice.Reach: an edge is reachable
// or bottom. Branches on a literal true or false only reach one side.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

// SeedInitialAssumptions makes the function entry reachable.
func (a *Analysis) SeedInitialAssumptions(g *cfg.Graph, m Map) {
	dataflow.SetEdges(m, g.GraphInEdges(), dataflow.Some(lattice.Reach{}))
}

func (a *Analysis) FlowFunction() dataflow.FlowFunction[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.Reach] {
	return dataflow.FlowFunc[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.Reach](func(n cfg.NodeID, g *cfg.Graph, m Map) {
		a.interpret(n, g, m, false)
	})
}

func (a *Analysis) IntegratedFlowFunction() dataflow.IntegratedFlowFunction[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.Reach] {
	return dataflow.IntegratedFlowFunc[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.Reach](func(n cfg.NodeID, g *cfg.Graph, m Map) *cfg.Transformation {
		return a.interpret(n, g, m, true)
	})
}

func (a *Analysis) interpret(n cfg.NodeID, g *cfg.Graph, m Map, prune bool) *cfg.Transformation {
	if dataflow.JoinEdges(m, g.InEdges(n)).IsBottom() {
		if prune && g.Kind(n) == cfg.Stmt && cfg.Removable(g.Stmt(n)) {
			return g.Replace(n, cfg.Nop, nil, nil, cfg.Named(Name, cfg.Delete))
		}
		return nil
	}

	reached := dataflow.Some(lattice.Reach{})
	if g.Kind(n) == cfg.Cond {
		if taken, ok := literalBool(g.Cond(n)); ok {
			for _, e := range g.OutEdges(n) {
				if (g.Role(e) == cfg.Then) == taken {
					m.Set(e, reached)
				}
			}
			return nil
		}
	}
	dataflow.SetEdges(m, g.OutEdges(n), reached)
	return nil
}

func literalBool(x ast.Expr) (bool, bool) {
	id, ok := ast.Unparen(x).(*ast.Ident)
	if !ok || id.Obj != nil {
		return false, false
	}
	switch id.Name {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
