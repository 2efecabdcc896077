package optimizer

import (
	"fmt"
	"go/ast"
	"sort"
	"strings"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
	"github.com/gnolang/gflow/internal/analysis/passes/constprop"
	"github.com/gnolang/gflow/internal/analysis/passes/liveness"
	"github.com/gnolang/gflow/internal/analysis/passes/unreachable"
)

// Facts is the fixed point of one pass over a function, rendered per edge.
type Facts struct {
	Pass   string
	Graph  *cfg.Graph
	Values map[cfg.EdgeID]string
}

// Facts solves pass over fn without rewriting anything.
func (o *Optimizer) Facts(fn *ast.FuncDecl, pass string) (facts *Facts, err error) {
	defer func() {
		if r := recover(); r != nil {
			violation, ok := r.(*dataflow.ContractViolation)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("facts %s: %w", FuncName(fn), violation)
		}
	}()

	g := cfg.FromFunc(fn)
	if g == nil {
		return nil, fmt.Errorf("function %s has no body", FuncName(fn))
	}
	opts := o.solverOptions()
	facts = &Facts{Pass: pass, Graph: g}

	switch pass {
	case constprop.Name:
		cfg.NewSolver[lattice.Env](true, opts...).Solve(g, constprop.New())
		facts.Values = collect(g, formatEnv)
	case liveness.Name:
		cfg.NewSolver[lattice.VarSet](false, opts...).Solve(g, liveness.New())
		facts.Values = collect(g, formatVarSet)
	case unreachable.Name:
		cfg.NewSolver[lattice.Reach](true, opts...).Solve(g, unreachable.New())
		facts.Values = collect(g, lattice.Reach.String)
	default:
		return nil, fmt.Errorf("unknown pass %q", pass)
	}
	return facts, nil
}

func collect[A any](g *cfg.Graph, format func(A) string) map[cfg.EdgeID]string {
	values := make(map[cfg.EdgeID]string)
	for _, e := range g.Edges() {
		v, ok := dataflow.AssumptionOf[A](g.EdgeData(e)).Get()
		if !ok {
			values[e] = "⊥"
			continue
		}
		values[e] = format(v)
	}
	return values
}

// displayName drops the declaration offset from a variable key.
func displayName(key string) string {
	if i := strings.LastIndexByte(key, '@'); i >= 0 {
		return key[:i]
	}
	return key
}

func formatEnv(env lattice.Env) string {
	parts := make([]string, 0, len(env))
	for key, val := range env {
		parts = append(parts, displayName(key)+"="+val.String())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatVarSet(s lattice.VarSet) string {
	names := make([]string, 0, s.Len())
	for _, key := range s.Names() {
		names = append(names, displayName(key))
	}
	return "[" + strings.Join(names, " ") + "]"
}
