// Package constprop propagates integer and boolean constants through local
// variables and folds expressions whose value is known.
package constprop

import (
	"go/ast"
	"go/token"
	"slices"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
)

// Name identifies the pass in configuration and output.
const Name = "constprop"

// Map is the assumption map the analysis works on.
type Map = dataflow.AssumptionMap[cfg.EdgeID, lattice.Env]

// Analysis is a forward analysis over lattice.Env. As an integrated analysis
// it replaces right-hand sides, return values and branch conditions with the
// literal they evaluate to.
type Analysis struct{}

// New returns the analysis.
func New() *Analysis {
	return &Analysis{}
}

// SeedInitialAssumptions marks every variable unknown on function entry.
func (a *Analysis) SeedInitialAssumptions(g *cfg.Graph, m Map) {
	dataflow.SetEdges(m, g.GraphInEdges(), dataflow.Some(lattice.Env{}))
}

func (a *Analysis) FlowFunction() dataflow.FlowFunction[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.Env] {
	return dataflow.FlowFunc[cfg.NodeID, cfg.EdgeID, *cfg.Graph, lattice.Env](func(n cfg.NodeID, g *cfg.Graph, m Map) {
		a.interpret(n, g, m, false)
	})
}

func (a *Analysis) IntegratedFlowFunction() dataflow.IntegratedFlowFunction[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.Env] {
	return dataflow.IntegratedFlowFunc[cfg.NodeID, cfg.EdgeID, cfg.Rewriter, *cfg.Graph, lattice.Env](func(n cfg.NodeID, g *cfg.Graph, m Map) *cfg.Transformation {
		return a.interpret(n, g, m, true)
	})
}

func (a *Analysis) interpret(n cfg.NodeID, g *cfg.Graph, m Map, fold bool) *cfg.Transformation {
	env, ok := dataflow.JoinEdges(m, g.InEdges(n)).Get()
	if !ok {
		return nil
	}
	vars := g.Vars()

	switch g.Kind(n) {
	case cfg.Stmt:
		if fold {
			if clone, es := foldStmt(g.Stmt(n), env, vars); len(es) > 0 {
				return g.Replace(n, cfg.Stmt, clone, nil, cfg.Named(Name, es))
			}
		}
		dataflow.SetEdges(m, g.OutEdges(n), dataflow.Some(Transfer(g.Stmt(n), env, vars)))

	case cfg.Cond:
		cond := g.Cond(n)
		if cond == nil {
			dataflow.SetEdges(m, g.OutEdges(n), dataflow.Some(env))
			return nil
		}
		c := Eval(cond, env, vars)
		if fold && c.IsConstant() && !isLiteral(cond) {
			lit := literal(c)
			return g.Replace(n, cfg.Cond, g.Stmt(n), lit, cfg.Named(Name, edits{{old: cond, new: lit}}))
		}
		for _, e := range g.OutEdges(n) {
			if c.Kind != lattice.Bool || (g.Role(e) == cfg.Then) == c.Bool {
				m.Set(e, dataflow.Some(env))
			}
		}

	case cfg.Range:
		dataflow.SetEdges(m, g.OutEdges(n), dataflow.Some(Transfer(g.Stmt(n), env, vars)))

	default:
		dataflow.SetEdges(m, g.OutEdges(n), dataflow.Some(env))
	}
	return nil
}

var opAssign = map[token.Token]token.Token{
	token.ADD_ASSIGN:     token.ADD,
	token.SUB_ASSIGN:     token.SUB,
	token.MUL_ASSIGN:     token.MUL,
	token.QUO_ASSIGN:     token.QUO,
	token.REM_ASSIGN:     token.REM,
	token.AND_ASSIGN:     token.AND,
	token.OR_ASSIGN:      token.OR,
	token.XOR_ASSIGN:     token.XOR,
	token.SHL_ASSIGN:     token.SHL,
	token.SHR_ASSIGN:     token.SHR,
	token.AND_NOT_ASSIGN: token.AND_NOT,
}

// Transfer returns the environment after s executes.
func Transfer(s ast.Stmt, env lattice.Env, vars *cfg.Vars) lattice.Env {
	switch s := s.(type) {
	case *ast.AssignStmt:
		if op, ok := opAssign[s.Tok]; ok {
			cur := Eval(s.Lhs[0], env, vars)
			return bind(env, s.Lhs[0], Binary(op, cur, Eval(s.Rhs[0], env, vars)), vars)
		}
		if len(s.Lhs) != len(s.Rhs) {
			for _, lhs := range s.Lhs {
				env = bind(env, lhs, lattice.TopConst, vars)
			}
			return env
		}
		// Right-hand sides are evaluated before any assignment happens.
		vals := make([]lattice.Const, len(s.Rhs))
		for i, rhs := range s.Rhs {
			vals[i] = Eval(rhs, env, vars)
		}
		for i, lhs := range s.Lhs {
			env = bind(env, lhs, vals[i], vars)
		}

	case *ast.IncDecStmt:
		op := token.ADD
		if s.Tok == token.DEC {
			op = token.SUB
		}
		return bind(env, s.X, Binary(op, Eval(s.X, env, vars), lattice.IntConst(1)), vars)

	case *ast.DeclStmt:
		gd, ok := s.Decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			return env
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				val := lattice.TopConst
				switch {
				case len(vs.Values) == len(vs.Names):
					val = Eval(vs.Values[i], env, vars)
				case len(vs.Values) == 0:
					val = zero(vars.Type(name))
				}
				env = bind(env, name, val, vars)
			}
		}

	case *ast.RangeStmt:
		for _, key := range vars.Defs(s) {
			env = env.With(key, lattice.TopConst)
		}
	}
	return env
}

func zero(t cfg.VarType) lattice.Const {
	switch t {
	case cfg.IntVar:
		return lattice.IntConst(0)
	case cfg.BoolVar:
		return lattice.BoolConst(false)
	}
	return lattice.TopConst
}

func bind(env lattice.Env, lhs ast.Expr, val lattice.Const, vars *cfg.Vars) lattice.Env {
	id, ok := lhs.(*ast.Ident)
	if !ok {
		return env
	}
	key, ok := vars.Key(id)
	if !ok {
		return env
	}
	if vars.Type(id) == cfg.OtherVar {
		val = lattice.TopConst
	}
	return env.With(key, val)
}

// foldStmt returns a copy of s with every foldable expression replaced by
// its literal, and the edits that do the same to the body.
func foldStmt(s ast.Stmt, env lattice.Env, vars *cfg.Vars) (ast.Stmt, edits) {
	var all edits
	foldList := func(list []ast.Expr) []ast.Expr {
		var out []ast.Expr
		for i, x := range list {
			if isLiteral(x) {
				continue
			}
			c := Eval(x, env, vars)
			if !c.IsConstant() {
				continue
			}
			if out == nil {
				out = slices.Clone(list)
			}
			out[i] = literal(c)
			all = append(all, edit{old: x, new: out[i]})
		}
		return out
	}

	switch s := s.(type) {
	case *ast.AssignStmt:
		if len(s.Lhs) != len(s.Rhs) {
			return nil, nil
		}
		if rhs := foldList(s.Rhs); rhs != nil {
			cp := *s
			cp.Rhs = rhs
			return &cp, all
		}
	case *ast.ReturnStmt:
		if results := foldList(s.Results); results != nil {
			cp := *s
			cp.Results = results
			return &cp, all
		}
	case *ast.DeclStmt:
		gd, ok := s.Decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.VAR {
			return nil, nil
		}
		specs := slices.Clone(gd.Specs)
		for i, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			if len(vs.Values) != len(vs.Names) {
				continue
			}
			if values := foldList(vs.Values); values != nil {
				cp := *vs
				cp.Values = values
				specs[i] = &cp
			}
		}
		if len(all) > 0 {
			decl := *gd
			decl.Specs = specs
			return &ast.DeclStmt{Decl: &decl}, all
		}
	}
	return nil, nil
}

type edit struct {
	old ast.Expr
	new ast.Expr
}

// edits rewrites the body one expression at a time, skipping any whose
// removal would leave a variable or import unused.
type edits []edit

func (es edits) Rewrite(g *cfg.Graph, _ cfg.NodeID) bool {
	changed := false
	for _, e := range es {
		if !g.Vars().KeepsReads(e.old) {
			continue
		}
		if g.ReplaceExpr(e.old, e.new) {
			changed = true
		}
	}
	return changed
}
