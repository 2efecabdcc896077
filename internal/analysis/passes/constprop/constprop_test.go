package constprop

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
)

type fixture struct {
	fset *token.FileSet
	fn   *ast.FuncDecl
	g    *cfg.Graph
}

func build(t *testing.T, src string) *fixture {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, 0)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			return &fixture{fset: fset, fn: fn, g: cfg.FromFunc(fn)}
		}
	}
	t.Fatal("no function")
	return nil
}

func (f *fixture) node(t *testing.T, prefix string) cfg.NodeID {
	t.Helper()
	for _, n := range f.g.Nodes() {
		if strings.HasPrefix(f.g.Label(n, f.fset), prefix) {
			return n
		}
	}
	t.Fatalf("no node labeled %q", prefix)
	return cfg.NoNode
}

// before joins the environments flowing into the node labeled prefix.
func (f *fixture) before(t *testing.T, prefix string) dataflow.Maybe[lattice.Env] {
	var out dataflow.Maybe[lattice.Env]
	for _, e := range f.g.InEdges(f.node(t, prefix)) {
		out = dataflow.JoinMaybe(out, dataflow.AssumptionOf[lattice.Env](f.g.EdgeData(e)))
	}
	return out
}

// key returns the key of the first declaration of name.
func (f *fixture) key(t *testing.T, name string) string {
	t.Helper()
	var key string
	ast.Inspect(f.fn.Body, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name && key == "" {
			key, _ = f.g.Vars().Key(id)
		}
		return key == ""
	})
	require.NotEmpty(t, key, "variable %s", name)
	return key
}

func (f *fixture) body(t *testing.T) string {
	var buf bytes.Buffer
	require.NoError(t, printer.Fprint(&buf, f.fset, f.fn.Body))
	return buf.String()
}

func TestSolveFacts(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f(c bool) int {
			x := 2
			y := x * 3
			if c {
				y = 7
			}
			return y
		}`)
	solver := cfg.NewSolver[lattice.Env](true)
	solver.Solve(f.g, New())

	env, ok := f.before(t, "y := x * 3").Get()
	require.True(t, ok)
	assert.Equal(t, lattice.IntConst(2), env.Get(f.key(t, "x")))

	env, ok = f.before(t, "cond c").Get()
	require.True(t, ok)
	assert.Equal(t, lattice.IntConst(6), env.Get(f.key(t, "y")))

	env, ok = f.before(t, "return y").Get()
	require.True(t, ok)
	assert.Equal(t, lattice.IntConst(2), env.Get(f.key(t, "x")))
	assert.Equal(t, lattice.TopConst, env.Get(f.key(t, "y")))

	assert.True(t, solver.IsFixedPoint(f.g, New().FlowFunction()))
}

func TestLoopWidensToTop(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f(n int) int {
			s := 0
			k := 5
			for i := 0; i < n; i++ {
				s += k
			}
			return s
		}`)
	cfg.NewSolver[lattice.Env](true).Solve(f.g, New())

	env, ok := f.before(t, "return s").Get()
	require.True(t, ok)
	assert.Equal(t, lattice.TopConst, env.Get(f.key(t, "s")))
	assert.Equal(t, lattice.IntConst(5), env.Get(f.key(t, "k")))
	assert.Equal(t, lattice.TopConst, env.Get(f.key(t, "i")))
}

func TestConstantConditionPrunesEdge(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f() int {
			debug := false
			n := 1
			println(debug)
			if debug && n > 0 {
				n = 2
			}
			return n
		}`)
	cfg.NewSolver[lattice.Env](true).Solve(f.g, New())

	assert.True(t, f.before(t, "n = 2").IsBottom())
	env, ok := f.before(t, "return n").Get()
	require.True(t, ok)
	assert.Equal(t, lattice.IntConst(1), env.Get(f.key(t, "n")))
}

func TestSolveIntegratedFolds(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f() (int, int) {
			x := 2
			y := x * 3
			return x, y
		}`)
	changed := cfg.NewSolver[lattice.Env](true).SolveIntegrated(f.g, New())
	require.True(t, changed)

	body := f.body(t)
	assert.Contains(t, body, "y := 6")
	// Folding either result would leave a variable unused.
	assert.Contains(t, body, "return x, y")
}

func TestSolveIntegratedFoldsCondition(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f() int {
			debug := false
			n := 1
			println(debug)
			if debug && n > 0 {
				n = 2
			}
			return n
		}`)
	changed := cfg.NewSolver[lattice.Env](true).SolveIntegrated(f.g, New())
	require.True(t, changed)

	body := f.body(t)
	assert.Contains(t, body, "if false {")
	assert.Contains(t, body, "return n")
}

func TestFoldingMatchesPlainSolve(t *testing.T) {
	t.Parallel()
	src := `
		package main
		func f(c bool) int {
			a := 4
			b := a + 1
			if c {
				b = a * 2
			}
			d := b - a
			return a + b + d
		}`
	plain := build(t, src)
	cfg.NewSolver[lattice.Env](true).Solve(plain.g, New())

	integrated := build(t, src)
	cfg.NewSolver[lattice.Env](true).Analyze(integrated.g, New())

	for _, e := range plain.g.Nodes() {
		for _, in := range plain.g.InEdges(e) {
			want := dataflow.AssumptionOf[lattice.Env](plain.g.EdgeData(in))
			got := dataflow.AssumptionOf[lattice.Env](integrated.g.EdgeData(in))
			assert.True(t, dataflow.EqualMaybe(want, got), "edge %d: %v != %v", in, want, got)
		}
	}
}

func TestTransfer(t *testing.T) {
	t.Parallel()
	f := build(t, `
		package main
		func f() {
			a, b := 1, 2
			a, b = b, a
			a += 10
			b--
			var z int
			var ok bool
			var s string
			_, _, _ = z, ok, s
		}`)
	vars := f.g.Vars()
	env := lattice.Env{}
	for _, s := range f.fn.Body.List {
		env = Transfer(s, env, vars)
	}

	assert.Equal(t, lattice.IntConst(12), env.Get(f.key(t, "a")))
	assert.Equal(t, lattice.IntConst(0), env.Get(f.key(t, "b")))
	assert.Equal(t, lattice.IntConst(0), env.Get(f.key(t, "z")))
	assert.Equal(t, lattice.BoolConst(false), env.Get(f.key(t, "ok")))
	assert.Equal(t, lattice.TopConst, env.Get(f.key(t, "s")))
}

func TestEvalLiterals(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr string
		want lattice.Const
	}{
		{"1 + 2*3", lattice.IntConst(7)},
		{"7 / 2", lattice.IntConst(3)},
		{"-7 % 3", lattice.IntConst(-1)},
		{"1 << 70 >> 68", lattice.IntConst(4)},
		{"1 << 64", lattice.TopConst},
		{"-9223372036854775808", lattice.IntConst(-9223372036854775808)},
		{"0x10 | 0b1", lattice.IntConst(17)},
		{"1_000", lattice.IntConst(1000)},
		{"^0", lattice.IntConst(-1)},
		{"3 > 2 && !false", lattice.BoolConst(true)},
		{"true == false", lattice.BoolConst(false)},
		{"1 / 0", lattice.TopConst},
		{"1.5", lattice.TopConst},
		{`"s"`, lattice.TopConst},
		{"x + 1", lattice.TopConst},
		{"false && x", lattice.BoolConst(false)},
		{"true || x", lattice.BoolConst(true)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			x, err := parser.ParseExpr(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Eval(x, nil, nil))
		})
	}
}

func TestBinaryRuntimeSemantics(t *testing.T) {
	t.Parallel()
	assert.Equal(t, lattice.IntConst(0), Binary(token.MUL, lattice.IntConst(1<<62), lattice.IntConst(4)))
	assert.Equal(t, lattice.IntConst(0), Binary(token.SHL, lattice.IntConst(1), lattice.IntConst(64)))
	assert.Equal(t, lattice.TopConst, Binary(token.SHL, lattice.IntConst(1), lattice.IntConst(-1)))
	assert.Equal(t, lattice.TopConst, Binary(token.REM, lattice.IntConst(1), lattice.IntConst(0)))
	assert.Equal(t, lattice.TopConst, Binary(token.ADD, lattice.IntConst(1), lattice.TopConst))
	assert.Equal(t, lattice.TopConst, Binary(token.ADD, lattice.IntConst(1), lattice.BoolConst(true)))
	assert.Equal(t, lattice.BoolConst(true), Unary(token.NOT, lattice.BoolConst(false)))
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	for _, c := range []lattice.Const{
		lattice.IntConst(0),
		lattice.IntConst(42),
		lattice.IntConst(-5),
		lattice.IntConst(-9223372036854775808),
		lattice.BoolConst(true),
	} {
		lit := literal(c)
		assert.True(t, isLiteral(lit), "%v", c)
		assert.Equal(t, c, Eval(lit, nil, nil))
	}
}
