// Package optimizer drives the dataflow passes over Go functions until they
// stop changing.
//
// Each round builds a fresh control flow graph and runs two integrated
// solves. The forward one combines unreachable code removal with constant
// propagation; the backward one removes dead stores. A round that changes
// nothing ends the loop.
package optimizer

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"

	"go.uber.org/zap"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/dataflow"
	"github.com/gnolang/gflow/internal/analysis/lattice"
	"github.com/gnolang/gflow/internal/analysis/passes/constprop"
	"github.com/gnolang/gflow/internal/analysis/passes/liveness"
	"github.com/gnolang/gflow/internal/analysis/passes/unreachable"
	"github.com/gnolang/gflow/internal/directive"
	"github.com/gnolang/gflow/internal/types"
)

// DefaultMaxRounds bounds the rounds spent on one function.
const DefaultMaxRounds = 4

// Passes lists every pass in the order it runs.
var Passes = []string{unreachable.Name, constprop.Name, liveness.Name}

// Config selects passes and limits.
type Config struct {
	// Passes switches passes on or off by name. Missing passes are on.
	Passes    map[string]bool
	MaxRounds int
	// MaxSteps bounds each fixed-point computation. Zero keeps the solver
	// default, a negative value removes the bound.
	MaxSteps int
}

// Enabled reports whether pass is switched on.
func (c Config) Enabled(pass string) bool {
	on, ok := c.Passes[pass]
	return !ok || on
}

// Optimizer rewrites function bodies in place.
type Optimizer struct {
	config Config
	logger *zap.Logger
}

// New returns an optimizer. A nil logger discards output.
func New(config Config, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRounds <= 0 {
		config.MaxRounds = DefaultMaxRounds
	}
	return &Optimizer{config: config, logger: logger}
}

func (o *Optimizer) solverOptions() []dataflow.SolverOption {
	opts := []dataflow.SolverOption{dataflow.WithLogger(o.logger)}
	switch {
	case o.config.MaxSteps > 0:
		opts = append(opts, dataflow.WithMaxSteps(o.config.MaxSteps))
	case o.config.MaxSteps < 0:
		opts = append(opts, dataflow.WithMaxSteps(0))
	}
	return opts
}

// OptimizeFile optimizes every function of file, honoring //gflow:ignore
// directives. A function that fails does not stop the others; the errors
// are joined.
func (o *Optimizer) OptimizeFile(fset *token.FileSet, file *ast.File) ([]types.FuncResult, error) {
	directives := directive.ParseComments(file, fset)

	var results []types.FuncResult
	var errs []error
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		disabled := make(map[string]bool)
		for _, pass := range Passes {
			if directives.IgnoredFunc(fset, fn, pass) {
				disabled[pass] = true
			}
		}
		if len(disabled) == len(Passes) {
			results = append(results, types.FuncResult{Func: FuncName(fn), Skipped: "ignored"})
			continue
		}
		res, err := o.optimize(fset, fn, disabled)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// OptimizeFunc optimizes one function.
func (o *Optimizer) OptimizeFunc(fset *token.FileSet, fn *ast.FuncDecl) (types.FuncResult, error) {
	return o.optimize(fset, fn, nil)
}

func (o *Optimizer) optimize(fset *token.FileSet, fn *ast.FuncDecl, disabled map[string]bool) (res types.FuncResult, err error) {
	name := FuncName(fn)
	res.Func = name

	defer func() {
		if r := recover(); r != nil {
			violation, ok := r.(*dataflow.ContractViolation)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("optimize %s: %w", name, violation)
		}
	}()

	enabled := func(pass string) bool {
		return o.config.Enabled(pass) && !disabled[pass]
	}
	opts := o.solverOptions()
	log := newChangeLog(fset, name)
	defer func() { res.Changes = log.changes }()

	for res.Rounds < o.config.MaxRounds {
		g := cfg.FromFunc(fn)
		if g == nil {
			return res, nil
		}
		if reason := g.Unsupported(); reason != "" {
			res.Skipped = "unsupported " + reason
			o.logger.Debug("skipping function", zap.String("func", name), zap.String("reason", reason))
			return res, nil
		}
		res.Rounds++
		changed := false

		if fwd := forward(enabled); fwd.Len() > 0 {
			if cfg.NewSolver[dataflow.Combined](true, opts...).SolveIntegrated(g, fwd) {
				changed = true
				log.record(g.Edits())
				g = cfg.FromFunc(fn)
			}
		}
		if bwd := backward(enabled); bwd.Len() > 0 {
			if cfg.NewSolver[dataflow.Combined](false, opts...).SolveIntegrated(g, bwd) {
				changed = true
				log.record(g.Edits())
			}
		}

		o.logger.Debug("optimization round",
			zap.String("func", name),
			zap.Int("round", res.Rounds),
			zap.Bool("changed", changed),
		)
		if !changed {
			break
		}
	}
	return res, nil
}

func forward(enabled func(string) bool) *cfg.Combined {
	c := cfg.NewCombined()
	if enabled(unreachable.Name) {
		cfg.AddAnalysis[lattice.Reach](c, unreachable.New())
	}
	if enabled(constprop.Name) {
		cfg.AddAnalysis[lattice.Env](c, constprop.New())
	}
	return c
}

func backward(enabled func(string) bool) *cfg.Combined {
	c := cfg.NewCombined()
	if enabled(liveness.Name) {
		cfg.AddAnalysis[lattice.VarSet](c, liveness.New())
	}
	return c
}

// changeLog turns graph edits into changes against the original source.
// Nodes synthesized by an earlier edit have no position; a later edit of
// such a node is folded into the change that introduced it.
type changeLog struct {
	fset    *token.FileSet
	fn      string
	changes []types.Change
	origin  map[ast.Node]int
}

func newChangeLog(fset *token.FileSet, fn string) *changeLog {
	return &changeLog{fset: fset, fn: fn, origin: make(map[ast.Node]int)}
}

func (l *changeLog) record(edits []cfg.Edit) {
	for _, e := range edits {
		if i, ok := l.origin[e.Old]; ok {
			c := &l.changes[i]
			c.Kind = e.Kind.String()
			c.New = ""
			if e.New != nil {
				c.New = render(l.fset, e.New)
				l.origin[e.New] = i
			}
			continue
		}
		if !e.Old.Pos().IsValid() {
			continue
		}
		c := types.Change{
			Pass:  e.Pass,
			Func:  l.fn,
			Kind:  e.Kind.String(),
			Start: l.fset.Position(e.Old.Pos()),
			End:   l.fset.Position(e.Old.End()),
			Old:   render(l.fset, e.Old),
		}
		c.Filename = c.Start.Filename
		if e.New != nil {
			c.New = render(l.fset, e.New)
			l.origin[e.New] = len(l.changes)
		}
		l.changes = append(l.changes, c)
	}
}

func render(fset *token.FileSet, n ast.Node) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, fset, n); err != nil {
		return fmt.Sprintf("<%T>", n)
	}
	return buf.String()
}

// FuncName returns the name of fn qualified by its receiver type, as in
// (*T).Method.
func FuncName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	recv := fn.Recv.List[0].Type
	if idx, ok := recv.(*ast.IndexExpr); ok {
		recv = idx.X
	}
	switch t := recv.(type) {
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return "(*" + id.Name + ")." + fn.Name.Name
		}
		if idx, ok := t.X.(*ast.IndexExpr); ok {
			if id, ok := idx.X.(*ast.Ident); ok {
				return "(*" + id.Name + ")." + fn.Name.Name
			}
		}
	case *ast.Ident:
		return t.Name + "." + fn.Name.Name
	}
	return fn.Name.Name
}

// FindFunc returns the function of file called name, matched either bare
// or qualified as FuncName prints it.
func FindFunc(file *ast.File, name string) *ast.FuncDecl {
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if FuncName(fn) == name || (fn.Recv == nil && fn.Name.Name == name) {
			return fn
		}
	}
	return nil
}
