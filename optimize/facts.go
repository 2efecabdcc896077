package optimize

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/optimizer"
)

// ErrFuncNotFound is returned when a file has no function of the requested
// name.
var ErrFuncNotFound = errors.New("function not found")

// FuncFacts is the fixed point of one pass over one function.
type FuncFacts struct {
	Fset *token.FileSet
	Func *ast.FuncDecl
	*optimizer.Facts
}

// Facts solves pass over the function funcName of filename without
// rewriting anything.
func (e *Engine) Facts(filename, funcName, pass string) (*FuncFacts, error) {
	fset, fn, err := findFunc(filename, funcName)
	if err != nil {
		return nil, err
	}
	facts, err := e.optimizer.Facts(fn, pass)
	if err != nil {
		return nil, err
	}
	return &FuncFacts{Fset: fset, Func: fn, Facts: facts}, nil
}

// Graph builds the control flow graph of the function funcName of filename.
func Graph(filename, funcName string) (*token.FileSet, *cfg.Graph, error) {
	fset, fn, err := findFunc(filename, funcName)
	if err != nil {
		return nil, nil, err
	}
	g := cfg.FromFunc(fn)
	if g == nil {
		return nil, nil, fmt.Errorf("function %s has no body", funcName)
	}
	return fset, g, nil
}

func findFunc(filename, funcName string) (*token.FileSet, *ast.FuncDecl, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	fn := optimizer.FindFunc(file, funcName)
	if fn == nil {
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrFuncNotFound, funcName, filename)
	}
	return fset, fn, nil
}
