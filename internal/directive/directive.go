// Package directive parses //gflow:ignore comments.
//
// A directive either names passes after a colon, as in
// //gflow:ignore:constprop,liveness, or applies to every pass. Its scope
// follows where it is written: before the package clause it covers the
// file, trailing a statement it covers that statement, otherwise it covers
// the statement or function declared on the next line. The optimizer works
// function by function, so a scope touching any line of a function
// disables the named passes for the whole function.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
)

const prefix = "//gflow:ignore"

// Manager holds the directive scopes of one file.
type Manager struct {
	scopes []scope
}

type scope struct {
	passes map[string]struct{}
	start  token.Position
	end    token.Position
}

// ParseComments collects the directives of f.
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{}
	stmtMap := indexStatementsByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, cg := range f.Comments {
		for _, comment := range cg.List {
			s, err := parseComment(comment, f, fset, stmtMap, packageLine)
			if err != nil {
				continue
			}
			m.scopes = append(m.scopes, s)
		}
	}
	return m
}

func parseComment(
	comment *ast.Comment,
	f *ast.File,
	fset *token.FileSet,
	stmtMap map[int]ast.Stmt,
	packageLine int,
) (scope, error) {
	var s scope
	if !strings.HasPrefix(comment.Text, prefix) {
		return s, fmt.Errorf("not a directive")
	}
	rest := comment.Text[len(prefix):]
	if rest != "" {
		if rest[0] != ':' {
			return s, fmt.Errorf("invalid directive %q", comment.Text)
		}
		rest = strings.TrimSpace(rest[1:])
		if rest == "" {
			return s, fmt.Errorf("invalid directive %q: no passes after colon", comment.Text)
		}
	}
	s.passes = parsePassNames(rest)
	pos := fset.Position(comment.Slash)

	if pos.Line < packageLine {
		s.start = fset.Position(f.Pos())
		s.end = fset.Position(f.End())
		return s, nil
	}

	if stmt, ok := stmtMap[pos.Line]; ok && pos.Offset > fset.Position(stmt.Pos()).Offset {
		s.start = fset.Position(stmt.Pos())
		s.end = fset.Position(stmt.End())
		return s, nil
	}

	if stmt, ok := stmtMap[pos.Line+1]; ok {
		s.start = pos
		s.end = fset.Position(stmt.End())
		return s, nil
	}

	if decl := findFunctionAfterLine(fset, f, pos.Line); decl != nil && fset.Position(decl.Pos()).Line == pos.Line+1 {
		s.start = pos
		s.end = fset.Position(decl.End())
		return s, nil
	}

	s.start = pos
	s.end = pos
	return s, nil
}

func parsePassNames(text string) map[string]struct{} {
	passes := make(map[string]struct{})
	for _, name := range strings.Split(text, ",") {
		if name = strings.TrimSpace(name); name != "" {
			passes[name] = struct{}{}
		}
	}
	return passes
}

// indexStatementsByLine maps each line to the first statement starting on it.
func indexStatementsByLine(f *ast.File, fset *token.FileSet) map[int]ast.Stmt {
	stmtMap := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, exists := stmtMap[line]; !exists {
				stmtMap[line] = stmt
			}
		}
		return true
	})
	return stmtMap
}

func findFunctionAfterLine(fset *token.FileSet, f *ast.File, line int) *ast.FuncDecl {
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fset.Position(fn.Pos()).Line >= line {
			return fn
		}
	}
	return nil
}

// Ignored reports whether pass is disabled anywhere in the lines from start
// to end.
func (m *Manager) Ignored(start, end token.Position, pass string) bool {
	if m == nil {
		return false
	}
	for _, s := range m.scopes {
		if s.start.Filename != start.Filename || s.end.Line < start.Line || s.start.Line > end.Line {
			continue
		}
		if len(s.passes) == 0 {
			return true
		}
		if _, ok := s.passes[pass]; ok {
			return true
		}
	}
	return false
}

// IgnoredFunc reports whether pass is disabled for fn.
func (m *Manager) IgnoredFunc(fset *token.FileSet, fn *ast.FuncDecl, pass string) bool {
	return m.Ignored(fset.Position(fn.Pos()), fset.Position(fn.End()), pass)
}
