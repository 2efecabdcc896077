package cfg

import (
	"fmt"
	"go/ast"
	"go/token"
)

// VarType is the inferred type class of a local variable.
type VarType int

const (
	OtherVar VarType = iota
	IntVar
	BoolVar
)

// Vars tracks the local variables declared in a function body.
//
// A variable is tracked when it is declared inside the body, its address is
// never taken and no function literal refers to it. Tracked variables can only
// change through assignments that name them, which is what lets analyses
// treat calls as opaque.
type Vars struct {
	body     *ast.BlockStmt
	declared map[*ast.Object]bool
	types    map[*ast.Object]VarType
	escaped  map[*ast.Object]bool
}

func collectVars(body *ast.BlockStmt) *Vars {
	v := &Vars{
		body:     body,
		declared: make(map[*ast.Object]bool),
		types:    make(map[*ast.Object]VarType),
		escaped:  make(map[*ast.Object]bool),
	}
	if body == nil {
		return v
	}
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if n.Tok != token.DEFINE {
				return true
			}
			for i, lhs := range n.Lhs {
				id, ok := lhs.(*ast.Ident)
				if !ok || id.Obj == nil || id.Obj.Decl != n {
					continue
				}
				typ := OtherVar
				if len(n.Lhs) == len(n.Rhs) {
					typ = v.inferType(n.Rhs[i])
				}
				v.declare(id.Obj, typ)
			}
		case *ast.ValueSpec:
			for i, id := range n.Names {
				if id.Obj == nil || id.Obj.Kind != ast.Var {
					continue
				}
				typ := OtherVar
				switch {
				case n.Type != nil:
					typ = namedType(n.Type)
				case len(n.Names) == len(n.Values):
					typ = v.inferType(n.Values[i])
				}
				v.declare(id.Obj, typ)
			}
		case *ast.RangeStmt:
			if n.Tok != token.DEFINE {
				return true
			}
			for _, x := range []ast.Expr{n.Key, n.Value} {
				if id, ok := x.(*ast.Ident); ok && id.Obj != nil {
					v.declare(id.Obj, OtherVar)
				}
			}
		case *ast.TypeSwitchStmt:
			// The symbol is re-declared per clause; keep it out of the analyses.
			if as, ok := n.Assign.(*ast.AssignStmt); ok {
				for _, lhs := range as.Lhs {
					if id, ok := lhs.(*ast.Ident); ok && id.Obj != nil {
						v.declared[id.Obj] = true
						v.escaped[id.Obj] = true
					}
				}
			}
		case *ast.UnaryExpr:
			if n.Op == token.AND {
				if id, ok := ast.Unparen(n.X).(*ast.Ident); ok && id.Obj != nil {
					v.escaped[id.Obj] = true
				}
			}
		case *ast.FuncLit:
			ast.Inspect(n.Body, func(n ast.Node) bool {
				if id, ok := n.(*ast.Ident); ok && id.Obj != nil {
					v.escaped[id.Obj] = true
				}
				return true
			})
		}
		return true
	})
	return v
}

func (v *Vars) declare(obj *ast.Object, typ VarType) {
	v.declared[obj] = true
	v.types[obj] = typ
}

func namedType(x ast.Expr) VarType {
	id, ok := x.(*ast.Ident)
	if !ok || id.Obj != nil {
		return OtherVar
	}
	switch id.Name {
	case "int":
		return IntVar
	case "bool":
		return BoolVar
	}
	return OtherVar
}

// inferType reports the type class of an initializer. Only shapes whose
// default type is certain are classified.
func (v *Vars) inferType(x ast.Expr) VarType {
	switch x := x.(type) {
	case *ast.ParenExpr:
		return v.inferType(x.X)
	case *ast.BasicLit:
		if x.Kind == token.INT {
			return IntVar
		}
	case *ast.Ident:
		if x.Obj == nil && (x.Name == "true" || x.Name == "false") {
			return BoolVar
		}
		if x.Obj != nil {
			return v.types[x.Obj]
		}
	case *ast.UnaryExpr:
		switch x.Op {
		case token.NOT:
			if v.inferType(x.X) == BoolVar {
				return BoolVar
			}
		case token.SUB, token.ADD, token.XOR:
			if v.inferType(x.X) == IntVar {
				return IntVar
			}
		}
	case *ast.BinaryExpr:
		switch x.Op {
		case token.LAND, token.LOR:
			return BoolVar
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
			return BoolVar
		case token.SHL, token.SHR:
			if v.inferType(x.X) == IntVar {
				return IntVar
			}
		default:
			if v.inferType(x.X) == IntVar && v.inferType(x.Y) == IntVar {
				return IntVar
			}
		}
	}
	return OtherVar
}

// Key returns the analysis key of a tracked variable reference.
func (v *Vars) Key(id *ast.Ident) (string, bool) {
	if v == nil || id == nil || id.Obj == nil || id.Obj.Kind != ast.Var {
		return "", false
	}
	if _, ok := v.types[id.Obj]; !ok || v.escaped[id.Obj] {
		return "", false
	}
	return fmt.Sprintf("%s@%d", id.Name, id.Obj.Pos()), true
}

// Type returns the type class of a tracked variable, OtherVar otherwise.
func (v *Vars) Type(id *ast.Ident) VarType {
	if _, ok := v.Key(id); !ok {
		return OtherVar
	}
	return v.types[id.Obj]
}

// Uses returns the keys of tracked variables whose value n reads. Compound
// assignments and inc/dec read their target.
func (v *Vars) Uses(n ast.Node) []string {
	return v.keys(readIdents(n, nil, true))
}

// Defs returns the keys of tracked variables a statement assigns.
func (v *Vars) Defs(s ast.Stmt) []string {
	var ids []*ast.Ident
	switch s := s.(type) {
	case *ast.AssignStmt:
		for _, lhs := range s.Lhs {
			if id, ok := lhs.(*ast.Ident); ok {
				ids = append(ids, id)
			}
		}
	case *ast.IncDecStmt:
		if id, ok := s.X.(*ast.Ident); ok {
			ids = append(ids, id)
		}
	case *ast.DeclStmt:
		if gd, ok := s.Decl.(*ast.GenDecl); ok && gd.Tok == token.VAR {
			for _, spec := range gd.Specs {
				ids = append(ids, spec.(*ast.ValueSpec).Names...)
			}
		}
	case *ast.RangeStmt:
		for _, x := range []ast.Expr{s.Key, s.Value} {
			if id, ok := x.(*ast.Ident); ok {
				ids = append(ids, id)
			}
		}
	}
	return v.keys(ids)
}

func (v *Vars) keys(ids []*ast.Ident) []string {
	var out []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if k, ok := v.Key(id); ok && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// KeepsReads reports whether the body still compiles after the subtree at
// removed goes away: every local variable and package name read inside it
// must be read somewhere else in the body too.
func (v *Vars) KeepsReads(removed ast.Node) bool {
	if v == nil || v.body == nil {
		return false
	}
	needVars := make(map[*ast.Object]bool)
	needPkgs := make(map[string]bool)
	for _, id := range readIdents(removed, nil, false) {
		if id.Obj != nil && v.declared[id.Obj] {
			needVars[id.Obj] = true
		}
	}
	ambiguous := false
	ast.Inspect(removed, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.SelectorExpr:
			if id, ok := n.X.(*ast.Ident); ok && id.Obj == nil {
				needPkgs[id.Name] = true
			}
		case *ast.CompositeLit:
			for _, elt := range n.Elts {
				if kv, ok := elt.(*ast.KeyValueExpr); ok {
					if id, ok := kv.Key.(*ast.Ident); ok && !keyedByValue(n.Type) && isVarKey(id, n.Type) && v.declared[id.Obj] {
						ambiguous = true
					}
				}
			}
		}
		return true
	})
	if ambiguous {
		return false
	}
	for _, id := range readIdents(v.body, removed, false) {
		delete(needVars, id.Obj)
	}
	ast.Inspect(v.body, func(n ast.Node) bool {
		if n == removed {
			return false
		}
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Obj == nil {
				delete(needPkgs, id.Name)
			}
		}
		return true
	})
	return len(needVars) == 0 && len(needPkgs) == 0
}

// readIdents returns the identifiers under root that are read, skipping the
// subtree at skip. Plain assignment targets are never reads. In semantic mode
// compound assignment and inc/dec targets are reads, and so are composite
// literal keys that may name a variable. Otherwise reads follow the
// compiler's notion of a variable being used.
func readIdents(root, skip ast.Node, semantic bool) []*ast.Ident {
	if root == nil {
		return nil
	}
	writes := make(map[*ast.Ident]bool)
	ast.Inspect(root, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.AssignStmt:
			if n.Tok == token.ASSIGN || n.Tok == token.DEFINE || !semantic {
				for _, lhs := range n.Lhs {
					if id, ok := lhs.(*ast.Ident); ok {
						writes[id] = true
					}
				}
			}
		case *ast.IncDecStmt:
			if id, ok := n.X.(*ast.Ident); ok && !semantic {
				writes[id] = true
			}
		case *ast.ValueSpec:
			for _, id := range n.Names {
				writes[id] = true
			}
		case *ast.RangeStmt:
			for _, x := range []ast.Expr{n.Key, n.Value} {
				if id, ok := x.(*ast.Ident); ok {
					writes[id] = true
				}
			}
		}
		return true
	})
	var out []*ast.Ident
	ast.Inspect(root, func(n ast.Node) bool {
		if skip != nil && n == skip {
			return false
		}
		switch n := n.(type) {
		case *ast.SelectorExpr:
			// Only X is a reference; Sel names a field or method.
			out = append(out, readIdents(n.X, skip, semantic)...)
			return false
		case *ast.CompositeLit:
			out = append(out, readIdents(n.Type, skip, semantic)...)
			for _, elt := range n.Elts {
				kv, ok := elt.(*ast.KeyValueExpr)
				if !ok {
					out = append(out, readIdents(elt, skip, semantic)...)
					continue
				}
				id, isIdent := kv.Key.(*ast.Ident)
				switch {
				case !isIdent, keyedByValue(n.Type):
					out = append(out, readIdents(kv.Key, skip, semantic)...)
				case semantic && isVarKey(id, n.Type):
					out = append(out, id)
				}
				out = append(out, readIdents(kv.Value, skip, semantic)...)
			}
			return false
		case *ast.RangeStmt:
			out = append(out, readIdents(n.X, skip, semantic)...)
			if n.Tok != token.DEFINE {
				for _, x := range []ast.Expr{n.Key, n.Value} {
					if _, ok := x.(*ast.Ident); !ok && x != nil {
						out = append(out, readIdents(x, skip, semantic)...)
					}
				}
			}
			out = append(out, readIdents(n.Body, skip, semantic)...)
			return false
		case *ast.Ident:
			if !writes[n] {
				out = append(out, n)
			}
		}
		return true
	})
	return out
}

// keyedByValue reports whether literal keys of typ are expressions.
func keyedByValue(typ ast.Expr) bool {
	switch typ.(type) {
	case *ast.MapType, *ast.ArrayType:
		return true
	}
	return false
}

// isVarKey reports whether a literal key may refer to a variable rather than
// a struct field.
func isVarKey(id *ast.Ident, typ ast.Expr) bool {
	if _, ok := typ.(*ast.StructType); ok {
		return false
	}
	return id.Obj != nil && id.Obj.Kind == ast.Var
}
