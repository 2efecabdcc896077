package constprop

import (
	"go/ast"
	"go/constant"
	"go/token"
	"strconv"

	"github.com/gnolang/gflow/internal/analysis/cfg"
	"github.com/gnolang/gflow/internal/analysis/lattice"
)

// Eval computes the value of x under env. Subexpressions made only of
// literals are evaluated exactly, like the compiler does; everything else
// follows 64-bit int arithmetic.
func Eval(x ast.Expr, env lattice.Env, vars *cfg.Vars) lattice.Const {
	if v, ok := constExpr(x); ok {
		return fromConstant(v)
	}
	switch x := x.(type) {
	case *ast.ParenExpr:
		return Eval(x.X, env, vars)
	case *ast.Ident:
		if vars.Type(x) == cfg.OtherVar {
			return lattice.TopConst
		}
		key, _ := vars.Key(x)
		return env.Get(key)
	case *ast.UnaryExpr:
		return Unary(x.Op, Eval(x.X, env, vars))
	case *ast.BinaryExpr:
		l := Eval(x.X, env, vars)
		switch {
		case x.Op == token.LAND && l == lattice.BoolConst(false):
			return l
		case x.Op == token.LOR && l == lattice.BoolConst(true):
			return l
		}
		return Binary(x.Op, l, Eval(x.Y, env, vars))
	}
	return lattice.TopConst
}

// Unary applies a unary operator.
func Unary(op token.Token, v lattice.Const) lattice.Const {
	switch {
	case v.Kind == lattice.Int:
		switch op {
		case token.ADD:
			return v
		case token.SUB:
			return lattice.IntConst(-v.Int)
		case token.XOR:
			return lattice.IntConst(^v.Int)
		}
	case v.Kind == lattice.Bool && op == token.NOT:
		return lattice.BoolConst(!v.Bool)
	}
	return lattice.TopConst
}

// Binary applies a binary operator. Operations that would panic at run time
// yield Top.
func Binary(op token.Token, l, r lattice.Const) lattice.Const {
	if l.Kind == lattice.Int && r.Kind == lattice.Int {
		a, b := l.Int, r.Int
		switch op {
		case token.ADD:
			return lattice.IntConst(a + b)
		case token.SUB:
			return lattice.IntConst(a - b)
		case token.MUL:
			return lattice.IntConst(a * b)
		case token.QUO:
			if b == 0 {
				return lattice.TopConst
			}
			return lattice.IntConst(a / b)
		case token.REM:
			if b == 0 {
				return lattice.TopConst
			}
			return lattice.IntConst(a % b)
		case token.AND:
			return lattice.IntConst(a & b)
		case token.OR:
			return lattice.IntConst(a | b)
		case token.XOR:
			return lattice.IntConst(a ^ b)
		case token.AND_NOT:
			return lattice.IntConst(a &^ b)
		case token.SHL:
			if b < 0 {
				return lattice.TopConst
			}
			return lattice.IntConst(a << uint64(b))
		case token.SHR:
			if b < 0 {
				return lattice.TopConst
			}
			return lattice.IntConst(a >> uint64(b))
		case token.EQL:
			return lattice.BoolConst(a == b)
		case token.NEQ:
			return lattice.BoolConst(a != b)
		case token.LSS:
			return lattice.BoolConst(a < b)
		case token.LEQ:
			return lattice.BoolConst(a <= b)
		case token.GTR:
			return lattice.BoolConst(a > b)
		case token.GEQ:
			return lattice.BoolConst(a >= b)
		}
	}
	if l.Kind == lattice.Bool && r.Kind == lattice.Bool {
		a, b := l.Bool, r.Bool
		switch op {
		case token.LAND:
			return lattice.BoolConst(a && b)
		case token.LOR:
			return lattice.BoolConst(a || b)
		case token.EQL:
			return lattice.BoolConst(a == b)
		case token.NEQ:
			return lattice.BoolConst(a != b)
		}
	}
	return lattice.TopConst
}

// constExpr evaluates expressions built only from integer and boolean
// literals.
func constExpr(x ast.Expr) (constant.Value, bool) {
	switch x := x.(type) {
	case *ast.ParenExpr:
		return constExpr(x.X)
	case *ast.BasicLit:
		if x.Kind != token.INT {
			return nil, false
		}
		v := constant.MakeFromLiteral(x.Value, x.Kind, 0)
		return v, v.Kind() == constant.Int
	case *ast.Ident:
		if x.Obj == nil && (x.Name == "true" || x.Name == "false") {
			return constant.MakeBool(x.Name == "true"), true
		}
	case *ast.UnaryExpr:
		v, ok := constExpr(x.X)
		if !ok {
			return nil, false
		}
		switch {
		case v.Kind() == constant.Int && (x.Op == token.ADD || x.Op == token.SUB || x.Op == token.XOR):
			return constant.UnaryOp(x.Op, v, 0), true
		case v.Kind() == constant.Bool && x.Op == token.NOT:
			return constant.UnaryOp(x.Op, v, 0), true
		}
	case *ast.BinaryExpr:
		l, ok := constExpr(x.X)
		if !ok {
			return nil, false
		}
		r, ok := constExpr(x.Y)
		if !ok || l.Kind() != r.Kind() {
			return nil, false
		}
		return constBinary(x.Op, l, r)
	}
	return nil, false
}

func constBinary(op token.Token, l, r constant.Value) (constant.Value, bool) {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		if l.Kind() == constant.Bool && op != token.EQL && op != token.NEQ {
			return nil, false
		}
		return constant.MakeBool(constant.Compare(l, op, r)), true
	}
	if l.Kind() == constant.Bool {
		if op == token.LAND || op == token.LOR {
			return constant.BinaryOp(l, op, r), true
		}
		return nil, false
	}
	switch op {
	case token.SHL, token.SHR:
		s, ok := constant.Uint64Val(r)
		if !ok || s > 1<<16 {
			return nil, false
		}
		return constant.Shift(l, op, uint(s)), true
	case token.QUO, token.REM:
		if constant.Sign(r) == 0 {
			return nil, false
		}
		if op == token.QUO {
			op = token.QUO_ASSIGN
		}
		return constant.BinaryOp(l, op, r), true
	case token.ADD, token.SUB, token.MUL, token.AND, token.OR, token.XOR, token.AND_NOT:
		return constant.BinaryOp(l, op, r), true
	}
	return nil, false
}

func fromConstant(v constant.Value) lattice.Const {
	switch v.Kind() {
	case constant.Bool:
		return lattice.BoolConst(constant.BoolVal(v))
	case constant.Int:
		if i, exact := constant.Int64Val(v); exact {
			return lattice.IntConst(i)
		}
	}
	return lattice.TopConst
}

// isLiteral reports whether x already has the shape literal produces.
func isLiteral(x ast.Expr) bool {
	switch x := x.(type) {
	case *ast.BasicLit:
		return x.Kind == token.INT
	case *ast.Ident:
		return x.Obj == nil && (x.Name == "true" || x.Name == "false")
	case *ast.UnaryExpr:
		lit, ok := x.X.(*ast.BasicLit)
		return ok && x.Op == token.SUB && lit.Kind == token.INT
	}
	return false
}

// literal renders a constant as Go source.
func literal(c lattice.Const) ast.Expr {
	if c.Kind == lattice.Bool {
		return ast.NewIdent(strconv.FormatBool(c.Bool))
	}
	s := strconv.FormatInt(c.Int, 10)
	if c.Int < 0 {
		return &ast.UnaryExpr{Op: token.SUB, X: &ast.BasicLit{Kind: token.INT, Value: s[1:]}}
	}
	return &ast.BasicLit{Kind: token.INT, Value: s}
}
