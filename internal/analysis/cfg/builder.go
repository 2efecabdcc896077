package cfg

import (
	"go/ast"
	"go/token"
)

// FromFunc builds the graph of a function declaration. It returns nil for
// declarations without a body.
func FromFunc(fn *ast.FuncDecl) *Graph {
	if fn == nil || fn.Body == nil {
		return nil
	}
	return FromBody(fn.Body)
}

// FromBody builds the graph of a function body.
func FromBody(body *ast.BlockStmt) *Graph {
	g := &Graph{body: body, vars: collectVars(body)}
	b := &builder{g: g}

	g.Entry = g.AddNode(Entry, nil, nil)
	g.AddGraphInEdge(g.Entry)
	b.live = []exit{{from: g.Entry}}

	if body != nil {
		b.stmtList(body.List)
	}

	g.Exit = g.AddNode(Exit, nil, nil)
	b.link(g.Exit)
	for _, r := range b.returns {
		g.AddEdge(r.from, g.Exit, r.role)
	}
	g.AddGraphOutEdge(g.Exit, Normal)
	return g
}

// exit is a dangling edge waiting for its target.
type exit struct {
	from NodeID
	role Role
}

type frame struct {
	label     string
	loop      bool
	breaks    []exit
	continues []exit
}

type builder struct {
	g       *Graph
	live    []exit
	returns []exit
	frames  []*frame
	label   string
}

func (b *builder) link(to NodeID) {
	for _, x := range b.live {
		b.g.AddEdge(x.from, to, x.role)
	}
	b.live = nil
}

func (b *builder) add(kind Kind, stmt ast.Stmt, cond ast.Expr) NodeID {
	n := b.g.AddNode(kind, stmt, cond)
	b.link(n)
	b.live = []exit{{from: n}}
	return n
}

func (b *builder) unsupported(reason string) {
	if b.g.unsupported == "" {
		b.g.unsupported = reason
	}
}

func (b *builder) takeLabel() string {
	l := b.label
	b.label = ""
	return l
}

func (b *builder) push(label string, loop bool) *frame {
	f := &frame{label: label, loop: loop}
	b.frames = append(b.frames, f)
	return f
}

func (b *builder) pop() {
	b.frames = b.frames[:len(b.frames)-1]
}

// target finds the frame a break or continue jumps to.
func (b *builder) target(label *ast.Ident, cont bool) *frame {
	for i := len(b.frames) - 1; i >= 0; i-- {
		f := b.frames[i]
		if cont && !f.loop {
			continue
		}
		if label == nil || f.label == label.Name {
			return f
		}
	}
	return nil
}

func (b *builder) stmtList(list []ast.Stmt) {
	for _, s := range list {
		b.stmt(s)
	}
}

func (b *builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		b.stmtList(s.List)

	case *ast.LabeledStmt:
		b.label = s.Label.Name
		b.stmt(s.Stmt)
		b.label = ""

	case *ast.IfStmt:
		b.label = ""
		if s.Init != nil {
			b.add(Stmt, s.Init, nil)
		}
		n := b.add(Cond, s, s.Cond)
		b.live = []exit{{n, Then}}
		b.stmt(s.Body)
		then := b.live
		b.live = []exit{{n, Else}}
		if s.Else != nil {
			b.stmt(s.Else)
		}
		b.live = append(then, b.live...)

	case *ast.ForStmt:
		label := b.takeLabel()
		if s.Init != nil {
			b.add(Stmt, s.Init, nil)
		}
		head := b.add(Cond, s, s.Cond)
		f := b.push(label, true)
		b.live = []exit{{head, Then}}
		b.stmt(s.Body)
		b.live = append(b.live, f.continues...)
		if s.Post != nil {
			b.add(Stmt, s.Post, nil)
		}
		b.link(head)
		b.pop()
		b.live = f.breaks
		if s.Cond != nil {
			b.live = append(b.live, exit{head, Else})
		}

	case *ast.RangeStmt:
		label := b.takeLabel()
		head := b.add(Range, s, nil)
		f := b.push(label, true)
		b.live = []exit{{head, Then}}
		b.stmt(s.Body)
		b.live = append(b.live, f.continues...)
		b.link(head)
		b.pop()
		b.live = append(f.breaks, exit{head, Else})

	case *ast.SwitchStmt:
		label := b.takeLabel()
		if s.Init != nil {
			b.add(Stmt, s.Init, nil)
		}
		head := b.add(Branch, s, s.Tag)
		b.clauses(label, head, s.Body)

	case *ast.TypeSwitchStmt:
		label := b.takeLabel()
		if s.Init != nil {
			b.add(Stmt, s.Init, nil)
		}
		head := b.add(Branch, s, nil)
		b.clauses(label, head, s.Body)

	case *ast.SelectStmt:
		label := b.takeLabel()
		head := b.add(Branch, s, nil)
		b.clauses(label, head, s.Body)

	case *ast.ReturnStmt:
		n := b.add(Stmt, s, nil)
		b.returns = append(b.returns, exit{from: n})
		b.live = nil

	case *ast.BranchStmt:
		switch s.Tok {
		case token.BREAK, token.CONTINUE:
			cont := s.Tok == token.CONTINUE
			f := b.target(s.Label, cont)
			if f == nil {
				b.unsupported("unresolved " + s.Tok.String())
				return
			}
			if cont {
				f.continues = append(f.continues, b.live...)
			} else {
				f.breaks = append(f.breaks, b.live...)
			}
			b.live = nil
		default:
			b.unsupported(s.Tok.String())
			b.add(Stmt, s, nil)
		}

	case *ast.EmptyStmt:
		// nothing

	default:
		b.add(Stmt, s, nil)
	}
}

func (b *builder) clauses(label string, head NodeID, body *ast.BlockStmt) {
	f := b.push(label, false)
	hasDefault := false
	for _, cl := range body.List {
		b.live = []exit{{from: head}}
		switch cl := cl.(type) {
		case *ast.CaseClause:
			if cl.List == nil {
				hasDefault = true
			}
			b.stmtList(cl.Body)
		case *ast.CommClause:
			if cl.Comm == nil {
				hasDefault = true
			} else {
				b.add(Stmt, cl.Comm, nil)
			}
			b.stmtList(cl.Body)
		}
		f.breaks = append(f.breaks, b.live...)
	}
	b.pop()
	b.live = f.breaks
	if !hasDefault {
		b.live = append(b.live, exit{from: head})
	}
}
