package lattice

import (
	"fmt"
	"sort"
	"strings"
)

// ValueKind orders the constant lattice.
type ValueKind int

const (
	Bottom ValueKind = iota // no value reaches here
	Int
	Bool
	Top // not a constant
)

func (v ValueKind) String() string {
	switch v {
	case Bottom:
		return "Bottom"
	case Int:
		return "Int"
	case Bool:
		return "Bool"
	case Top:
		return "Top"
	default:
		return "Unknown"
	}
}

// Const is an element of the constant lattice: Bottom < any constant < Top.
type Const struct {
	Kind ValueKind
	Int  int64
	Bool bool
}

// IntConst returns the integer constant v.
func IntConst(v int64) Const {
	return Const{Kind: Int, Int: v}
}

// BoolConst returns the boolean constant v.
func BoolConst(v bool) Const {
	return Const{Kind: Bool, Bool: v}
}

// TopConst is the non-constant value.
var TopConst = Const{Kind: Top}

// IsConstant reports whether c is a known int or bool.
func (c Const) IsConstant() bool {
	return c.Kind == Int || c.Kind == Bool
}

// Join returns the least upper bound in the lattice.
func (c Const) Join(other Const) Const {
	if c.Kind == Bottom {
		return other
	}
	if other.Kind == Bottom {
		return c
	}
	if c == other {
		return c
	}
	return TopConst
}

// Equal reports whether both describe the same value.
func (c Const) Equal(other Const) bool {
	return c == other
}

func (c Const) String() string {
	switch c.Kind {
	case Int:
		return fmt.Sprintf("%d", c.Int)
	case Bool:
		return fmt.Sprintf("%t", c.Bool)
	default:
		return c.Kind.String()
	}
}

// Env maps variables to constants. Missing entries are interpreted as Top,
// so Top is never stored.
type Env map[string]Const

// Get returns the stored value or Top when absent.
func (e Env) Get(name string) Const {
	if val, ok := e[name]; ok {
		return val
	}
	return TopConst
}

// With returns a copy of e with name bound to value.
func (e Env) With(name string, value Const) Env {
	out := e.Clone()
	if value.Kind == Top {
		delete(out, name)
		return out
	}
	out[name] = value
	return out
}

// Clone returns a shallow copy of the environment.
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Join merges two environments variable by variable.
func (e Env) Join(other Env) Env {
	out := make(Env)
	for name, v := range e {
		if joined := v.Join(other.Get(name)); joined.Kind != Top {
			out[name] = joined
		}
	}
	return out
}

// Equal reports whether two environments are identical.
func (e Env) Equal(other Env) bool {
	if len(e) != len(other) {
		return false
	}
	for k, v := range e {
		if w, ok := other[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func (e Env) String() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + e[name].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// VarSet is a set of variable names, ordered by union.
type VarSet struct {
	names []string // sorted, unique
}

// NewVarSet builds a set from names.
func NewVarSet(names ...string) VarSet {
	return VarSet{}.With(names...)
}

// Contains reports whether name is in the set.
func (s VarSet) Contains(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

// Len returns the number of names.
func (s VarSet) Len() int {
	return len(s.names)
}

// Names returns the names in sorted order.
func (s VarSet) Names() []string {
	return append([]string(nil), s.names...)
}

// With returns the set extended with names.
func (s VarSet) With(names ...string) VarSet {
	if len(names) == 0 {
		return s
	}
	seen := make(map[string]bool, len(s.names)+len(names))
	out := make([]string, 0, len(s.names)+len(names))
	for _, list := range [][]string{s.names, names} {
		for _, n := range list {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return VarSet{names: out}
}

// Without returns the set minus names.
func (s VarSet) Without(names ...string) VarSet {
	if len(names) == 0 {
		return s
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if !drop[n] {
			out = append(out, n)
		}
	}
	return VarSet{names: out}
}

// Join returns the union.
func (s VarSet) Join(other VarSet) VarSet {
	return s.With(other.names...)
}

// Equal reports whether both sets hold the same names.
func (s VarSet) Equal(other VarSet) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i, n := range s.names {
		if other.names[i] != n {
			return false
		}
	}
	return true
}

func (s VarSet) String() string {
	return "[" + strings.Join(s.names, " ") + "]"
}

// Reach is the single point of the reachability lattice. An edge holding it
// is reachable; bottom means unreachable.
type Reach struct{}

func (Reach) Join(Reach) Reach { return Reach{} }
func (Reach) Equal(Reach) bool { return true }
func (Reach) String() string   { return "reachable" }
