package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstJoin(t *testing.T) {
	t.Parallel()

	bottom := Const{}
	five := IntConst(5)
	six := IntConst(6)
	yes := BoolConst(true)

	tests := []struct {
		name string
		a, b Const
		want Const
	}{
		{"bottom left", bottom, five, five},
		{"bottom right", five, bottom, five},
		{"equal", five, five, five},
		{"different ints", five, six, TopConst},
		{"int and bool", five, yes, TopConst},
		{"top absorbs", TopConst, five, TopConst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.a.Join(tt.b))
			assert.Equal(t, tt.want, tt.b.Join(tt.a))
		})
	}
}

func TestJoinMonotonicity(t *testing.T) {
	t.Parallel()

	consts := []Const{{}, IntConst(0), IntConst(1), BoolConst(false), TopConst}
	for _, a := range consts {
		for _, b := range consts {
			j := a.Join(b)
			assert.Equal(t, j, a.Join(j), "%v ⋢ %v", a, j)
			assert.Equal(t, j, b.Join(j), "%v ⋢ %v", b, j)
		}
		assert.Equal(t, a, a.Join(a))
	}

	envs := []Env{
		{},
		{"x": IntConst(1)},
		{"x": IntConst(2)},
		{"x": IntConst(1), "y": BoolConst(true)},
	}
	for _, a := range envs {
		for _, b := range envs {
			j := a.Join(b)
			assert.True(t, a.Join(j).Equal(j), "%v ⋢ %v", a, j)
			assert.True(t, b.Join(j).Equal(j), "%v ⋢ %v", b, j)
			assert.True(t, j.Equal(b.Join(a)))
		}
		assert.True(t, a.Join(a).Equal(a))
	}

	sets := []VarSet{NewVarSet(), NewVarSet("a"), NewVarSet("b", "a"), NewVarSet("c")}
	for _, a := range sets {
		for _, b := range sets {
			j := a.Join(b)
			assert.True(t, a.Join(j).Equal(j))
			assert.True(t, b.Join(j).Equal(j))
		}
		assert.True(t, a.Join(a).Equal(a))
	}
}

func TestEnv(t *testing.T) {
	t.Parallel()

	e := Env{}.With("x", IntConst(3)).With("b", BoolConst(false))
	assert.Equal(t, IntConst(3), e.Get("x"))
	assert.Equal(t, TopConst, e.Get("missing"))
	assert.Equal(t, "{b=false, x=3}", e.String())

	dropped := e.With("x", TopConst)
	assert.Equal(t, TopConst, dropped.Get("x"))
	assert.Equal(t, IntConst(3), e.Get("x"), "With must not mutate the receiver")

	joined := e.Join(Env{"x": IntConst(4), "b": BoolConst(false)})
	assert.Equal(t, "{b=false}", joined.String())
}

func TestVarSet(t *testing.T) {
	t.Parallel()

	s := NewVarSet("b", "a", "b")
	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, "[b]", s.Without("a").String())
	assert.Equal(t, "[a b c]", s.Join(NewVarSet("c")).String())
	assert.Equal(t, 2, s.Len())
	assert.True(t, NewVarSet().Equal(VarSet{}))
}
