package ast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameSet(t *testing.T) {
	s := NewNameSet("b", "a")
	s.Add("c")
	s.Add("a")

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())
	assert.True(t, s.Has("b"))
	assert.False(t, s.Has("z"))

	other := NewNameSet("z")
	other.Merge(s)
	assert.Equal(t, []string{"a", "b", "c", "z"}, other.Sorted())

	var nilSet *NameSet
	assert.False(t, nilSet.Has("a"))
	assert.Equal(t, 0, nilSet.Len())
	assert.Empty(t, nilSet.Sorted())

	clone := s.Clone()
	clone.Add("q")
	assert.False(t, s.Has("q"))
	assert.True(t, s.Equal(NewNameSet("a", "b", "c")))
	assert.False(t, s.Equal(clone))
}

func TestTargetNames(t *testing.T) {
	tests := []struct {
		name    string
		target  Expr
		want    []string
		wantErr bool
	}{
		{
			name:   "single name",
			target: &Name{ID: "i", Ctx: Store},
			want:   []string{"i"},
		},
		{
			name: "nested tuple",
			target: &Tuple{Elts: []Expr{
				&Name{ID: "k", Ctx: Store},
				&List{Elts: []Expr{&Name{ID: "a", Ctx: Store}, &Name{ID: "b", Ctx: Store}}},
			}},
			want: []string{"k", "a", "b"},
		},
		{
			name:    "attribute target",
			target:  &Attribute{Value: &Name{ID: "self"}, Attr: "x"},
			wantErr: true,
		},
		{
			name:    "missing target",
			target:  nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TargetNames(tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformed))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundNamesSkipsObjectTargets(t *testing.T) {
	target := &Tuple{Elts: []Expr{
		&Name{ID: "x", Ctx: Store},
		&Subscript{Value: &Name{ID: "a"}, Index: &Literal{Kind: LitInt, Raw: "0"}},
		&Attribute{Value: &Name{ID: "o"}, Attr: "f"},
	}}
	assert.Equal(t, []string{"x"}, BoundNames(target))
}

func TestCloneExprIsDeep(t *testing.T) {
	orig := &Call{
		Func: &Name{ID: "f"},
		Args: []Expr{&BinOp{Op: "+", Left: &Name{ID: "x"}, Right: &Literal{Kind: LitInt, Raw: "1"}}},
	}
	clone := CloneExpr(orig).(*Call)

	require.NotSame(t, orig, clone)
	require.NotSame(t, orig.Args[0], clone.Args[0])
	clone.Args[0].(*BinOp).Left.(*Name).ID = "y"
	assert.Equal(t, "x", orig.Args[0].(*BinOp).Left.(*Name).ID)
}

func TestFormat(t *testing.T) {
	x := func() Expr { return &Name{ID: "x"} }
	one := func() Expr { return &Literal{Kind: LitInt, Raw: "1"} }

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{
			name: "nested binop is parenthesized",
			expr: &BinOp{Op: "*", Left: &BinOp{Op: "+", Left: x(), Right: one()}, Right: one()},
			want: "(x + 1) * 1",
		},
		{
			name: "chained compare",
			expr: &Compare{Left: one(), Ops: []string{"<", "<="}, Comparators: []Expr{x(), one()}},
			want: "1 < x <= 1",
		},
		{
			name: "call with keywords",
			expr: &Call{Func: &Name{ID: "f"}, Args: []Expr{x()}, Keywords: []Keyword{{Name: "k", Value: one()}}},
			want: "f(x, k=1)",
		},
		{
			name: "single element tuple",
			expr: &Tuple{Elts: []Expr{x()}},
			want: "(x,)",
		},
		{
			name: "let with name target",
			expr: &Let{Target: &Name{ID: "x", Ctx: Store}, Value: one(), Body: x()},
			want: "(lambda x: x)(1)",
		},
		{
			name: "let with tuple target unpacks",
			expr: &Let{
				Target: StoreNames([]string{"a", "b"}),
				Value:  &Call{Func: &Name{ID: "f"}},
				Body:   &Name{ID: "a"},
			},
			want: "(lambda a, b: a)(*f())",
		},
		{
			name: "seq keeps last value",
			expr: &Seq{Exprs: []Expr{&Call{Func: &Name{ID: "print"}, Args: []Expr{x()}}, None()}},
			want: "(print(x), None)[-1]",
		},
		{
			name: "conditional expression",
			expr: &IfExp{Test: &UnaryOp{Op: "not", Operand: x()}, Body: one(), Orelse: None()},
			want: "1 if (not x) else None",
		},
		{
			name: "closure",
			expr: &Closure{Name: "loop", Params: []string{"n"}, Body: &Call{Func: &Name{ID: "loop"}, Args: []Expr{&Name{ID: "n"}}}},
			want: "(lambda _f: lambda *_a: _f(_f, *_a))(lambda _self, n: (lambda loop: loop(n))(lambda *_a: _self(_self, *_a)))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.expr))
		})
	}
}
