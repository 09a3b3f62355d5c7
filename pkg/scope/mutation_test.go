package scope

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-singleline/pkg/ast"
)

func TestAnalyzeMutationsWhile(t *testing.T) {
	stmts := parse(t, "while x < 3:\n    x += 1\n    y = x\n")
	loop := stmts[0].(*ast.Loop)

	require.NoError(t, AnalyzeMutations(loop))
	assert.Equal(t, []string{"x", "y"}, loop.Mutated.Sorted())
}

func TestAnalyzeMutationsForSeedsTarget(t *testing.T) {
	stmts := parse(t, "for i, [j, k] in items:\n    pass\n")
	loop := stmts[0].(*ast.Loop)

	require.NoError(t, AnalyzeMutations(loop))
	assert.Equal(t, []string{"i", "j", "k"}, loop.Mutated.Sorted())
}

func TestAnalyzeMutationsNestedLoopPropagates(t *testing.T) {
	code := `for i in r:
    while c:
        total = total + i
        c = False
`
	outer := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(outer))

	inner := outer.Body[0].(*ast.Loop)
	assert.Equal(t, []string{"c", "total"}, inner.Mutated.Sorted())
	assert.Equal(t, []string{"c", "i", "total"}, outer.Mutated.Sorted())
}

func TestAnalyzeMutationsFunctionIsBoundary(t *testing.T) {
	code := `def f(a, b):
    local = a
    for i in b:
        acc = i
`
	fn := parse(t, code)[0].(*ast.FunctionDef)
	require.NoError(t, AnalyzeMutations(fn))

	assert.Equal(t, []string{"a", "acc", "b", "i", "local"}, fn.Mutated.Sorted())
	loop := fn.Body[1].(*ast.Loop)
	assert.Equal(t, []string{"acc", "i"}, loop.Mutated.Sorted())
}

func TestAnalyzeMutationsNestedFunctionReadsName(t *testing.T) {
	code := `while x < 10:
    x = x + 1
    def show():
        return x
`
	loop := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(loop))

	assert.True(t, loop.Mutated.Has("x"))
	fn := loop.Body[1].(*ast.FunctionDef)
	assert.False(t, fn.Mutated.Has("x"))
	// The function name itself is bound in the loop.
	assert.True(t, loop.Mutated.Has("show"))
}

func TestAnalyzeMutationsNestedFunctionAssignsName(t *testing.T) {
	code := `while x < 10:
    x = x + 1
    def shadow(p):
        x = p
        return x
`
	loop := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(loop))

	assert.True(t, loop.Mutated.Has("x"))
	fn := loop.Body[1].(*ast.FunctionDef)
	assert.Equal(t, []string{"p", "x"}, fn.Mutated.Sorted())
}

func TestAnalyzeMutationsFunctionLocalsDoNotLeak(t *testing.T) {
	code := `while c:
    def helper():
        hidden = 1
        return hidden
    c = helper()
`
	loop := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(loop))
	assert.Equal(t, []string{"c", "helper"}, loop.Mutated.Sorted())
}

func TestAnalyzeMutationsNonlocalRoutesOut(t *testing.T) {
	code := `while n:
    def bump():
        nonlocal count
        count = count + 1
        step = 1
    n = n - 1
`
	loop := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(loop))

	fn := loop.Body[0].(*ast.FunctionDef)
	assert.Equal(t, []string{"step"}, fn.Mutated.Sorted())
	assert.Equal(t, []string{"bump", "count", "n"}, loop.Mutated.Sorted())
}

func TestAnalyzeMutationsGlobalWithoutEnclosingFrame(t *testing.T) {
	fn := parse(t, "def f():\n    global g\n    g = 1\n")[0].(*ast.FunctionDef)
	require.NoError(t, AnalyzeMutations(fn))
	assert.Equal(t, 0, fn.Mutated.Len())
}

func TestAnalyzeMutationsClassBody(t *testing.T) {
	code := `while c:
    class K:
        attr = 1
        def method(self):
            v = self
    c = K
`
	loop := parse(t, code)[0].(*ast.Loop)
	require.NoError(t, AnalyzeMutations(loop))
	assert.Equal(t, []string{"K", "c"}, loop.Mutated.Sorted())

	class := loop.Body[0].(*ast.ClassDef)
	method := class.Body[1].(*ast.FunctionDef)
	assert.Equal(t, []string{"self", "v"}, method.Mutated.Sorted())
}

func TestAnalyzeMutationsMalformedTarget(t *testing.T) {
	loop := &ast.Loop{
		Pos:    ast.Pos{Line: 4},
		Kind:   ast.LoopFor,
		Target: &ast.Attribute{Value: &ast.Name{ID: "obj"}, Attr: "field"},
		Iter:   &ast.Name{ID: "items"},
		Body:   []ast.Stmt{&ast.Pass{}},
	}

	err := AnalyzeMutations(loop)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrMalformed))
	assert.Contains(t, err.Error(), "line 4")
	assert.Nil(t, loop.Mutated)
}

func TestAnalyzeMutationsFailureLeavesOuterUnannotated(t *testing.T) {
	bad := &ast.Loop{Kind: ast.LoopFor, Iter: &ast.Name{ID: "xs"}, Body: []ast.Stmt{&ast.Pass{}}}
	good := &ast.Loop{Kind: ast.LoopWhile, Test: &ast.Name{ID: "c"}, Body: []ast.Stmt{&ast.Pass{}}}
	outer := &ast.Loop{Kind: ast.LoopWhile, Test: &ast.Name{ID: "c"}, Body: []ast.Stmt{good, bad}}

	err := AnalyzeMutations(outer)
	require.Error(t, err)
	assert.NotNil(t, good.Mutated)
	assert.Nil(t, bad.Mutated)
	assert.Nil(t, outer.Mutated)
}

func TestAnalyzeMutationsRejectsOtherNodes(t *testing.T) {
	err := AnalyzeMutations(&ast.Pass{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrUnsupported))
}

func TestAnalyzeBlock(t *testing.T) {
	code := `x = 0
while x < 3:
    x += 1
def f(n):
    for i in n:
        pass
`
	stmts := parse(t, code)
	require.NoError(t, AnalyzeBlock(stmts))

	assert.Equal(t, []string{"x"}, stmts[1].(*ast.Loop).Mutated.Sorted())
	fn := stmts[2].(*ast.FunctionDef)
	assert.Equal(t, []string{"i", "n"}, fn.Mutated.Sorted())
	assert.Equal(t, []string{"i"}, fn.Body[0].(*ast.Loop).Mutated.Sorted())
}

func TestDeclaredNames(t *testing.T) {
	body := parse(t, "def f():\n    nonlocal a\n    if c:\n        global b\n    while d:\n        nonlocal e\n")[0].(*ast.FunctionDef).Body
	assert.Equal(t, []string{"a", "b", "e"}, DeclaredNames(body).Sorted())
}
