package rego

import (
	"testing"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
	"github.com/vhavlena/smtswitch/pkg/smt/smttest"
	"github.com/vhavlena/smtswitch/pkg/types"
)

func TestSubstituteVars(t *testing.T) {
	t.Parallel()
	expr := ast.Equality.Expr(ast.VarTerm("x"), ast.IntNumberTerm(1))
	two := ast.IntNumberTerm(2)

	sub := substituteVars(expr, map[string]*ast.Term{"x": two})

	terms, ok := sub.Terms.([]*ast.Term)
	require.True(t, ok)
	require.Len(t, terms, 3)
	assert.Equal(t, 0, terms[1].Value.Compare(two.Value))
	// The input expression is untouched.
	assert.Equal(t, ast.Var("x"), expr.Operand(0).Value)
}

func TestSubstituteTerms(t *testing.T) {
	t.Parallel()
	three := ast.IntNumberTerm(3)
	four := ast.IntNumberTerm(4)
	argMap := map[string]*ast.Term{"x": three, "y": four}

	res := substituteTerms(ast.VarTerm("x"), argMap)
	assert.Equal(t, "3", res.(*ast.Term).String())

	res = substituteTerms([]*ast.Term{ast.NewTerm(ast.Equality.Ref()), ast.VarTerm("x"), ast.VarTerm("y")}, argMap)
	terms := res.([]*ast.Term)
	require.Len(t, terms, 3)
	assert.Equal(t, "eq", terms[0].String())
	assert.Equal(t, "3", terms[1].String())
	assert.Equal(t, "4", terms[2].String())

	call := ast.CallTerm(ast.NewTerm(ast.Plus.Ref()), ast.VarTerm("x"), ast.VarTerm("z"))
	want := ast.CallTerm(ast.NewTerm(ast.Plus.Ref()), three, ast.VarTerm("z"))
	assert.Equal(t, want.String(), substituteTerms(call, argMap).(*ast.Term).String())

	ref := ast.RefTerm(ast.VarTerm("arr"), ast.VarTerm("y"))
	assert.Equal(t, "arr[4]", substituteTerms(ref, argMap).(*ast.Term).String())
}

func TestInlinerGather(t *testing.T) {
	t.Parallel()
	mod, err := ParseModule("p.rego", `package p

single(x) if {
	x > 0
}

twice(x) if {
	x > 0
}

twice(x) if {
	x < -5
}

valued(x) := 3 if {
	x > 0
}

allow if {
	true
}
`)
	require.NoError(t, err)
	inl := newInliner()
	inl.gather(mod)

	assert.Contains(t, inl.funcs, "single")
	assert.NotContains(t, inl.funcs, "twice")
	assert.NotContains(t, inl.funcs, "valued")
	assert.NotContains(t, inl.funcs, "allow")
	assert.True(t, inl.globals["allow"])
	assert.True(t, inl.globals["input"])
}

func TestInlineExpr(t *testing.T) {
	t.Parallel()
	inl := newInliner()

	expr := ast.Equality.Expr(ast.VarTerm("x"), ast.IntNumberTerm(1))
	out, err := inl.expr(expr, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, expr, out[0])

	// Calls of unknown functions are left for the translator.
	call := ast.NewExpr([]*ast.Term{ast.RefTerm(ast.VarTerm("foo")), ast.IntNumberTerm(2)})
	out, err = inl.expr(call, 0)
	require.NoError(t, err)
	assert.Same(t, call, out[0])

	mod, err := ParseModule("p.rego", `package p

foo(x) if {
	y := x + 1
	y > 2
}
`)
	require.NoError(t, err)
	inl.gather(mod)
	out, err = inl.expr(call, 0)
	require.NoError(t, err)
	require.Len(t, out, 2)
	y := ast.VarTerm("foo$y")
	assign := ast.Assign.Expr(y, ast.CallTerm(ast.NewTerm(ast.Plus.Ref()), ast.IntNumberTerm(2), ast.IntNumberTerm(1)))
	assert.Equal(t, assign.String(), out[0].String())
	assert.Equal(t, ast.GreaterThan.Expr(y, ast.IntNumberTerm(2)).String(), out[1].String())
}

const functionPolicy = `package p

is_prod(n) if {
	startswith(n, "prod-")
}

big(n) if {
	m := n * 2
	m > 10
}

allow if {
	is_prod(input.parameters.name)
	big(input.parameters.replicas)
}

deny if {
	not is_prod(input.parameters.name)
}
`

func TestTranslateFunctions(t *testing.T) {
	t.Parallel()
	_, rules := translate(t, deploymentParams, functionPolicy)

	require.Len(t, rules, 2)
	assert.Equal(t, "allow", rules[0].Rule)
	assert.Equal(t, `(and (str.prefixof "prod-" name) (= allow.big$m (* replicas 2)) (> allow.big$m 10))`, rules[0].Formula.String())
	assert.Equal(t, "deny", rules[1].Rule)
	assert.Equal(t, `(not (str.prefixof "prod-" name))`, rules[1].Formula.String())
}

func TestTranslateFunctionErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		src   string
		check func(error) bool
	}{
		{"arity", "f(a) if {\n\ta > 1\n}\n\nr if {\n\tf(input.parameters.replicas, 2)\n}\n", verr.IsUsage},
		{"recursion", "f(a) if {\n\tf(a)\n}\n\nr if {\n\tf(input.parameters.replicas)\n}\n", verr.IsUnsupported},
		{"negated block", "f(a) if {\n\ta > 1\n\ta < 5\n}\n\nr if {\n\tnot f(input.parameters.replicas)\n}\n", verr.IsUnsupported},
	}
	for _, tt := range tests {
		params, err := types.FromSpecFile([]byte(deploymentParams))
		require.NoError(t, err)
		tr, err := NewTranslator(smt.NewLoggingSolver[string, int](smttest.New()), params)
		require.NoError(t, err)
		mod, err := ParseModule("p.rego", "package p\n\n"+tt.src)
		require.NoError(t, err, tt.name)
		_, err = tr.TranslateModule(mod)
		require.Error(t, err, tt.name)
		assert.True(t, tt.check(err), "%s: %v", tt.name, err)
	}
}
