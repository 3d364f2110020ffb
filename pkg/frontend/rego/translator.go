// Package rego translates the bodies of Rego rules into canonical terms.
//
// Every rule becomes one Boolean formula: the conjunction of its body
// expressions. Rego variables become solver symbols whose sort comes from the
// parameter specification, or is inferred from the first expression that
// relates the variable to a term of known sort.
package rego

import (
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
	"github.com/vhavlena/smtswitch/pkg/types"
)

// RuleFormula pairs a rule name with the formula of one of its definitions.
type RuleFormula struct {
	Rule    string
	Formula *smt.Term
}

// Option configures a Translator.
type Option func(*Translator)

// WithIntSort selects the sort Rego numbers are encoded with. A bit-vector
// sort switches arithmetic and comparisons to their signed bit-vector forms.
func WithIntSort(srt *smt.Sort) Option {
	return func(t *Translator) { t.intSort = srt }
}

// WithInputSchema types the fields of the input document. Fields outside the
// schema still get their sort from the expression that uses them.
func WithInputSchema(schema *types.InputSchema) Option {
	return func(t *Translator) { t.schema = schema }
}

// Translator turns Rego rules into formulas over one solver session.
type Translator struct {
	solver  smt.Solver
	params  types.Parameters
	intSort *smt.Sort
	schema  *types.InputSchema

	inputs  map[string]*smt.Term // input fields and parameters
	locals  map[string]*smt.Term // variables of the rule being translated
	rules   map[string]*smt.Term // formulas of rules translated so far
	scope   string
	used    map[string]int
	symbols []string
	inl     *inliner
}

// NewTranslator declares the parameters in s and returns a translator.
//
// Parameters:
//
//	s smt.Solver: Session receiving the symbols and terms.
//	params types.Parameters: Declared policy parameters; may be nil.
//	opts ...Option: Translator options.
//
// Returns:
//
//	*Translator: The translator.
//	error: Failure to declare a parameter.
func NewTranslator(s smt.Solver, params types.Parameters, opts ...Option) (*Translator, error) {
	t := &Translator{
		solver: s,
		params: params,
		inputs: make(map[string]*smt.Term),
		rules:  make(map[string]*smt.Term),
		used:   make(map[string]int),
		inl:    newInliner(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if len(params) > 0 {
		syms, err := params.Declare(s, t.intSort)
		if err != nil {
			return nil, err
		}
		for _, name := range params.Names() {
			t.inputs[name] = syms[name]
			t.symbols = append(t.symbols, name)
			t.used[name]++
		}
	}
	return t, nil
}

// ParseModule parses Rego v1 source.
func ParseModule(filename, src string) (*ast.Module, error) {
	mod, err := ast.ParseModule(filename, src)
	if err != nil {
		return nil, verr.Usage("parse %s: %v", filename, err)
	}
	return mod, nil
}

// Symbols returns the names of all symbols declared so far, in declaration
// order.
func (t *Translator) Symbols() []string {
	return append([]string(nil), t.symbols...)
}

// TranslateModule translates every non-default rule of mod in source order.
// Functions are not translated on their own; their calls are expanded in
// place. An else branch yields a separate formula named after its rule with
// an "else" suffix.
func (t *Translator) TranslateModule(mod *ast.Module) ([]RuleFormula, error) {
	t.inl.gather(mod)
	var out []RuleFormula
	for _, rule := range mod.Rules {
		if rule.Default || t.inl.isFunction(rule) {
			continue
		}
		name := rule.Head.Ref().String()
		suffix := ""
		for r := rule; r != nil; r = r.Else {
			f, err := t.TranslateRule(r)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", name, err)
			}
			out = append(out, RuleFormula{Rule: name + suffix, Formula: f})
			suffix += " else"
		}
	}
	return out, nil
}

// TranslateRule returns the conjunction of the body of rule. Definitions of
// the same rule name are joined disjunctively for later references.
func (t *Translator) TranslateRule(rule *ast.Rule) (*smt.Term, error) {
	name := rule.Head.Ref().String()
	t.scope = name
	t.locals = make(map[string]*smt.Term)
	defer func() { t.locals = nil }()

	body, err := t.inl.body(rule.Body)
	if err != nil {
		return nil, err
	}
	conj := make([]*smt.Term, 0, len(body))
	for _, expr := range body {
		f, err := t.expr(expr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", expr, err)
		}
		if f != nil {
			conj = append(conj, f)
		}
	}
	f, err := t.and(conj)
	if err != nil {
		return nil, err
	}
	if prev, ok := t.rules[name]; ok {
		joined, err := t.solver.MakeTerm(smt.NewOp(smt.Or), prev, f)
		if err != nil {
			return nil, err
		}
		t.rules[name] = joined
	} else {
		t.rules[name] = f
	}
	return f, nil
}

func (t *Translator) and(fs []*smt.Term) (*smt.Term, error) {
	switch len(fs) {
	case 0:
		return t.solver.MakeBool(true)
	case 1:
		return fs[0], nil
	}
	return t.solver.MakeTerm(smt.NewOp(smt.And), fs...)
}

// expr translates one body expression into a Bool term. Declarations such as
// "some x" produce nil.
func (t *Translator) expr(e *ast.Expr) (*smt.Term, error) {
	var (
		f   *smt.Term
		err error
	)
	switch v := e.Terms.(type) {
	case *ast.SomeDecl:
		for _, sym := range v.Symbols {
			if _, ok := sym.Value.(ast.Var); !ok {
				return nil, verr.Unsupported("iteration %s", e)
			}
		}
		return nil, nil
	case *ast.Term:
		f, err = t.operand(v, smt.BoolSort())
	case []*ast.Term:
		f, err = t.call(v[0], v[1:], true)
	default:
		return nil, verr.Unsupported("expression %s", e)
	}
	if p, ok := err.(pending); ok {
		return nil, verr.Usage("%v", p)
	}
	if err != nil {
		return nil, err
	}
	if !f.Sort().IsKind(smt.KindBool) {
		return nil, verr.Usage("expression %s is not Boolean", e)
	}
	if e.Negated {
		return t.solver.MakeTerm(smt.NewOp(smt.Not), f)
	}
	return f, nil
}

func (t *Translator) ints() (*smt.Sort, error) {
	if t.intSort != nil {
		return t.intSort, nil
	}
	srt, err := t.solver.MakeSort(smt.KindInt)
	if err != nil {
		return nil, err
	}
	t.intSort = srt
	return srt, nil
}

func (t *Translator) bvInts() bool {
	return t.intSort != nil && t.intSort.IsKind(smt.KindBV)
}

// pending marks a variable whose sort is not known yet.
type pending struct{ name string }

func (p pending) Error() string { return "cannot infer the sort of " + p.name }

// operand translates a term. When the term is an unbound variable and hint
// is not nil, the variable is declared with sort hint; with a nil hint a
// pending error is returned so the caller can retry with a hint.
func (t *Translator) operand(term *ast.Term, hint *smt.Sort) (*smt.Term, error) {
	switch v := term.Value.(type) {
	case ast.Boolean:
		return t.solver.MakeBool(bool(v))
	case ast.String:
		return t.solver.MakeString(string(v), smt.StringSort())
	case ast.Number:
		n, ok := v.Int64()
		if !ok {
			return nil, verr.Unsupported("non-integer number %s", v)
		}
		srt, err := t.ints()
		if err != nil {
			return nil, err
		}
		return t.solver.MakeInt(n, srt)
	case ast.Var:
		return t.variable(string(v), hint)
	case ast.Ref:
		return t.ref(v, hint)
	case ast.Call:
		return t.call(v[0], v[1:], false)
	default:
		return nil, verr.Unsupported("term %s", term)
	}
}

func (t *Translator) variable(name string, hint *smt.Sort) (*smt.Term, error) {
	if x, ok := t.locals[name]; ok {
		return x, nil
	}
	if f, ok := t.rules[name]; ok {
		return f, nil
	}
	if hint == nil {
		return nil, pending{name}
	}
	x, err := t.declare(t.scope+"."+name, hint)
	if err != nil {
		return nil, err
	}
	t.locals[name] = x
	return x, nil
}

// declare creates a symbol, suffixing the name when it is already taken.
func (t *Translator) declare(base string, srt *smt.Sort) (*smt.Term, error) {
	name := base
	if n := t.used[base]; n > 0 {
		name = fmt.Sprintf("%s#%d", base, n)
	}
	t.used[base]++
	x, err := t.solver.MakeSymbol(name, srt)
	if err != nil {
		return nil, err
	}
	t.symbols = append(t.symbols, name)
	return x, nil
}

// ref resolves input.parameters.NAME and input.NAME to parameter symbols,
// and applies any further path elements as array selections.
func (t *Translator) ref(r ast.Ref, hint *smt.Sort) (*smt.Term, error) {
	head, ok := r[0].Value.(ast.Var)
	if !ok {
		return nil, verr.Unsupported("reference %s", r)
	}
	if string(head) != "input" {
		if len(r) == 1 {
			return t.variable(string(head), hint)
		}
		base, err := t.variable(string(head), nil)
		if err != nil {
			return nil, err
		}
		return t.selectPath(base, r[1:])
	}

	rest := r[1:]
	param := false
	if len(rest) > 1 && rest[0].Value.Compare(ast.String("parameters")) == 0 {
		rest = rest[1:]
		param = true
	}
	if len(rest) == 0 {
		return nil, verr.Unsupported("reference to the whole input document")
	}
	keys := fieldKeys(rest)
	if len(keys) == 0 {
		return nil, verr.Unsupported("reference %s", r)
	}
	for n := len(keys); n > 0; n-- {
		name := strings.Join(keys[:n], ".")
		if x, ok := t.inputs[name]; ok {
			return t.selectPath(x, rest[n:])
		}
		ts, ok := t.schema.Lookup(keys[:n])
		if param || !ok {
			continue
		}
		srt, err := ts.Sort(t.solver, t.intSort)
		if err != nil {
			return nil, fmt.Errorf("input.%s: %w", name, err)
		}
		x, err := t.declare("input."+name, srt)
		if err != nil {
			return nil, err
		}
		t.inputs[name] = x
		return t.selectPath(x, rest[n:])
	}
	if len(rest) > 1 || hint == nil {
		return nil, pending{r.String()}
	}
	x, err := t.declare("input."+keys[0], hint)
	if err != nil {
		return nil, err
	}
	t.inputs[keys[0]] = x
	return x, nil
}

// fieldKeys returns the leading string elements of a reference path.
func fieldKeys(path ast.Ref) []string {
	var keys []string
	for _, elem := range path {
		s, ok := elem.Value.(ast.String)
		if !ok {
			break
		}
		keys = append(keys, string(s))
	}
	return keys
}

func (t *Translator) selectPath(base *smt.Term, path ast.Ref) (*smt.Term, error) {
	cur := base
	for _, elem := range path {
		if !cur.Sort().IsKind(smt.KindArray) {
			return nil, verr.Usage("cannot index %s of sort %s", cur, cur.Sort())
		}
		idx, err := t.operand(elem, cur.Sort().IndexSort())
		if err != nil {
			return nil, err
		}
		if cur, err = t.solver.MakeTerm(smt.NewOp(smt.Select), cur, idx); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// pair translates two operands, inferring the sort of an unbound variable on
// one side from the other side. When both sides are unbound they are
// declared with the sort returned by fallback, or rejected if it is nil.
func (t *Translator) pair(a, b *ast.Term, hint *smt.Sort, fallback func() (*smt.Sort, error)) (*smt.Term, *smt.Term, error) {
	x, errX := t.operand(a, hint)
	y, errY := t.operand(b, hint)
	_, pendX := errX.(pending)
	_, pendY := errY.(pending)
	switch {
	case errX != nil && !pendX:
		return nil, nil, errX
	case errY != nil && !pendY:
		return nil, nil, errY
	case pendX && pendY:
		if fallback == nil {
			return nil, nil, verr.Usage("%v", errX)
		}
		srt, err := fallback()
		if err != nil {
			return nil, nil, err
		}
		x, errX = t.operand(a, srt)
		y, errY = t.operand(b, srt)
	case pendX:
		x, errX = t.operand(a, y.Sort())
	case pendY:
		y, errY = t.operand(b, x.Sort())
	}
	if errX != nil {
		return nil, nil, errX
	}
	if errY != nil {
		return nil, nil, errY
	}
	return x, y, nil
}

type binaryOp struct {
	ints, bvs, strs smt.PrimOp
}

var comparisons = map[string]binaryOp{
	"lt":  {smt.Lt, smt.BVSlt, smt.StrLt},
	"lte": {smt.Le, smt.BVSle, smt.StrLeq},
	"gt":  {smt.Gt, smt.BVSgt, smt.NoOp},
	"gte": {smt.Ge, smt.BVSge, smt.NoOp},
}

var arithmetic = map[string]binaryOp{
	"plus":  {smt.Plus, smt.BVAdd, smt.NoOp},
	"minus": {smt.Minus, smt.BVSub, smt.NoOp},
	"mul":   {smt.Mult, smt.BVMul, smt.NoOp},
	"div":   {smt.IntDiv, smt.BVSdiv, smt.NoOp},
	"rem":   {smt.Mod, smt.BVSrem, smt.NoOp},
}

// call translates a builtin application. stmt is set for top-level body
// expressions, where = and := bind variables.
func (t *Translator) call(opTerm *ast.Term, args []*ast.Term, stmt bool) (*smt.Term, error) {
	ref, ok := opTerm.Value.(ast.Ref)
	if !ok {
		return nil, verr.Unsupported("operator %s", opTerm)
	}
	name := ref.String()
	arity := func(n int) error {
		if len(args) != n {
			return verr.Usage("%s expects %d arguments, got %d", name, n, len(args))
		}
		return nil
	}
	app := func(prim smt.PrimOp, xs ...*smt.Term) (*smt.Term, error) {
		return t.solver.MakeTerm(smt.NewOp(prim), xs...)
	}

	switch name {
	case ast.Equality.Name, ast.Assign.Name, ast.Equal.Name:
		if err := arity(2); err != nil {
			return nil, err
		}
		if !stmt && name != ast.Equal.Name {
			return nil, verr.Unsupported("nested %s", name)
		}
		x, y, err := t.pair(args[0], args[1], nil, nil)
		if err != nil {
			return nil, err
		}
		return app(smt.Equal, x, y)
	case ast.NotEqual.Name:
		if err := arity(2); err != nil {
			return nil, err
		}
		x, y, err := t.pair(args[0], args[1], nil, nil)
		if err != nil {
			return nil, err
		}
		return app(smt.Distinct, x, y)
	case "startswith", "endswith", "contains":
		if err := arity(2); err != nil {
			return nil, err
		}
		s, sub, err := t.pair(args[0], args[1], smt.StringSort(), nil)
		if err != nil {
			return nil, err
		}
		switch name {
		case "startswith":
			return app(smt.StrPrefixof, sub, s)
		case "endswith":
			return app(smt.StrSuffixof, sub, s)
		}
		return app(smt.StrContains, s, sub)
	case "count":
		if err := arity(1); err != nil {
			return nil, err
		}
		if t.bvInts() {
			return nil, verr.Unsupported("count with bit-vector integers")
		}
		s, err := t.operand(args[0], smt.StringSort())
		if err != nil {
			return nil, err
		}
		return app(smt.StrLen, s)
	}

	if op, ok := comparisons[name]; ok {
		if err := arity(2); err != nil {
			return nil, err
		}
		x, y, err := t.pair(args[0], args[1], nil, t.ints)
		if err != nil {
			return nil, err
		}
		prim, err := pick(op, x.Sort(), name)
		if err != nil {
			return nil, err
		}
		return app(prim, x, y)
	}
	if op, ok := arithmetic[name]; ok {
		if err := arity(2); err != nil {
			return nil, err
		}
		srt, err := t.ints()
		if err != nil {
			return nil, err
		}
		x, y, err := t.pair(args[0], args[1], srt, nil)
		if err != nil {
			return nil, err
		}
		prim, err := pick(op, x.Sort(), name)
		if err != nil {
			return nil, err
		}
		return app(prim, x, y)
	}
	return nil, verr.Unsupported("builtin %s", name)
}

// pick selects the operator variant for operand sort srt.
func pick(op binaryOp, srt *smt.Sort, name string) (smt.PrimOp, error) {
	prim := op.ints
	switch {
	case srt.IsKind(smt.KindBV):
		prim = op.bvs
	case srt.IsKind(smt.KindString):
		prim = op.strs
	}
	if prim == smt.NoOp {
		return prim, verr.Unsupported("%s on sort %s", name, srt)
	}
	return prim, nil
}
