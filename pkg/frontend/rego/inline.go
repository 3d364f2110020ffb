package rego

import (
	"github.com/open-policy-agent/opa/v1/ast"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// inliner expands calls to user-defined Boolean functions in rule bodies.
type inliner struct {
	funcs   map[string]*ast.Rule
	globals map[string]bool // names never renamed inside a function body
}

func newInliner() *inliner {
	return &inliner{funcs: make(map[string]*ast.Rule), globals: rootNames()}
}

func rootNames() map[string]bool {
	return map[string]bool{
		ast.InputRootDocument.Value.String():   true,
		ast.DefaultRootDocument.Value.String(): true,
	}
}

// gather records the functions of module that return true and have a
// single definition without else branches.
func (inl *inliner) gather(module *ast.Module) {
	inl.funcs = map[string]*ast.Rule{}
	inl.globals = rootNames()
	seen := map[string]int{}
	for _, rule := range module.Rules {
		name := rule.Head.Ref().String()
		inl.globals[name] = true
		if !inl.isFunction(rule) {
			continue
		}
		seen[name]++
		boolVal, ok := rule.Head.Value.Value.(ast.Boolean)
		if ok && bool(boolVal) && rule.Else == nil {
			inl.funcs[name] = rule
		}
	}
	for name, n := range seen {
		if n > 1 {
			delete(inl.funcs, name)
		}
	}
}

func (inl *inliner) isFunction(rule *ast.Rule) bool {
	return len(rule.Head.Args) > 0
}

// body returns the expressions of body with function calls expanded.
func (inl *inliner) body(body ast.Body) ([]*ast.Expr, error) {
	out := make([]*ast.Expr, 0, len(body))
	for _, expr := range body {
		exp, err := inl.expr(expr, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, exp...)
	}
	return out, nil
}

const maxInlineDepth = 32

// expr replaces a call to a recorded function with its body. Parameters
// are substituted by the arguments and other variables of the body are
// renamed into the function's namespace.
func (inl *inliner) expr(expr *ast.Expr, depth int) ([]*ast.Expr, error) {
	call, ok := expr.Terms.([]*ast.Term)
	if !ok || len(call) == 0 {
		return []*ast.Expr{expr}, nil
	}
	ref, ok := call[0].Value.(ast.Ref)
	if !ok {
		return []*ast.Expr{expr}, nil
	}
	def, ok := inl.funcs[ref.String()]
	if !ok {
		return []*ast.Expr{expr}, nil
	}
	if depth > maxInlineDepth {
		return nil, verr.Unsupported("recursive function %s", ref)
	}
	if len(call)-1 != len(def.Head.Args) {
		return nil, verr.Usage("%s expects %d arguments, got %d", ref, len(def.Head.Args), len(call)-1)
	}

	argMap := map[string]*ast.Term{}
	for i, param := range def.Head.Args {
		v, ok := param.Value.(ast.Var)
		if !ok {
			return nil, verr.Unsupported("non-variable parameter %s of %s", param, ref)
		}
		argMap[v.String()] = call[i+1]
	}
	for _, b := range def.Body {
		ast.WalkVars(b, func(v ast.Var) bool {
			if _, bound := argMap[v.String()]; !bound && !inl.globals[v.String()] {
				argMap[v.String()] = ast.VarTerm(ref.String() + "$" + v.String())
			}
			return false
		})
	}

	if expr.Negated && len(def.Body) != 1 {
		return nil, verr.Unsupported("negated call of %s with a multi-expression body", ref)
	}
	var out []*ast.Expr
	for _, b := range def.Body {
		sub := substituteVars(b, argMap)
		if expr.Negated {
			sub.Negated = !sub.Negated
		}
		exp, err := inl.expr(sub, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, exp...)
	}
	return out, nil
}

// substituteVars replaces variables in an expression according to argMap.
func substituteVars(expr *ast.Expr, argMap map[string]*ast.Term) *ast.Expr {
	newExpr := *expr
	newExpr.Terms = substituteTerms(expr.Terms, argMap)
	return &newExpr
}

// substituteTerms recursively substitutes variables in terms or slices of terms.
func substituteTerms(terms interface{}, argMap map[string]*ast.Term) interface{} {
	switch t := terms.(type) {
	case *ast.Term:
		switch v := t.Value.(type) {
		case ast.Var:
			if arg, found := argMap[v.String()]; found {
				return arg
			}
		case ast.Call:
			newCall := make(ast.Call, len(v))
			newCall[0] = v[0]
			for i := 1; i < len(v); i++ {
				newCall[i] = substituteTerms(v[i], argMap).(*ast.Term)
			}
			return ast.NewTerm(newCall)
		case ast.Ref:
			newRef := make(ast.Ref, len(v))
			for i, elem := range v {
				newRef[i] = substituteTerms(elem, argMap).(*ast.Term)
			}
			return ast.NewTerm(newRef)
		}
		return t
	case []*ast.Term:
		newTerms := make([]*ast.Term, len(t))
		newTerms[0] = t[0]
		for i := 1; i < len(t); i++ {
			newTerms[i] = substituteTerms(t[i], argMap).(*ast.Term)
		}
		return newTerms
	default:
		return terms
	}
}
