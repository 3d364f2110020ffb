package smt

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Term is an immutable node of the canonical term DAG. Terms are created only
// by a LoggingSolver and are unique per structural description within the
// session, so two Terms are equal exactly when they are the same pointer.
//
// Fields:
//
//	id uint64: Identity number, assigned once by the store.
//	op Op: Operator; null for leaves (values, symbols, params, const arrays).
//	sort *Sort: Result sort.
//	children []*Term: Ordered operands.
//	name string: Symbol or parameter name.
//	literal string: Printed form of a value leaf.
//	symbol, param bool: Leaf flags.
type Term struct {
	id       uint64
	op       Op
	sort     *Sort
	children []*Term
	name     string
	literal  string
	symbol   bool
	param    bool
}

func newApp(id uint64, op Op, sort *Sort, children []*Term) *Term {
	cs := make([]*Term, len(children))
	copy(cs, children)
	return &Term{id: id, op: op, sort: sort, children: cs}
}

func newValue(id uint64, sort *Sort, literal string) *Term {
	return &Term{id: id, sort: sort, literal: literal}
}

func newConstArray(id uint64, sort *Sort, val *Term) *Term {
	return &Term{id: id, sort: sort, children: []*Term{val}}
}

func newSymbol(id uint64, name string, sort *Sort) *Term {
	return &Term{id: id, sort: sort, name: name, symbol: true}
}

func newParam(id uint64, name string, sort *Sort) *Term {
	return &Term{id: id, sort: sort, name: name, param: true}
}

func (t *Term) ID() uint64       { return t.id }
func (t *Term) Op() Op           { return t.op }
func (t *Term) Sort() *Sort      { return t.sort }
func (t *Term) Name() string     { return t.name }
func (t *Term) Literal() string  { return t.literal }
func (t *Term) IsSymbol() bool   { return t.symbol }
func (t *Term) IsParam() bool    { return t.param }
func (t *Term) NumChildren() int { return len(t.children) }
func (t *Term) Child(i int) *Term {
	return t.children[i]
}

// Children returns a copy of the operand list.
func (t *Term) Children() []*Term {
	out := make([]*Term, len(t.children))
	copy(out, t.children)
	return out
}

// IsValue reports whether t is an interpreted constant (a literal or a
// constant array over a literal).
func (t *Term) IsValue() bool {
	if !t.op.IsNull() || t.symbol || t.param {
		return false
	}
	if t.IsConstArray() {
		return t.children[0].IsValue()
	}
	return true
}

// IsConstArray reports whether t is a constant array ((as const S) v).
func (t *Term) IsConstArray() bool {
	return t.op.IsNull() && len(t.children) == 1 && t.sort.IsKind(KindArray)
}

// String renders the term in SMT-LIB syntax. Shared subterms are printed at
// every occurrence.
func (t *Term) String() string {
	if t == nil {
		return "<null term>"
	}
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Term) write(sb *strings.Builder) {
	switch {
	case t.symbol || t.param:
		sb.WriteString(t.name)
	case t.IsConstArray():
		fmt.Fprintf(sb, "((as const %s) ", t.sort)
		t.children[0].write(sb)
		sb.WriteByte(')')
	case t.op.IsNull():
		sb.WriteString(t.literal)
	case t.op.Prim == Apply:
		sb.WriteByte('(')
		for i, c := range t.children {
			if i > 0 {
				sb.WriteByte(' ')
			}
			c.write(sb)
		}
		sb.WriteByte(')')
	case t.op.Prim == Forall || t.op.Prim == Exists:
		sb.WriteByte('(')
		sb.WriteString(t.op.String())
		sb.WriteString(" (")
		last := len(t.children) - 1
		for i, p := range t.children[:last] {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "(%s %s)", p.name, p.sort)
		}
		sb.WriteString(") ")
		t.children[last].write(sb)
		sb.WriteByte(')')
	default:
		sb.WriteByte('(')
		sb.WriteString(t.op.String())
		for _, c := range t.children {
			sb.WriteByte(' ')
			c.write(sb)
		}
		sb.WriteByte(')')
	}
}

// Walk visits every distinct term of the DAG rooted at t in post-order.
// Shared subterms are visited once. Returning false from visit stops the walk.
func Walk(t *Term, visit func(*Term) bool) {
	seen := make(map[*Term]bool)
	var rec func(*Term) bool
	rec = func(n *Term) bool {
		if seen[n] {
			return true
		}
		seen[n] = true
		for _, c := range n.children {
			if !rec(c) {
				return false
			}
		}
		return visit(n)
	}
	rec(t)
}

// FreeSymbols returns the symbols occurring in t, ordered by identity number.
func FreeSymbols(t *Term) []*Term {
	var out []*Term
	Walk(t, func(n *Term) bool {
		if n.symbol {
			out = append(out, n)
		}
		return true
	})
	slices.SortFunc(out, func(a, b *Term) int { return cmp.Compare(a.id, b.id) })
	return out
}
