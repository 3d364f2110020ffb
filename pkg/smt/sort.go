package smt

import (
	"fmt"
	"strings"
)

// SortKind enumerates the logical type families.
//
// Values:
//
//	KindBool | KindInt | KindReal | KindString | KindRegExp | KindBV |
//	KindArray | KindFunction | KindUninterpreted | KindDatatype
type SortKind string

const (
	KindBool          SortKind = "Bool"
	KindInt           SortKind = "Int"
	KindReal          SortKind = "Real"
	KindString        SortKind = "String"
	KindRegExp        SortKind = "RegLan"
	KindBV            SortKind = "BitVec"
	KindArray         SortKind = "Array"
	KindFunction      SortKind = "Function"
	KindUninterpreted SortKind = "Uninterpreted"
	KindDatatype      SortKind = "Datatype"
)

// IsPrimitive reports whether sorts of this kind take no parameters.
func (k SortKind) IsPrimitive() bool {
	switch k {
	case KindBool, KindInt, KindReal, KindString, KindRegExp:
		return true
	default:
		return false
	}
}

// Sort is an immutable logical type. Sorts are compared structurally with
// Equal; a LoggingSolver additionally interns them so that equal sorts made
// through one session are the same pointer.
//
// Fields:
//
//	kind SortKind: Discriminator.
//	width uint64: Bit-vector width.
//	index, elem *Sort: Array index and element sorts.
//	domain []*Sort, codomain *Sort: Function signature.
//	name string: Uninterpreted or datatype name.
//	arity uint64: Arity of an uninterpreted sort constructor.
//	params []*Sort: Arguments of an applied uninterpreted sort constructor.
//	datatype *Datatype: Back reference of a datatype sort.
//	key string: Canonical key, equal iff the sorts are Equal.
type Sort struct {
	kind     SortKind
	width    uint64
	index    *Sort
	elem     *Sort
	domain   []*Sort
	codomain *Sort
	name     string
	arity    uint64
	params   []*Sort
	datatype *Datatype
	key      string
}

var primitiveSorts = map[SortKind]*Sort{
	KindBool:   newPrimitive(KindBool),
	KindInt:    newPrimitive(KindInt),
	KindReal:   newPrimitive(KindReal),
	KindString: newPrimitive(KindString),
	KindRegExp: newPrimitive(KindRegExp),
}

func newPrimitive(kind SortKind) *Sort {
	s := &Sort{kind: kind}
	s.key = s.render()
	return s
}

// PrimitiveSort returns the sort of a parameterless kind, or nil for kinds
// that need parameters.
func PrimitiveSort(kind SortKind) *Sort {
	return primitiveSorts[kind]
}

func BoolSort() *Sort   { return primitiveSorts[KindBool] }
func IntSort() *Sort    { return primitiveSorts[KindInt] }
func RealSort() *Sort   { return primitiveSorts[KindReal] }
func StringSort() *Sort { return primitiveSorts[KindString] }
func RegExpSort() *Sort { return primitiveSorts[KindRegExp] }

// BVSort returns the bit-vector sort of the given width. Width zero is not a
// valid sort; the check is done by MakeBVSort on the solver.
func BVSort(width uint64) *Sort {
	s := &Sort{kind: KindBV, width: width}
	s.key = s.render()
	return s
}

// ArraySort returns the sort of arrays from index to elem.
func ArraySort(index, elem *Sort) *Sort {
	s := &Sort{kind: KindArray, index: index, elem: elem}
	s.key = s.render()
	return s
}

// FunctionSort returns the sort of functions with the given domain and
// codomain.
func FunctionSort(domain []*Sort, codomain *Sort) *Sort {
	dom := make([]*Sort, len(domain))
	copy(dom, domain)
	s := &Sort{kind: KindFunction, domain: dom, codomain: codomain}
	s.key = s.render()
	return s
}

// UninterpretedSort returns an uninterpreted sort (arity 0) or an uninterpreted
// sort constructor (arity > 0).
func UninterpretedSort(name string, arity uint64) *Sort {
	s := &Sort{kind: KindUninterpreted, name: name, arity: arity}
	s.key = s.render()
	return s
}

// UninterpretedSortApp applies an uninterpreted sort constructor to params.
func UninterpretedSortApp(ctor *Sort, params []*Sort) *Sort {
	ps := make([]*Sort, len(params))
	copy(ps, params)
	s := &Sort{kind: KindUninterpreted, name: ctor.name, arity: 0, params: ps}
	s.key = s.render()
	return s
}

// newDatatypeSort returns a datatype sort whose Datatype is attached later by
// the one-shot finalization of its declaration.
func newDatatypeSort(name string) *Sort {
	s := &Sort{kind: KindDatatype, name: name}
	s.key = s.render()
	return s
}

func (s *Sort) Kind() SortKind         { return s.kind }
func (s *Sort) Width() uint64          { return s.width }
func (s *Sort) IndexSort() *Sort       { return s.index }
func (s *Sort) ElemSort() *Sort        { return s.elem }
func (s *Sort) Codomain() *Sort        { return s.codomain }
func (s *Sort) Name() string           { return s.name }
func (s *Sort) Arity() uint64          { return s.arity }
func (s *Sort) Datatype() *Datatype    { return s.datatype }
func (s *Sort) Key() string            { return s.key }
func (s *Sort) IsKind(k SortKind) bool { return s != nil && s.kind == k }

// Domain returns a copy of the function domain.
func (s *Sort) Domain() []*Sort {
	out := make([]*Sort, len(s.domain))
	copy(out, s.domain)
	return out
}

// Params returns a copy of the parameters of an applied sort constructor.
func (s *Sort) Params() []*Sort {
	out := make([]*Sort, len(s.params))
	copy(out, s.params)
	return out
}

// Equal reports structural equality. Datatype sorts are equal when they refer
// to the same Datatype, or when both are still unattached and share a name.
func (s *Sort) Equal(o *Sort) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindBV:
		return s.width == o.width
	case KindArray:
		return s.index.Equal(o.index) && s.elem.Equal(o.elem)
	case KindFunction:
		if len(s.domain) != len(o.domain) || !s.codomain.Equal(o.codomain) {
			return false
		}
		for i := range s.domain {
			if !s.domain[i].Equal(o.domain[i]) {
				return false
			}
		}
		return true
	case KindUninterpreted:
		if s.name != o.name || s.arity != o.arity || len(s.params) != len(o.params) {
			return false
		}
		for i := range s.params {
			if !s.params[i].Equal(o.params[i]) {
				return false
			}
		}
		return true
	case KindDatatype:
		if s.datatype != nil || o.datatype != nil {
			return s.datatype == o.datatype
		}
		return s.name == o.name
	default:
		return true
	}
}

// String renders the sort in SMT-LIB syntax.
func (s *Sort) String() string {
	if s == nil {
		return "<null sort>"
	}
	return s.key
}

func (s *Sort) render() string {
	switch s.kind {
	case KindBV:
		return fmt.Sprintf("(_ BitVec %d)", s.width)
	case KindArray:
		return fmt.Sprintf("(Array %s %s)", s.index, s.elem)
	case KindFunction:
		parts := make([]string, 0, len(s.domain)+1)
		for _, d := range s.domain {
			parts = append(parts, d.String())
		}
		parts = append(parts, s.codomain.String())
		return fmt.Sprintf("(-> %s)", strings.Join(parts, " "))
	case KindUninterpreted:
		if len(s.params) > 0 {
			parts := make([]string, len(s.params))
			for i, p := range s.params {
				parts[i] = p.String()
			}
			return fmt.Sprintf("(%s %s)", s.name, strings.Join(parts, " "))
		}
		if s.arity > 0 {
			return fmt.Sprintf("%s/%d", s.name, s.arity)
		}
		return s.name
	case KindDatatype:
		return s.name
	default:
		return string(s.kind)
	}
}
