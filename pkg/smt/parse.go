package smt

import (
	"strconv"
	"strings"
	"unicode"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// sexp is a parsed symbolic expression: an atom or a list.
type sexp struct {
	atom   string
	list   []sexp
	isList bool
}

func tokenize(text string) []string {
	var toks []string
	cur := strings.Builder{}
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func parseSexp(text string) (sexp, error) {
	toks := tokenize(text)
	if len(toks) == 0 {
		return sexp{}, verr.Usage("empty expression")
	}
	e, rest, err := readSexp(toks)
	if err != nil {
		return sexp{}, err
	}
	if len(rest) > 0 {
		return sexp{}, verr.Usage("trailing input %q in %q", strings.Join(rest, " "), text)
	}
	return e, nil
}

func readSexp(toks []string) (sexp, []string, error) {
	if len(toks) == 0 {
		return sexp{}, nil, verr.Usage("unexpected end of input")
	}
	switch toks[0] {
	case ")":
		return sexp{}, nil, verr.Usage("unexpected )")
	case "(":
		var items []sexp
		toks = toks[1:]
		for len(toks) > 0 && toks[0] != ")" {
			item, rest, err := readSexp(toks)
			if err != nil {
				return sexp{}, nil, err
			}
			items = append(items, item)
			toks = rest
		}
		if len(toks) == 0 {
			return sexp{}, nil, verr.Usage("missing )")
		}
		return sexp{list: items, isList: true}, toks[1:], nil
	default:
		return sexp{atom: toks[0]}, toks[1:], nil
	}
}

func (e sexp) indexed(head string) bool {
	return e.isList && len(e.list) >= 2 && !e.list[0].isList && e.list[0].atom == "_" &&
		!e.list[1].isList && e.list[1].atom == head
}

func parseIndices(items []sexp) ([]uint64, error) {
	out := make([]uint64, 0, len(items))
	for _, it := range items {
		if it.isList {
			return nil, verr.Usage("index must be a numeral")
		}
		v, err := strconv.ParseUint(it.atom, 10, 64)
		if err != nil {
			return nil, verr.Usage("index %q is not a numeral", it.atom)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseSort reads a sort in SMT-LIB syntax, e.g. "(_ BitVec 8)" or
// "(Array Int Bool)". Unknown symbols are uninterpreted sorts.
func ParseSort(text string) (*Sort, error) {
	e, err := parseSexp(text)
	if err != nil {
		return nil, err
	}
	return sortOf(e)
}

func sortOf(e sexp) (*Sort, error) {
	if !e.isList {
		if p := PrimitiveSort(SortKind(e.atom)); p != nil {
			return p, nil
		}
		return UninterpretedSort(e.atom, 0), nil
	}
	if e.indexed("BitVec") {
		idx, err := parseIndices(e.list[2:])
		if err != nil {
			return nil, err
		}
		if len(idx) != 1 || idx[0] == 0 {
			return nil, verr.Usage("BitVec needs one positive width")
		}
		return BVSort(idx[0]), nil
	}
	if len(e.list) < 2 || e.list[0].isList {
		return nil, verr.Usage("malformed sort")
	}
	args := make([]*Sort, 0, len(e.list)-1)
	for _, it := range e.list[1:] {
		s, err := sortOf(it)
		if err != nil {
			return nil, err
		}
		args = append(args, s)
	}
	switch head := e.list[0].atom; head {
	case "Array":
		if len(args) != 2 {
			return nil, verr.Usage("Array takes two sorts")
		}
		return ArraySort(args[0], args[1]), nil
	case "->":
		return FunctionSort(args[:len(args)-1], args[len(args)-1]), nil
	default:
		return UninterpretedSortApp(UninterpretedSort(head, uint64(len(args))), args), nil
	}
}

// ParseOp reads an operator name such as "bvadd" or an indexed operator such
// as "(_ extract 7 0)".
func ParseOp(text string) (Op, error) {
	e, err := parseSexp(text)
	if err != nil {
		return Op{}, err
	}
	name, idxItems := e.atom, []sexp(nil)
	if e.isList {
		if len(e.list) < 3 || e.list[0].isList || e.list[0].atom != "_" || e.list[1].isList {
			return Op{}, verr.Usage("malformed indexed operator %q", text)
		}
		name, idxItems = e.list[1].atom, e.list[2:]
	}
	prim, ok := PrimOpByName(name)
	if !ok {
		return Op{}, verr.Usage("unknown operator %q", name)
	}
	idx, err := parseIndices(idxItems)
	if err != nil {
		return Op{}, err
	}
	op := NewOp(prim, idx...)
	if err := op.Validate(); err != nil {
		return Op{}, err
	}
	return op, nil
}
