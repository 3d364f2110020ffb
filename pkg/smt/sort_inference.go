package smt

import (
	"fmt"
	"math/bits"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// sortRule computes the result sort of an application whose operand count has
// already been checked. It returns nil when the operand sorts do not fit.
type sortRule func(op Op, sorts []*Sort) *Sort

var inferenceRules map[PrimOp]sortRule

func init() {
	inferenceRules = map[PrimOp]sortRule{
		And:      allOf(KindBool, BoolSort),
		Or:       allOf(KindBool, BoolSort),
		Xor:      allOf(KindBool, BoolSort),
		Not:      allOf(KindBool, BoolSort),
		Implies:  allOf(KindBool, BoolSort),
		Ite:      iteSort,
		Equal:    sameSortTo(BoolSort),
		Distinct: sameSortTo(BoolSort),

		Apply: applySort,

		Plus:   arithSame,
		Minus:  arithSame,
		Negate: arithSame,
		Mult:   arithSame,
		Abs:    arithSame,
		Pow:    arithSame,
		Div:    allOf(KindReal, RealSort),
		IntDiv: allOf(KindInt, IntSort),
		Mod:    allOf(KindInt, IntSort),
		Lt:     arithCompare,
		Le:     arithCompare,
		Gt:     arithCompare,
		Ge:     arithCompare,
		ToReal: allOf(KindInt, RealSort),
		ToInt:  allOf(KindReal, IntSort),
		IsInt:  allOf(KindReal, BoolSort),

		Concat:      concatSort,
		Extract:     extractSort,
		BVNot:       bvSame,
		BVNeg:       bvSame,
		BVAnd:       bvSame,
		BVOr:        bvSame,
		BVXor:       bvSame,
		BVNand:      bvSame,
		BVNor:       bvSame,
		BVXnor:      bvSame,
		BVAdd:       bvSame,
		BVSub:       bvSame,
		BVMul:       bvSame,
		BVUdiv:      bvSame,
		BVSdiv:      bvSame,
		BVUrem:      bvSame,
		BVSrem:      bvSame,
		BVSmod:      bvSame,
		BVShl:       bvSame,
		BVAshr:      bvSame,
		BVLshr:      bvSame,
		BVComp:      bvCompare(func() *Sort { return BVSort(1) }),
		BVUlt:       bvCompare(BoolSort),
		BVUle:       bvCompare(BoolSort),
		BVUgt:       bvCompare(BoolSort),
		BVUge:       bvCompare(BoolSort),
		BVSlt:       bvCompare(BoolSort),
		BVSle:       bvCompare(BoolSort),
		BVSgt:       bvCompare(BoolSort),
		BVSge:       bvCompare(BoolSort),
		ZeroExtend:  extendSort,
		SignExtend:  extendSort,
		Repeat:      repeatSort,
		RotateLeft:  bvSame,
		RotateRight: bvSame,
		BVToNat:     bvToNatSort,
		IntToBV:     intToBVSort,

		Select: selectSort,
		Store:  storeSort,

		Forall: quantifierSort,
		Exists: quantifierSort,

		StrLt:         allOf(KindString, BoolSort),
		StrLeq:        allOf(KindString, BoolSort),
		StrLen:        allOf(KindString, IntSort),
		StrConcat:     allOf(KindString, StringSort),
		StrSubstr:     signature(StringSort, StringSort, IntSort, IntSort),
		StrAt:         signature(StringSort, StringSort, IntSort),
		StrContains:   allOf(KindString, BoolSort),
		StrIndexof:    signature(IntSort, StringSort, StringSort, IntSort),
		StrReplace:    allOf(KindString, StringSort),
		StrReplaceAll: allOf(KindString, StringSort),
		StrPrefixof:   allOf(KindString, BoolSort),
		StrSuffixof:   allOf(KindString, BoolSort),
		StrIsDigit:    allOf(KindString, BoolSort),
		StrToInt:      allOf(KindString, IntSort),
		StrFromInt:    allOf(KindInt, StringSort),
		StrToRe:       allOf(KindString, RegExpSort),
		StrInRe:       signature(BoolSort, StringSort, RegExpSort),
		ReConcat:      allOf(KindRegExp, RegExpSort),
		ReUnion:       allOf(KindRegExp, RegExpSort),
		ReInter:       allOf(KindRegExp, RegExpSort),
		ReStar:        allOf(KindRegExp, RegExpSort),
		RePlus:        allOf(KindRegExp, RegExpSort),
		ReOpt:         allOf(KindRegExp, RegExpSort),
		ReComp:        allOf(KindRegExp, RegExpSort),
	}
}

// ComputeSort returns the result sort of applying op to operands of the given
// sorts. Operand count or sort mismatches are usage errors; nothing is coerced.
//
// Parameters:
//
//	op Op: The operator, including its indices.
//	sorts []*Sort: Operand sorts in order.
//
// Returns:
//
//	*Sort: The result sort.
//	error: A usage error describing the mismatch.
func ComputeSort(op Op, sorts []*Sort) (*Sort, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	lo, hi := op.Prim.Arity()
	if len(sorts) < lo || len(sorts) > hi {
		return nil, verr.Usage("operator %s expects %s operand(s), got %d", op, arityString(lo, hi), len(sorts))
	}
	for i, s := range sorts {
		if s == nil {
			return nil, verr.Usage("operand %d of %s has no sort", i, op)
		}
	}
	rule, ok := inferenceRules[op.Prim]
	if !ok {
		return nil, verr.Unsupported("no sort inference rule for %s", op)
	}
	res := rule(op, sorts)
	if res == nil {
		return nil, verr.ErrSortMismatch(op, sorts)
	}
	return res, nil
}

// CheckSortedness reports whether op may be applied to operands of the given
// sorts.
func CheckSortedness(op Op, sorts []*Sort) bool {
	_, err := ComputeSort(op, sorts)
	return err == nil
}

// ComputeTermSort is ComputeSort over terms. It additionally checks the
// conditions that depend on the operands themselves rather than their sorts:
// the bound variables of a quantifier must be parameters.
func ComputeTermSort(op Op, terms []*Term) (*Sort, error) {
	sorts := make([]*Sort, len(terms))
	for i, t := range terms {
		if t == nil {
			return nil, verr.Usage("operand %d of %s is a null term", i, op)
		}
		sorts[i] = t.sort
	}
	if op.Prim == Forall || op.Prim == Exists {
		for i := 0; i+1 < len(terms); i++ {
			if !terms[i].param {
				return nil, verr.Usage("bound variable %s of %s is not a parameter", terms[i], op)
			}
		}
	}
	return ComputeSort(op, sorts)
}

// CheckTermSortedness reports whether op may be applied to terms.
func CheckTermSortedness(op Op, terms []*Term) bool {
	_, err := ComputeTermSort(op, terms)
	return err == nil
}

func arityString(lo, hi int) string {
	switch {
	case lo == hi:
		return fmt.Sprint(lo)
	case hi == variadic:
		return fmt.Sprintf("at least %d", lo)
	default:
		return fmt.Sprintf("%d to %d", lo, hi)
	}
}

func allOf(kind SortKind, result func() *Sort) sortRule {
	return func(_ Op, sorts []*Sort) *Sort {
		for _, s := range sorts {
			if s.kind != kind {
				return nil
			}
		}
		return result()
	}
}

func signature(result func() *Sort, params ...func() *Sort) sortRule {
	return func(_ Op, sorts []*Sort) *Sort {
		if len(sorts) != len(params) {
			return nil
		}
		for i, p := range params {
			if !sorts[i].Equal(p()) {
				return nil
			}
		}
		return result()
	}
}

func allEqual(sorts []*Sort) bool {
	for _, s := range sorts[1:] {
		if !s.Equal(sorts[0]) {
			return false
		}
	}
	return true
}

func sameSortTo(result func() *Sort) sortRule {
	return func(_ Op, sorts []*Sort) *Sort {
		if !allEqual(sorts) {
			return nil
		}
		return result()
	}
}

func iteSort(_ Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindBool || !sorts[1].Equal(sorts[2]) {
		return nil
	}
	return sorts[1]
}

func arithSame(_ Op, sorts []*Sort) *Sort {
	if k := sorts[0].kind; k != KindInt && k != KindReal {
		return nil
	}
	if !allEqual(sorts) {
		return nil
	}
	return sorts[0]
}

func arithCompare(op Op, sorts []*Sort) *Sort {
	if arithSame(op, sorts) == nil {
		return nil
	}
	return BoolSort()
}

func bvSame(_ Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindBV || !allEqual(sorts) {
		return nil
	}
	return sorts[0]
}

func bvCompare(result func() *Sort) sortRule {
	return func(op Op, sorts []*Sort) *Sort {
		if bvSame(op, sorts) == nil {
			return nil
		}
		return result()
	}
}

func concatSort(_ Op, sorts []*Sort) *Sort {
	var width, carry uint64
	for _, s := range sorts {
		if s.kind != KindBV {
			return nil
		}
		if width, carry = bits.Add64(width, s.width, 0); carry != 0 {
			return nil
		}
	}
	return widthSort(width)
}

// widthSort rejects the zero width left by an overflowing computation.
func widthSort(width uint64) *Sort {
	if width == 0 {
		return nil
	}
	return BVSort(width)
}

func extractSort(op Op, sorts []*Sort) *Sort {
	s := sorts[0]
	hi, lo := op.Idx0, op.Idx1
	if s.kind != KindBV || lo > hi || hi >= s.width {
		return nil
	}
	return BVSort(hi - lo + 1)
}

func extendSort(op Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindBV {
		return nil
	}
	width, carry := bits.Add64(sorts[0].width, op.Idx0, 0)
	if carry != 0 {
		return nil
	}
	return widthSort(width)
}

func repeatSort(op Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindBV || op.Idx0 == 0 {
		return nil
	}
	hi, width := bits.Mul64(sorts[0].width, op.Idx0)
	if hi != 0 {
		return nil
	}
	return widthSort(width)
}

func bvToNatSort(_ Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindBV {
		return nil
	}
	return IntSort()
}

func intToBVSort(op Op, sorts []*Sort) *Sort {
	if sorts[0].kind != KindInt || op.Idx0 == 0 {
		return nil
	}
	return BVSort(op.Idx0)
}

func selectSort(_ Op, sorts []*Sort) *Sort {
	arr := sorts[0]
	if arr.kind != KindArray || !sorts[1].Equal(arr.index) {
		return nil
	}
	return arr.elem
}

func storeSort(_ Op, sorts []*Sort) *Sort {
	arr := sorts[0]
	if arr.kind != KindArray || !sorts[1].Equal(arr.index) || !sorts[2].Equal(arr.elem) {
		return nil
	}
	return arr
}

func applySort(_ Op, sorts []*Sort) *Sort {
	fn := sorts[0]
	if fn.kind != KindFunction || len(fn.domain) != len(sorts)-1 {
		return nil
	}
	for i, d := range fn.domain {
		if !sorts[i+1].Equal(d) {
			return nil
		}
	}
	return fn.codomain
}

func quantifierSort(_ Op, sorts []*Sort) *Sort {
	if sorts[len(sorts)-1].kind != KindBool {
		return nil
	}
	return BoolSort()
}
