package smt

import (
	"fmt"
	"math"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// PrimOp is the primitive operator tag of an Op.
type PrimOp int

const (
	NoOp PrimOp = iota

	// Boolean
	And
	Or
	Xor
	Not
	Implies
	Ite
	Equal
	Distinct

	// Uninterpreted functions
	Apply

	// Arithmetic
	Plus
	Minus
	Negate
	Mult
	Div
	IntDiv
	Mod
	Abs
	Pow
	Lt
	Le
	Gt
	Ge
	ToReal
	ToInt
	IsInt

	// Bit-vectors
	Concat
	Extract
	BVNot
	BVNeg
	BVAnd
	BVOr
	BVXor
	BVNand
	BVNor
	BVXnor
	BVComp
	BVAdd
	BVSub
	BVMul
	BVUdiv
	BVSdiv
	BVUrem
	BVSrem
	BVSmod
	BVShl
	BVAshr
	BVLshr
	BVUlt
	BVUle
	BVUgt
	BVUge
	BVSlt
	BVSle
	BVSgt
	BVSge
	ZeroExtend
	SignExtend
	Repeat
	RotateLeft
	RotateRight
	BVToNat
	IntToBV

	// Arrays
	Select
	Store

	// Quantifiers
	Forall
	Exists

	// Strings and regular expressions
	StrLt
	StrLeq
	StrLen
	StrConcat
	StrSubstr
	StrAt
	StrContains
	StrIndexof
	StrReplace
	StrReplaceAll
	StrPrefixof
	StrSuffixof
	StrIsDigit
	StrToInt
	StrFromInt
	StrToRe
	StrInRe
	ReConcat
	ReUnion
	ReInter
	ReStar
	RePlus
	ReOpt
	ReComp

	numPrimOps
)

const variadic = math.MaxInt

type primInfo struct {
	name     string
	minArity int
	maxArity int
	indices  int
}

var primTable = [numPrimOps]primInfo{
	NoOp: {"<null>", 0, 0, 0},

	And:      {"and", 2, variadic, 0},
	Or:       {"or", 2, variadic, 0},
	Xor:      {"xor", 2, 2, 0},
	Not:      {"not", 1, 1, 0},
	Implies:  {"=>", 2, 2, 0},
	Ite:      {"ite", 3, 3, 0},
	Equal:    {"=", 2, variadic, 0},
	Distinct: {"distinct", 2, variadic, 0},

	Apply: {"apply", 2, variadic, 0},

	Plus:   {"+", 2, variadic, 0},
	Minus:  {"-", 2, 2, 0},
	Negate: {"-", 1, 1, 0},
	Mult:   {"*", 2, variadic, 0},
	Div:    {"/", 2, 2, 0},
	IntDiv: {"div", 2, 2, 0},
	Mod:    {"mod", 2, 2, 0},
	Abs:    {"abs", 1, 1, 0},
	Pow:    {"^", 2, 2, 0},
	Lt:     {"<", 2, 2, 0},
	Le:     {"<=", 2, 2, 0},
	Gt:     {">", 2, 2, 0},
	Ge:     {">=", 2, 2, 0},
	ToReal: {"to_real", 1, 1, 0},
	ToInt:  {"to_int", 1, 1, 0},
	IsInt:  {"is_int", 1, 1, 0},

	Concat:      {"concat", 2, variadic, 0},
	Extract:     {"extract", 1, 1, 2},
	BVNot:       {"bvnot", 1, 1, 0},
	BVNeg:       {"bvneg", 1, 1, 0},
	BVAnd:       {"bvand", 2, variadic, 0},
	BVOr:        {"bvor", 2, variadic, 0},
	BVXor:       {"bvxor", 2, variadic, 0},
	BVNand:      {"bvnand", 2, 2, 0},
	BVNor:       {"bvnor", 2, 2, 0},
	BVXnor:      {"bvxnor", 2, 2, 0},
	BVComp:      {"bvcomp", 2, 2, 0},
	BVAdd:       {"bvadd", 2, variadic, 0},
	BVSub:       {"bvsub", 2, 2, 0},
	BVMul:       {"bvmul", 2, variadic, 0},
	BVUdiv:      {"bvudiv", 2, 2, 0},
	BVSdiv:      {"bvsdiv", 2, 2, 0},
	BVUrem:      {"bvurem", 2, 2, 0},
	BVSrem:      {"bvsrem", 2, 2, 0},
	BVSmod:      {"bvsmod", 2, 2, 0},
	BVShl:       {"bvshl", 2, 2, 0},
	BVAshr:      {"bvashr", 2, 2, 0},
	BVLshr:      {"bvlshr", 2, 2, 0},
	BVUlt:       {"bvult", 2, 2, 0},
	BVUle:       {"bvule", 2, 2, 0},
	BVUgt:       {"bvugt", 2, 2, 0},
	BVUge:       {"bvuge", 2, 2, 0},
	BVSlt:       {"bvslt", 2, 2, 0},
	BVSle:       {"bvsle", 2, 2, 0},
	BVSgt:       {"bvsgt", 2, 2, 0},
	BVSge:       {"bvsge", 2, 2, 0},
	ZeroExtend:  {"zero_extend", 1, 1, 1},
	SignExtend:  {"sign_extend", 1, 1, 1},
	Repeat:      {"repeat", 1, 1, 1},
	RotateLeft:  {"rotate_left", 1, 1, 1},
	RotateRight: {"rotate_right", 1, 1, 1},
	BVToNat:     {"bv2nat", 1, 1, 0},
	IntToBV:     {"int2bv", 1, 1, 1},

	Select: {"select", 2, 2, 0},
	Store:  {"store", 3, 3, 0},

	Forall: {"forall", 2, variadic, 0},
	Exists: {"exists", 2, variadic, 0},

	StrLt:         {"str.<", 2, 2, 0},
	StrLeq:        {"str.<=", 2, 2, 0},
	StrLen:        {"str.len", 1, 1, 0},
	StrConcat:     {"str.++", 2, variadic, 0},
	StrSubstr:     {"str.substr", 3, 3, 0},
	StrAt:         {"str.at", 2, 2, 0},
	StrContains:   {"str.contains", 2, 2, 0},
	StrIndexof:    {"str.indexof", 3, 3, 0},
	StrReplace:    {"str.replace", 3, 3, 0},
	StrReplaceAll: {"str.replace_all", 3, 3, 0},
	StrPrefixof:   {"str.prefixof", 2, 2, 0},
	StrSuffixof:   {"str.suffixof", 2, 2, 0},
	StrIsDigit:    {"str.is_digit", 1, 1, 0},
	StrToInt:      {"str.to_int", 1, 1, 0},
	StrFromInt:    {"str.from_int", 1, 1, 0},
	StrToRe:       {"str.to_re", 1, 1, 0},
	StrInRe:       {"str.in_re", 2, 2, 0},
	ReConcat:      {"re.++", 2, variadic, 0},
	ReUnion:       {"re.union", 2, variadic, 0},
	ReInter:       {"re.inter", 2, variadic, 0},
	ReStar:        {"re.*", 1, 1, 0},
	RePlus:        {"re.+", 1, 1, 0},
	ReOpt:         {"re.opt", 1, 1, 0},
	ReComp:        {"re.comp", 1, 1, 0},
}

// String returns the SMT-LIB symbol of the primitive operator.
func (p PrimOp) String() string {
	if p < 0 || p >= numPrimOps {
		return fmt.Sprintf("PrimOp(%d)", int(p))
	}
	return primTable[p].name
}

// Arity returns the minimum and maximum number of operands accepted by p.
// A maximum of math.MaxInt means the operator is variadic.
func (p PrimOp) Arity() (int, int) {
	if p < 0 || p >= numPrimOps {
		return 0, 0
	}
	info := primTable[p]
	return info.minArity, info.maxArity
}

// NumIndices returns how many numeric indices an Op with this tag carries.
func (p PrimOp) NumIndices() int {
	if p < 0 || p >= numPrimOps {
		return 0
	}
	return primTable[p].indices
}

// PrimOpByName looks up a primitive operator by its SMT-LIB symbol. Negate
// and Minus share "-"; the lookup returns Minus.
func PrimOpByName(name string) (PrimOp, bool) {
	p, ok := primByName[name]
	return p, ok
}

var primByName = func() map[string]PrimOp {
	m := make(map[string]PrimOp, numPrimOps)
	for p := numPrimOps - 1; p > NoOp; p-- {
		m[primTable[p].name] = p
	}
	return m
}()

// Op is an operator application descriptor: a primitive tag plus up to two
// numeric indices, e.g. ((_ extract 7 4)). Op is comparable with ==.
type Op struct {
	Prim   PrimOp
	NumIdx int
	Idx0   uint64
	Idx1   uint64
}

// NewOp creates an Op from a tag and its indices. The result is not checked;
// use Validate (sort inference does) before handing it to a backend.
func NewOp(prim PrimOp, idx ...uint64) Op {
	op := Op{Prim: prim, NumIdx: len(idx)}
	if len(idx) > 0 {
		op.Idx0 = idx[0]
	}
	if len(idx) > 1 {
		op.Idx1 = idx[1]
	}
	return op
}

// IsNull reports whether the op is the empty operator of leaf terms.
func (o Op) IsNull() bool {
	return o.Prim == NoOp
}

// Validate checks that the op carries the number of indices its tag requires.
func (o Op) Validate() error {
	if o.Prim <= NoOp || o.Prim >= numPrimOps {
		return verr.Usage("unknown operator %d", int(o.Prim))
	}
	if o.NumIdx < 0 || o.NumIdx > 2 {
		return verr.Usage("operator %s has invalid index count %d", o.Prim, o.NumIdx)
	}
	if want := o.Prim.NumIndices(); want != o.NumIdx {
		return verr.Usage("operator %s expects %d indices, got %d", o.Prim, want, o.NumIdx)
	}
	return nil
}

// String renders the op in SMT-LIB syntax, e.g. "bvadd" or "(_ extract 3 0)".
func (o Op) String() string {
	switch o.NumIdx {
	case 0:
		return o.Prim.String()
	case 1:
		return fmt.Sprintf("(_ %s %d)", o.Prim, o.Idx0)
	default:
		return fmt.Sprintf("(_ %s %d %d)", o.Prim, o.Idx0, o.Idx1)
	}
}
