package smt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

func TestComputeSort(t *testing.T) {
	t.Parallel()
	bv4, bv8 := BVSort(4), BVSort(8)
	arr := ArraySort(IntSort(), bv8)
	fn := FunctionSort([]*Sort{IntSort(), BoolSort()}, RealSort())

	tests := []struct {
		name  string
		op    Op
		sorts []*Sort
		want  *Sort
	}{
		{"and", NewOp(And), []*Sort{BoolSort(), BoolSort(), BoolSort()}, BoolSort()},
		{"xor", NewOp(Xor), []*Sort{BoolSort(), BoolSort()}, BoolSort()},
		{"ite bv", NewOp(Ite), []*Sort{BoolSort(), bv4, bv4}, bv4},
		{"equal ints", NewOp(Equal), []*Sort{IntSort(), IntSort(), IntSort()}, BoolSort()},
		{"distinct bv", NewOp(Distinct), []*Sort{bv4, bv4}, BoolSort()},
		{"plus int", NewOp(Plus), []*Sort{IntSort(), IntSort()}, IntSort()},
		{"minus real", NewOp(Minus), []*Sort{RealSort(), RealSort()}, RealSort()},
		{"lt", NewOp(Lt), []*Sort{IntSort(), IntSort()}, BoolSort()},
		{"div", NewOp(Div), []*Sort{RealSort(), RealSort()}, RealSort()},
		{"to_real", NewOp(ToReal), []*Sort{IntSort()}, RealSort()},
		{"concat", NewOp(Concat), []*Sort{bv4, bv8, bv4}, BVSort(16)},
		{"extract", NewOp(Extract, 5, 2), []*Sort{bv8}, bv4},
		{"extract single bit", NewOp(Extract, 7, 7), []*Sort{bv8}, BVSort(1)},
		{"zero_extend", NewOp(ZeroExtend, 4), []*Sort{bv4}, bv8},
		{"repeat", NewOp(Repeat, 3), []*Sort{bv4}, BVSort(12)},
		{"zero_extend to widest", NewOp(ZeroExtend, math.MaxUint64-4), []*Sort{bv4}, BVSort(math.MaxUint64)},
		{"repeat to half range", NewOp(Repeat, 1<<62), []*Sort{BVSort(2)}, BVSort(1 << 63)},
		{"bvadd", NewOp(BVAdd), []*Sort{bv8, bv8, bv8}, bv8},
		{"bvcomp", NewOp(BVComp), []*Sort{bv8, bv8}, BVSort(1)},
		{"bvult", NewOp(BVUlt), []*Sort{bv4, bv4}, BoolSort()},
		{"bv2nat", NewOp(BVToNat), []*Sort{bv8}, IntSort()},
		{"int2bv", NewOp(IntToBV, 8), []*Sort{IntSort()}, bv8},
		{"select", NewOp(Select), []*Sort{arr, IntSort()}, bv8},
		{"store", NewOp(Store), []*Sort{arr, IntSort(), bv8}, arr},
		{"apply", NewOp(Apply), []*Sort{fn, IntSort(), BoolSort()}, RealSort()},
		{"str.len", NewOp(StrLen), []*Sort{StringSort()}, IntSort()},
		{"str.substr", NewOp(StrSubstr), []*Sort{StringSort(), IntSort(), IntSort()}, StringSort()},
		{"str.in_re", NewOp(StrInRe), []*Sort{StringSort(), RegExpSort()}, BoolSort()},
		{"re.star", NewOp(ReStar), []*Sort{RegExpSort()}, RegExpSort()},
		{"forall", NewOp(Forall), []*Sort{IntSort(), BoolSort()}, BoolSort()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSort(tt.op, tt.sorts)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.True(t, CheckSortedness(tt.op, tt.sorts))
		})
	}
}

func TestComputeSortRejects(t *testing.T) {
	t.Parallel()
	bv4, bv5, bv8 := BVSort(4), BVSort(5), BVSort(8)
	arr := ArraySort(IntSort(), bv8)

	tests := []struct {
		name  string
		op    Op
		sorts []*Sort
	}{
		{"xor arity", NewOp(Xor), []*Sort{BoolSort(), BoolSort(), BoolSort()}},
		{"not arity", NewOp(Not), nil},
		{"and int", NewOp(And), []*Sort{BoolSort(), IntSort()}},
		{"ite branches", NewOp(Ite), []*Sort{BoolSort(), bv4, bv8}},
		{"ite condition", NewOp(Ite), []*Sort{IntSort(), bv4, bv4}},
		{"distinct widths", NewOp(Distinct), []*Sort{bv4, bv5}},
		{"plus mixed", NewOp(Plus), []*Sort{IntSort(), RealSort()}},
		{"plus bool", NewOp(Plus), []*Sort{BoolSort(), BoolSort()}},
		{"bvadd widths", NewOp(BVAdd), []*Sort{bv4, bv8}},
		{"extract out of range", NewOp(Extract, 8, 0), []*Sort{bv8}},
		{"extract reversed", NewOp(Extract, 1, 2), []*Sort{bv8}},
		{"extract missing index", NewOp(Extract, 3), []*Sort{bv8}},
		{"concat overflow", NewOp(Concat), []*Sort{BVSort(math.MaxUint64), bv4}},
		{"concat overflow to zero", NewOp(Concat), []*Sort{BVSort(1 << 63), BVSort(1 << 63)}},
		{"zero_extend overflow", NewOp(ZeroExtend, math.MaxUint64), []*Sort{BVSort(1)}},
		{"sign_extend overflow", NewOp(SignExtend, math.MaxUint64-2), []*Sort{bv4}},
		{"repeat overflow", NewOp(Repeat, 1<<63), []*Sort{BVSort(2)}},
		{"repeat large overflow", NewOp(Repeat, math.MaxUint64), []*Sort{bv4}},
		{"repeat zero", NewOp(Repeat, 0), []*Sort{bv4}},
		{"select index", NewOp(Select), []*Sort{arr, BoolSort()}},
		{"store value", NewOp(Store), []*Sort{arr, IntSort(), bv4}},
		{"apply non function", NewOp(Apply), []*Sort{IntSort(), IntSort()}},
		{"forall body", NewOp(Forall), []*Sort{IntSort(), IntSort()}},
		{"null op", Op{}, []*Sort{BoolSort()}},
		{"nil sort", NewOp(Not), []*Sort{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSort(tt.op, tt.sorts)
			require.Error(t, err)
			assert.True(t, verr.IsUsage(err), "%v", err)
			assert.False(t, CheckSortedness(tt.op, tt.sorts))
		})
	}
}

func TestSortMismatchNamesOperands(t *testing.T) {
	t.Parallel()
	_, err := ComputeSort(NewOp(BVAnd), []*Sort{BVSort(4), BVSort(5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bvand")
	assert.Contains(t, err.Error(), "(_ BitVec 4), (_ BitVec 5)")
}
