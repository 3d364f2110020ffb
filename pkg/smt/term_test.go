package smt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

func TestOpString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		op   Op
		want string
	}{
		{NewOp(BVAdd), "bvadd"},
		{NewOp(Extract, 3, 0), "(_ extract 3 0)"},
		{NewOp(ZeroExtend, 8), "(_ zero_extend 8)"},
		{NewOp(Implies), "=>"},
		{Op{}, "<null>"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestOpValidate(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewOp(Extract, 7, 0).Validate())
	assert.True(t, verr.IsUsage(NewOp(Extract, 7).Validate()))
	assert.True(t, verr.IsUsage(NewOp(And, 1).Validate()))
	assert.True(t, verr.IsUsage(Op{}.Validate()))
	assert.True(t, verr.IsUsage(Op{Prim: numPrimOps}.Validate()))
	assert.True(t, Op{}.IsNull())
	assert.Equal(t, NewOp(Extract, 7, 0), Op{Prim: Extract, NumIdx: 2, Idx0: 7})
}

func TestPrimOpByName(t *testing.T) {
	t.Parallel()
	for p := And; p < numPrimOps; p++ {
		got, ok := PrimOpByName(p.String())
		require.True(t, ok, p.String())
		if p != Negate {
			assert.Equal(t, p, got)
		}
	}
	got, ok := PrimOpByName("-")
	require.True(t, ok)
	assert.Equal(t, Minus, got)
	_, ok = PrimOpByName("frobnicate")
	assert.False(t, ok)

	lo, hi := Xor.Arity()
	assert.Equal(t, 2, lo)
	assert.Equal(t, 2, hi)
	assert.Equal(t, 2, Extract.NumIndices())
}

func TestSortKeys(t *testing.T) {
	t.Parallel()
	u := UninterpretedSort("Set", 1)
	got := []string{
		BoolSort().String(),
		BVSort(32).String(),
		ArraySort(IntSort(), ArraySort(IntSort(), BoolSort())).String(),
		FunctionSort([]*Sort{IntSort(), RealSort()}, BoolSort()).String(),
		UninterpretedSort("U", 0).String(),
		u.String(),
		UninterpretedSortApp(u, []*Sort{IntSort()}).String(),
		RegExpSort().String(),
	}
	want := []string{
		"Bool",
		"(_ BitVec 32)",
		"(Array Int (Array Int Bool))",
		"(-> Int Real Bool)",
		"U",
		"Set/1",
		"(Set Int)",
		"RegLan",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort keys mismatch (-want +got):\n%s", diff)
	}
}

func TestSortEqual(t *testing.T) {
	t.Parallel()
	assert.True(t, BVSort(8).Equal(BVSort(8)))
	assert.False(t, BVSort(8).Equal(BVSort(9)))
	assert.True(t, ArraySort(IntSort(), BVSort(2)).Equal(ArraySort(IntSort(), BVSort(2))))
	assert.False(t, ArraySort(IntSort(), BVSort(2)).Equal(ArraySort(RealSort(), BVSort(2))))
	assert.False(t, FunctionSort([]*Sort{IntSort()}, IntSort()).Equal(FunctionSort([]*Sort{IntSort(), IntSort()}, IntSort())))
	assert.False(t, UninterpretedSort("U", 0).Equal(UninterpretedSort("V", 0)))
	assert.False(t, IntSort().Equal(nil))
	assert.False(t, (*Sort)(nil).IsKind(KindInt))
	assert.Nil(t, PrimitiveSort(KindBV))

	dom := []*Sort{IntSort()}
	fn := FunctionSort(dom, BoolSort())
	dom[0] = RealSort()
	assert.Same(t, IntSort(), fn.Domain()[0], "domain is copied")
}
