package sat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

type fixture struct {
	t  *testing.T
	s  *smt.LoggingSolver[Sort, Ref]
	bv *smt.Sort
}

func newFixture(t *testing.T, width uint64) *fixture {
	t.Helper()
	s := smt.NewLoggingSolver[Sort, Ref](New())
	require.NoError(t, s.SetLogic("QF_BV"))
	bv, err := s.MakeBVSort(width)
	require.NoError(t, err)
	return &fixture{t: t, s: s, bv: bv}
}

func (f *fixture) sym(name string, srt *smt.Sort) *smt.Term {
	f.t.Helper()
	x, err := f.s.MakeSymbol(name, srt)
	require.NoError(f.t, err)
	return x
}

func (f *fixture) num(v int64) *smt.Term {
	f.t.Helper()
	n, err := f.s.MakeInt(v, f.bv)
	require.NoError(f.t, err)
	return n
}

func (f *fixture) app(prim smt.PrimOp, args ...*smt.Term) *smt.Term {
	f.t.Helper()
	t, err := f.s.MakeTerm(smt.NewOp(prim), args...)
	require.NoError(f.t, err)
	return t
}

func (f *fixture) indexed(op smt.Op, args ...*smt.Term) *smt.Term {
	f.t.Helper()
	t, err := f.s.MakeTerm(op, args...)
	require.NoError(f.t, err)
	return t
}

func (f *fixture) assert(t *smt.Term) {
	f.t.Helper()
	require.NoError(f.t, f.s.Assert(t))
}

func (f *fixture) check() smt.Result {
	f.t.Helper()
	r, err := f.s.CheckSat(context.Background())
	require.NoError(f.t, err)
	return r
}

func (f *fixture) value(t *smt.Term) string {
	f.t.Helper()
	v, err := f.s.GetValue(t)
	require.NoError(f.t, err)
	require.True(f.t, v.IsValue())
	return v.Literal()
}

func TestAdditionModel(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	f.assert(f.app(smt.Equal, f.app(smt.BVAdd, x, f.num(3)), f.num(10)))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00000111", f.value(x))
}

func TestLiteralsWrapAround(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 4)
	assert.Equal(t, "#b1111", f.num(-1).Literal())
	assert.Equal(t, "#b0001", f.num(17).Literal())

	n, err := f.s.MakeNumeral("a", 16, f.bv)
	require.NoError(t, err)
	assert.Equal(t, "#b1010", n.Literal())
	// Equal literals are the same canonical term.
	assert.Same(t, f.num(10), n)
}

func TestSignedAndUnsignedComparisons(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	f.assert(f.app(smt.BVSlt, x, f.num(0)))
	f.assert(f.app(smt.BVUgt, x, f.num(250)))

	require.True(t, f.check().IsSat())
	v := f.value(x)
	require.Len(t, v, 10)
	assert.Equal(t, "#b11111", v[:7])
	assert.NotEqual(t, "#b11111010", v)
}

func TestDivisionAndRemainder(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	f.assert(f.app(smt.Equal, f.app(smt.BVUdiv, x, f.num(3)), f.num(5)))
	f.assert(f.app(smt.Equal, f.app(smt.BVUrem, x, f.num(3)), f.num(2)))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00010001", f.value(x))
}

func TestDivisionByZero(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 4)
	x := f.sym("x", f.bv)
	q := f.sym("q", f.bv)
	r := f.sym("r", f.bv)
	f.assert(f.app(smt.Equal, x, f.num(6)))
	f.assert(f.app(smt.Equal, q, f.app(smt.BVUdiv, x, f.num(0))))
	f.assert(f.app(smt.Equal, r, f.app(smt.BVUrem, x, f.num(0))))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b1111", f.value(q))
	assert.Equal(t, "#b0110", f.value(r))
}

func TestShifts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	shl := f.sym("shl", f.bv)
	lshr := f.sym("lshr", f.bv)
	ashr := f.sym("ashr", f.bv)
	big := f.sym("big", f.bv)
	f.assert(f.app(smt.Equal, shl, f.app(smt.BVShl, f.num(1), f.num(2))))
	f.assert(f.app(smt.Equal, lshr, f.app(smt.BVLshr, f.num(-128), f.num(3))))
	f.assert(f.app(smt.Equal, ashr, f.app(smt.BVAshr, f.num(-128), f.num(3))))
	f.assert(f.app(smt.Equal, big, f.app(smt.BVLshr, f.num(-1), f.num(9))))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00000100", f.value(shl))
	assert.Equal(t, "#b00010000", f.value(lshr))
	assert.Equal(t, "#b11110000", f.value(ashr))
	assert.Equal(t, "#b00000000", f.value(big))
}

func TestConcatExtract(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 4)
	bv8, err := f.s.MakeBVSort(8)
	require.NoError(t, err)
	cat := f.app(smt.Concat, f.num(1), f.num(2))
	require.True(t, cat.Sort().Equal(bv8))
	y := f.sym("y", bv8)
	hi := f.sym("hi", f.bv)
	f.assert(f.app(smt.Equal, y, cat))
	f.assert(f.app(smt.Equal, hi, f.indexed(smt.NewOp(smt.Extract, 7, 4), y)))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00010010", f.value(y))
	assert.Equal(t, "#b0001", f.value(hi))
}

func TestExtensionsAndRotation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 4)
	z := f.indexed(smt.NewOp(smt.ZeroExtend, 4), f.num(-6))
	s := f.indexed(smt.NewOp(smt.SignExtend, 4), f.num(-6))
	rl := f.indexed(smt.NewOp(smt.RotateLeft, 1), f.num(9))
	rr := f.indexed(smt.NewOp(smt.RotateRight, 5), f.num(9))
	rep := f.indexed(smt.NewOp(smt.Repeat, 2), f.num(5))

	zs := f.sym("zs", z.Sort())
	ss := f.sym("ss", s.Sort())
	rls := f.sym("rl", f.bv)
	rrs := f.sym("rr", f.bv)
	reps := f.sym("rep", rep.Sort())
	f.assert(f.app(smt.Equal, zs, z))
	f.assert(f.app(smt.Equal, ss, s))
	f.assert(f.app(smt.Equal, rls, rl))
	f.assert(f.app(smt.Equal, rrs, rr))
	f.assert(f.app(smt.Equal, reps, rep))

	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00001010", f.value(zs))
	assert.Equal(t, "#b11111010", f.value(ss))
	assert.Equal(t, "#b0011", f.value(rls))
	assert.Equal(t, "#b1100", f.value(rrs))
	assert.Equal(t, "#b01010101", f.value(reps))
}

func TestMultiplicationIsUnsatWhenOdd(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	// 2x is never odd modulo 2^8.
	f.assert(f.app(smt.Equal, f.app(smt.BVMul, x, f.num(2)), f.num(7)))
	assert.True(t, f.check().IsUnsat())
}

func TestPushPop(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	base := f.app(smt.Equal, x, f.num(1))
	f.assert(base)

	require.NoError(t, f.s.Push(1))
	f.assert(f.app(smt.Equal, x, f.num(2)))
	assert.True(t, f.check().IsUnsat())

	require.NoError(t, f.s.Pop(1))
	require.True(t, f.check().IsSat())
	assert.Equal(t, "#b00000001", f.value(x))

	got, err := f.s.GetAssertions()
	require.NoError(t, err)
	assert.Equal(t, []*smt.Term{base}, got)

	// Symbols survive pop.
	y, err := f.s.GetSymbol("x")
	require.NoError(t, err)
	assert.Same(t, x, y)
}

func TestResetAssertions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	no, err := f.s.MakeBool(false)
	require.NoError(t, err)
	f.assert(no)
	require.NoError(t, f.s.Push(2))
	assert.True(t, f.check().IsUnsat())

	require.NoError(t, f.s.ResetAssertions())
	assert.Zero(t, f.s.ContextLevel())
	assert.True(t, f.check().IsSat())
	got, err := f.s.GetAssertions()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnsatAssumptions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	boolSort, err := f.s.MakeSort(smt.KindBool)
	require.NoError(t, err)
	a := f.sym("a", boolSort)
	b := f.sym("b", boolSort)
	c := f.sym("c", boolSort)
	f.assert(f.app(smt.Not, f.app(smt.And, a, b)))

	r, err := f.s.CheckSatAssuming(context.Background(), []*smt.Term{a, b, c})
	require.NoError(t, err)
	require.True(t, r.IsUnsat())

	core, err := f.s.GetUnsatAssumptions()
	require.NoError(t, err)
	assert.Subset(t, []*smt.Term{a, b, c}, core)
	assert.Contains(t, core, a)
	assert.Contains(t, core, b)

	r, err = f.s.CheckSatAssuming(context.Background(), []*smt.Term{a, c})
	require.NoError(t, err)
	assert.True(t, r.IsSat())
	_, err = f.s.GetUnsatAssumptions()
	assert.True(t, verr.IsUsage(err))
}

func TestCanceledCheck(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := f.s.CheckSat(ctx)
	require.NoError(t, err)
	assert.True(t, r.IsUnknown())
	assert.Equal(t, "canceled", r.Reason)
}

func TestUnsupportedSorts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	_, err := f.s.MakeSort(smt.KindInt)
	assert.True(t, verr.IsUnsupported(err))
	_, err = f.s.MakeArraySort(f.bv, f.bv)
	assert.True(t, verr.IsUnsupported(err))
	assert.Error(t, f.s.SetLogic("QF_LIA"))
}

func TestReset(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	x := f.sym("x", f.bv)
	require.NoError(t, f.s.Reset())
	_, err := f.s.GetSymbol("x")
	assert.Error(t, err)
	// The name is free again and the old term is foreign.
	require.NoError(t, f.s.Assert(f.app(smt.Equal, f.sym("x", f.bv), f.num(0))))
	_, err = f.s.MakeTerm(smt.NewOp(smt.BVNot), x)
	assert.True(t, verr.IsUsage(err))
}
