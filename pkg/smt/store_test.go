package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupOrInsert(t *testing.T) {
	t.Parallel()
	st := NewCanonicalStore()
	x := newSymbol(st.NextID(), "x", IntSort())
	canon, isNew := st.LookupOrInsert(x)
	require.True(t, isNew)
	require.Same(t, x, canon)
	assert.Equal(t, uint64(1), x.ID())

	dup := newSymbol(st.NextID(), "x", IntSort())
	canon, isNew = st.LookupOrInsert(dup)
	assert.False(t, isNew)
	assert.Same(t, x, canon)
	assert.Equal(t, uint64(2), st.NextID(), "a duplicate does not consume an id")

	// Same name, different sort or leaf kind, is a different term.
	_, isNew = st.LookupOrInsert(newSymbol(st.NextID(), "x", BoolSort()))
	assert.True(t, isNew)
	_, isNew = st.LookupOrInsert(newParam(st.NextID(), "x", IntSort()))
	assert.True(t, isNew)
	_, isNew = st.LookupOrInsert(newValue(st.NextID(), IntSort(), "x"))
	assert.True(t, isNew)

	assert.Equal(t, StoreStats{Size: 4, Hits: 1, Misses: 4, NextID: 5}, st.Stats())
}

func TestChildrenCompareByIdentity(t *testing.T) {
	t.Parallel()
	st := NewCanonicalStore()
	one, _ := st.LookupOrInsert(newValue(st.NextID(), IntSort(), "1"))
	two, _ := st.LookupOrInsert(newValue(st.NextID(), IntSort(), "2"))

	a, _ := st.LookupOrInsert(newApp(st.NextID(), NewOp(Plus), IntSort(), []*Term{one, two}))
	b, isNew := st.LookupOrInsert(newApp(st.NextID(), NewOp(Plus), IntSort(), []*Term{one, two}))
	assert.False(t, isNew)
	assert.Same(t, a, b)

	swapped, isNew := st.LookupOrInsert(newApp(st.NextID(), NewOp(Plus), IntSort(), []*Term{two, one}))
	assert.True(t, isNew)
	assert.NotSame(t, a, swapped)

	// Indices are part of the identity.
	bv := BVSort(8)
	v, _ := st.LookupOrInsert(newValue(st.NextID(), bv, "#b00000001"))
	e1, _ := st.LookupOrInsert(newApp(st.NextID(), NewOp(Extract, 3, 0), BVSort(4), []*Term{v}))
	e2, _ := st.LookupOrInsert(newApp(st.NextID(), NewOp(Extract, 4, 1), BVSort(4), []*Term{v}))
	assert.NotSame(t, e1, e2)
}

func TestContainsAndClear(t *testing.T) {
	t.Parallel()
	st := NewCanonicalStore()
	x, _ := st.LookupOrInsert(newSymbol(st.NextID(), "x", IntSort()))
	assert.True(t, st.Contains(x))
	assert.False(t, st.Contains(newSymbol(99, "x", IntSort())))
	assert.False(t, st.Contains(nil))
	assert.Equal(t, 1, st.Len())

	st.Clear()
	assert.Zero(t, st.Len())
	assert.False(t, st.Contains(x))

	y, isNew := st.LookupOrInsert(newSymbol(st.NextID(), "x", IntSort()))
	assert.True(t, isNew)
	assert.Greater(t, y.ID(), x.ID())
}
