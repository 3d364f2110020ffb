package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

func TestParseSort(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"Bool",
		"Int",
		"RegLan",
		"(_ BitVec 16)",
		"(Array Int (Array Int Bool))",
		"(-> Int Real Bool)",
		"U",
		"(Set Int)",
	} {
		srt, err := ParseSort(text)
		require.NoError(t, err, text)
		assert.Equal(t, text, srt.String())
	}
	srt, err := ParseSort("  ( _  BitVec\t4 ) ")
	require.NoError(t, err)
	assert.True(t, srt.Equal(BVSort(4)))
	assert.Same(t, IntSort(), mustParseSort(t, "Int"))
}

func mustParseSort(t *testing.T, text string) *Sort {
	t.Helper()
	srt, err := ParseSort(text)
	require.NoError(t, err)
	return srt
}

func TestParseSortErrors(t *testing.T) {
	t.Parallel()
	for _, text := range []string{
		"",
		"(",
		")",
		"Int Bool",
		"(_ BitVec 0)",
		"(_ BitVec x)",
		"(Array Int)",
		"((Int))",
	} {
		_, err := ParseSort(text)
		assert.True(t, verr.IsUsage(err), "%q: %v", text, err)
	}
}

func TestParseOp(t *testing.T) {
	t.Parallel()
	op, err := ParseOp("bvadd")
	require.NoError(t, err)
	assert.Equal(t, NewOp(BVAdd), op)

	op, err = ParseOp("(_ extract 7 0)")
	require.NoError(t, err)
	assert.Equal(t, NewOp(Extract, 7, 0), op)

	for _, text := range []string{"frob", "(_ extract 7)", "(extract 7 0)", "(_ zero_extend a)"} {
		_, err := ParseOp(text)
		assert.True(t, verr.IsUsage(err), "%q: %v", text, err)
	}
}
