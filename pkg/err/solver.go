package err

import (
	"fmt"
	"strings"
)

// ErrDuplicateSymbol reports a symbol name that already exists in the session.
func ErrDuplicateSymbol(name string) error {
	return Usage("symbol name %s has already been used", name)
}

// ErrMissingSymbol reports a lookup of a symbol that was never declared.
func ErrMissingSymbol(name string) error {
	return Usage("symbol %s does not exist", name)
}

// ErrSortMismatch reports an operator applied to operands of the wrong sorts.
//
// Parameters:
//
//	op fmt.Stringer: The operator.
//	sorts []fmt.Stringer: Operand sorts in order.
//
// Returns:
//
//	error: A usage error naming the operator and the operand sorts.
func ErrSortMismatch[S fmt.Stringer](op fmt.Stringer, sorts []S) error {
	parts := make([]string, len(sorts))
	for i, s := range sorts {
		parts[i] = s.String()
	}
	return Usage("ill-sorted application of %s to (%s)", op, strings.Join(parts, ", "))
}

// ErrUnknownAssumption reports an unsat-core element the backend never received
// as an assumption.
func ErrUnknownAssumption(native string) error {
	return Internal("backend returned unknown assumption %s in unsat core", native)
}

// ErrContextUnderflow reports a pop of more frames than were pushed.
func ErrContextUnderflow(level, n uint64) error {
	return Usage("cannot pop %d context(s) at context level %d", n, level)
}
