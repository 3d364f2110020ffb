package err

import (
	"errors"
	"fmt"
)

// Model decoding errors.
var (
	ErrUnsupportedValue  = errors.New("model: unsupported value term")
	ErrNilValueTerm      = errors.New("model: nil value term")
	ErrMissingArrayBase  = errors.New("model: array value has no constant base")
	ErrMalformedArrayVal = errors.New("model: malformed array value")
)

// ErrUndecodableLiteral reports a literal whose text cannot be parsed for its sort.
func ErrUndecodableLiteral(text, sort string, cause error) error {
	return fmt.Errorf("model: cannot decode %s literal %s: %w", sort, text, cause)
}
