package model

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	modelerr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

// DefaultKey is the map key under which the constant base of an array value
// is stored.
const DefaultKey = "*"

// ValueFromTerm converts a canonical value term returned by GetValue into a
// Value. Bit-vectors are read as two's complement signed integers.
//
// Parameters:
//
//	t *smt.Term: Value term (a literal, or a const array with stores on top).
//
// Returns:
//
//	Value: Wrapped representation of the literal.
//	error: Failure when the term is not a value or its literal cannot be parsed.
func ValueFromTerm(t *smt.Term) (Value, error) {
	if t == nil {
		return Value{}, modelerr.ErrNilValueTerm
	}
	srt := t.Sort()
	switch {
	case srt.IsKind(smt.KindArray):
		return valueFromArray(t)
	case !t.IsValue():
		return Value{}, fmt.Errorf("%w: %s", modelerr.ErrUnsupportedValue, t)
	}

	raw := t.Literal()
	switch srt.Kind() {
	case smt.KindBool:
		switch raw {
		case "true":
			return NewBoolValue(true), nil
		case "false":
			return NewBoolValue(false), nil
		}
		return Value{}, modelerr.ErrUndecodableLiteral(raw, "Bool", fmt.Errorf("expected true or false"))
	case smt.KindInt:
		v, err := parseIntLiteral(raw)
		if err != nil {
			return Value{}, modelerr.ErrUndecodableLiteral(raw, "Int", err)
		}
		return NewIntValue(v), nil
	case smt.KindBV:
		v, err := parseBVLiteral(raw, srt.Width())
		if err != nil {
			return Value{}, modelerr.ErrUndecodableLiteral(raw, srt.String(), err)
		}
		return NewIntValue(v), nil
	case smt.KindString:
		s, err := parseStringLiteral(raw)
		if err != nil {
			return Value{}, modelerr.ErrUndecodableLiteral(raw, "String", err)
		}
		return NewStringValue(s), nil
	default:
		return Value{}, fmt.Errorf("%w: %s of sort %s", modelerr.ErrUnsupportedValue, raw, srt)
	}
}

// parseIntLiteral accepts decimal numerals and the SMT-LIB negation form
// "(- 5)".
func parseIntLiteral(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "(-") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[2:len(s)-1])
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseBVLiteral(raw string, width uint64) (int64, error) {
	var (
		v  = new(big.Int)
		ok bool
	)
	switch {
	case strings.HasPrefix(raw, "#b"):
		_, ok = v.SetString(raw[2:], 2)
	case strings.HasPrefix(raw, "#x"):
		_, ok = v.SetString(raw[2:], 16)
	default:
		_, ok = v.SetString(raw, 10)
	}
	if !ok {
		return 0, fmt.Errorf("not a bit-vector numeral")
	}
	if width == 0 || width > 64 {
		return 0, fmt.Errorf("width %d does not fit in int64", width)
	}
	if v.Bit(int(width)-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v.Int64(), nil
}

// parseStringLiteral accepts SMT-LIB string literals (double quotes escaped
// by doubling) and Go quoted strings.
func parseStringLiteral(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", fmt.Errorf("missing quotes")
	}
	body := raw[1 : len(raw)-1]
	if strings.Contains(body, `""`) || !strings.Contains(body, `\`) {
		return strings.ReplaceAll(body, `""`, `"`), nil
	}
	return strconv.Unquote(raw)
}

// valueFromArray walks a chain of stores down to its constant base and
// returns a map from decoded index to decoded value. The base value is
// stored under DefaultKey.
func valueFromArray(t *smt.Term) (Value, error) {
	entries := make(map[string]Value)
	cursor := t
	for !cursor.IsConstArray() {
		if cursor.Op().IsNull() {
			return Value{}, fmt.Errorf("%w: %s", modelerr.ErrMissingArrayBase, cursor)
		}
		if cursor.Op().Prim != smt.Store || cursor.NumChildren() != 3 {
			return Value{}, fmt.Errorf("%w: %s", modelerr.ErrMalformedArrayVal, cursor)
		}
		idx, err := ValueFromTerm(cursor.Child(1))
		if err != nil {
			return Value{}, fmt.Errorf("model: decode array index: %w", err)
		}
		key := fmt.Sprint(idx.AsInterface())
		if _, exists := entries[key]; !exists {
			val, err := ValueFromTerm(cursor.Child(2))
			if err != nil {
				return Value{}, fmt.Errorf("model: decode array entry %s: %w", key, err)
			}
			entries[key] = val
		}
		cursor = cursor.Child(0)
	}
	base, err := ValueFromTerm(cursor.Child(0))
	if err != nil {
		return Value{}, fmt.Errorf("model: decode array base: %w", err)
	}
	entries[DefaultKey] = base
	return NewMapValue(entries), nil
}
