package model

import (
	"fmt"

	"github.com/vhavlena/smtswitch/pkg/smt"
)

// Evaluator is the part of a solver needed to read a model.
type Evaluator interface {
	GetSymbol(name string) (*smt.Term, error)
	GetValue(t *smt.Term) (*smt.Term, error)
}

// ValueFromModelVar looks up the named symbol, asks the solver for its value
// in the last model and decodes it.
//
// Parameters:
//
//	ev Evaluator: Solver whose last check was satisfiable.
//	varName string: Name of a declared symbol.
//
// Returns:
//
//	Value: Decoded Go value for the requested symbol.
//	error: Failure when the symbol is missing, has no value, or decoding fails.
func ValueFromModelVar(ev Evaluator, varName string) (Value, error) {
	sym, err := ev.GetSymbol(varName)
	if err != nil {
		return Value{}, err
	}
	val, err := ev.GetValue(sym)
	if err != nil {
		return Value{}, fmt.Errorf("model: variable %s has no value in model: %w", varName, err)
	}
	return ValueFromTerm(val)
}

// Assignment decodes the values of several symbols at once.
func Assignment(ev Evaluator, names []string) (map[string]Value, error) {
	out := make(map[string]Value, len(names))
	for _, name := range names {
		v, err := ValueFromModelVar(ev, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
