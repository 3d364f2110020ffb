package smt

import (
	"context"
	"fmt"
)

// Status is the outcome of a satisfiability check.
type Status int

const (
	Unknown Status = iota
	Sat
	Unsat
)

func (s Status) String() string {
	switch s {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Result is returned by check-sat calls. Reason explains an Unknown status,
// e.g. "time limit reached".
type Result struct {
	Status Status
	Reason string
}

func (r Result) IsSat() bool     { return r.Status == Sat }
func (r Result) IsUnsat() bool   { return r.Status == Unsat }
func (r Result) IsUnknown() bool { return r.Status == Unknown }

func (r Result) String() string {
	if r.Status == Unknown && r.Reason != "" {
		return fmt.Sprintf("unknown (%s)", r.Reason)
	}
	return r.Status.String()
}

// ArrayEntry is one index/value pair of an array model.
type ArrayEntry[T any] struct {
	Index T
	Value T
}

// ArrayValue is a backend's model of an array: explicit entries on top of an
// optional constant base.
type ArrayValue[T any] struct {
	Entries []ArrayEntry[T]
	Base    T
	HasBase bool
}

// SelectorSpec describes one datatype field to a backend. Self selectors refer
// to the datatype being declared and carry no sort.
type SelectorSpec[S any] struct {
	Name string
	Sort S
	Self bool
}

type ConstructorSpec[S any] struct {
	Name      string
	Selectors []SelectorSpec[S]
}

// DatatypeSpec is the backend view of a DatatypeDecl.
type DatatypeSpec[S any] struct {
	Name         string
	Constructors []ConstructorSpec[S]
}

// Engine is the capability every backend implements. S and T are the
// backend's native sort and term types; T must be comparable because native
// terms reported by the backend (unsat assumptions, assertions) are mapped
// back to canonical terms through maps keyed by T.
//
// Engines report failures as plain errors; LoggingSolver classifies them.
// Long-running checks must honor ctx and return an Unknown result with a
// reason instead of an error when asked to stop.
type Engine[S any, T comparable] interface {
	SetOpt(name, value string) error
	SetLogic(name string) error

	MakeSort(kind SortKind) (S, error)
	MakeBVSort(width uint64) (S, error)
	MakeArraySort(index, elem S) (S, error)
	MakeFunctionSort(domain []S, codomain S) (S, error)
	MakeUninterpretedSort(name string, arity uint64) (S, error)
	MakeDatatypeSort(spec DatatypeSpec[S]) (S, error)

	MakeBool(v bool) (T, error)
	MakeInt(v int64, sort S) (T, error)
	MakeNumeral(text string, base int, sort S) (T, error)
	MakeString(v string, sort S) (T, error)
	MakeConstArray(val T, sort S) (T, error)
	MakeSymbol(name string, sort S) (T, error)
	MakeParam(name string, sort S) (T, error)
	MakeTerm(op Op, args []T) (T, error)

	Assert(t T) error
	CheckSat(ctx context.Context) (Result, error)
	CheckSatAssuming(ctx context.Context, assumptions []T) (Result, error)
	Push(n uint64) error
	Pop(n uint64) error
	Reset() error
	ResetAssertions() error

	GetValue(t T) (T, error)
	GetArrayValues(t T) (ArrayValue[T], error)
	GetUnsatAssumptions() ([]T, error)
	GetAssertions() ([]T, error)

	// Print renders a value term. The text identifies the value: two value
	// terms with the same sort and text denote the same constant.
	Print(t T) string
}
