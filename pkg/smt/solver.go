package smt

import "context"

// Solver is the backend-independent view of a LoggingSolver. Front ends and
// tools program against Solver so that the native types of the engine never
// leak out of the session.
type Solver interface {
	SetOpt(name, value string) error
	SetLogic(name string) error

	MakeSort(kind SortKind) (*Sort, error)
	MakeBVSort(width uint64) (*Sort, error)
	MakeArraySort(index, elem *Sort) (*Sort, error)
	MakeFunctionSort(domain []*Sort, codomain *Sort) (*Sort, error)
	MakeUninterpretedSort(name string, arity uint64) (*Sort, error)
	MakeDatatypeSort(decl *DatatypeDecl) (*Sort, error)

	MakeBool(v bool) (*Term, error)
	MakeInt(v int64, srt *Sort) (*Term, error)
	MakeNumeral(text string, base int, srt *Sort) (*Term, error)
	MakeString(v string, srt *Sort) (*Term, error)
	MakeConstArray(val *Term, srt *Sort) (*Term, error)
	MakeSymbol(name string, srt *Sort) (*Term, error)
	MakeParam(name string, srt *Sort) (*Term, error)
	GetSymbol(name string) (*Term, error)
	MakeTerm(op Op, children ...*Term) (*Term, error)

	Assert(t *Term) error
	CheckSat(ctx context.Context) (Result, error)
	CheckSatAssuming(ctx context.Context, assumptions []*Term) (Result, error)
	GetUnsatAssumptions() ([]*Term, error)
	Push(n uint64) error
	Pop(n uint64) error
	ContextLevel() uint64
	Reset() error
	ResetAssertions() error

	GetValue(t *Term) (*Term, error)
	GetArrayValues(t *Term) (map[*Term]*Term, *Term, error)
	GetAssertions() ([]*Term, error)

	Store() *CanonicalStore
	Stats() Stats
}

var _ Solver = (*LoggingSolver[struct{}, int])(nil)
