// Package smttest provides a scripted in-memory smt.Engine for tests.
//
// Native sorts are strings and native terms are indices into a table of
// printed forms. The engine performs no structural sharing and no reasoning:
// answers to check-sat, get-value and get-unsat-assumptions are set by the
// test through the exported fields.
package smttest

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/vhavlena/smtswitch/pkg/smt"
)

// Engine is the scripted engine. Use New to create one.
type Engine struct {
	// Result is returned by every check-sat call.
	Result smt.Result
	// Values maps the printed form of a term to the printed form of its value.
	Values map[string]string
	// Arrays maps the printed form of an array term to its model.
	Arrays map[string]smt.ArrayValue[int]
	// UnsatCore lists the printed forms of the failed assumptions.
	UnsatCore []string
	// FailOn makes the named call fail, e.g. "assert" or "push".
	FailOn string

	terms  []string
	frames [][]int
	calls  []string
}

// New returns an engine that answers sat to every check.
func New() *Engine {
	return &Engine{
		Result: smt.Result{Status: smt.Sat},
		Values: make(map[string]string),
		Arrays: make(map[string]smt.ArrayValue[int]),
		terms:  []string{"<nil>"},
		frames: [][]int{nil},
	}
}

var _ smt.Engine[string, int] = (*Engine)(nil)

func (f *Engine) call(name string) error {
	f.calls = append(f.calls, name)
	if f.FailOn == name {
		return errors.Errorf("backend refused %s", name)
	}
	return nil
}

// Called returns how many times the named call was made.
func (f *Engine) Called(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Engine) term(text string) int {
	f.terms = append(f.terms, text)
	return len(f.terms) - 1
}

// find returns the newest term printed as text.
func (f *Engine) find(text string) int {
	for i := len(f.terms) - 1; i > 0; i-- {
		if f.terms[i] == text {
			return i
		}
	}
	return 0
}

// ArrayValue scripts the model of the array printed as name. base is the
// printed constant base ("" for none) and entries are index/value pairs.
func (f *Engine) ArrayValue(name string, base string, entries ...[2]string) {
	av := smt.ArrayValue[int]{}
	if base != "" {
		av.Base = f.term(base)
		av.HasBase = true
	}
	for _, e := range entries {
		av.Entries = append(av.Entries, smt.ArrayEntry[int]{Index: f.term(e[0]), Value: f.term(e[1])})
	}
	f.Arrays[name] = av
}

func (f *Engine) SetOpt(name, value string) error { return f.call("set-option") }
func (f *Engine) SetLogic(name string) error      { return f.call("set-logic") }

func (f *Engine) MakeSort(kind smt.SortKind) (string, error) {
	return string(kind), f.call("make-sort")
}

func (f *Engine) MakeBVSort(width uint64) (string, error) {
	return fmt.Sprintf("bv%d", width), f.call("make-sort")
}

func (f *Engine) MakeArraySort(index, elem string) (string, error) {
	return "array " + index + " " + elem, f.call("make-sort")
}

func (f *Engine) MakeFunctionSort(domain []string, codomain string) (string, error) {
	return strings.Join(domain, " ") + " -> " + codomain, f.call("make-sort")
}

func (f *Engine) MakeUninterpretedSort(name string, arity uint64) (string, error) {
	return name, f.call("make-sort")
}

// MakeDatatypeSort renders the datatype as Name{ctor.sel:sort,...} with self
// references printed as "self".
func (f *Engine) MakeDatatypeSort(spec smt.DatatypeSpec[string]) (string, error) {
	var parts []string
	for _, c := range spec.Constructors {
		for _, s := range c.Selectors {
			srt := s.Sort
			if s.Self {
				srt = "self"
			}
			parts = append(parts, c.Name+"."+s.Name+":"+srt)
		}
	}
	return spec.Name + "{" + strings.Join(parts, ",") + "}", f.call("declare-datatype")
}

func (f *Engine) MakeBool(v bool) (int, error) {
	return f.term(fmt.Sprint(v)), f.call("make-term")
}

func (f *Engine) MakeInt(v int64, sort string) (int, error) {
	return f.term(fmt.Sprint(v)), f.call("make-term")
}

func (f *Engine) MakeNumeral(text string, base int, sort string) (int, error) {
	return f.term(fmt.Sprintf("%s/%d", text, base)), f.call("make-term")
}

func (f *Engine) MakeString(v string, sort string) (int, error) {
	return f.term(fmt.Sprintf("%q", v)), f.call("make-term")
}

func (f *Engine) MakeConstArray(val int, sort string) (int, error) {
	return f.term("const " + f.terms[val]), f.call("make-term")
}

func (f *Engine) MakeSymbol(name string, sort string) (int, error) {
	return f.term(name), f.call("declare-fun")
}

func (f *Engine) MakeParam(name string, sort string) (int, error) {
	return f.term(name), f.call("make-param")
}

func (f *Engine) MakeTerm(op smt.Op, args []int) (int, error) {
	if err := f.call("make-term"); err != nil {
		return 0, err
	}
	parts := []string{op.String()}
	for _, a := range args {
		parts = append(parts, f.terms[a])
	}
	return f.term("(" + strings.Join(parts, " ") + ")"), nil
}

func (f *Engine) Assert(t int) error {
	if err := f.call("assert"); err != nil {
		return err
	}
	top := len(f.frames) - 1
	f.frames[top] = append(f.frames[top], t)
	return nil
}

func (f *Engine) CheckSat(ctx context.Context) (smt.Result, error) {
	return f.Result, f.call("check-sat")
}

func (f *Engine) CheckSatAssuming(ctx context.Context, assumptions []int) (smt.Result, error) {
	return f.Result, f.call("check-sat-assuming")
}

func (f *Engine) Push(n uint64) error {
	if err := f.call("push"); err != nil {
		return err
	}
	for i := uint64(0); i < n; i++ {
		f.frames = append(f.frames, nil)
	}
	return nil
}

func (f *Engine) Pop(n uint64) error {
	if err := f.call("pop"); err != nil {
		return err
	}
	f.frames = f.frames[:len(f.frames)-int(n)]
	return nil
}

func (f *Engine) Reset() error {
	f.terms = []string{"<nil>"}
	f.frames = [][]int{nil}
	return f.call("reset")
}

func (f *Engine) ResetAssertions() error {
	f.frames = [][]int{nil}
	return f.call("reset-assertions")
}

func (f *Engine) GetValue(t int) (int, error) {
	if err := f.call("get-value"); err != nil {
		return 0, err
	}
	v, ok := f.Values[f.terms[t]]
	if !ok {
		return 0, errors.Errorf("no value for %s", f.terms[t])
	}
	return f.term(v), nil
}

func (f *Engine) GetArrayValues(t int) (smt.ArrayValue[int], error) {
	if err := f.call("get-array-values"); err != nil {
		return smt.ArrayValue[int]{}, err
	}
	v, ok := f.Arrays[f.terms[t]]
	if !ok {
		return smt.ArrayValue[int]{}, errors.Errorf("no array value for %s", f.terms[t])
	}
	return v, nil
}

func (f *Engine) GetUnsatAssumptions() ([]int, error) {
	if err := f.call("get-unsat-assumptions"); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(f.UnsatCore))
	for _, name := range f.UnsatCore {
		out = append(out, f.find(name))
	}
	return out, nil
}

func (f *Engine) GetAssertions() ([]int, error) {
	var out []int
	for _, frame := range f.frames {
		out = append(out, frame...)
	}
	return out, f.call("get-assertions")
}

func (f *Engine) Print(t int) string {
	return f.terms[t]
}
