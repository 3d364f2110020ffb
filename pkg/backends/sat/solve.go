package sat

import (
	"context"
	"time"

	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

var pollInterval = time.Millisecond

// flush adds the clauses of every gate built since the previous flush so
// that model values of all terms are defined.
func (e *Engine) flush() {
	var roots []z.Lit
	for _, n := range e.nodes[e.flushed:] {
		roots = append(roots, n.bits...)
	}
	roots = append(roots, e.frames...)
	e.marks, _ = e.c.CnfSince(e.g, e.marks, roots...)
	e.flushed = len(e.nodes)
}

func (e *Engine) invalidate() {
	e.hasModel = false
	e.unsatCore = false
	e.failed = nil
}

func (e *Engine) Assert(r Ref) error {
	n, err := e.node(r)
	if err != nil {
		return err
	}
	if n.sort.Kind != smt.KindBool {
		return errors.Errorf("cannot assert term of sort %s", n.sort.Kind)
	}
	e.invalidate()
	e.flush()
	top := len(e.frames) - 1
	e.g.Add(e.frames[top].Not())
	e.g.Add(n.bits[0])
	e.g.Add(0)
	e.assertions[top] = append(e.assertions[top], r)
	return nil
}

func (e *Engine) CheckSat(ctx context.Context) (smt.Result, error) {
	return e.solve(ctx, nil)
}

func (e *Engine) CheckSatAssuming(ctx context.Context, assumptions []Ref) (smt.Result, error) {
	return e.solve(ctx, assumptions)
}

func (e *Engine) solve(ctx context.Context, assumptions []Ref) (res smt.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("gini: %v", r)
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	e.invalidate()
	e.assumed = make(map[z.Lit]Ref, len(assumptions))
	lits := make([]z.Lit, 0, len(assumptions))
	for _, a := range assumptions {
		n, err := e.node(a)
		if err != nil {
			return smt.Result{}, err
		}
		if n.sort.Kind != smt.KindBool {
			return smt.Result{}, errors.Errorf("assumption of sort %s", n.sort.Kind)
		}
		m := n.bits[0]
		if _, ok := e.assumed[m]; !ok {
			e.assumed[m] = a
		}
		lits = append(lits, m)
	}
	e.flush()
	if ctx.Err() != nil {
		return interrupted(ctx), nil
	}
	e.g.Assume(e.frames...)
	e.g.Assume(lits...)

	gs := e.g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if status, done := gs.Test(); done {
			return e.finish(status), nil
		}
		select {
		case <-ctx.Done():
			if status := gs.Stop(); status != 0 {
				return e.finish(status), nil
			}
			return interrupted(ctx), nil
		case <-ticker.C:
		}
	}
}

func interrupted(ctx context.Context) smt.Result {
	reason := "canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "time limit reached"
	}
	return smt.Result{Status: smt.Unknown, Reason: reason}
}

func (e *Engine) finish(status int) smt.Result {
	switch status {
	case satisfiable:
		e.hasModel = true
		return smt.Result{Status: smt.Sat}
	case unsatisfiable:
		e.unsatCore = true
		for _, m := range e.g.Why(nil) {
			if r, ok := e.assumed[m]; ok {
				e.failed = append(e.failed, r)
			}
		}
		return smt.Result{Status: smt.Unsat}
	default:
		return smt.Result{Status: smt.Unknown, Reason: "incomplete"}
	}
}

// Push opens n frames, each guarded by a fresh activation literal.
func (e *Engine) Push(n uint64) error {
	e.invalidate()
	for i := uint64(0); i < n; i++ {
		e.frames = append(e.frames, e.c.Lit())
		e.assertions = append(e.assertions, nil)
	}
	return nil
}

// Pop permanently disables the activation literals of the n innermost
// frames.
func (e *Engine) Pop(n uint64) error {
	if n > uint64(len(e.frames)-1) {
		return errors.Errorf("cannot pop %d frames at level %d", n, len(e.frames)-1)
	}
	e.invalidate()
	keep := len(e.frames) - int(n)
	e.disable(e.frames[keep:])
	e.frames = e.frames[:keep]
	e.assertions = e.assertions[:keep]
	return nil
}

func (e *Engine) disable(frames []z.Lit) {
	e.flush()
	for _, act := range frames {
		e.g.Add(act.Not())
		e.g.Add(0)
	}
}

// ResetAssertions disables every frame, including the base one. Terms stay
// valid.
func (e *Engine) ResetAssertions() error {
	e.invalidate()
	e.disable(e.frames)
	e.frames = []z.Lit{e.c.Lit()}
	e.assertions = [][]Ref{nil}
	return nil
}

// Reset starts over with a new solver and circuit.
func (e *Engine) Reset() error {
	e.options = nil
	e.logicName = ""
	e.init()
	return nil
}

func (e *Engine) GetValue(r Ref) (Ref, error) {
	if !e.hasModel {
		return 0, errors.New("no model available")
	}
	n, err := e.node(r)
	if err != nil {
		return 0, err
	}
	vals := make([]bool, len(n.bits))
	for i, m := range n.bits {
		vals[i] = e.litValue(m)
	}
	return e.constant(n.sort, vals), nil
}

func (e *Engine) litValue(m z.Lit) bool {
	if m == e.c.T {
		return true
	}
	if m == e.c.F || m.Var() > e.g.MaxVar() {
		return false
	}
	return e.g.Value(m)
}

func (e *Engine) GetArrayValues(_ Ref) (smt.ArrayValue[Ref], error) {
	return smt.ArrayValue[Ref]{}, verr.Unsupported("array values")
}

func (e *Engine) GetUnsatAssumptions() ([]Ref, error) {
	if !e.unsatCore {
		return nil, errors.New("last check was not unsat")
	}
	return append([]Ref(nil), e.failed...), nil
}

// GetAssertions returns the assertions of the open frames, outermost first.
func (e *Engine) GetAssertions() ([]Ref, error) {
	var out []Ref
	for _, frame := range e.assertions {
		out = append(out, frame...)
	}
	return out, nil
}
