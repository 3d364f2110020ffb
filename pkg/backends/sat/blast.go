package sat

import (
	"github.com/go-air/gini/z"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

var boolSort = Sort{Kind: smt.KindBool}

func bvSort(w int) Sort {
	return Sort{Kind: smt.KindBV, Width: uint64(w)}
}

// blast returns the sort and bits of op applied to ns. Operands have already
// been sort checked by the caller; blast only rejects what it cannot encode.
func (e *Engine) blast(op smt.Op, ns []*node) (Sort, []z.Lit, error) {
	c := e.c
	first := func() []z.Lit { return ns[0].bits }
	unary := func(f func(z.Lit) z.Lit) []z.Lit {
		out := make([]z.Lit, len(ns[0].bits))
		for i, m := range ns[0].bits {
			out[i] = f(m)
		}
		return out
	}
	fold := func(f func(a, b []z.Lit) []z.Lit) []z.Lit {
		acc := ns[0].bits
		for _, n := range ns[1:] {
			acc = f(acc, n.bits)
		}
		return acc
	}
	bit := func(m z.Lit) (Sort, []z.Lit, error) { return boolSort, []z.Lit{m}, nil }
	vec := func(bits []z.Lit) (Sort, []z.Lit, error) { return bvSort(len(bits)), bits, nil }

	switch op.Prim {
	case smt.Not:
		return bit(first()[0].Not())
	case smt.And:
		return bit(c.Ands(e.heads(ns)...))
	case smt.Or:
		return bit(c.Ors(e.heads(ns)...))
	case smt.Xor:
		return bit(c.Xor(ns[0].bits[0], ns[1].bits[0]))
	case smt.Implies:
		return bit(c.Implies(ns[0].bits[0], ns[1].bits[0]))
	case smt.Ite:
		cond := ns[0].bits[0]
		out := make([]z.Lit, len(ns[1].bits))
		for i := range out {
			out[i] = c.Choice(cond, ns[1].bits[i], ns[2].bits[i])
		}
		return ns[1].sort, out, nil
	case smt.Equal:
		eqs := make([]z.Lit, 0, len(ns)-1)
		for i := 1; i < len(ns); i++ {
			eqs = append(eqs, e.eq(ns[i-1].bits, ns[i].bits))
		}
		return bit(c.Ands(eqs...))
	case smt.Distinct:
		var neqs []z.Lit
		for i := range ns {
			for j := i + 1; j < len(ns); j++ {
				neqs = append(neqs, e.eq(ns[i].bits, ns[j].bits).Not())
			}
		}
		return bit(c.Ands(neqs...))

	case smt.BVNot:
		return vec(unary(z.Lit.Not))
	case smt.BVNeg:
		return vec(e.neg(first()))
	case smt.BVAnd:
		return vec(fold(e.zip(c.And)))
	case smt.BVOr:
		return vec(fold(e.zip(c.Or)))
	case smt.BVXor:
		return vec(fold(e.zip(c.Xor)))
	case smt.BVNand:
		return vec(e.zip(func(a, b z.Lit) z.Lit { return c.And(a, b).Not() })(ns[0].bits, ns[1].bits))
	case smt.BVNor:
		return vec(e.zip(func(a, b z.Lit) z.Lit { return c.Or(a, b).Not() })(ns[0].bits, ns[1].bits))
	case smt.BVXnor:
		return vec(e.zip(func(a, b z.Lit) z.Lit { return c.Xor(a, b).Not() })(ns[0].bits, ns[1].bits))
	case smt.BVComp:
		return vec([]z.Lit{e.eq(ns[0].bits, ns[1].bits)})
	case smt.BVAdd:
		return vec(fold(func(a, b []z.Lit) []z.Lit {
			sum, _ := e.add(a, b, c.F)
			return sum
		}))
	case smt.BVSub:
		return vec(e.sub(ns[0].bits, ns[1].bits))
	case smt.BVMul:
		return vec(fold(e.mul))
	case smt.BVUdiv:
		q, _ := e.udivrem(ns[0].bits, ns[1].bits)
		return vec(q)
	case smt.BVUrem:
		_, r := e.udivrem(ns[0].bits, ns[1].bits)
		return vec(r)
	case smt.BVShl:
		return vec(e.shift(ns[0].bits, ns[1].bits, shiftLeft))
	case smt.BVLshr:
		return vec(e.shift(ns[0].bits, ns[1].bits, shiftLogicalRight))
	case smt.BVAshr:
		return vec(e.shift(ns[0].bits, ns[1].bits, shiftArithRight))

	case smt.BVUlt:
		return bit(e.ult(ns[0].bits, ns[1].bits))
	case smt.BVUle:
		return bit(e.ult(ns[1].bits, ns[0].bits).Not())
	case smt.BVUgt:
		return bit(e.ult(ns[1].bits, ns[0].bits))
	case smt.BVUge:
		return bit(e.ult(ns[0].bits, ns[1].bits).Not())
	case smt.BVSlt:
		return bit(e.ult(flipSign(ns[0].bits), flipSign(ns[1].bits)))
	case smt.BVSle:
		return bit(e.ult(flipSign(ns[1].bits), flipSign(ns[0].bits)).Not())
	case smt.BVSgt:
		return bit(e.ult(flipSign(ns[1].bits), flipSign(ns[0].bits)))
	case smt.BVSge:
		return bit(e.ult(flipSign(ns[0].bits), flipSign(ns[1].bits)).Not())

	case smt.Concat:
		// The first operand holds the most significant bits.
		var out []z.Lit
		for i := len(ns) - 1; i >= 0; i-- {
			out = append(out, ns[i].bits...)
		}
		return vec(out)
	case smt.Extract:
		hi, lo := int(op.Idx0), int(op.Idx1)
		return vec(append([]z.Lit(nil), first()[lo:hi+1]...))
	case smt.ZeroExtend:
		out := append([]z.Lit(nil), first()...)
		for i := uint64(0); i < op.Idx0; i++ {
			out = append(out, c.F)
		}
		return vec(out)
	case smt.SignExtend:
		a := first()
		out := append([]z.Lit(nil), a...)
		for i := uint64(0); i < op.Idx0; i++ {
			out = append(out, a[len(a)-1])
		}
		return vec(out)
	case smt.Repeat:
		var out []z.Lit
		for i := uint64(0); i < op.Idx0; i++ {
			out = append(out, first()...)
		}
		return vec(out)
	case smt.RotateLeft, smt.RotateRight:
		a := first()
		w := len(a)
		k := int(op.Idx0 % uint64(w))
		out := make([]z.Lit, w)
		for i := range a {
			if op.Prim == smt.RotateLeft {
				out[(i+k)%w] = a[i]
			} else {
				out[i] = a[(i+k)%w]
			}
		}
		return vec(out)
	}
	return Sort{}, nil, verr.Unsupported("operator %s", op)
}

func (e *Engine) heads(ns []*node) []z.Lit {
	out := make([]z.Lit, len(ns))
	for i, n := range ns {
		out[i] = n.bits[0]
	}
	return out
}

func (e *Engine) zip(f func(a, b z.Lit) z.Lit) func(a, b []z.Lit) []z.Lit {
	return func(a, b []z.Lit) []z.Lit {
		out := make([]z.Lit, len(a))
		for i := range a {
			out[i] = f(a[i], b[i])
		}
		return out
	}
}

func (e *Engine) eq(a, b []z.Lit) z.Lit {
	same := make([]z.Lit, len(a))
	for i := range a {
		same[i] = e.c.Xor(a[i], b[i]).Not()
	}
	return e.c.Ands(same...)
}

// add is a ripple carry adder returning the sum and the carry out.
func (e *Engine) add(a, b []z.Lit, carry z.Lit) ([]z.Lit, z.Lit) {
	c := e.c
	out := make([]z.Lit, len(a))
	for i := range a {
		axb := c.Xor(a[i], b[i])
		out[i] = c.Xor(axb, carry)
		carry = c.Or(c.And(a[i], b[i]), c.And(axb, carry))
	}
	return out, carry
}

func (e *Engine) not(a []z.Lit) []z.Lit {
	out := make([]z.Lit, len(a))
	for i, m := range a {
		out[i] = m.Not()
	}
	return out
}

func (e *Engine) zeros(w int) []z.Lit {
	out := make([]z.Lit, w)
	for i := range out {
		out[i] = e.c.F
	}
	return out
}

func (e *Engine) neg(a []z.Lit) []z.Lit {
	out, _ := e.add(e.not(a), e.zeros(len(a)), e.c.T)
	return out
}

func (e *Engine) sub(a, b []z.Lit) []z.Lit {
	out, _ := e.add(a, e.not(b), e.c.T)
	return out
}

// ult is true when a < b as unsigned numbers, i.e. when a - b borrows.
func (e *Engine) ult(a, b []z.Lit) z.Lit {
	_, carry := e.add(a, e.not(b), e.c.T)
	return carry.Not()
}

func flipSign(a []z.Lit) []z.Lit {
	out := append([]z.Lit(nil), a...)
	out[len(out)-1] = out[len(out)-1].Not()
	return out
}

// mul is a shift-add multiplier truncated to the operand width.
func (e *Engine) mul(a, b []z.Lit) []z.Lit {
	w := len(a)
	acc := e.zeros(w)
	for i := 0; i < w; i++ {
		partial := e.zeros(w)
		for j := 0; j+i < w; j++ {
			partial[j+i] = e.c.And(a[j], b[i])
		}
		acc, _ = e.add(acc, partial, e.c.F)
	}
	return acc
}

// udivrem is a restoring divider. Division by zero yields all ones as the
// quotient and the dividend as the remainder.
func (e *Engine) udivrem(a, b []z.Lit) ([]z.Lit, []z.Lit) {
	c := e.c
	w := len(a)
	wide := append(append([]z.Lit(nil), b...), c.F)
	q := make([]z.Lit, w)
	r := e.zeros(w)
	for i := w - 1; i >= 0; i-- {
		// shifted = r << 1 | a[i], one bit wider than r
		shifted := append([]z.Lit{a[i]}, r...)
		ge := e.ult(shifted, wide).Not()
		diff := e.sub(shifted, wide)
		next := make([]z.Lit, w)
		for j := range next {
			next[j] = c.Choice(ge, diff[j], shifted[j])
		}
		q[i] = ge
		r = next
	}
	return q, r
}

type shiftKind int

const (
	shiftLeft shiftKind = iota
	shiftLogicalRight
	shiftArithRight
)

// shift is a barrel shifter; amounts of at least the width shift everything
// out.
func (e *Engine) shift(a, amount []z.Lit, kind shiftKind) []z.Lit {
	c := e.c
	w := len(a)
	fill := c.F
	if kind == shiftArithRight {
		fill = a[w-1]
	}
	cur := append([]z.Lit(nil), a...)
	var overflow []z.Lit
	for i, s := range amount {
		step := 1 << uint(i)
		if i >= 62 || step >= w {
			overflow = append(overflow, s)
			continue
		}
		next := make([]z.Lit, w)
		for j := range next {
			var moved z.Lit
			switch kind {
			case shiftLeft:
				moved = fill
				if j-step >= 0 {
					moved = cur[j-step]
				}
			default:
				moved = fill
				if j+step < w {
					moved = cur[j+step]
				}
			}
			next[j] = c.Choice(s, moved, cur[j])
		}
		cur = next
	}
	if len(overflow) > 0 {
		out := c.Ors(overflow...)
		for j := range cur {
			cur[j] = c.Choice(out, fill, cur[j])
		}
	}
	return cur
}
