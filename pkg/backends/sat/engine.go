// Package sat implements an smt.Engine for Bool and BitVector logic on top of
// the gini SAT solver. Terms are bit-blasted into an and-inverter circuit
// (logic.C) that is turned into clauses incrementally with CnfSince.
package sat

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

// Name is the registry name of this backend.
const Name = "gini"

// Sort is the native sort: Bool or a bit-vector of some width.
type Sort struct {
	Kind  smt.SortKind
	Width uint64
}

func (s Sort) bits() int {
	if s.Kind == smt.KindBool {
		return 1
	}
	return int(s.Width)
}

// Ref is the native term: an index into the engine's node table.
type Ref int

type node struct {
	sort  Sort
	bits  []z.Lit // least significant bit first
	name  string
	value bool
}

// Engine is a bit-blasting engine. The zero value is not usable; call New.
type Engine struct {
	g       *gini.Gini
	c       *logic.C
	marks   []int8
	flushed int

	nodes []node

	// frames[0] guards the base level; frames[i] guards context level i.
	frames     []z.Lit
	assertions [][]Ref

	assumed   map[z.Lit]Ref
	failed    []Ref
	hasModel  bool
	unsatCore bool

	logicName string
	options   map[string]string
}

// New returns an empty engine.
func New() *Engine {
	e := &Engine{}
	e.init()
	return e
}

func (e *Engine) init() {
	e.g = gini.New()
	e.c = logic.NewCCap(1024)
	e.marks = nil
	e.flushed = 0
	// Ref 0 is never handed out.
	e.nodes = []node{{}}
	e.frames = []z.Lit{e.c.Lit()}
	e.assertions = [][]Ref{nil}
	e.assumed = nil
	e.failed = nil
	e.hasModel = false
	e.unsatCore = false
	if e.options == nil {
		e.options = make(map[string]string)
	}
}

func (e *Engine) addNode(n node) Ref {
	e.nodes = append(e.nodes, n)
	return Ref(len(e.nodes) - 1)
}

func (e *Engine) node(r Ref) (*node, error) {
	if r <= 0 || int(r) >= len(e.nodes) {
		return nil, errors.Errorf("unknown term reference %d", r)
	}
	return &e.nodes[r], nil
}

func (e *Engine) SetOpt(name, value string) error {
	e.options[name] = value
	return nil
}

// SetLogic accepts the logics this engine can decide.
func (e *Engine) SetLogic(name string) error {
	switch name {
	case "QF_BV", "QF_UF", "QF_BOOL", "ALL":
		// QF_UF is accepted for propositional problems without functions.
		e.logicName = name
		return nil
	}
	return verr.Unsupported("logic %s", name)
}

func (e *Engine) MakeSort(kind smt.SortKind) (Sort, error) {
	if kind != smt.KindBool {
		return Sort{}, verr.Unsupported("sort %s", kind)
	}
	return Sort{Kind: smt.KindBool}, nil
}

func (e *Engine) MakeBVSort(width uint64) (Sort, error) {
	if width == 0 {
		return Sort{}, errors.New("zero width bit-vector")
	}
	return Sort{Kind: smt.KindBV, Width: width}, nil
}

func (e *Engine) MakeArraySort(_, _ Sort) (Sort, error) {
	return Sort{}, verr.Unsupported("array sorts")
}

func (e *Engine) MakeFunctionSort(_ []Sort, _ Sort) (Sort, error) {
	return Sort{}, verr.Unsupported("function sorts")
}

func (e *Engine) MakeUninterpretedSort(name string, _ uint64) (Sort, error) {
	return Sort{}, verr.Unsupported("uninterpreted sort %s", name)
}

func (e *Engine) MakeDatatypeSort(spec smt.DatatypeSpec[Sort]) (Sort, error) {
	return Sort{}, verr.Unsupported("datatype %s", spec.Name)
}

func (e *Engine) constant(sort Sort, bits []bool) Ref {
	lits := make([]z.Lit, len(bits))
	for i, b := range bits {
		lits[i] = e.c.F
		if b {
			lits[i] = e.c.T
		}
	}
	return e.addNode(node{sort: sort, bits: lits, value: true})
}

func (e *Engine) MakeBool(v bool) (Ref, error) {
	return e.constant(Sort{Kind: smt.KindBool}, []bool{v}), nil
}

func (e *Engine) MakeInt(v int64, sort Sort) (Ref, error) {
	if sort.Kind != smt.KindBV {
		return 0, verr.Unsupported("integer literal of sort %s", sort.Kind)
	}
	return e.constant(sort, bitsOf(big.NewInt(v), sort.Width)), nil
}

func (e *Engine) MakeNumeral(text string, base int, sort Sort) (Ref, error) {
	if sort.Kind != smt.KindBV {
		return 0, verr.Unsupported("numeral of sort %s", sort.Kind)
	}
	v, ok := new(big.Int).SetString(text, base)
	if !ok {
		return 0, errors.Errorf("cannot parse %q in base %d", text, base)
	}
	return e.constant(sort, bitsOf(v, sort.Width)), nil
}

// bitsOf returns the two's complement of v modulo 2^width, LSB first.
func bitsOf(v *big.Int, width uint64) []bool {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	u := new(big.Int).Mod(v, mod)
	out := make([]bool, width)
	for i := range out {
		out[i] = u.Bit(i) == 1
	}
	return out
}

func (e *Engine) MakeString(_ string, _ Sort) (Ref, error) {
	return 0, verr.Unsupported("string literals")
}

func (e *Engine) MakeConstArray(_ Ref, _ Sort) (Ref, error) {
	return 0, verr.Unsupported("constant arrays")
}

func (e *Engine) MakeSymbol(name string, sort Sort) (Ref, error) {
	lits := make([]z.Lit, sort.bits())
	for i := range lits {
		lits[i] = e.c.Lit()
	}
	return e.addNode(node{sort: sort, bits: lits, name: name}), nil
}

func (e *Engine) MakeParam(name string, _ Sort) (Ref, error) {
	return 0, verr.Unsupported("quantified variable %s", name)
}

// MakeTerm bit-blasts op applied to args.
func (e *Engine) MakeTerm(op smt.Op, args []Ref) (Ref, error) {
	ns := make([]*node, len(args))
	for i, a := range args {
		n, err := e.node(a)
		if err != nil {
			return 0, err
		}
		ns[i] = n
	}
	sort, bits, err := e.blast(op, ns)
	if err != nil {
		return 0, err
	}
	return e.addNode(node{sort: sort, bits: bits}), nil
}

// Print renders a value as true/false or #b followed by the bits, most
// significant first. Non-value terms print as their name or a reference.
func (e *Engine) Print(r Ref) string {
	n, err := e.node(r)
	if err != nil {
		return fmt.Sprintf("<invalid %d>", r)
	}
	if !n.value {
		if n.name != "" {
			return n.name
		}
		return fmt.Sprintf("t%d", r)
	}
	if n.sort.Kind == smt.KindBool {
		if n.bits[0] == e.c.T {
			return "true"
		}
		return "false"
	}
	var sb strings.Builder
	sb.WriteString("#b")
	for i := len(n.bits) - 1; i >= 0; i-- {
		if n.bits[i] == e.c.T {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
