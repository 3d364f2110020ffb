package smt

import (
	"cmp"
	"context"
	"slices"
	"time"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/log"
	"github.com/vhavlena/smtswitch/pkg/metrics"
)

// Option configures a LoggingSolver.
type Option func(*solverOptions)

type solverOptions struct {
	logger  *log.Logger
	metrics *metrics.Collectors
	store   *CanonicalStore
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *solverOptions) { o.logger = l }
}

// WithMetrics records construction and check-sat metrics in c.
func WithMetrics(c *metrics.Collectors) Option {
	return func(o *solverOptions) { o.metrics = c }
}

// WithStore uses st as the hash-consing table instead of a fresh one. Several
// sessions may share st; Reset of one session leaves st intact.
func WithStore(st *CanonicalStore) Option {
	return func(o *solverOptions) { o.store = st }
}

// Stats summarizes a session.
type Stats struct {
	Terms        int
	Created      uint64
	Reused       uint64
	Symbols      int
	ContextLevel uint64
}

// LoggingSolver drives a backend Engine and mirrors every sort and term it
// creates as a canonical, hash-consed Sort or Term. Callers only ever see the
// canonical objects; the backend's native objects are kept in side tables.
//
// A LoggingSolver is a single solving session and must not be used from more
// than one goroutine at a time.
type LoggingSolver[S any, T comparable] struct {
	engine  Engine[S, T]
	store   *CanonicalStore
	logger  *log.Logger
	metrics *metrics.Collectors
	// ownStore is false when the store came from WithStore.
	ownStore bool

	sorts       map[string]*Sort
	nativeSorts map[*Sort]S
	nativeTerms map[*Term]T
	canonical   map[T]*Term
	names       map[string]*Term
	symbols     map[string]*Term
	datatypes   map[string]*Sort

	contextLevel uint64
	assumptions  map[T]*Term
	lastResult   Result
	lastAssuming bool
}

// NewLoggingSolver wraps engine.
func NewLoggingSolver[S any, T comparable](engine Engine[S, T], opts ...Option) *LoggingSolver[S, T] {
	o := solverOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Discard()
	}
	own := o.store == nil
	if own {
		o.store = NewCanonicalStore()
	}
	s := &LoggingSolver[S, T]{
		engine:   engine,
		store:    o.store,
		logger:   o.logger,
		metrics:  o.metrics,
		ownStore: own,
	}
	s.clearTables()
	return s
}

func (s *LoggingSolver[S, T]) clearTables() {
	s.sorts = make(map[string]*Sort)
	s.nativeSorts = make(map[*Sort]S)
	s.nativeTerms = make(map[*Term]T)
	s.canonical = make(map[T]*Term)
	s.names = make(map[string]*Term)
	s.symbols = make(map[string]*Term)
	s.datatypes = make(map[string]*Sort)
	s.assumptions = nil
	s.lastResult = Result{}
	s.lastAssuming = false
}

// Store returns the hash-consing table of the session.
func (s *LoggingSolver[S, T]) Store() *CanonicalStore {
	return s.store
}

func (s *LoggingSolver[S, T]) Stats() Stats {
	st := s.store.Stats()
	return Stats{
		Terms:        st.Size,
		Created:      st.Misses,
		Reused:       st.Hits,
		Symbols:      len(s.symbols),
		ContextLevel: s.contextLevel,
	}
}

// NativeTerm returns the backend term recorded for a canonical term.
func (s *LoggingSolver[S, T]) NativeTerm(t *Term) (T, bool) {
	n, ok := s.nativeTerms[t]
	return n, ok
}

// NativeSort returns the backend sort recorded for a canonical sort.
func (s *LoggingSolver[S, T]) NativeSort(srt *Sort) (S, bool) {
	n, ok := s.nativeSorts[srt]
	return n, ok
}

func (s *LoggingSolver[S, T]) backendErr(err error, call string) error {
	if err == nil {
		return nil
	}
	s.logger.With(log.Params{"call": call, "error": err.Error()}).Warn("backend call failed")
	return verr.WrapInternal(err, "backend call %s failed", call)
}

func (s *LoggingSolver[S, T]) SetOpt(name, value string) error {
	return s.backendErr(s.engine.SetOpt(name, value), "set-option "+name)
}

func (s *LoggingSolver[S, T]) SetLogic(name string) error {
	return s.backendErr(s.engine.SetLogic(name), "set-logic "+name)
}

// Sorts

func sortInternKey(srt *Sort) string {
	return string(srt.kind) + ":" + srt.key
}

func (s *LoggingSolver[S, T]) intern(srt *Sort) *Sort {
	k := sortInternKey(srt)
	if existing, ok := s.sorts[k]; ok {
		return existing
	}
	s.sorts[k] = srt
	return srt
}

func (s *LoggingSolver[S, T]) record(srt *Sort, native S) *Sort {
	canon := s.intern(srt)
	if _, ok := s.nativeSorts[canon]; !ok {
		s.nativeSorts[canon] = native
	}
	return canon
}

// nativeSort returns the backend sort of srt, asking the backend for it when
// srt was only ever produced by sort inference.
func (s *LoggingSolver[S, T]) nativeSort(srt *Sort) (S, error) {
	var zero S
	if srt == nil {
		return zero, verr.Usage("null sort")
	}
	canon := s.intern(srt)
	if n, ok := s.nativeSorts[canon]; ok {
		return n, nil
	}
	var (
		n   S
		err error
	)
	switch canon.kind {
	case KindBV:
		n, err = s.engine.MakeBVSort(canon.width)
	case KindArray:
		var idx, elem S
		if idx, err = s.nativeSort(canon.index); err != nil {
			return zero, err
		}
		if elem, err = s.nativeSort(canon.elem); err != nil {
			return zero, err
		}
		n, err = s.engine.MakeArraySort(idx, elem)
	case KindFunction:
		dom := make([]S, len(canon.domain))
		for i, d := range canon.domain {
			if dom[i], err = s.nativeSort(d); err != nil {
				return zero, err
			}
		}
		var cod S
		if cod, err = s.nativeSort(canon.codomain); err != nil {
			return zero, err
		}
		n, err = s.engine.MakeFunctionSort(dom, cod)
	case KindUninterpreted:
		if len(canon.params) > 0 {
			return zero, verr.Unsupported("applied sort constructor %s", canon)
		}
		n, err = s.engine.MakeUninterpretedSort(canon.name, canon.arity)
	case KindDatatype:
		return zero, verr.Usage("datatype sort %s was not created by this solver", canon)
	default:
		n, err = s.engine.MakeSort(canon.kind)
	}
	if err != nil {
		return zero, s.backendErr(err, "make-sort "+canon.String())
	}
	s.nativeSorts[canon] = n
	return n, nil
}

// MakeSort returns the sort of a parameterless kind (Bool, Int, Real, String,
// RegLan).
func (s *LoggingSolver[S, T]) MakeSort(kind SortKind) (*Sort, error) {
	if !kind.IsPrimitive() {
		return nil, verr.Usage("sort kind %s needs parameters", kind)
	}
	n, err := s.engine.MakeSort(kind)
	if err != nil {
		return nil, s.backendErr(err, "make-sort "+string(kind))
	}
	return s.record(PrimitiveSort(kind), n), nil
}

func (s *LoggingSolver[S, T]) MakeBVSort(width uint64) (*Sort, error) {
	if width == 0 {
		return nil, verr.Usage("bit-vector width must be positive")
	}
	n, err := s.engine.MakeBVSort(width)
	if err != nil {
		return nil, s.backendErr(err, "make-sort bitvec")
	}
	return s.record(BVSort(width), n), nil
}

func (s *LoggingSolver[S, T]) MakeArraySort(index, elem *Sort) (*Sort, error) {
	if index == nil || elem == nil {
		return nil, verr.Usage("array sort needs index and element sorts")
	}
	ni, err := s.nativeSort(index)
	if err != nil {
		return nil, err
	}
	ne, err := s.nativeSort(elem)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeArraySort(ni, ne)
	if err != nil {
		return nil, s.backendErr(err, "make-sort array")
	}
	return s.record(ArraySort(s.intern(index), s.intern(elem)), n), nil
}

func (s *LoggingSolver[S, T]) MakeFunctionSort(domain []*Sort, codomain *Sort) (*Sort, error) {
	if len(domain) == 0 || codomain == nil {
		return nil, verr.Usage("function sort needs a non-empty domain and a codomain")
	}
	nd := make([]S, len(domain))
	dom := make([]*Sort, len(domain))
	for i, d := range domain {
		n, err := s.nativeSort(d)
		if err != nil {
			return nil, err
		}
		nd[i] = n
		dom[i] = s.intern(d)
	}
	nc, err := s.nativeSort(codomain)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeFunctionSort(nd, nc)
	if err != nil {
		return nil, s.backendErr(err, "make-sort function")
	}
	return s.record(FunctionSort(dom, s.intern(codomain)), n), nil
}

func (s *LoggingSolver[S, T]) MakeUninterpretedSort(name string, arity uint64) (*Sort, error) {
	if name == "" {
		return nil, verr.Usage("uninterpreted sort needs a name")
	}
	n, err := s.engine.MakeUninterpretedSort(name, arity)
	if err != nil {
		return nil, s.backendErr(err, "declare-sort "+name)
	}
	return s.record(UninterpretedSort(name, arity), n), nil
}

// MakeDatatypeSort materializes decl in the backend and finalizes it: every
// self-referential selector of decl now has the returned sort.
func (s *LoggingSolver[S, T]) MakeDatatypeSort(decl *DatatypeDecl) (*Sort, error) {
	if decl == nil {
		return nil, verr.Usage("null datatype declaration")
	}
	if err := decl.checkFinalizable(); err != nil {
		return nil, err
	}
	if _, ok := s.datatypes[decl.name]; ok {
		return nil, verr.Usage("datatype %s has already been declared", decl.name)
	}
	spec := DatatypeSpec[S]{Name: decl.name}
	for _, c := range decl.ctors {
		cs := ConstructorSpec[S]{Name: c.name}
		for _, sel := range c.selectors {
			ss := SelectorSpec[S]{Name: sel.Name, Self: sel.Pending()}
			if !ss.Self {
				n, err := s.nativeSort(sel.Sort)
				if err != nil {
					return nil, err
				}
				ss.Sort = n
			}
			cs.Selectors = append(cs.Selectors, ss)
		}
		spec.Constructors = append(spec.Constructors, cs)
	}
	n, err := s.engine.MakeDatatypeSort(spec)
	if err != nil {
		return nil, s.backendErr(err, "declare-datatype "+decl.name)
	}
	srt := newDatatypeSort(decl.name)
	if _, err := decl.Finalize(srt); err != nil {
		return nil, err
	}
	s.datatypes[decl.name] = srt
	s.sorts[sortInternKey(srt)] = srt
	s.nativeSorts[srt] = n
	return srt, nil
}

// Terms

func (s *LoggingSolver[S, T]) canonicalize(candidate *Term, native T) *Term {
	canon, isNew := s.store.LookupOrInsert(candidate)
	// A hit may come from another session sharing the store.
	if _, ok := s.nativeTerms[canon]; !ok {
		s.nativeTerms[canon] = native
	}
	if isNew {
		s.metrics.TermCreated()
	} else {
		s.metrics.TermReused()
	}
	if _, ok := s.canonical[native]; !ok {
		s.canonical[native] = canon
	}
	if s.logger.DebugEnabled() {
		s.logger.With(log.Params{"term_id": canon.id, "sort": canon.sort.String(), "new": isNew}).Debug("term " + canon.op.String())
	}
	return canon
}

func (s *LoggingSolver[S, T]) owned(t *Term) (T, error) {
	var zero T
	if t == nil {
		return zero, verr.Usage("null term")
	}
	n, ok := s.nativeTerms[t]
	if !ok || !s.store.Contains(t) {
		return zero, verr.Usage("term %s was not created by this solver", t)
	}
	return n, nil
}

func (s *LoggingSolver[S, T]) value(srt *Sort, native T) *Term {
	return s.canonicalize(newValue(s.store.NextID(), srt, s.engine.Print(native)), native)
}

func (s *LoggingSolver[S, T]) MakeBool(v bool) (*Term, error) {
	n, err := s.engine.MakeBool(v)
	if err != nil {
		return nil, s.backendErr(err, "make-term bool")
	}
	return s.value(s.intern(BoolSort()), n), nil
}

func numericSort(srt *Sort) bool {
	return srt.IsKind(KindInt) || srt.IsKind(KindReal) || srt.IsKind(KindBV)
}

// MakeInt creates an Int, Real or BitVector literal.
func (s *LoggingSolver[S, T]) MakeInt(v int64, srt *Sort) (*Term, error) {
	if !numericSort(srt) {
		return nil, verr.Usage("cannot create integer literal %d of sort %s", v, srt)
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeInt(v, ns)
	if err != nil {
		return nil, s.backendErr(err, "make-term int")
	}
	return s.value(s.intern(srt), n), nil
}

// MakeNumeral creates a literal from its textual form in base 2, 10 or 16.
func (s *LoggingSolver[S, T]) MakeNumeral(text string, base int, srt *Sort) (*Term, error) {
	if !numericSort(srt) {
		return nil, verr.Usage("cannot create numeral %s of sort %s", text, srt)
	}
	if base != 2 && base != 10 && base != 16 {
		return nil, verr.Usage("unsupported numeral base %d", base)
	}
	if text == "" {
		return nil, verr.Usage("empty numeral")
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeNumeral(text, base, ns)
	if err != nil {
		return nil, s.backendErr(err, "make-term numeral "+text)
	}
	return s.value(s.intern(srt), n), nil
}

func (s *LoggingSolver[S, T]) MakeString(v string, srt *Sort) (*Term, error) {
	if !srt.IsKind(KindString) {
		return nil, verr.Usage("cannot create string literal of sort %s", srt)
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeString(v, ns)
	if err != nil {
		return nil, s.backendErr(err, "make-term string")
	}
	return s.value(s.intern(srt), n), nil
}

// MakeConstArray creates the array of sort srt mapping every index to val.
func (s *LoggingSolver[S, T]) MakeConstArray(val *Term, srt *Sort) (*Term, error) {
	if !srt.IsKind(KindArray) {
		return nil, verr.Usage("constant array needs an array sort, got %s", srt)
	}
	nv, err := s.owned(val)
	if err != nil {
		return nil, err
	}
	if !val.sort.Equal(srt.elem) {
		return nil, verr.Usage("constant array value %s has sort %s, expected %s", val, val.sort, srt.elem)
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeConstArray(nv, ns)
	if err != nil {
		return nil, s.backendErr(err, "make-term const-array")
	}
	return s.canonicalize(newConstArray(s.store.NextID(), s.intern(srt), val), n), nil
}

func (s *LoggingSolver[S, T]) checkName(name string) error {
	if name == "" {
		return verr.Usage("symbol name must not be empty")
	}
	if _, ok := s.names[name]; ok {
		return verr.ErrDuplicateSymbol(name)
	}
	return nil
}

// MakeSymbol declares a constant or function symbol. Names are unique within
// the session and survive Pop.
func (s *LoggingSolver[S, T]) MakeSymbol(name string, srt *Sort) (*Term, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeSymbol(name, ns)
	if err != nil {
		return nil, s.backendErr(err, "declare-fun "+name)
	}
	t := s.canonicalize(newSymbol(s.store.NextID(), name, s.intern(srt)), n)
	s.names[name] = t
	s.symbols[name] = t
	s.metrics.SymbolDeclared()
	return t, nil
}

// MakeParam creates a variable to be bound by a quantifier.
func (s *LoggingSolver[S, T]) MakeParam(name string, srt *Sort) (*Term, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	ns, err := s.nativeSort(srt)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeParam(name, ns)
	if err != nil {
		return nil, s.backendErr(err, "make-param "+name)
	}
	t := s.canonicalize(newParam(s.store.NextID(), name, s.intern(srt)), n)
	s.names[name] = t
	return t, nil
}

// GetSymbol returns the symbol declared under name.
func (s *LoggingSolver[S, T]) GetSymbol(name string) (*Term, error) {
	t, ok := s.symbols[name]
	if !ok {
		return nil, verr.ErrMissingSymbol(name)
	}
	return t, nil
}

// MakeTerm applies op to children. The result sort is inferred locally, so an
// ill-sorted application fails before the backend is called.
//
// Parameters:
//
//	op Op: Operator with its indices.
//	children ...*Term: Canonical operands created by this solver.
//
// Returns:
//
//	*Term: The canonical application.
//	error: Usage error for foreign or ill-sorted operands, classified backend error otherwise.
func (s *LoggingSolver[S, T]) MakeTerm(op Op, children ...*Term) (*Term, error) {
	args := make([]T, len(children))
	for i, c := range children {
		n, err := s.owned(c)
		if err != nil {
			return nil, err
		}
		args[i] = n
	}
	srt, err := ComputeTermSort(op, children)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.MakeTerm(op, args)
	if err != nil {
		return nil, s.backendErr(err, "make-term "+op.String())
	}
	return s.canonicalize(newApp(s.store.NextID(), op, s.intern(srt), children), n), nil
}

// Solving

// Assert adds a Bool formula to the current context.
func (s *LoggingSolver[S, T]) Assert(t *Term) error {
	n, err := s.owned(t)
	if err != nil {
		return err
	}
	if !t.sort.IsKind(KindBool) {
		return verr.Usage("cannot assert %s of sort %s", t, t.sort)
	}
	s.logger.With(log.Params{"term_id": t.id, "level": s.contextLevel}).Debug("assert")
	return s.backendErr(s.engine.Assert(n), "assert")
}

func (s *LoggingSolver[S, T]) observe(r Result, start time.Time, call string) {
	s.lastResult = r
	s.metrics.ObserveCheck(r.Status.String(), time.Since(start))
	s.logger.With(log.Params{"result": r.String(), "level": s.contextLevel, "took": time.Since(start).String()}).Debug(call)
}

// CheckSat checks the current assertions. Cancellation or a deadline on ctx
// yields an Unknown result with a reason.
func (s *LoggingSolver[S, T]) CheckSat(ctx context.Context) (Result, error) {
	start := time.Now()
	s.lastAssuming = false
	r, err := s.engine.CheckSat(ctx)
	if err != nil {
		s.lastResult = Result{}
		return Result{}, s.backendErr(err, "check-sat")
	}
	s.observe(r, start, "check-sat")
	return r, nil
}

// CheckSatAssuming checks the current assertions together with the Bool
// assumptions. The assumption cache is replaced by this call.
func (s *LoggingSolver[S, T]) CheckSatAssuming(ctx context.Context, assumptions []*Term) (Result, error) {
	cache := make(map[T]*Term, len(assumptions))
	natives := make([]T, len(assumptions))
	for i, a := range assumptions {
		n, err := s.owned(a)
		if err != nil {
			return Result{}, err
		}
		if !a.sort.IsKind(KindBool) {
			return Result{}, verr.Usage("assumption %s has sort %s, expected Bool", a, a.sort)
		}
		natives[i] = n
		cache[n] = a
	}
	s.assumptions = cache
	s.lastAssuming = true
	start := time.Now()
	r, err := s.engine.CheckSatAssuming(ctx, natives)
	if err != nil {
		s.lastResult = Result{}
		return Result{}, s.backendErr(err, "check-sat-assuming")
	}
	s.observe(r, start, "check-sat-assuming")
	return r, nil
}

// GetUnsatAssumptions returns the subset of the last assumptions responsible
// for unsatisfiability.
func (s *LoggingSolver[S, T]) GetUnsatAssumptions() ([]*Term, error) {
	if !s.lastAssuming || !s.lastResult.IsUnsat() {
		return nil, verr.Usage("unsat assumptions are only available after an unsat check-sat-assuming")
	}
	natives, err := s.engine.GetUnsatAssumptions()
	if err != nil {
		return nil, s.backendErr(err, "get-unsat-assumptions")
	}
	out := make([]*Term, 0, len(natives))
	for _, n := range natives {
		t, ok := s.assumptions[n]
		if !ok {
			return nil, verr.ErrUnknownAssumption(s.engine.Print(n))
		}
		out = append(out, t)
	}
	return out, nil
}

// Push opens n context frames.
func (s *LoggingSolver[S, T]) Push(n uint64) error {
	if err := s.engine.Push(n); err != nil {
		return s.backendErr(err, "push")
	}
	s.contextLevel += n
	s.metrics.SetContextLevel(s.contextLevel)
	return nil
}

// Pop closes n context frames, dropping their assertions. Symbols stay
// declared.
func (s *LoggingSolver[S, T]) Pop(n uint64) error {
	if n > s.contextLevel {
		return verr.ErrContextUnderflow(s.contextLevel, n)
	}
	if err := s.engine.Pop(n); err != nil {
		return s.backendErr(err, "pop")
	}
	s.contextLevel -= n
	s.metrics.SetContextLevel(s.contextLevel)
	return nil
}

// ContextLevel returns the number of open context frames.
func (s *LoggingSolver[S, T]) ContextLevel() uint64 {
	return s.contextLevel
}

// Reset discards every assertion, symbol, sort and canonical term of the
// session. A store passed with WithStore is not cleared, but its terms no
// longer belong to this session.
func (s *LoggingSolver[S, T]) Reset() error {
	if err := s.engine.Reset(); err != nil {
		return s.backendErr(err, "reset")
	}
	if s.ownStore {
		s.store.Clear()
	}
	s.clearTables()
	s.contextLevel = 0
	s.metrics.SetContextLevel(0)
	s.logger.Debug("reset")
	return nil
}

// ResetAssertions discards every assertion and context frame. Symbols and
// terms stay valid.
func (s *LoggingSolver[S, T]) ResetAssertions() error {
	if err := s.engine.ResetAssertions(); err != nil {
		return s.backendErr(err, "reset-assertions")
	}
	s.contextLevel = 0
	s.assumptions = nil
	s.lastResult = Result{}
	s.lastAssuming = false
	s.metrics.SetContextLevel(0)
	return nil
}

// Models

// GetValue returns the value of t in the model of the last satisfiable check
// as a canonical value term. Array values are rebuilt as a constant array
// with Store applications on top, ordered by index.
func (s *LoggingSolver[S, T]) GetValue(t *Term) (*Term, error) {
	n, err := s.owned(t)
	if err != nil {
		return nil, err
	}
	switch t.sort.kind {
	case KindBool, KindInt, KindReal, KindString, KindBV:
		v, err := s.engine.GetValue(n)
		if err != nil {
			return nil, s.backendErr(err, "get-value")
		}
		return s.value(t.sort, v), nil
	case KindArray:
		return s.arrayValue(t.sort, n)
	default:
		return nil, verr.Unsupported("get-value for sort %s", t.sort)
	}
}

func (s *LoggingSolver[S, T]) valueOf(srt *Sort, native T) (*Term, error) {
	if srt.IsKind(KindArray) {
		return s.arrayValue(srt, native)
	}
	return s.value(s.intern(srt), native), nil
}

// GetArrayValues returns the model of the array term t as explicit entries,
// keyed by canonical index value, and the constant base. The base is nil when
// the backend reports none.
func (s *LoggingSolver[S, T]) GetArrayValues(t *Term) (map[*Term]*Term, *Term, error) {
	n, err := s.owned(t)
	if err != nil {
		return nil, nil, err
	}
	if !t.sort.IsKind(KindArray) {
		return nil, nil, verr.Usage("get-array-values of non-array term %s", t)
	}
	return s.arrayModel(t.sort, n)
}

func (s *LoggingSolver[S, T]) arrayModel(srt *Sort, native T) (map[*Term]*Term, *Term, error) {
	av, err := s.engine.GetArrayValues(native)
	if err != nil {
		return nil, nil, s.backendErr(err, "get-value array")
	}
	var base *Term
	if av.HasBase {
		if base, err = s.valueOf(srt.elem, av.Base); err != nil {
			return nil, nil, err
		}
	}
	byIndex := make(map[*Term]*Term, len(av.Entries))
	for _, e := range av.Entries {
		idx, err := s.valueOf(srt.index, e.Index)
		if err != nil {
			return nil, nil, err
		}
		val, err := s.valueOf(srt.elem, e.Value)
		if err != nil {
			return nil, nil, err
		}
		byIndex[idx] = val
	}
	return byIndex, base, nil
}

func (s *LoggingSolver[S, T]) arrayValue(srt *Sort, native T) (*Term, error) {
	byIndex, base, err := s.arrayModel(srt, native)
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, verr.Internal("array value of sort %s has no constant base", srt)
	}
	arr, err := s.MakeConstArray(base, srt)
	if err != nil {
		return nil, err
	}

	type entry struct{ idx, val *Term }
	entries := make([]entry, 0, len(byIndex))
	for idx, val := range byIndex {
		entries = append(entries, entry{idx, val})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.idx.String(), b.idx.String()), cmp.Compare(a.idx.id, b.idx.id))
	})

	store := NewOp(Store)
	for _, e := range entries {
		if arr, err = s.MakeTerm(store, arr, e.idx, e.val); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// GetAssertions returns the assertions of every open context frame.
func (s *LoggingSolver[S, T]) GetAssertions() ([]*Term, error) {
	natives, err := s.engine.GetAssertions()
	if err != nil {
		return nil, s.backendErr(err, "get-assertions")
	}
	out := make([]*Term, 0, len(natives))
	for _, n := range natives {
		t, ok := s.canonical[n]
		if !ok {
			return nil, verr.Internal("backend returned assertion %s that was never created", s.engine.Print(n))
		}
		out = append(out, t)
	}
	return out, nil
}
