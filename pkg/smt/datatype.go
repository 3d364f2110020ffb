package smt

import (
	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// DatatypeState is the builder state of a DatatypeDecl.
type DatatypeState int

const (
	Declared DatatypeState = iota
	ConstructorsAdded
	Finalized
)

func (s DatatypeState) String() string {
	switch s {
	case Declared:
		return "declared"
	case ConstructorsAdded:
		return "constructors-added"
	case Finalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Selector is a constructor field. A selector added with AddSelectorSelf is
// pending: it has no sort until the enclosing datatype sort is known, at which
// point finalization sets Sort to that datatype sort.
type Selector struct {
	Name      string
	Sort      *Sort
	Finalized bool
}

// Pending reports whether the selector still refers to its enclosing datatype
// by forward reference.
func (s Selector) Pending() bool {
	return !s.Finalized
}

// ConstructorDecl accumulates the selectors of one datatype constructor.
type ConstructorDecl struct {
	name      string
	owner     *DatatypeDecl
	selectors []Selector
}

// NewConstructorDecl creates a constructor declaration without selectors.
func NewConstructorDecl(name string) *ConstructorDecl {
	return &ConstructorDecl{name: name}
}

func (c *ConstructorDecl) Name() string { return c.name }

// Owner returns the declaration the constructor was added to, or nil.
func (c *ConstructorDecl) Owner() *DatatypeDecl { return c.owner }

// Selectors returns a copy of the selectors in declaration order.
func (c *ConstructorDecl) Selectors() []Selector {
	out := make([]Selector, len(c.selectors))
	copy(out, c.selectors)
	return out
}

// AddSelector appends a selector of a known sort.
func (c *ConstructorDecl) AddSelector(name string, sort *Sort) error {
	if sort == nil {
		return verr.Usage("selector %s of constructor %s needs a sort", name, c.name)
	}
	if err := c.checkSelector(name); err != nil {
		return err
	}
	c.selectors = append(c.selectors, Selector{Name: name, Sort: sort, Finalized: true})
	return nil
}

// AddSelectorSelf appends a selector whose sort is the enclosing datatype.
func (c *ConstructorDecl) AddSelectorSelf(name string) error {
	if err := c.checkSelector(name); err != nil {
		return err
	}
	c.selectors = append(c.selectors, Selector{Name: name})
	return nil
}

func (c *ConstructorDecl) checkSelector(name string) error {
	if c.owner != nil && c.owner.state == Finalized {
		return verr.Usage("cannot add selector %s: datatype %s is finalized", name, c.owner.name)
	}
	for _, s := range c.selectors {
		if s.Name == name {
			return verr.Usage("selector %s already exists in constructor %s", name, c.name)
		}
	}
	return nil
}

// DatatypeDecl is the first phase of a datatype: a mutable declaration that
// accumulates constructors. Finalize turns it into an immutable Datatype once
// the datatype sort exists.
type DatatypeDecl struct {
	name     string
	ctors    []*ConstructorDecl
	state    DatatypeState
	datatype *Datatype
}

// NewDatatypeDecl creates an empty declaration.
func NewDatatypeDecl(name string) *DatatypeDecl {
	return &DatatypeDecl{name: name, state: Declared}
}

func (d *DatatypeDecl) Name() string         { return d.name }
func (d *DatatypeDecl) State() DatatypeState { return d.state }

// Datatype returns the finalized datatype, or nil before Finalize.
func (d *DatatypeDecl) Datatype() *Datatype { return d.datatype }

// Constructors returns the constructors in declaration order.
func (d *DatatypeDecl) Constructors() []*ConstructorDecl {
	out := make([]*ConstructorDecl, len(d.ctors))
	copy(out, d.ctors)
	return out
}

// AddConstructor attaches ctor to the declaration and links it back to d.
//
// Parameters:
//
//	ctor *ConstructorDecl: Constructor not yet attached to any declaration.
//
// Returns:
//
//	error: A usage error when d is finalized, ctor already belongs to a
//	declaration, or a constructor with the same name exists.
func (d *DatatypeDecl) AddConstructor(ctor *ConstructorDecl) error {
	if ctor == nil {
		return verr.Usage("cannot add a null constructor to datatype %s", d.name)
	}
	if d.state == Finalized {
		return verr.Usage("cannot add constructor %s: datatype %s is finalized", ctor.name, d.name)
	}
	if ctor.owner == d {
		return verr.Usage("constructor %s was already added to datatype %s", ctor.name, d.name)
	}
	if ctor.owner != nil {
		return verr.Usage("constructor %s already belongs to datatype %s", ctor.name, ctor.owner.name)
	}
	for _, c := range d.ctors {
		if c.name == ctor.name {
			return verr.Usage("constructor %s already exists in datatype %s", ctor.name, d.name)
		}
	}
	ctor.owner = d
	d.ctors = append(d.ctors, ctor)
	d.state = ConstructorsAdded
	return nil
}

func (d *DatatypeDecl) checkFinalizable() error {
	switch {
	case d.state == Finalized:
		return verr.Usage("datatype %s is already finalized", d.name)
	case len(d.ctors) == 0:
		return verr.Usage("datatype %s has no constructors", d.name)
	}
	return nil
}

// Finalize resolves every pending selector of every constructor to sort and
// freezes the declaration. It succeeds at most once.
//
// Parameters:
//
//	sort *Sort: The datatype sort materialized for this declaration.
//
// Returns:
//
//	*Datatype: The immutable datatype, also attached to sort.
//	error: A usage error when d cannot be finalized or sort does not fit.
func (d *DatatypeDecl) Finalize(sort *Sort) (*Datatype, error) {
	if err := d.checkFinalizable(); err != nil {
		return nil, err
	}
	if !sort.IsKind(KindDatatype) || sort.name != d.name {
		return nil, verr.Usage("sort %s cannot finalize datatype %s", sort, d.name)
	}
	if sort.datatype != nil {
		return nil, verr.Usage("sort %s is already bound to a datatype", sort)
	}

	dt := &Datatype{name: d.name, sort: sort, ctors: make([]Constructor, len(d.ctors))}
	for i, c := range d.ctors {
		for j := range c.selectors {
			if !c.selectors[j].Finalized {
				c.selectors[j].Sort = sort
				c.selectors[j].Finalized = true
			}
		}
		dt.ctors[i] = Constructor{Name: c.name, Selectors: c.Selectors()}
	}
	sort.datatype = dt
	d.datatype = dt
	d.state = Finalized
	return dt, nil
}

// Constructor is a finalized constructor.
type Constructor struct {
	Name      string
	Selectors []Selector
}

// Datatype is the immutable second phase of a datatype declaration.
type Datatype struct {
	name  string
	sort  *Sort
	ctors []Constructor
}

func (dt *Datatype) Name() string         { return dt.name }
func (dt *Datatype) Sort() *Sort          { return dt.sort }
func (dt *Datatype) NumConstructors() int { return len(dt.ctors) }

func (dt *Datatype) Constructor(i int) Constructor {
	return dt.ctors[i]
}

// ConstructorByName looks up a constructor.
func (dt *Datatype) ConstructorByName(name string) (Constructor, bool) {
	for _, c := range dt.ctors {
		if c.Name == name {
			return c, true
		}
	}
	return Constructor{}, false
}

// Selector looks up a selector of a constructor.
func (dt *Datatype) Selector(ctor, name string) (Selector, bool) {
	c, ok := dt.ConstructorByName(ctor)
	if !ok {
		return Selector{}, false
	}
	for _, s := range c.Selectors {
		if s.Name == name {
			return s, true
		}
	}
	return Selector{}, false
}

// IsRecursive reports whether any selector refers back to the datatype.
func (dt *Datatype) IsRecursive() bool {
	for _, c := range dt.ctors {
		for _, s := range c.Selectors {
			if s.Sort == dt.sort {
				return true
			}
		}
	}
	return false
}
