// Package types reads policy parameter specifications and input schemas and
// maps them to solver sorts and symbols.
package types

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	verr "github.com/vhavlena/smtswitch/pkg/err"
	"github.com/vhavlena/smtswitch/pkg/smt"
)

// TypeSpec is the declared type of a parameter.
//
// Fields:
//
//	Type string: One of string, int, integer, boolean, real, bitvector, array.
//	Width uint64: Bit width of a bitvector.
//	Items *TypeSpec: Element type of an array; arrays are indexed by Int.
type TypeSpec struct {
	Type  string    `json:"type" yaml:"type"`
	Width uint64    `json:"width,omitempty" yaml:"width"`
	Items *TypeSpec `json:"items,omitempty" yaml:"items"`
}

type Parameter struct {
	typ      TypeSpec // The type of the parameter
	name     string   // The name of the parameter
	required bool     // Whether the parameter is required
}

func (p Parameter) Name() string   { return p.name }
func (p Parameter) Required() bool { return p.required }
func (p Parameter) Type() TypeSpec { return p.typ }

type Parameters map[string]Parameter

// specFile is decoded with YAML 1.2 scalar rules, so names such as n, yes
// or on stay strings.
type specFile struct {
	Spec struct {
		Parameters []struct {
			Name     string `yaml:"name"`
			Required bool   `yaml:"required"`
			TypeSpec `yaml:",inline"`
		} `yaml:"parameters"`
	} `yaml:"spec"`
}

// FromSpecFile creates Parameters from a YAML spec.parameters field
func FromSpecFile(yamlData []byte) (Parameters, error) {
	var data specFile
	if err := yaml.Unmarshal(yamlData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	if data.Spec.Parameters == nil {
		return nil, fmt.Errorf("missing or invalid 'spec.parameters' field in YAML")
	}

	result := make(Parameters)
	for _, p := range data.Spec.Parameters {
		if p.Name == "" {
			return nil, verr.Usage("parameter without a name")
		}
		if _, dup := result[p.Name]; dup {
			return nil, verr.ErrDuplicateSymbol(p.Name)
		}
		result[p.Name] = Parameter{
			typ:      p.TypeSpec,
			name:     p.Name,
			required: p.Required,
		}
	}
	return result, nil
}

// LoadSpecFile reads and parses a parameter specification file.
func LoadSpecFile(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromSpecFile(data)
}

// Names returns the parameter names in lexical order.
func (ps Parameters) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Sort builds the solver sort of a type. Integers use intSort when it is
// not nil.
//
// Parameters:
//
//	s smt.Solver: Session the sort belongs to.
//	intSort *smt.Sort: Sort used for int and integer types, or nil for Int.
//
// Returns:
//
//	*smt.Sort: The interned sort.
//	error: Unsupported for unknown type names.
func (ts TypeSpec) Sort(s smt.Solver, intSort *smt.Sort) (*smt.Sort, error) {
	switch ts.Type {
	case "string":
		return s.MakeSort(smt.KindString)
	case "int", "integer":
		if intSort != nil {
			return intSort, nil
		}
		return s.MakeSort(smt.KindInt)
	case "boolean", "bool":
		return s.MakeSort(smt.KindBool)
	case "real", "number":
		return s.MakeSort(smt.KindReal)
	case "bitvector":
		return s.MakeBVSort(ts.Width)
	case "array":
		if ts.Items == nil {
			return nil, verr.Usage("array type without items")
		}
		elem, err := ts.Items.Sort(s, intSort)
		if err != nil {
			return nil, err
		}
		idx := intSort
		if idx == nil {
			if idx, err = s.MakeSort(smt.KindInt); err != nil {
				return nil, err
			}
		}
		return s.MakeArraySort(idx, elem)
	default:
		return nil, verr.Unsupported("parameter type %q", ts.Type)
	}
}

// Declare declares one symbol per parameter, in name order.
func (ps Parameters) Declare(s smt.Solver, intSort *smt.Sort) (map[string]*smt.Term, error) {
	out := make(map[string]*smt.Term, len(ps))
	for _, name := range ps.Names() {
		srt, err := ps[name].typ.Sort(s, intSort)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		sym, err := s.MakeSymbol(name, srt)
		if err != nil {
			return nil, err
		}
		out[name] = sym
	}
	return out, nil
}
