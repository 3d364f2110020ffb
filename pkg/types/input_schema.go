package types

import (
	"encoding/json"
	"math"
	"os"
	"slices"
	"strings"

	qjsonschema "github.com/qri-io/jsonschema"
	"sigs.k8s.io/yaml"

	verr "github.com/vhavlena/smtswitch/pkg/err"
)

// InputSchema stores the types of the scalar and array fields of the input
// document. Nested object fields are keyed by their dotted path.
type InputSchema struct {
	fields map[string]TypeSpec
}

func newInputSchema() *InputSchema {
	return &InputSchema{fields: make(map[string]TypeSpec)}
}

// InputFromExample derives an input schema from an example input document
// in YAML or JSON.
//
// Parameters:
//
//	data []byte: The example document.
//
// Returns:
//
//	*InputSchema: Types of the fields found in the example.
//	error: Usage error if the document is not an object.
func InputFromExample(data []byte) (*InputSchema, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, verr.Usage("input example: %v", err)
	}
	s := newInputSchema()
	s.addExample(nil, doc)
	return s, nil
}

func (s *InputSchema) addExample(path []string, node interface{}) {
	if obj, ok := node.(map[string]interface{}); ok {
		for key, child := range obj {
			s.addExample(append(slices.Clone(path), key), child)
		}
		return
	}
	if ts, ok := exampleType(node); ok && len(path) > 0 {
		s.fields[strings.Join(path, ".")] = ts
	}
}

// exampleType maps an example value to a type. Empty arrays, nulls and
// arrays of objects have no type.
func exampleType(node interface{}) (TypeSpec, bool) {
	switch v := node.(type) {
	case string:
		return TypeSpec{Type: "string"}, true
	case bool:
		return TypeSpec{Type: "boolean"}, true
	case float64:
		if v != math.Trunc(v) {
			return TypeSpec{Type: "real"}, true
		}
		return TypeSpec{Type: "int"}, true
	case int, int64:
		return TypeSpec{Type: "int"}, true
	case []interface{}:
		if len(v) == 0 {
			return TypeSpec{}, false
		}
		item, ok := exampleType(v[0])
		if !ok {
			return TypeSpec{}, false
		}
		return TypeSpec{Type: "array", Items: &item}, true
	default:
		return TypeSpec{}, false
	}
}

// InputFromJSONSchema derives an input schema from a JSON Schema document.
// Only the type, properties and items keywords are interpreted; fields with
// several types are skipped.
func InputFromJSONSchema(data []byte) (*InputSchema, error) {
	rs := &qjsonschema.Schema{}
	if err := json.Unmarshal(data, rs); err != nil {
		return nil, verr.Usage("input schema: %v", err)
	}
	s := newInputSchema()
	s.addSchema(nil, rs)
	return s, nil
}

func (s *InputSchema) addSchema(path []string, rs *qjsonschema.Schema) {
	if props, ok := rs.JSONProp("properties").(*qjsonschema.Properties); ok && props != nil {
		for key, child := range *props {
			s.addSchema(append(slices.Clone(path), key), child)
		}
		return
	}
	if ts, ok := schemaType(rs); ok && len(path) > 0 {
		s.fields[strings.Join(path, ".")] = ts
	}
}

func schemaType(rs *qjsonschema.Schema) (TypeSpec, bool) {
	if rs == nil {
		return TypeSpec{}, false
	}
	names := typeNames(rs.JSONProp("type"))
	if len(names) != 1 {
		return TypeSpec{}, false
	}
	switch names[0] {
	case "string":
		return TypeSpec{Type: "string"}, true
	case "integer", "number":
		return TypeSpec{Type: "int"}, true
	case "boolean":
		return TypeSpec{Type: "boolean"}, true
	case "array":
		items, ok := rs.JSONProp("items").(*qjsonschema.Items)
		if !ok || items == nil || len(items.Schemas) != 1 {
			return TypeSpec{}, false
		}
		item, ok := schemaType(items.Schemas[0])
		if !ok {
			return TypeSpec{}, false
		}
		return TypeSpec{Type: "array", Items: &item}, true
	default:
		return TypeSpec{}, false
	}
}

// typeNames reads the type keyword, which is either a single name or a list
// of names.
func typeNames(v interface{}) []string {
	var t *qjsonschema.Type
	switch tv := v.(type) {
	case *qjsonschema.Type:
		t = tv
	case qjsonschema.Type:
		t = &tv
	case string:
		return []string{tv}
	}
	if t == nil {
		return nil
	}
	b, err := t.MarshalJSON()
	if err != nil {
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil && single != "" {
		return []string{single}
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		return list
	}
	return nil
}

// LoadInputSchema reads a JSON Schema file, or an example input document
// when example is set.
func LoadInputSchema(path string, example bool) (*InputSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if example {
		return InputFromExample(data)
	}
	return InputFromJSONSchema(data)
}

// Lookup returns the type of the field at path.
func (s *InputSchema) Lookup(path []string) (TypeSpec, bool) {
	if s == nil || len(path) == 0 {
		return TypeSpec{}, false
	}
	ts, ok := s.fields[strings.Join(path, ".")]
	return ts, ok
}

// Fields returns the dotted paths of all typed fields in lexical order.
func (s *InputSchema) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}
