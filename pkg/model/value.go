package model

// ValueKind tells which payload of a Value is set.
type ValueKind string

const (
	ValueInvalid ValueKind = "invalid"
	ValueBool    ValueKind = "bool"
	ValueInt     ValueKind = "int"
	ValueString  ValueKind = "string"
	// ValueMap holds a decoded array model: index keys plus the constant
	// base under DefaultKey.
	ValueMap ValueKind = "map"
)

// Value is a decoded model value. Bool, Int and BitVector literals, strings
// and arrays (as maps) are covered; the zero Value is invalid.
type Value struct {
	kind    ValueKind
	b       bool
	i       int64
	s       string
	entries map[string]Value
}

func NewBoolValue(v bool) Value     { return Value{kind: ValueBool, b: v} }
func NewIntValue(v int64) Value     { return Value{kind: ValueInt, i: v} }
func NewStringValue(v string) Value { return Value{kind: ValueString, s: v} }

// NewMapValue copies entries into a map Value.
func NewMapValue(entries map[string]Value) Value {
	return Value{kind: ValueMap, entries: cloneEntries(entries)}
}

func cloneEntries(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Kind returns ValueInvalid for the zero Value.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return ValueInvalid
	}
	return v.kind
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == ValueBool
}

func (v Value) Int64() (int64, bool) {
	return v.i, v.kind == ValueInt
}

func (v Value) String() (string, bool) {
	return v.s, v.kind == ValueString
}

// Map returns a copy of the entries of a map Value.
func (v Value) Map() (map[string]Value, bool) {
	if v.kind != ValueMap {
		return nil, false
	}
	return cloneEntries(v.entries), true
}

// AsInterface converts v to bool, int64, string or map[string]any, or nil
// for an invalid Value.
func (v Value) AsInterface() any {
	switch v.kind {
	case ValueBool:
		return v.b
	case ValueInt:
		return v.i
	case ValueString:
		return v.s
	case ValueMap:
		out := make(map[string]any, len(v.entries))
		for k, e := range v.entries {
			out[k] = e.AsInterface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and o denote the same data. A key missing from a
// map compares as the DefaultKey entry of that map; nil equals only an
// invalid Value.
func (v Value) Equal(o *Value) bool {
	if o == nil {
		return v.Kind() == ValueInvalid
	}
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case ValueBool:
		return v.b == o.b
	case ValueInt:
		return v.i == o.i
	case ValueString:
		return v.s == o.s
	case ValueMap:
		return entriesEqual(v.entries, o.entries)
	default:
		return true
	}
}

func entryOrDefault(m map[string]Value, key string) (Value, bool) {
	if e, ok := m[key]; ok {
		return e, true
	}
	e, ok := m[DefaultKey]
	return e, ok
}

func entriesEqual(left, right map[string]Value) bool {
	check := func(k string) bool {
		if k == DefaultKey {
			l, lok := left[k]
			r, rok := right[k]
			return !lok || !rok || l.Equal(&r)
		}
		l, lok := entryOrDefault(left, k)
		r, rok := entryOrDefault(right, k)
		return lok && rok && l.Equal(&r)
	}
	for k := range left {
		if !check(k) {
			return false
		}
	}
	for k := range right {
		if !check(k) {
			return false
		}
	}
	return true
}
