package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Fields is an insertion-ordered mapping from field name to Value.
// The zero Fields is ready to use.
type Fields struct {
	keys   []string
	values map[string]Value
}

// NewFields builds Fields from the given pairs, in order.
func NewFields(pairs ...Field) Fields {
	var f Fields
	for _, p := range pairs {
		f.Set(p.Name, p.Value)
	}
	return f
}

// Field is a single name/value pair.
type Field struct {
	Name  string
	Value Value
}

// F is shorthand for building a Field.
func F(name string, value Value) Field {
	return Field{Name: name, Value: value}
}

// Set stores a value. Re-setting an existing name keeps its original position.
func (f *Fields) Set(name string, value Value) {
	if f.values == nil {
		f.values = make(map[string]Value)
	}
	if _, exists := f.values[name]; !exists {
		f.keys = append(f.keys, name)
	}
	f.values[name] = value
}

// Get returns the value for name and whether it was present.
func (f Fields) Get(name string) (Value, bool) {
	v, ok := f.values[name]
	return v, ok
}

// Len returns the number of fields.
func (f Fields) Len() int { return len(f.keys) }

// Names returns the field names in insertion order.
func (f Fields) Names() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Each calls fn for every field in order until fn returns false.
func (f Fields) Each(fn func(name string, value Value) bool) {
	for _, k := range f.keys {
		if !fn(k, f.values[k]) {
			return
		}
	}
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	var out Fields
	f.Each(func(name string, value Value) bool {
		out.Set(name, value)
		return true
	})
	return out
}

// Equal reports whether both sets hold the same names with equal values, ignoring order.
func (f Fields) Equal(o Fields) bool {
	if f.Len() != o.Len() {
		return false
	}
	for _, k := range f.keys {
		ov, ok := o.values[k]
		if !ok || !f.values[k].Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := f.values[k].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the document's key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = Fields{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected JSON object, got %v", tok)
	}

	var out Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected string key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("fields: decode %q: %w", name, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("fields: decode %q: %w", name, err)
		}
		out.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}
