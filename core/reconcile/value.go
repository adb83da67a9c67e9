package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindEmpty is an explicit absence of value (JSON null).
	KindEmpty Kind = iota
	// KindString holds a text value.
	KindString
	// KindNumber holds a numeric value.
	KindNumber
	// KindBool holds a checkbox-style value.
	KindBool
	// KindStringArray holds a list of strings (multiple select, linked names).
	KindStringArray
	// KindRaw holds any other JSON shape verbatim (attachments, collaborators).
	KindRaw
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindStringArray:
		return "string_array"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a kind name as used in configuration to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string", "text":
		return KindString, nil
	case "number", "numeric":
		return KindNumber, nil
	case "bool", "boolean", "checkbox":
		return KindBool, nil
	case "string_array", "array", "multiselect":
		return KindStringArray, nil
	default:
		return KindEmpty, fmt.Errorf("unknown field kind %q", name)
	}
}

// Value is a single field value. The zero Value is Empty.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	arr  []string
	raw  json.RawMessage
}

// Empty returns the Empty value.
func Empty() Value { return Value{} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// StringArray returns a string list value. The slice is copied.
func StringArray(items ...string) Value {
	arr := make([]string, len(items))
	copy(arr, items)
	return Value{kind: KindStringArray, arr: arr}
}

// Raw wraps an arbitrary JSON document.
func Raw(data json.RawMessage) Value {
	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	return Value{kind: KindRaw, raw: cp}
}

// Zero returns the value a remote store implies when it omits a field of kind k.
func Zero(k Kind) Value {
	switch k {
	case KindString:
		return String("")
	case KindNumber:
		return Number(0)
	case KindBool:
		return Bool(false)
	case KindStringArray:
		return StringArray()
	default:
		return Empty()
	}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the Empty variant.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Str returns the text payload; ok is false for other kinds.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the numeric payload; ok is false for other kinds.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the boolean payload; ok is false for other kinds.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Strings returns a copy of the list payload; ok is false for other kinds.
func (v Value) Strings() ([]string, bool) {
	if v.kind != KindStringArray {
		return nil, false
	}
	out := make([]string, len(v.arr))
	copy(out, v.arr)
	return out, true
}

// Equal reports strict equality: same kind and same payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindStringArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if v.arr[i] != o.arr[i] {
				return false
			}
		}
		return true
	case KindRaw:
		return bytes.Equal(compactJSON(v.raw), compactJSON(o.raw))
	}
	return false
}

// String renders the value for logs.
func (v Value) String() string {
	switch v.kind {
	case KindEmpty:
		return "<empty>"
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindStringArray:
		return "[" + strings.Join(v.arr, ", ") + "]"
	case KindRaw:
		return string(compactJSON(v.raw))
	}
	return "<invalid>"
}

// MarshalJSON encodes the value as the plain JSON the remote API expects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindRaw:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	}
	return nil, fmt.Errorf("cannot marshal value of %s", v.kind)
}

// UnmarshalJSON decodes plain JSON into the matching variant. Shapes outside the
// variant are kept as KindRaw.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty JSON value")
	}

	switch trimmed[0] {
	case 'n':
		*v = Empty()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
		return nil
	case '[':
		var items []string
		if err := json.Unmarshal(trimmed, &items); err == nil {
			*v = StringArray(items...)
			return nil
		}
		*v = Raw(trimmed)
		return nil
	case '{':
		*v = Raw(trimmed)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = Number(n)
		return nil
	}
}

// KeyString renders a value as a natural key. Only non-blank strings and numbers
// qualify; anything else yields "".
func KeyString(v Value) string {
	switch v.kind {
	case KindString:
		if strings.TrimSpace(v.str) == "" {
			return ""
		}
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

func compactJSON(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
