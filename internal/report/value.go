package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the JSON shape of a fact value.
type ValueKind uint8

// Value kinds.
const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// String returns the kind name.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a fact value: a JSON scalar, null, or a list of those.
// Numbers keep their literal text so that "0.500" stays "0.500".
type Value struct {
	kind ValueKind
	text string // string contents or number literal
	b    bool
	list []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a number value from its JSON literal.
func Number(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }

// Int returns a number value for an integer.
func Int(n int64) Value { return Value{kind: KindNumber, text: strconv.FormatInt(n, 10)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list value.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Kind returns the value kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is a scalar null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns the elements of a list value, nil otherwise.
func (v Value) Items() []Value { return v.list }

// Text returns the display text of a scalar: strings as-is, numbers as
// their literal, booleans as true/false and null as "null".
// Lists render their items with Text joined by ", ".
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString, KindNumber:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// SearchText returns the text a value search matches against.
// A scalar null is empty; list items are joined with "," and null items
// become empty strings.
func (v Value) SearchText() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.SearchText()
		}
		return strings.Join(parts, ",")
	default:
		return v.Text()
	}
}

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return v.text == o.text
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("cannot marshal value of kind %s", v.kind)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	val, err := valueOf(raw, data)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func valueOf(raw any, data []byte) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(x), nil
	case json.Number:
		return Number(x), nil
	case bool:
		return Bool(x), nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, elem := range x {
			if _, nested := elem.([]any); nested {
				return Value{}, fmt.Errorf("nested list in fact value: %s", data)
			}
			item, err := valueOf(elem, data)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return List(items...), nil
	case map[string]any:
		// Objects are not part of the format; keep their JSON text visible.
		b, err := json.Marshal(x)
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil
	}
	return Value{}, fmt.Errorf("unsupported fact value: %s", data)
}
