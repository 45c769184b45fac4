// Package record defines the loosely-typed nested values that flow through the
// conversion pipeline and out to the encoders.
//
// A Value is an explicit tagged union (null, string, integer, list, map) so
// that pruning rules can be decided per variant instead of by duck typing.
// Maps keep insertion order, which is the key order every encoder emits.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindList
	KindMap
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a null, a scalar, a list or an ordered map.
// The zero Value is null.
type Value struct {
	kind  Kind
	str   string
	num   int64
	items []Value
	obj   *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string scalar.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int wraps an integer scalar.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// List wraps a sequence of values. A nil or empty list is still a list.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, items: items}
}

// Object wraps an ordered map. A nil map is treated as an empty map.
func Object(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, obj: m}
}

// Maybe returns String(s) for non-empty s and Null otherwise.
func Maybe(s string) Value {
	if s == "" {
		return Null()
	}
	return String(s)
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the scalar rendered as text. Integers are formatted in base
// 10; null, lists and maps return "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	default:
		return ""
	}
}

// Items returns the list elements, or nil for non-lists.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Map returns the wrapped map, or nil for non-maps.
func (v Value) Map() *Map {
	if v.kind != KindMap {
		return nil
	}
	return v.obj
}

// Equal reports deep equality, including map key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.num == o.num
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.obj.Equal(o.obj)
	}
	return false
}

// MarshalJSON renders the value with map keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.num, 10)), nil
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.items {
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
	case KindMap:
		return v.obj.MarshalJSON()
	}
	return []byte("null"), nil
}
