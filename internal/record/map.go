package record

import (
	"bytes"
	"encoding/json"
)

// Map is a string-keyed map that remembers insertion order.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Has reports whether key is present (even with a null value).
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null(), false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Value returns the value under key, or null when absent.
func (m *Map) Value(key string) Value {
	v, _ := m.Get(key)
	return v
}

// Text returns the scalar text under key, or "" when absent or null.
func (m *Map) Text(key string) string {
	return m.Value(key).Text()
}

// Set stores v under key. New keys are appended; existing keys keep their
// position.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// SetAfter stores v under key and places key immediately after anchor.
// If anchor is absent the key is appended. An existing key is moved.
func (m *Map) SetAfter(anchor, key string, v Value) {
	m.Delete(key)
	m.vals[key] = v
	idx := m.index(anchor)
	if idx < 0 {
		m.keys = append(m.keys, key)
		return
	}
	m.keys = append(m.keys, "")
	copy(m.keys[idx+2:], m.keys[idx+1:])
	m.keys[idx+1] = key
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	if idx := m.index(key); idx >= 0 {
		m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	}
}

// Rename replaces oldKey with newKey in place, keeping its position.
// It is a no-op when oldKey is absent or newKey already exists.
func (m *Map) Rename(oldKey, newKey string) {
	v, ok := m.vals[oldKey]
	if !ok || m.Has(newKey) {
		return
	}
	idx := m.index(oldKey)
	m.keys[idx] = newKey
	delete(m.vals, oldKey)
	m.vals[newKey] = v
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Clone returns a shallow copy. Nested lists and maps are shared.
func (m *Map) Clone() *Map {
	out := NewMap()
	m.Range(func(k string, v Value) bool {
		out.Set(k, v)
		return true
	})
	return out
}

// Equal reports whether both maps hold equal values under the same keys in
// the same order.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i, k := range m.keys {
		if o.keys[i] != k || !m.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := m.vals[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *Map) index(key string) int {
	for i, k := range m.keys {
		if k == key {
			return i
		}
	}
	return -1
}
