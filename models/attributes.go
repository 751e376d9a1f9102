package models

import (
	"bytes"
	"encoding/json"
)

// AttributeMap collects tagged element text keyed by tag name. A key seen once
// holds a scalar; the second occurrence promotes it to an ordered list.
type AttributeMap struct {
	keys   []string
	values map[string][]string
}

func NewAttributeMap() *AttributeMap {
	return &AttributeMap{values: make(map[string][]string)}
}

// Insert records value under key, keeping every occurrence in insertion order.
func (m *AttributeMap) Insert(key, value string) {
	if m.values == nil {
		m.values = make(map[string][]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append(m.values[key], value)
}

// Get returns the scalar for a single-occurrence key, or the first value of a
// promoted key.
func (m *AttributeMap) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	vals, ok := m.values[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Values returns every value recorded under key.
func (m *AttributeMap) Values(key string) []string {
	if m == nil {
		return nil
	}
	vals := m.values[key]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// IsList reports whether key has been promoted to a list.
func (m *AttributeMap) IsList(key string) bool {
	return m != nil && len(m.values[key]) > 1
}

func (m *AttributeMap) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.values[key]
	return ok
}

// Keys returns keys in first-seen order.
func (m *AttributeMap) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *AttributeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MarshalJSON writes scalars as strings and promoted keys as arrays, keeping
// first-seen key order.
func (m *AttributeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if m != nil {
		for i, key := range m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')

			var v []byte
			if vals := m.values[key]; len(vals) == 1 {
				v, err = json.Marshal(vals[0])
			} else {
				v, err = json.Marshal(vals)
			}
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
