package nestfile

import (
	"iter"
	"slices"
)

// Mapping is an insertion-ordered collection of unique keys. The zero value
// and a nil *Mapping are both empty mappings; a nil one cannot be written to.
type Mapping struct {
	keys []Key
	vals map[Key]Value
}

func (*Mapping) Kind() Kind { return KindMapping }
func (*Mapping) sealed()    {}

func NewMapping() *Mapping {
	return &Mapping{}
}

// Set adds or replaces the value for k. A nil v is stored as None.
func (m *Mapping) Set(k Key, v Value) {
	if v == nil {
		v = None{}
	}
	if m.vals == nil {
		m.vals = make(map[Key]Value)
	}
	if _, found := m.vals[k]; !found {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// SetText is a shorthand for Set(TextKey(k), v).
func (m *Mapping) SetText(k string, v Value) {
	m.Set(TextKey(k), v)
}

func (m *Mapping) Get(k Key) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, found := m.vals[k]
	return v, found
}

// GetText is a shorthand for Get(TextKey(k)).
func (m *Mapping) GetText(k string) (Value, bool) {
	return m.Get(TextKey(k))
}

func (m *Mapping) Delete(k Key) {
	if m == nil {
		return
	}
	if _, found := m.vals[k]; !found {
		return
	}
	delete(m.vals, k)
	m.keys = slices.DeleteFunc(m.keys, func(e Key) bool { return e == k })
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []Key {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All iterates over the entries in insertion order.
func (m *Mapping) All() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

func (m *Mapping) equal(o *Mapping) bool {
	if m.Len() != o.Len() {
		return false
	}
	for k, v := range m.All() {
		ov, found := o.Get(k)
		if !found || !Equal(v, ov) {
			return false
		}
	}
	return true
}
