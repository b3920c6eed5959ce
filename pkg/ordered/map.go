package ordered

import "iter"

// Map is a map that remembers insertion order. Deleting is O(n) in the number
// of keys, which is fine for the small registries it backs. Not safe for
// concurrent use.
type Map[K comparable, V any] struct {
	index map[K]int
	keys  []K
	vals  []V
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{index: make(map[K]int)}
}

// Set inserts or replaces. A replaced key keeps its original position.
func (m *Map[K, V]) Set(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, value)
}

func (m *Map[K, V]) Get(key K) (V, bool) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.vals[i], true
}

func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map[K, V]) Delete(key K) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Values returns a copy of the values in insertion order. Callers may mutate
// the map while walking the copy.
func (m *Map[K, V]) Values() []V {
	out := make([]V, len(m.vals))
	copy(out, m.vals)
	return out
}

// All yields key/value pairs in insertion order. The map must not be mutated
// during iteration; use Values for that.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

func (m *Map[K, V]) Clear() {
	clear(m.index)
	m.keys = m.keys[:0]
	m.vals = m.vals[:0]
}
