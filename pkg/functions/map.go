package functions

// Map is a string-keyed mapping that remembers insertion order. Setting an
// existing key keeps its original position.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// MapOf builds a Map from alternating key/value pairs.
func MapOf(pairs ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		k, _ := pairs[i].(string)
		m.Set(k, MustFromAny(pairs[i+1]))
	}
	return m
}

// Len returns the number of entries. A nil Map is empty.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Null, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set adds or replaces an entry. The zero Map is ready to use.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = map[string]Value{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Filter returns a new Map holding the entries for which keep returns true.
func (m *Map) Filter(keep func(key string, v Value) bool) *Map {
	out := NewMap()
	m.Range(func(k string, v Value) bool {
		if keep(k, v) {
			out.Set(k, v)
		}
		return true
	})
	return out
}

// Equal compares entries. Order is not significant.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	equal := true
	m.Range(func(k string, v Value) bool {
		ov, ok := o.Get(k)
		if !ok || !v.Equal(ov) {
			equal = false
		}
		return equal
	})
	return equal
}
