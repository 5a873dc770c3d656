package modifier

import "sort"

// Values is the typed, read-only result of parsing raw modifier input.
// Keys are canonical modifier names. Built only by Registry.ParseValues.
type Values struct {
	values map[string]any
}

// Len returns the number of set modifiers.
func (v Values) Len() int {
	return len(v.values)
}

// Has reports whether the named modifier is set.
func (v Values) Has(name string) bool {
	_, ok := v.values[name]
	return ok
}

// Int returns the named modifier as an int.
func (v Values) Int(name string) (int, bool) {
	n, ok := v.values[name].(int)
	return n, ok
}

// Float returns the named modifier as a float64.
func (v Values) Float(name string) (float64, bool) {
	f, ok := v.values[name].(float64)
	return f, ok
}

// String returns the named modifier as a string.
func (v Values) String(name string) (string, bool) {
	s, ok := v.values[name].(string)
	return s, ok
}

// Bool reports whether a flag modifier is set to true.
func (v Values) Bool(name string) bool {
	b, ok := v.values[name].(bool)
	return ok && b
}

// Get returns the raw typed value.
func (v Values) Get(name string) (any, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Names returns the set modifier names in canonical sorted order.
func (v Values) Names() []string {
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
