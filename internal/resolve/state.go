// Package resolve carries options through reference resolution as an
// immutable key/value state.
package resolve

// Key identifies a typed value carried by a State. Keys compare by identity,
// so two keys with the same name are still distinct.
type Key[T any] struct {
	name string
}

// NewKey creates a key; name is used only for display
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) String() string { return k.name }

// Defaults holds fallback values for keys missing from a State. Build it
// once at construction time; it is not safe to modify after States share it.
type Defaults struct {
	values map[any]any
}

// NewDefaults creates an empty defaults table
func NewDefaults() *Defaults {
	return &Defaults{values: make(map[any]any)}
}

// DefaultsTo records the fallback value for key and returns d for chaining
func DefaultsTo[T any](d *Defaults, key *Key[T], value T) *Defaults {
	d.values[key] = value
	return d
}

func (d *Defaults) lookup(key any) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// State is an immutable set of resolve options. The zero value is an empty
// state without defaults.
type State struct {
	defaults *Defaults
	values   map[any]any
}

// Initial returns the empty state backed by defaults
func Initial(defaults *Defaults) State {
	return State{defaults: defaults}
}

// Put returns a copy of s with key set to value
func Put[T any](s State, key *Key[T], value T) State {
	values := make(map[any]any, len(s.values)+1)
	for k, v := range s.values {
		values[k] = v
	}
	values[key] = value
	return State{defaults: s.defaults, values: values}
}

// Lookup returns the value for key, consulting the defaults when s has none
func Lookup[T any](s State, key *Key[T]) (T, bool) {
	if v, ok := s.values[key]; ok {
		return v.(T), true
	}
	if v, ok := s.defaults.lookup(key); ok {
		return v.(T), true
	}
	var zero T
	return zero, false
}

// Get returns the value for key, or the zero value when neither s nor its
// defaults carry one
func Get[T any](s State, key *Key[T]) T {
	v, _ := Lookup(s, key)
	return v
}

// Len returns the number of values set directly on s
func (s State) Len() int { return len(s.values) }
