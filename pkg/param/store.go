package param

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrTypeMismatch reports a typed read against an attribute of a
	// different kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrMissingAttribute reports a lookup of a name that is not stored.
	ErrMissingAttribute = errors.New("missing attribute")
)

// TypeError describes a typed read that disagreed with the stored kind.
// It matches ErrTypeMismatch under errors.Is.
type TypeError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("attribute %q: %s: requested %s, stored %s", e.Name, ErrTypeMismatch, e.Want, e.Got)
}

func (e *TypeError) Is(target error) bool { return target == ErrTypeMismatch }

// Value constrains the element types an attribute can hold.
type Value interface {
	float64 | int | string
}

// Store maps parameter names to attributes. One store backs one
// primitive directive; it is not safe for concurrent use.
type Store struct {
	attrs map[string]Attribute
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{attrs: make(map[string]Attribute)}
}

// Add inserts a, replacing any attribute already stored under its name.
func (s *Store) Add(a Attribute) {
	s.attrs[a.Name()] = a
}

// Get returns the attribute stored under name.
func (s *Store) Get(name string) (Attribute, bool) {
	a, ok := s.attrs[name]
	return a, ok
}

// Delete removes name from the store. Deleting an absent name is a no-op.
func (s *Store) Delete(name string) {
	delete(s.attrs, name)
}

// Len returns the number of stored attributes.
func (s *Store) Len() int {
	return len(s.attrs)
}

// Names returns the stored names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.attrs))
	for n := range s.attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns a copy of the values stored under name as []T. It fails
// with ErrMissingAttribute when the name is absent and with ErrTypeMismatch
// when T does not match the stored kind; no values are returned on failure.
func Values[T Value](s *Store, name string) ([]T, error) {
	a, ok := s.Get(name)
	if !ok {
		return nil, fmt.Errorf("attribute %q: %w", name, ErrMissingAttribute)
	}

	var out any
	var err error
	var zero T
	switch any(zero).(type) {
	case float64:
		out, err = a.Floats()
	case int:
		out, err = a.Ints()
	case string:
		out, err = a.Strings()
	}
	if err != nil {
		return nil, err
	}
	return out.([]T), nil
}

// Floats is Values[float64].
func Floats(s *Store, name string) ([]float64, error) {
	return Values[float64](s, name)
}

// Ints is Values[int].
func Ints(s *Store, name string) ([]int, error) {
	return Values[int](s, name)
}

// Strings is Values[string].
func Strings(s *Store, name string) ([]string, error) {
	return Values[string](s, name)
}
