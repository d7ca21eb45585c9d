// Package param holds the typed, name-keyed parameter lists attached to
// scene directives. Every attribute records the kind of its values when it
// is built, and every typed read checks that kind before handing values out.
package param

import "fmt"

// Attribute is one named parameter list. The zero value is an empty float
// attribute with no name; use the New* constructors.
type Attribute struct {
	name    string
	kind    Kind
	floats  []float64
	ints    []int
	strings []string
}

// NewFloat builds a Float attribute. The values are copied.
func NewFloat(name string, values []float64) Attribute {
	return Attribute{name: name, kind: Float, floats: append([]float64(nil), values...)}
}

// NewInt builds an Int attribute. The values are copied.
func NewInt(name string, values []int) Attribute {
	return Attribute{name: name, kind: Int, ints: append([]int(nil), values...)}
}

// NewString builds a String attribute. The values are copied.
func NewString(name string, values []string) Attribute {
	return Attribute{name: name, kind: String, strings: append([]string(nil), values...)}
}

// Name returns the attribute's name.
func (a Attribute) Name() string { return a.name }

// Kind returns the kind recorded at construction.
func (a Attribute) Kind() Kind { return a.kind }

// Len returns the number of stored values.
func (a Attribute) Len() int {
	switch a.kind {
	case Int:
		return len(a.ints)
	case String:
		return len(a.strings)
	default:
		return len(a.floats)
	}
}

// Floats returns a copy of the values of a Float attribute.
func (a Attribute) Floats() ([]float64, error) {
	if a.kind != Float {
		return nil, a.mismatch(Float)
	}
	return append([]float64(nil), a.floats...), nil
}

// Ints returns a copy of the values of an Int attribute.
func (a Attribute) Ints() ([]int, error) {
	if a.kind != Int {
		return nil, a.mismatch(Int)
	}
	return append([]int(nil), a.ints...), nil
}

// Strings returns a copy of the values of a String attribute.
func (a Attribute) Strings() ([]string, error) {
	if a.kind != String {
		return nil, a.mismatch(String)
	}
	return append([]string(nil), a.strings...), nil
}

func (a Attribute) mismatch(want Kind) error {
	return &TypeError{Name: a.name, Want: want, Got: a.kind}
}

func (a Attribute) String() string {
	return fmt.Sprintf("%s %s[%d]", a.kind, a.name, a.Len())
}
