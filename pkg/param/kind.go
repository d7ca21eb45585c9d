package param

import "fmt"

// Kind is the element type of an attribute's values.
type Kind int

const (
	Float Kind = iota
	Int
	String
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a RIB type name onto its storage kind and the number of
// values per element. Geometric types (point, normal, vector, color) are
// stored as floats.
func ParseKind(name string) (Kind, int, error) {
	switch name {
	case "float":
		return Float, 1, nil
	case "point", "normal", "vector", "color":
		return Float, 3, nil
	case "hpoint":
		return Float, 4, nil
	case "matrix":
		return Float, 16, nil
	case "int", "integer":
		return Int, 1, nil
	case "string":
		return String, 1, nil
	}
	return 0, 0, fmt.Errorf("unknown parameter type %q", name)
}
