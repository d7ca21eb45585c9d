package param

import (
	"fmt"
	"strconv"
	"strings"
)

// storage classes accepted in an inline declaration.
var classes = map[string]bool{
	"constant":    true,
	"uniform":     true,
	"varying":     true,
	"vertex":      true,
	"facevarying": true,
	"facevertex":  true,
}

// Declaration is a parsed parameter name such as "vertex point P" or
// "uniform float[2] st".
type Declaration struct {
	Class string // storage class, empty if not given
	Type  string // RIB type name, empty if the name was undeclared
	Name  string
	Kind  Kind
	Arity int // values per element
}

// Typed reports whether the declaration carried an explicit type.
func (d Declaration) Typed() bool { return d.Type != "" }

// wellKnown lists standard names whose type is implied when a stream does
// not declare them inline.
var wellKnown = map[string]string{
	"P":  "point",
	"N":  "normal",
	"Cs": "color",
	"Os": "color",
	"s":  "float",
	"t":  "float",
	"st": "float[2]",
}

// ParseDeclaration splits an inline parameter declaration into its parts.
// A bare name yields an untyped declaration unless it is a standard name
// like P or N.
func ParseDeclaration(decl string) (Declaration, error) {
	fields := strings.Fields(decl)
	var d Declaration
	switch len(fields) {
	case 0:
		return d, fmt.Errorf("empty parameter declaration")
	case 1:
		d.Name = fields[0]
		typ, ok := wellKnown[d.Name]
		if !ok {
			return d, nil
		}
		d.Type = typ
	case 2:
		d.Type, d.Name = fields[0], fields[1]
	case 3:
		d.Class, d.Type, d.Name = fields[0], fields[1], fields[2]
		if !classes[d.Class] {
			return d, fmt.Errorf("declaration %q: unknown storage class %q", decl, d.Class)
		}
	default:
		return d, fmt.Errorf("declaration %q: too many fields", decl)
	}

	base, count, err := splitArray(d.Type)
	if err != nil {
		return d, fmt.Errorf("declaration %q: %w", decl, err)
	}
	kind, arity, err := ParseKind(base)
	if err != nil {
		return d, fmt.Errorf("declaration %q: %w", decl, err)
	}
	d.Kind = kind
	d.Arity = arity * count
	return d, nil
}

// splitArray parses "float[2]" into ("float", 2).
func splitArray(typ string) (string, int, error) {
	open := strings.IndexByte(typ, '[')
	if open < 0 {
		return typ, 1, nil
	}
	if !strings.HasSuffix(typ, "]") {
		return "", 0, fmt.Errorf("malformed array type %q", typ)
	}
	n, err := strconv.Atoi(typ[open+1 : len(typ)-1])
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("malformed array size in %q", typ)
	}
	return typ[:open], n, nil
}
