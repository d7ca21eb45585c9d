package mesh

import (
	"errors"
	"fmt"

	"github.com/chazu/ribcore/pkg/param"
	"github.com/chazu/ribcore/pkg/xform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PositionName is the attribute holding vertex positions.
const PositionName = "P"

var (
	// ErrMalformedAttribute reports a value array of invalid shape.
	ErrMalformedAttribute = errors.New("malformed attribute")

	// ErrIndexOutOfRange reports a vertex index outside the position table,
	// or face counts that reach past the end of the index array.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrTrailingData reports vertex indices left over after every face
	// has been built.
	ErrTrailingData = errors.New("trailing data")
)

// IndexError locates a topology failure. It matches ErrIndexOutOfRange
// under errors.Is.
type IndexError struct {
	Face     int  // face being built
	Position int  // cursor position in the flat index array
	Index    int  // offending vertex index; unset when Short
	Limit    int  // vertex count, or length of the index array when Short
	Short    bool // the face count reaches past the end of the index array
}

func (e *IndexError) Error() string {
	if e.Short {
		return fmt.Sprintf("face %d: %s: face starting at position %d runs past %d indices",
			e.Face, ErrIndexOutOfRange, e.Position, e.Limit)
	}
	return fmt.Sprintf("face %d: %s: index %d at position %d, vertex count %d",
		e.Face, ErrIndexOutOfRange, e.Index, e.Position, e.Limit)
}

func (e *IndexError) Is(target error) bool { return target == ErrIndexOutOfRange }

// Decode rebuilds a face-vertex mesh from per-face vertex counts, the
// flattened vertex index stream and the "P" positions in store. The
// current transform is captured by value. Decode never modifies store.
//
// The sum of faceVertexCounts must equal len(vertexIndices) exactly.
func Decode(faceVertexCounts, vertexIndices []int, store *param.Store, current xform.Transform) (*Mesh, error) {
	points, err := positions(store)
	if err != nil {
		return nil, err
	}
	faces, err := buildFaces(faceVertexCounts, vertexIndices, len(points))
	if err != nil {
		return nil, err
	}
	return &Mesh{
		Faces:     faces,
		Points:    points,
		Transform: current,
	}, nil
}

// Subdivision carries the tag arguments of a subdivision mesh directive.
// NArgs holds an (int count, float count) pair per tag.
type Subdivision struct {
	Scheme    string
	Tags      []string
	NArgs     []int
	IntArgs   []int
	FloatArgs []float64
}

// DecodeSubdivision decodes a subdivision mesh. Topology and positions are
// validated exactly as in Decode; the tag arguments must be consistent
// with NArgs.
func DecodeSubdivision(sd Subdivision, faceVertexCounts, vertexIndices []int, store *param.Store, current xform.Transform) (*Mesh, error) {
	if sd.Scheme == "" {
		return nil, fmt.Errorf("subdivision scheme: %w: empty", ErrMalformedAttribute)
	}
	tags, err := buildTags(sd)
	if err != nil {
		return nil, err
	}
	m, err := Decode(faceVertexCounts, vertexIndices, store, current)
	if err != nil {
		return nil, err
	}
	m.Scheme = sd.Scheme
	m.Tags = tags
	return m, nil
}

// positions reads "P" and groups it into points.
func positions(store *param.Store) ([]v3.Vec, error) {
	p, err := param.Floats(store, PositionName)
	if err != nil {
		return nil, err
	}
	if len(p)%3 != 0 {
		return nil, fmt.Errorf("attribute %q: %w: %d values is not a multiple of 3",
			PositionName, ErrMalformedAttribute, len(p))
	}
	points := make([]v3.Vec, len(p)/3)
	for i := range points {
		points[i] = v3.Vec{X: p[3*i], Y: p[3*i+1], Z: p[3*i+2]}
	}
	return points, nil
}

// buildFaces walks the counts with a single forward cursor into indices.
func buildFaces(counts, indices []int, vertexCount int) ([][]int, error) {
	faces := make([][]int, 0, len(counts))
	cursor := 0
	for f, k := range counts {
		if k <= 0 {
			return nil, fmt.Errorf("face %d: %w: vertex count %d", f, ErrMalformedAttribute, k)
		}
		if k > len(indices)-cursor {
			return nil, &IndexError{Face: f, Position: cursor, Limit: len(indices), Short: true}
		}
		face := make([]int, k)
		for i := 0; i < k; i++ {
			idx := indices[cursor]
			if idx < 0 || idx >= vertexCount {
				return nil, &IndexError{Face: f, Position: cursor, Index: idx, Limit: vertexCount}
			}
			face[i] = idx
			cursor++
		}
		faces = append(faces, face)
	}
	if cursor != len(indices) {
		return nil, fmt.Errorf("%w: %d faces consume %d indices, %d given",
			ErrTrailingData, len(counts), cursor, len(indices))
	}
	return faces, nil
}

// buildTags checks the tag argument arrays and splits them per tag.
func buildTags(sd Subdivision) ([]Tag, error) {
	if len(sd.NArgs) != 2*len(sd.Tags) {
		return nil, fmt.Errorf("subdivision tags: %w: %d tags need %d nargs, got %d",
			ErrMalformedAttribute, len(sd.Tags), 2*len(sd.Tags), len(sd.NArgs))
	}
	tags := make([]Tag, 0, len(sd.Tags))
	ic, fc := 0, 0
	for i, name := range sd.Tags {
		ni, nf := sd.NArgs[2*i], sd.NArgs[2*i+1]
		if ni < 0 || nf < 0 {
			return nil, fmt.Errorf("subdivision tag %q: %w: negative argument count", name, ErrMalformedAttribute)
		}
		if ic+ni > len(sd.IntArgs) || fc+nf > len(sd.FloatArgs) {
			return nil, fmt.Errorf("subdivision tag %q: %w: arguments exceed supplied arrays", name, ErrMalformedAttribute)
		}
		tags = append(tags, Tag{
			Name:   name,
			Ints:   append([]int(nil), sd.IntArgs[ic:ic+ni]...),
			Floats: append([]float64(nil), sd.FloatArgs[fc:fc+nf]...),
		})
		ic += ni
		fc += nf
	}
	if ic != len(sd.IntArgs) || fc != len(sd.FloatArgs) {
		return nil, fmt.Errorf("subdivision tags: %w: %d int and %d float arguments unused",
			ErrMalformedAttribute, len(sd.IntArgs)-ic, len(sd.FloatArgs)-fc)
	}
	return tags, nil
}
