// Package mesh decodes face-vertex meshes from the flat topology arrays of
// a polygon or subdivision directive and provides the geometry record handed
// to the scene-graph builder.
package mesh

import (
	"github.com/chazu/ribcore/pkg/xform"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a decoded face-vertex mesh. It is read-only once returned.
// Points are in the local frame of the directive; Transform maps them to
// world space.
type Mesh struct {
	Faces     [][]int // per face, indices into Points
	Points    []v3.Vec
	Transform xform.Transform // transform in effect at decode time
	Scheme    string          // subdivision scheme, empty for polygons
	Tags      []Tag           // subdivision tags
}

// Tag is one subdivision tag with its arguments, e.g. "crease".
type Tag struct {
	Name   string
	Ints   []int
	Floats []float64
}

// VertexCount returns the number of points.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IndexCount returns the total number of vertex indices across all faces.
func (m *Mesh) IndexCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}

// IsEmpty returns true if the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// IsSubdivision reports whether the mesh came from a subdivision directive.
func (m *Mesh) IsSubdivision() bool {
	return m.Scheme != ""
}

// WorldPoints returns the points mapped through the captured transform.
func (m *Mesh) WorldPoints() []v3.Vec {
	out := make([]v3.Vec, len(m.Points))
	for i, p := range m.Points {
		out[i] = m.Transform.MulPosition(p)
	}
	return out
}

// Bounds returns the world-space bounding box of the points referenced
// by faces. An empty mesh has a zero box.
func (m *Mesh) Bounds() sdf.Box3 {
	var box sdf.Box3
	first := true
	for _, f := range m.Faces {
		for _, idx := range f {
			p := m.Transform.MulPosition(m.Points[idx])
			if first {
				box = sdf.Box3{Min: p, Max: p}
				first = false
				continue
			}
			box.Min = box.Min.Min(p)
			box.Max = box.Max.Max(p)
		}
	}
	return box
}
