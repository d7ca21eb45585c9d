package mesh

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// TriangleMesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type TriangleMesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"partName"` // which directive this came from
}

// VertexCount returns the number of vertices.
func (m *TriangleMesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *TriangleMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *TriangleMesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Triangles fan-triangulates every face in world space. Faces with fewer
// than three vertices produce no triangles. A subdivision mesh is
// triangulated on its control cage.
func (m *Mesh) Triangles() []*sdf.Triangle3 {
	world := m.WorldPoints()
	flip := m.Transform.Determinant() < 0

	var tris []*sdf.Triangle3
	for _, f := range m.Faces {
		for i := 1; i+1 < len(f); i++ {
			a, b, c := world[f[0]], world[f[i]], world[f[i+1]]
			if flip {
				b, c = c, b
			}
			tris = append(tris, &sdf.Triangle3{a, b, c})
		}
	}
	return tris
}

// Flatten converts the mesh into the flat render format. Each triangle
// gets its own three vertices carrying the face normal.
func (m *Mesh) Flatten(name string) *TriangleMesh {
	triangles := m.Triangles()

	numVerts := len(triangles) * 3
	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		n := faceNormal(tri)
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &TriangleMesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     name,
	}
}

// faceNormal returns the unit normal, or zero for a degenerate triangle.
func faceNormal(tri *sdf.Triangle3) v3.Vec {
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	if e1.Cross(e2).Length() == 0 {
		return v3.Vec{}
	}
	return tri.Normal()
}
