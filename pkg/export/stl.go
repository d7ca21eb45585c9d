// Package export writes decoded meshes to files for external viewers.
package export

import (
	"errors"
	"fmt"

	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// ErrNoGeometry is returned when there are no triangles to write.
var ErrNoGeometry = errors.New("no geometry to export")

// Triangles collects the world-space triangles of every mesh.
func Triangles(meshes []*mesh.Mesh) []*sdf.Triangle3 {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		tris = append(tris, m.Triangles()...)
	}
	return tris
}

// WriteSTL writes the meshes to path as a single binary STL file.
func WriteSTL(path string, meshes []*mesh.Mesh) error {
	tris := Triangles(meshes)
	if len(tris) == 0 {
		return ErrNoGeometry
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("write stl %s: %w", path, err)
	}
	return nil
}
