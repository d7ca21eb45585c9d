// Package xform provides affine transforms and the nested transform stack
// that tracks the current coordinate frame of a directive stream.
package xform

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a 4x4 affine matrix in mgl64 layout (column-major storage).
// Points are column vectors: p' = T·p, so the translation lives in the
// last column. Transform is a comparable value; == is exact element-wise
// equality.
type Transform mgl64.Mat4

// Identity returns the identity transform.
func Identity() Transform {
	return Transform(mgl64.Ident4())
}

// Translate returns a translation by v.
func Translate(v v3.Vec) Transform {
	return Transform(mgl64.Translate3D(v.X, v.Y, v.Z))
}

// Scale returns a non-uniform scale by v.
func Scale(v v3.Vec) Transform {
	return Transform(mgl64.Scale3D(v.X, v.Y, v.Z))
}

// Rotate returns a rotation of angle degrees about axis, right-handed.
// A zero-length axis yields the identity.
func Rotate(angle float64, axis v3.Vec) Transform {
	l := axis.Length()
	if l == 0 {
		return Identity()
	}
	a := axis.DivScalar(l)
	return Transform(mgl64.HomogRotate3D(mgl64.DegToRad(angle), mgl64.Vec3{a.X, a.Y, a.Z}))
}

// rows reads 16 row-major values.
func rows(values []float64) mgl64.Mat4 {
	row := func(i int) mgl64.Vec4 {
		return mgl64.Vec4{values[4*i], values[4*i+1], values[4*i+2], values[4*i+3]}
	}
	return mgl64.Mat4FromRows(row(0), row(1), row(2), row(3))
}

// FromRows builds a transform from 16 row-major values in this package's
// column-vector convention.
func FromRows(values []float64) (Transform, error) {
	if len(values) != 16 {
		return Transform{}, fmt.Errorf("transform needs 16 values, got %d", len(values))
	}
	return Transform(rows(values)), nil
}

// FromRIB builds a transform from the 16 values of a RIB matrix argument
// (ConcatTransform, Transform). RIB matrices act on row vectors with the
// translation in the last row, so the values are transposed.
func FromRIB(values []float64) (Transform, error) {
	if len(values) != 16 {
		return Transform{}, fmt.Errorf("RIB matrix needs 16 values, got %d", len(values))
	}
	return Transform(rows(values).Transpose()), nil
}

// Mat4 returns t as an mgl64 matrix.
func (t Transform) Mat4() mgl64.Mat4 {
	return mgl64.Mat4(t)
}

// At returns the element at row, col.
func (t Transform) At(row, col int) float64 {
	return t.Mat4().At(row, col)
}

// Mul returns t·u: u is applied first, then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform(t.Mat4().Mul4(u.Mat4()))
}

// MulPosition transforms a point, including translation.
func (t Transform) MulPosition(p v3.Vec) v3.Vec {
	r := t.Mat4().Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return v3.Vec{X: r[0], Y: r[1], Z: r[2]}
}

// MulDirection transforms a direction, ignoring translation.
func (t Transform) MulDirection(d v3.Vec) v3.Vec {
	r := t.Mat4().Mat3().Mul3x1(mgl64.Vec3{d.X, d.Y, d.Z})
	return v3.Vec{X: r[0], Y: r[1], Z: r[2]}
}

// Determinant returns the determinant of the linear 3x3 part. A negative
// value means the transform flips handedness.
func (t Transform) Determinant() float64 {
	return t.Mat4().Mat3().Det()
}

// Equals reports whether every element of t and u differs by at most tol.
func (t Transform) Equals(u Transform, tol float64) bool {
	return t.Mat4().ApproxFuncEqual(u.Mat4(), func(a, b float64) bool {
		return math.Abs(a-b) <= tol
	})
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}
