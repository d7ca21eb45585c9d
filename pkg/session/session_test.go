package session

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/chazu/ribcore/pkg/param"
	"github.com/chazu/ribcore/pkg/xform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func quadStore(s *Session) *param.Store {
	st := s.NewAttributeStore()
	st.Add(param.NewFloat("P", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}))
	return st
}

func TestNewSessionIdentity(t *testing.T) {
	s := New()
	if got := s.Transforms().Current(); got != xform.Identity() {
		t.Errorf("Current() = %v, want identity", got)
	}
}

func TestFreshSessionPopUnderflow(t *testing.T) {
	s := New()
	err := s.PopTransform()
	if !errors.Is(err, xform.ErrStackUnderflow) {
		t.Fatalf("PopTransform() error = %v, want ErrStackUnderflow", err)
	}
	if got := s.Transforms().Current(); got != xform.Identity() {
		t.Errorf("Current() = %v, want identity after refused pop", got)
	}
}

func TestNestedScopesDriveMeshTransforms(t *testing.T) {
	s := New()
	ts := s.Transforms()

	ts.Push()
	ts.Apply(xform.Translate(v3.Vec{X: 10}))
	inner, err := s.PointsPolygons([]int{4}, []int{0, 1, 2, 3}, quadStore(s))
	if err != nil {
		t.Fatalf("PointsPolygons() error = %v", err)
	}
	if err := s.PopTransform(); err != nil {
		t.Fatal(err)
	}

	sibling, err := s.PointsPolygons([]int{4}, []int{0, 1, 2, 3}, quadStore(s))
	if err != nil {
		t.Fatal(err)
	}

	if want := xform.Translate(v3.Vec{X: 10}); inner.Transform != want {
		t.Errorf("inner mesh transform = %v, want %v", inner.Transform, want)
	}
	if sibling.Transform != xform.Identity() {
		t.Errorf("sibling mesh transform = %v, want identity", sibling.Transform)
	}
}

func TestFailedDecodeLeavesStateAlone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := New(WithLogger(logger))
	s.Transforms().Apply(xform.Scale(v3.Vec{X: 2, Y: 2, Z: 2}))
	before := s.Transforms().Current()

	m, err := s.PointsPolygons([]int{3}, []int{0, 1, 2}, s.NewAttributeStore())
	if !errors.Is(err, param.ErrMissingAttribute) {
		t.Fatalf("PointsPolygons() error = %v, want ErrMissingAttribute", err)
	}
	if m != nil {
		t.Error("expected no mesh for dropped directive")
	}
	if got := s.Transforms().Current(); got != before {
		t.Errorf("stack changed by failed decode: %v, want %v", got, before)
	}
	if !strings.Contains(buf.String(), "reason=MissingAttribute") {
		t.Errorf("log output missing reason: %q", buf.String())
	}

	// The next directive still succeeds.
	if _, err := s.PointsPolygons([]int{4}, []int{0, 1, 2, 3}, quadStore(s)); err != nil {
		t.Errorf("PointsPolygons() after dropped directive error = %v", err)
	}
}

func TestSubdivisionMesh(t *testing.T) {
	s := New()
	m, err := s.SubdivisionMesh(mesh.Subdivision{Scheme: "catmull-clark"}, []int{4}, []int{0, 1, 2, 3}, quadStore(s))
	if err != nil {
		t.Fatalf("SubdivisionMesh() error = %v", err)
	}
	if m.Scheme != "catmull-clark" {
		t.Errorf("Scheme = %q, want catmull-clark", m.Scheme)
	}

	if _, err := s.SubdivisionMesh(mesh.Subdivision{}, []int{4}, []int{0, 1, 2, 3}, quadStore(s)); !errors.Is(err, mesh.ErrMalformedAttribute) {
		t.Errorf("SubdivisionMesh(no scheme) error = %v, want ErrMalformedAttribute", err)
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Transforms().Push()
	s.Transforms().Apply(xform.Translate(v3.Vec{Y: 1}))
	s.Reset()
	if s.Transforms().Depth() != 0 {
		t.Errorf("Depth() after Reset = %d, want 0", s.Transforms().Depth())
	}
	if s.Transforms().Current() != xform.Identity() {
		t.Error("Current() after Reset is not identity")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.Transforms().Apply(xform.Translate(v3.Vec{Z: 1}))
	if b.Transforms().Current() != xform.Identity() {
		t.Error("transform applied to one session leaked into another")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&param.TypeError{Name: "P"}, "TypeMismatch"},
		{fmt.Errorf("x: %w", param.ErrMissingAttribute), "MissingAttribute"},
		{mesh.ErrMalformedAttribute, "MalformedAttribute"},
		{&mesh.IndexError{}, "IndexOutOfRange"},
		{mesh.ErrTrailingData, "TrailingData"},
		{xform.ErrStackUnderflow, "StackUnderflow"},
		{errors.New("boom"), "Other"},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
