// Package session holds the run-time state of one parse of a directive
// stream: the transform stack and the per-directive attribute stores.
//
// A Session is owned by a single parse and is not safe for concurrent use.
// Failures of one directive never change state seen by the next: a failed
// decode emits no mesh and leaves the stack alone, a refused pop leaves
// the stack unchanged.
package session

import (
	"errors"
	"io"
	"log/slog"

	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/chazu/ribcore/pkg/param"
	"github.com/chazu/ribcore/pkg/xform"
)

// Session is the state of one parse.
type Session struct {
	stack  *xform.Stack
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used to report dropped directives.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a session whose transform stack holds only the identity.
func New(opts ...Option) *Session {
	s := &Session{
		stack:  xform.NewStack(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transforms returns the session's transform stack.
func (s *Session) Transforms() *xform.Stack {
	return s.stack
}

// NewAttributeStore returns a fresh store for one primitive directive.
func (s *Session) NewAttributeStore() *param.Store {
	return param.NewStore()
}

// Reset returns the session to its initial state for a new parse.
func (s *Session) Reset() {
	s.stack.Reset()
}

// PopTransform closes the innermost scope. An underflow is logged and
// returned; the stack is left unchanged.
func (s *Session) PopTransform() error {
	err := s.stack.Pop()
	if err != nil {
		s.logger.Error("unbalanced scope: pop refused at session root", "error", err)
	}
	return err
}

// PointsPolygons decodes a polygon mesh against the current transform.
// On failure the directive is dropped: the error is logged and returned
// and no mesh is produced.
func (s *Session) PointsPolygons(nverts, verts []int, store *param.Store) (*mesh.Mesh, error) {
	m, err := mesh.Decode(nverts, verts, store, s.stack.Current())
	if err != nil {
		s.logDropped("PointsPolygons", err, store)
		return nil, err
	}
	return m, nil
}

// SubdivisionMesh decodes a subdivision mesh against the current transform.
// Failures are handled as in PointsPolygons.
func (s *Session) SubdivisionMesh(sd mesh.Subdivision, nverts, verts []int, store *param.Store) (*mesh.Mesh, error) {
	m, err := mesh.DecodeSubdivision(sd, nverts, verts, store, s.stack.Current())
	if err != nil {
		s.logDropped("SubdivisionMesh", err, store)
		return nil, err
	}
	return m, nil
}

func (s *Session) logDropped(directive string, err error, store *param.Store) {
	s.logger.Warn("primitive dropped",
		"directive", directive,
		"reason", Classify(err),
		"params", store.Names(),
		"error", err,
	)
}

// Classify names the failure class of a directive error.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, param.ErrTypeMismatch):
		return "TypeMismatch"
	case errors.Is(err, param.ErrMissingAttribute):
		return "MissingAttribute"
	case errors.Is(err, mesh.ErrMalformedAttribute):
		return "MalformedAttribute"
	case errors.Is(err, mesh.ErrIndexOutOfRange):
		return "IndexOutOfRange"
	case errors.Is(err, mesh.ErrTrailingData):
		return "TrailingData"
	case errors.Is(err, xform.ErrStackUnderflow):
		return "StackUnderflow"
	default:
		return "Other"
	}
}
