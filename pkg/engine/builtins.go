package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/chazu/ribcore/pkg/param"
	"github.com/chazu/ribcore/pkg/session"
	"github.com/chazu/ribcore/pkg/xform"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ErrBadArgument reports a directive argument of the wrong shape or type.
var ErrBadArgument = errors.New("bad argument")

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func badArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadArgument, fmt.Sprintf(format, args...))
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, badArg("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, badArg("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", badArg("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toItems converts a list or array to a Go slice. Any other value is
// treated as a one-element list.
func toItems(s zygo.Sexp) []zygo.Sexp {
	switch v := s.(type) {
	case *zygo.SexpArray:
		return v.Val
	case *zygo.SexpPair:
		items, err := zygo.ListToArray(v)
		if err == nil {
			return items
		}
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil
		}
	}
	return []zygo.Sexp{s}
}

func toFloats(s zygo.Sexp) ([]float64, error) {
	items := toItems(s)
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := toFloat64(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

func toInts(s zygo.Sexp) ([]int, error) {
	items := toItems(s)
	out := make([]int, len(items))
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func toStrings(s zygo.Sexp) ([]string, error) {
	items := toItems(s)
	out := make([]string, len(items))
	for i, item := range items {
		str, err := toString(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = str
	}
	return out, nil
}

// inferKind picks the kind of an undeclared parameter from its elements:
// strings stay strings, any float makes the list Float, else Int.
func inferKind(items []zygo.Sexp) (param.Kind, error) {
	var strs, floats, ints int
	for _, item := range items {
		switch item.(type) {
		case *zygo.SexpStr:
			strs++
		case *zygo.SexpFloat:
			floats++
		case *zygo.SexpInt:
			ints++
		default:
			return 0, badArg("unsupported parameter value %T (%s)", item, item.SexpString(nil))
		}
	}
	switch {
	case strs > 0 && floats+ints > 0:
		return 0, badArg("parameter mixes strings and numbers")
	case strs > 0:
		return param.String, nil
	case ints > 0 && floats == 0:
		return param.Int, nil
	default:
		return param.Float, nil
	}
}

// toAttribute builds the attribute for one "name" value pair. A declared
// type wins over the element types; integers are accepted for floats.
func toAttribute(decl param.Declaration, v zygo.Sexp) (param.Attribute, error) {
	kind := decl.Kind
	if !decl.Typed() {
		k, err := inferKind(toItems(v))
		if err != nil {
			return param.Attribute{}, err
		}
		kind = k
	}

	switch kind {
	case param.Int:
		vals, err := toInts(v)
		if err != nil {
			return param.Attribute{}, err
		}
		return param.NewInt(decl.Name, vals), nil
	case param.String:
		vals, err := toStrings(v)
		if err != nil {
			return param.Attribute{}, err
		}
		return param.NewString(decl.Name, vals), nil
	default:
		vals, err := toFloats(v)
		if err != nil {
			return param.Attribute{}, err
		}
		return param.NewFloat(decl.Name, vals), nil
	}
}

// fillStore adds one attribute per name/value pair to store.
func fillStore(store *param.Store, pairs []zygo.Sexp) error {
	if len(pairs)%2 != 0 {
		return badArg("parameter list has %d elements, want name/value pairs", len(pairs))
	}
	for i := 0; i < len(pairs); i += 2 {
		name, err := toString(pairs[i])
		if err != nil {
			return fmt.Errorf("parameter name: %w", err)
		}
		decl, err := param.ParseDeclaration(name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		attr, err := toAttribute(decl, pairs[i+1])
		if err != nil {
			return fmt.Errorf("parameter %q: %w", decl.Name, err)
		}
		store.Add(attr)
	}
	return nil
}

func toVec3(args []zygo.Sexp) (v3.Vec, error) {
	var xyz [3]float64
	for i := range xyz {
		f, err := toFloat64(args[i])
		if err != nil {
			return v3.Vec{}, err
		}
		xyz[i] = f
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func wantArgs(args []zygo.Sexp, n int) error {
	if len(args) != n {
		return badArg("expected %d arguments, got %d", n, len(args))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Evaluation state
// ---------------------------------------------------------------------------

// evalState is the per-evaluation state the builtins close over.
type evalState struct {
	sess    *session.Session
	result  *Result
	logger  *slog.Logger
	metrics *Metrics
	seq     int
}

// directiveFunc implements one directive. A returned error drops the
// directive; the script continues.
type directiveFunc func(seq int, args []zygo.Sexp) error

// add registers a directive under its kebab-case name.
func (st *evalState) add(env *zygo.Zlisp, name string, fn directiveFunc) {
	env.AddFunction(strings.ReplaceAll(name, "-", "_"), func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
		st.seq++
		st.metrics.directive(name)
		if err := fn(st.seq, args); err != nil {
			st.drop(st.seq, name, err)
		}
		return zygo.SexpNull, nil
	})
}

func (st *evalState) drop(seq int, name string, err error) {
	reason := session.Classify(err)
	if errors.Is(err, ErrBadArgument) {
		reason = "BadArgument"
		st.logger.Warn("directive dropped", "seq", seq, "directive", name, "error", err)
	}
	st.result.Errors = append(st.result.Errors, DirectiveError{
		Seq:       seq,
		Directive: name,
		Reason:    reason,
		Err:       err,
	})
	st.metrics.drop(name, reason)
}

func (st *evalState) emit(seq int, directive string, kw map[string]zygo.Sexp, m *mesh.Mesh) error {
	name := fmt.Sprintf("%s-%d", directive, seq)
	if v, ok := kw["name"]; ok {
		s, err := toString(v)
		if err != nil {
			return fmt.Errorf("name: %w", err)
		}
		name = s
	}
	st.result.Primitives = append(st.result.Primitives, Primitive{
		Seq:       seq,
		Directive: directive,
		Name:      name,
		Mesh:      m,
	})
	st.metrics.decoded(m.FaceCount())
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene directives into a zygomys environment.
// Source must go through preprocessSource so that kebab-case names and
// :keywords are recognized.
func registerBuiltins(env *zygo.Zlisp, st *evalState) {
	stack := st.sess.Transforms()

	push := func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 0); err != nil {
			return err
		}
		stack.Push()
		return nil
	}
	pop := func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 0); err != nil {
			return err
		}
		return st.sess.PopTransform()
	}

	// (transform-begin) ... (transform-end)
	st.add(env, "transform-begin", push)
	st.add(env, "transform-end", pop)

	// Attribute scopes also save the transform; other attribute state is
	// not modeled.
	st.add(env, "attribute-begin", push)
	st.add(env, "attribute-end", pop)

	// (identity)
	st.add(env, "identity", func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 0); err != nil {
			return err
		}
		stack.Set(xform.Identity())
		return nil
	})

	// (translate 1 0 0)
	st.add(env, "translate", func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 3); err != nil {
			return err
		}
		v, err := toVec3(args)
		if err != nil {
			return err
		}
		stack.Apply(xform.Translate(v))
		return nil
	})

	// (scale 2 2 2)
	st.add(env, "scale", func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 3); err != nil {
			return err
		}
		v, err := toVec3(args)
		if err != nil {
			return err
		}
		stack.Apply(xform.Scale(v))
		return nil
	})

	// (rotate 90 0 0 1)
	st.add(env, "rotate", func(_ int, args []zygo.Sexp) error {
		if err := wantArgs(args, 4); err != nil {
			return err
		}
		angle, err := toFloat64(args[0])
		if err != nil {
			return err
		}
		axis, err := toVec3(args[1:])
		if err != nil {
			return err
		}
		stack.Apply(xform.Rotate(angle, axis))
		return nil
	})

	// (concat-transform [16 values]) and (transform [16 values])
	matrix := func(args []zygo.Sexp) (xform.Transform, error) {
		if err := wantArgs(args, 1); err != nil {
			return xform.Transform{}, err
		}
		vals, err := toFloats(args[0])
		if err != nil {
			return xform.Transform{}, err
		}
		t, err := xform.FromRIB(vals)
		if err != nil {
			return xform.Transform{}, fmt.Errorf("%w: %v", ErrBadArgument, err)
		}
		return t, nil
	}
	st.add(env, "concat-transform", func(_ int, args []zygo.Sexp) error {
		t, err := matrix(args)
		if err != nil {
			return err
		}
		stack.Apply(t)
		return nil
	})
	st.add(env, "transform", func(_ int, args []zygo.Sexp) error {
		t, err := matrix(args)
		if err != nil {
			return err
		}
		stack.Set(t)
		return nil
	})

	// (points-polygons [3 4] [0 1 2 1 2 3 4] "P" [...] :name "floor")
	st.add(env, "points-polygons", func(seq int, args []zygo.Sexp) error {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return badArg("points-polygons requires nverts and verts")
		}
		nverts, err := toInts(pa.positional[0])
		if err != nil {
			return fmt.Errorf("nverts: %w", err)
		}
		verts, err := toInts(pa.positional[1])
		if err != nil {
			return fmt.Errorf("verts: %w", err)
		}
		store := st.sess.NewAttributeStore()
		if err := fillStore(store, pa.positional[2:]); err != nil {
			return err
		}

		m, err := st.sess.PointsPolygons(nverts, verts, store)
		if err != nil {
			return err
		}
		return st.emit(seq, "points-polygons", pa.kw, m)
	})

	// (subdivision-mesh "catmull-clark" nverts verts tags nargs intargs floatargs "P" [...])
	st.add(env, "subdivision-mesh", func(seq int, args []zygo.Sexp) error {
		pa := parseArgs(args)
		if len(pa.positional) < 7 {
			return badArg("subdivision-mesh requires scheme, nverts, verts, tags, nargs, intargs and floatargs")
		}
		p := pa.positional

		var sd mesh.Subdivision
		var err error
		if sd.Scheme, err = toString(p[0]); err != nil {
			return fmt.Errorf("scheme: %w", err)
		}
		nverts, err := toInts(p[1])
		if err != nil {
			return fmt.Errorf("nverts: %w", err)
		}
		verts, err := toInts(p[2])
		if err != nil {
			return fmt.Errorf("verts: %w", err)
		}
		if sd.Tags, err = toStrings(p[3]); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		if sd.NArgs, err = toInts(p[4]); err != nil {
			return fmt.Errorf("nargs: %w", err)
		}
		if sd.IntArgs, err = toInts(p[5]); err != nil {
			return fmt.Errorf("intargs: %w", err)
		}
		if sd.FloatArgs, err = toFloats(p[6]); err != nil {
			return fmt.Errorf("floatargs: %w", err)
		}

		store := st.sess.NewAttributeStore()
		if err := fillStore(store, p[7:]); err != nil {
			return err
		}

		m, err := st.sess.SubdivisionMesh(sd, nverts, verts, store)
		if err != nil {
			return err
		}
		return st.emit(seq, "subdivision-mesh", pa.kw, m)
	})
}
