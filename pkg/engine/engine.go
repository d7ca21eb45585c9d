// Package engine evaluates scene scripts: Lisp programs whose calls are
// scene directives (transform-begin, translate, points-polygons, ...).
// It wraps zygomys in a sandboxed environment and drives a fresh
// session.Session per evaluation, collecting the decoded meshes and the
// directives that were dropped.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/chazu/ribcore/pkg/session"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents an error that stops a script, such as a parse
// error or a call to an unknown function.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// DirectiveError records one dropped directive. The script keeps running.
type DirectiveError struct {
	Seq       int    // 1-based position of the directive in the script
	Directive string // e.g. "points-polygons"
	Reason    string // failure class, e.g. "IndexOutOfRange"
	Err       error
}

func (e DirectiveError) Error() string {
	return fmt.Sprintf("directive %d (%s): %s: %v", e.Seq, e.Directive, e.Reason, e.Err)
}

func (e DirectiveError) Unwrap() error { return e.Err }

// Primitive is one decoded mesh together with where it came from.
type Primitive struct {
	Seq       int
	Directive string
	Name      string
	Mesh      *mesh.Mesh
}

// Result bundles the output of a successful evaluation.
type Result struct {
	Primitives []Primitive
	Errors     []DirectiveError
	Depth      int // scopes still open when the script ended
}

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrSuperseded is returned by an Evaluate call whose script finished
	// after a newer Evaluate call had started.
	ErrSuperseded = errors.New("evaluation superseded by newer request")

	// ErrTimeout is returned when a script outlives the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
)

// evalResult carries one evaluation back from its goroutine.
type evalResult struct {
	result *Result
	errors []EvalError
	err    error
}

// Engine wraps the zygomys interpreter for scene script evaluation. Each
// call to Evaluate creates a fresh sandbox and a fresh session.
//
// Evaluate may be called from several goroutines, but only the latest
// call is live. An earlier call whose script finishes after a newer call
// started returns ErrSuperseded instead of its result.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout overrides EvalTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger handed to each evaluation's session.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records directive counts in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		timeout: EvalTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs a scene script and returns the decoded primitives.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error. Dropped
//     directives are listed in Result.Errors.
//   - On parse/eval failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// wait blocks until ch delivers or the timeout fires. A result from an
// older generation than the engine's current one is discarded. On timeout
// the evaluating goroutine keeps running and its result is dropped.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*Result, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.result, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Result, []EvalError, error) {
	// Empty source is a valid script that produces nothing.
	if strings.TrimSpace(source) == "" {
		return &Result{}, nil, nil
	}

	// Sandbox mode prevents scripts from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	st := &evalState{
		sess:    session.New(session.WithLogger(e.logger)),
		result:  &Result{},
		logger:  e.logger,
		metrics: e.metrics,
	}
	registerBuiltins(env, st)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	st.result.Depth = st.sess.Transforms().Depth()
	if st.result.Depth > 0 {
		e.logger.Warn("script ended with open scopes", "depth", st.result.Depth)
	}
	e.logger.Info("evaluation finished",
		"primitives", len(st.result.Primitives),
		"dropped", len(st.result.Errors),
	)
	return st.result, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
