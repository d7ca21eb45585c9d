package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/ribcore/internal/config"
	"github.com/chazu/ribcore/internal/logging"
	"github.com/chazu/ribcore/pkg/engine"
	"github.com/chazu/ribcore/pkg/export"
	"github.com/chazu/ribcore/pkg/mesh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// errScriptFailed is returned when the script could not be evaluated.
// The JSON report has already been written at that point.
var errScriptFailed = errors.New("script evaluation failed")

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// MeshData is the JSON-serializable mesh format.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
	Scheme   string    `json:"scheme,omitempty"`
}

// EvalErrorData is a JSON-serializable script error or dropped directive.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Seq     int    `json:"seq,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// EvalResult is the full report printed by the eval command.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// evaluator runs scripts and converts engine output into the report format.
type evaluator struct {
	engine *engine.Engine
	logger *slog.Logger
}

func newEvaluator(cfg config.Config, logger *slog.Logger, metrics *engine.Metrics) *evaluator {
	return &evaluator{
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout),
			engine.WithLogger(logger),
			engine.WithMetrics(metrics),
		),
		logger: logger,
	}
}

// Evaluate takes script source and returns the report plus the decoded
// meshes in script order.
func (ev *evaluator) Evaluate(source string) (EvalResult, []*mesh.Mesh) {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the script.
	res, evalErrs, err := ev.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		ev.logger.Error("evaluate fatal error", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result, nil
	}

	// Step 2: Script errors stop everything.
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result, nil
	}

	// Step 3: Dropped directives become warnings.
	for _, de := range res.Errors {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: de.Error(),
			Seq:     de.Seq,
			Reason:  de.Reason,
		})
	}
	if res.Depth > 0 {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Message: fmt.Sprintf("%d scope(s) still open at end of script", res.Depth),
		})
	}

	// Step 4: Flatten each primitive into the render format.
	meshes := make([]*mesh.Mesh, 0, len(res.Primitives))
	for i, p := range res.Primitives {
		tm := p.Mesh.Flatten(p.Name)
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: tm.Vertices,
			Normals:  tm.Normals,
			Indices:  tm.Indices,
			PartName: tm.Name,
			Color:    colorPalette[i%len(colorPalette)],
			Scheme:   p.Mesh.Scheme,
		})
		meshes = append(meshes, p.Mesh)
	}

	return result, meshes
}

func newEvalCmd(opts *options) *cobra.Command {
	var stlPath string
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a scene script and print the meshes as JSON",
		Long:  `Evaluates the script (use - for stdin) and prints meshes, script errors and dropped directives as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			source, err := readScript(cmd.InOrStdin(), args[0], cfg.MaxScriptBytes)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			ev := newEvaluator(cfg, logger, engine.NewMetrics(reg))
			result, meshes := ev.Evaluate(source)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}

			if showMetrics {
				if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
					return err
				}
			}
			if len(result.Errors) > 0 {
				return errScriptFailed
			}

			if stlPath != "" {
				if err := export.WriteSTL(stlPath, meshes); err != nil {
					return err
				}
				logger.Info("wrote stl", "path", stlPath, "meshes", len(meshes))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stlPath, "stl", "", "also write all meshes to this binary STL file")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print directive counters to stderr")
	return cmd
}

// readScript reads the script at path, or stdin for "-", refusing
// anything larger than limit bytes.
func readScript(stdin io.Reader, path string, limit int64) (string, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("script exceeds %d bytes", limit)
	}
	return string(data), nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
