package analyzer

import (
	"context"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/ccfg/internal/parser"
)

// BuildOptions configures BuildAll
type BuildOptions struct {
	// MaxGoroutines bounds concurrent builds; 0 means GOMAXPROCS
	MaxGoroutines int

	// Function restricts the build to the named function when set
	Function string

	Logger *zap.Logger
}

// BuildResult holds the graphs of a translation unit in source order.
// A function whose construction failed has no graph; its error is in Errors.
type BuildResult struct {
	Graphs      []*CFG
	Errors      []error
	Diagnostics []*UnreachableCodeDiagnostic
}

// Err combines every per-function error, or returns nil
func (r *BuildResult) Err() error {
	return multierr.Combine(r.Errors...)
}

// Graph returns the graph of the named function
func (r *BuildResult) Graph(name string) (*CFG, bool) {
	for _, g := range r.Graphs {
		if g.name == name {
			return g, true
		}
	}
	return nil, false
}

// BuildAll builds the graph of every function in unit concurrently. A
// failure in one function never prevents the others from being built.
func BuildAll(ctx context.Context, unit *parser.Node, opts BuildOptions) *BuildResult {
	result := &BuildResult{}
	if unit == nil {
		return result
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var fns []*parser.Node
	for _, fn := range unit.Functions() {
		if opts.Function == "" || fn.Name == opts.Function {
			fns = append(fns, fn)
		}
	}

	limit := opts.MaxGoroutines
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	graphs := make([]*CFG, len(fns))
	errs := make([]error, len(fns))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, fn := range fns {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			builder := NewCFGBuilder()
			builder.SetLogger(logger)
			graphs[i], errs[i] = builder.Build(fn)
			return nil
		})
	}
	_ = g.Wait()

	for i := range fns {
		if errs[i] != nil {
			logger.Warn("function skipped",
				zap.String("function", fns[i].Name),
				zap.Error(errs[i]))
			result.Errors = append(result.Errors, errs[i])
			continue
		}
		result.Graphs = append(result.Graphs, graphs[i])
		result.Diagnostics = append(result.Diagnostics, graphs[i].diagnostics...)
	}
	return result
}
