package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/ludo-technologies/ccfg/domain"
	"github.com/ludo-technologies/ccfg/internal/config"
)

const (
	// DefaultMaxConcurrency is the fallback when the configured limit is invalid
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 5 * time.Minute
)

// TaskError names the analysis that failed
type TaskError struct {
	TaskName string
	Err      error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("[%s] %v", e.TaskName, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

// TaskErrors splits an Execute error back into its per-task failures
func TaskErrors(err error) []TaskError {
	var out []TaskError
	for _, e := range multierr.Errors(err) {
		if te, ok := e.(TaskError); ok {
			out = append(out, te)
		}
	}
	return out
}

// ParallelExecutorImpl runs the analyses of one run side by side
type ParallelExecutorImpl struct {
	maxConcurrency int
	timeout        time.Duration
	progress       domain.ProgressManager
	mu             sync.RWMutex
}

// NewParallelExecutor uses one slot per CPU and DefaultTimeout
func NewParallelExecutor() *ParallelExecutorImpl {
	return &ParallelExecutorImpl{
		maxConcurrency: runtime.NumCPU(),
		timeout:        DefaultTimeout,
	}
}

// NewParallelExecutorFromConfig reads limits from the performance section
func NewParallelExecutorFromConfig(cfg *config.PerformanceConfig) *ParallelExecutorImpl {
	e := &ParallelExecutorImpl{
		maxConcurrency: DefaultMaxConcurrency,
		timeout:        DefaultTimeout,
	}
	if cfg == nil {
		return e
	}
	if cfg.MaxGoroutines > 0 {
		e.maxConcurrency = cfg.MaxGoroutines
	}
	if cfg.TimeoutSeconds > 0 {
		e.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return e
}

// NewParallelExecutorWithProgress creates an executor that reports finished tasks
func NewParallelExecutorWithProgress(cfg *config.PerformanceConfig, pm domain.ProgressManager) *ParallelExecutorImpl {
	e := NewParallelExecutorFromConfig(cfg)
	e.progress = pm
	return e
}

// Execute runs every enabled task. A failing task does not stop the
// others; all failures come back combined, one TaskError each.
func (e *ParallelExecutorImpl) Execute(ctx context.Context, tasks []domain.ExecutableTask) error {
	enabled := e.filterEnabledTasks(tasks)
	if len(enabled) == 0 {
		return nil
	}

	e.mu.RLock()
	limit, timeout := e.maxConcurrency, e.timeout
	e.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var progress domain.TaskProgress = &NoOpTaskProgress{}
	if e.progress != nil {
		progress = e.progress.StartTask("Running analyses", len(enabled))
	}
	defer progress.Complete()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	var combined error
	for _, t := range enabled {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				mu.Lock()
				combined = multierr.Append(combined, TaskError{TaskName: t.Name(), Err: err})
				mu.Unlock()
				return nil
			}

			_, err := t.Execute(gCtx)
			progress.Increment(1)
			if err != nil {
				mu.Lock()
				combined = multierr.Append(combined, TaskError{TaskName: t.Name(), Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return combined
}

// SetMaxConcurrency ignores non-positive limits
func (e *ParallelExecutorImpl) SetMaxConcurrency(max int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if max > 0 {
		e.maxConcurrency = max
	}
}

// SetTimeout ignores non-positive durations
func (e *ParallelExecutorImpl) SetTimeout(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if timeout > 0 {
		e.timeout = timeout
	}
}

func (e *ParallelExecutorImpl) filterEnabledTasks(tasks []domain.ExecutableTask) []domain.ExecutableTask {
	enabled := make([]domain.ExecutableTask, 0, len(tasks))
	for _, t := range tasks {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
