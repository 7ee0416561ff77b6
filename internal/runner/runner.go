package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/spec"
)

// ErrNoDispatcher is returned by Run when Options.Dispatcher is nil.
var ErrNoDispatcher = errors.New("runner: dispatcher is required")

// TaskError reports a dispatch that aborted instead of producing a result.
type TaskError struct {
	Position int // 0-based position in the input
	Name     string
	Value    interface{}
	Stack    []byte
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("request %d (%s) aborted: %v", e.Position+1, e.Name, e.Value)
}

// Report is the outcome of a completed run.
type Report struct {
	Results  []metrics.RequestResult // completion order
	Summary  metrics.TestSummary
	Stats    metrics.Stats
	Duration time.Duration
}

// Runner dispatches a batch of specs concurrently.
type Runner struct {
	opt Options
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt}
}

// Run dispatches every spec once and waits for all of them. Results are
// collected as they complete and OnResult is called for each from the calling
// goroutine.
func (r *Runner) Run(ctx context.Context, specs []spec.RequestSpec) (Report, error) {
	if r.opt.Dispatcher == nil {
		return Report{}, ErrNoDispatcher
	}

	start := time.Now()
	total := len(specs)
	collector := metrics.NewCollector()

	// Buffered to total so no dispatch waits on the consumer.
	results := make(chan metrics.RequestResult, total)

	var (
		mu     sync.Mutex
		aborts *multierror.Error
	)

	var g errgroup.Group
	if r.opt.Concurrency > 0 {
		g.SetLimit(r.opt.Concurrency)
	}

	// Go blocks once the limit is reached, so submission runs beside the consumer.
	go func() {
		for i, s := range specs {
			g.Go(func() error {
				res, err := r.dispatch(ctx, i, s)
				if err != nil {
					mu.Lock()
					aborts = multierror.Append(aborts, err)
					mu.Unlock()
					return nil
				}
				results <- res
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	collected := make([]metrics.RequestResult, 0, total)
	for res := range results {
		collected = append(collected, res)
		collector.RecordResult(res)
		if r.opt.OnResult != nil {
			r.opt.OnResult(len(collected), total, res)
		}
	}

	mu.Lock()
	err := aborts.ErrorOrNil()
	mu.Unlock()
	if err != nil {
		return Report{}, err
	}

	elapsed := time.Since(start)
	return Report{
		Results:  collected,
		Summary:  metrics.Summarize(total, collected),
		Stats:    collector.Stats(elapsed),
		Duration: elapsed,
	}, nil
}

func (r *Runner) dispatch(ctx context.Context, position int, s spec.RequestSpec) (res metrics.RequestResult, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &TaskError{
				Position: position,
				Name:     s.DisplayName(),
				Value:    v,
				Stack:    debug.Stack(),
			}
		}
	}()
	return r.opt.Dispatcher.Dispatch(ctx, s), nil
}
