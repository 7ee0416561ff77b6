package runner

import (
	"context"

	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/spec"
)

// Dispatcher turns one spec into one result.
type Dispatcher interface {
	Dispatch(ctx context.Context, s spec.RequestSpec) metrics.RequestResult
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(ctx context.Context, s spec.RequestSpec) metrics.RequestResult

func (f DispatchFunc) Dispatch(ctx context.Context, s spec.RequestSpec) metrics.RequestResult {
	return f(ctx, s)
}

// ResultObserver receives each result with its 1-based arrival index.
type ResultObserver func(index, total int, result metrics.RequestResult)

// Options configure the Runner.
type Options struct {
	Concurrency int            // max dispatches in flight; 0 means all at once
	Dispatcher  Dispatcher     // required
	OnResult    ResultObserver // optional, called serially in completion order
}

func (o *Options) normalize() {
	if o.Concurrency < 0 {
		o.Concurrency = 0
	}
}
