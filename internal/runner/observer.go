package runner

import "github.com/torosent/httpbatch/internal/metrics"

// FailureLogger receives failed results.
type FailureLogger interface {
	LogFailure(index, total int, result metrics.RequestResult)
}

// WithLogging reports failed results to logger before passing every result on to next.
func WithLogging(next ResultObserver, logger FailureLogger) ResultObserver {
	if logger == nil {
		return next
	}
	return func(index, total int, result metrics.RequestResult) {
		if !result.Success {
			logger.LogFailure(index, total, result)
		}
		if next != nil {
			next(index, total, result)
		}
	}
}

// Chain calls each observer in order.
func Chain(observers ...ResultObserver) ResultObserver {
	var active []ResultObserver
	for _, o := range observers {
		if o != nil {
			active = append(active, o)
		}
	}
	switch len(active) {
	case 0:
		return nil
	case 1:
		return active[0]
	}
	return func(index, total int, result metrics.RequestResult) {
		for _, o := range active {
			o(index, total, result)
		}
	}
}
