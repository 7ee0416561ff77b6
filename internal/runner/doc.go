// Package runner fans a batch of request specs out to concurrent dispatches
// and gathers the results in completion order.
//
// # Basic Usage
//
//	r := runner.New(runner.Options{
//		Dispatcher: dispatcher,
//		OnResult: func(index, total int, res metrics.RequestResult) {
//			fmt.Printf("[%d/%d] %s\n", index, total, res.Name)
//		},
//	})
//	report, err := r.Run(ctx, specs)
//
// Every spec is dispatched at once unless [Options.Concurrency] sets a ceiling.
// OnResult is called from a single goroutine, so observers need no locking.
//
// # Failures
//
// HTTP and validation failures are data: they arrive as results with Error set.
// A dispatch that panics is different. It is recovered into a [TaskError],
// all such errors are combined, and Run returns them instead of a report.
package runner
