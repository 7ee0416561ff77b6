// Package metrics holds the result model of a batch run and its aggregations.
//
// [RequestResult] is produced once per request spec. [Summarize] reduces the
// results, in arrival order, into a [TestSummary]:
//
//	summary := metrics.Summarize(len(specs), results)
//	fmt.Printf("%d/%d succeeded (%.1f%%)\n", summary.Success, summary.Total, summary.SuccessRate)
//
// # Collector
//
// The [Collector] type records latency into an HDR histogram for percentile
// reporting and counts results by error category and status tier:
//
//	collector := metrics.NewCollector()
//	collector.RecordResult(result)
//	stats := collector.Stats(elapsed)
//
// It's safe to call RecordResult from multiple goroutines.
package metrics
