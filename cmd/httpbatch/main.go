package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/httpbatch/internal/config"
	"github.com/torosent/httpbatch/internal/dashboard"
	"github.com/torosent/httpbatch/internal/httpclient"
	"github.com/torosent/httpbatch/internal/output"
	"github.com/torosent/httpbatch/internal/runner"
	"github.com/torosent/httpbatch/internal/threshold"
	"github.com/torosent/httpbatch/internal/tracing"
)

const (
	progressInterval = 250 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

// thresholdError reports failed thresholds; the process exits with code 2.
type thresholdError struct {
	failed int
	total  int
}

func (e *thresholdError) Error() string {
	return fmt.Sprintf("%d of %d thresholds failed", e.failed, e.total)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var thErr *thresholdError
		if errors.As(err, &thErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.LoadEnvFile(cfg.EnvFile, cfg.EnvFileRequired); err != nil {
		return err
	}

	runID := ulid.Make().String()
	logger := newStderrLogger(stderr)

	specs, source, err := loadSpecs(cfg)
	if err != nil {
		return err
	}
	if names := unresolvedPlaceholders(specs); len(names) > 0 {
		logger.Printf("unresolved placeholders left as-is: %v", names)
	}

	client, err := httpclient.NewClient(cfg.Timeout)
	if err != nil {
		return fmt.Errorf("create HTTP client: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing, runID)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown: %v", err)
		}
	}()

	var dispatchOpts []httpclient.DispatcherOption
	if provider.Enabled() {
		dispatchOpts = append(dispatchOpts, httpclient.WithTracer(provider.Tracer(), provider.ShouldPropagate()))
	}
	dispatcher := httpclient.NewDispatcher(client, cfg.Timeout, dispatchOpts...)

	logger.Printf("run %s: %d requests from %s", runID, len(specs), source)

	pretty := cfg.Output == config.OutputPretty
	printer := output.NewPrinter(stdout)

	var (
		observers []runner.ResultObserver
		dash      *dashboard.Dashboard
		progress  *output.ProgressReporter
	)
	switch {
	case cfg.Dashboard && isTerminal(stdout):
		dash = dashboard.New(dashboard.RunInfo{
			RunID:       runID,
			Source:      source,
			Total:       len(specs),
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
		}, stdout, cancel)
		observers = append(observers, dash.Observe)
	case cfg.Dashboard || (!pretty && isTerminal(stderr)):
		progress = output.NewProgressReporter(len(specs), progressInterval, stderr)
		observers = append(observers, progress.Observe)
	}
	if pretty && dash == nil {
		printer.Banner(cfg.Timeout)
		observers = append(observers, printer.Result)
	}

	observer := runner.Chain(observers...)
	if cfg.LogErrors {
		observer = runner.WithLogging(observer, logger)
	}

	if dash != nil {
		dash.Start()
	}
	if progress != nil {
		progress.Start()
	}

	report, runErr := runner.New(runner.Options{
		Concurrency: cfg.Concurrency,
		Dispatcher:  dispatcher,
		OnResult:    observer,
	}).Run(ctx, specs)

	if progress != nil {
		progress.Stop()
	}
	if dash != nil {
		if err := dash.Stop(); err != nil {
			logger.Printf("%v", err)
		}
		if dash.Aborted() {
			logger.Printf("run %s aborted from the dashboard", runID)
		}
	}
	if runErr != nil {
		return runErr
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}
	thresholdResults := threshold.Evaluate(thresholds, report.Stats)

	if pretty {
		if dash != nil {
			printer.Banner(cfg.Timeout)
			for i, r := range report.Results {
				printer.Result(i+1, len(report.Results), r)
			}
		}
		printer.Summary(report.Summary, report.Stats)
		printer.Thresholds(thresholdResults)
	} else {
		if err := output.WriteJSON(stdout, report.Summary); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		for _, r := range thresholdResults {
			if !r.Pass {
				logger.Printf("%s", r.Message)
			}
		}
	}

	if err := writeReports(cfg, output.Report{
		RunID:       runID,
		Source:      source,
		GeneratedAt: time.Now(),
		Timeout:     cfg.Timeout,
		Summary:     report.Summary,
		Stats:       report.Stats,
		Thresholds:  thresholdResults,
	}, logger); err != nil {
		return err
	}

	if !threshold.AllPassed(thresholdResults) {
		failed := 0
		for _, r := range thresholdResults {
			if !r.Pass {
				failed++
			}
		}
		return &thresholdError{failed: failed, total: len(thresholdResults)}
	}
	return nil
}

func writeReports(cfg *config.Config, report output.Report, logger *stderrLogger) error {
	if cfg.HTMLOutput != "" {
		err := output.WriteReportFile(cfg.HTMLOutput, func(w io.Writer) error {
			return output.GenerateHTMLReport(w, report)
		})
		if err != nil {
			return fmt.Errorf("write HTML report: %w", err)
		}
		logger.Printf("HTML report written to %s", cfg.HTMLOutput)
	}
	if cfg.XLSXOutput != "" {
		err := output.WriteReportFile(cfg.XLSXOutput, func(w io.Writer) error {
			return output.GenerateXLSXReport(w, report)
		})
		if err != nil {
			return fmt.Errorf("write XLSX report: %w", err)
		}
		logger.Printf("XLSX report written to %s", cfg.XLSXOutput)
	}
	return nil
}
