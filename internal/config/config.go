package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/torosent/httpbatch/internal/threshold"
)

// OutputFormat selects how the run report is rendered on stdout.
type OutputFormat string

const (
	OutputPretty OutputFormat = "pretty"
	OutputJSON   OutputFormat = "json"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultEnvFile = ".env"
)

type Config struct {
	File        string        `mapstructure:"file"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Output      OutputFormat  `mapstructure:"output"`
	EnvFile     string        `mapstructure:"env_file"`
	Concurrency int           `mapstructure:"concurrency"`
	LogErrors   bool          `mapstructure:"log_errors"`
	Dashboard   bool          `mapstructure:"dashboard"`
	HTMLOutput  string        `mapstructure:"html_output"`
	XLSXOutput  string        `mapstructure:"xlsx_output"`
	HARFile     string        `mapstructure:"har_file"`
	HARFilter   string        `mapstructure:"har_filter"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`

	// EnvFileRequired is set when the env file was named explicitly,
	// making a missing file an error.
	EnvFileRequired bool `mapstructure:"-"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"` // nil follows Enabled
}

// Enabled reports whether an OTLP endpoint is configured, directly or through
// OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	file := strings.TrimSpace(c.File)
	har := strings.TrimSpace(c.HARFile)
	switch {
	case file == "" && har == "":
		issues = append(issues, "file is required (use --help for usage information)")
	case file != "" && har != "":
		issues = append(issues, "file and har are mutually exclusive")
	}
	if strings.TrimSpace(c.HARFilter) != "" && har == "" {
		issues = append(issues, "har-filter requires har")
	}

	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if c.Concurrency < 0 {
		issues = append(issues, "concurrency must be >= 0")
	}

	switch c.Output {
	case OutputPretty, OutputJSON:
	default:
		issues = append(issues, fmt.Sprintf("output %q is not supported (use pretty or json)", c.Output))
	}
	if c.Dashboard && c.Output == OutputJSON {
		issues = append(issues, "dashboard and json output are mutually exclusive")
	}

	if _, err := threshold.ParseMultiple(c.Thresholds); err != nil {
		issues = append(issues, err.Error())
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (use grpc or http)", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing sample rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
