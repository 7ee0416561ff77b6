package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all CLI flags to a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "httpbatch --file <requests.json>",
		Short:         "Send a batch of HTTP requests concurrently and summarize the results",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Input
	flags.StringP("file", "f", "", "Path to the JSON (or YAML) file listing the requests")
	flags.String("env-file", DefaultEnvFile, "Dotenv file loaded before {{NAME}} placeholders are resolved")
	flags.String("har", "", "Path to a HAR file to import instead of --file")
	flags.String("har-filter", "", "Filter HAR entries (e.g. 'host:example.com;method:GET,POST')")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Execution
	flags.String("timeout", "30", "Per-request timeout in seconds, or a duration such as 1500ms")
	flags.IntP("concurrency", "c", 0, "Maximum requests in flight (0 means all at once)")

	// Output
	flags.StringP("output", "o", string(OutputPretty), "Report format: pretty or json")
	flags.Bool("dashboard", false, "Show a live terminal progress view while requests run")
	flags.Bool("log-errors", false, "Log each failed request to stderr as it completes")
	flags.String("html-output", "", "Write an HTML report to the given path")
	flags.String("xlsx-output", "", "Write an Excel report to the given path")
	flags.StringArray("threshold", nil, "Assertion checked after the run (repeatable, e.g. 'http_req_duration:p99 < 500')")

	// Tracing
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (e.g. localhost:4317)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "", "Service name reported on spans (default httpbatch)")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests traced (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Disable TLS to the OTLP collector")
	flags.Bool("tracing-propagate", true, "Inject W3C trace context headers into requests")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("file") {
		val, err := fs.GetString("file")
		if err != nil {
			return err
		}
		cfg.File = strings.TrimSpace(val)
	}
	if fs.Changed("env-file") {
		val, err := fs.GetString("env-file")
		if err != nil {
			return err
		}
		cfg.EnvFile = strings.TrimSpace(val)
		cfg.EnvFileRequired = true
	}
	if fs.Changed("har") {
		val, err := fs.GetString("har")
		if err != nil {
			return err
		}
		cfg.HARFile = strings.TrimSpace(val)
	}
	if fs.Changed("har-filter") {
		val, err := fs.GetString("har-filter")
		if err != nil {
			return err
		}
		cfg.HARFilter = strings.TrimSpace(val)
	}
	if fs.Changed("timeout") {
		val, err := fs.GetString("timeout")
		if err != nil {
			return err
		}
		dur, err := ParseTimeout(val)
		if err != nil {
			return err
		}
		cfg.Timeout = dur
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("log-errors") {
		val, err := fs.GetBool("log-errors")
		if err != nil {
			return err
		}
		cfg.LogErrors = val
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if fs.Changed("xlsx-output") {
		val, err := fs.GetString("xlsx-output")
		if err != nil {
			return err
		}
		cfg.XLSXOutput = strings.TrimSpace(val)
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = append([]string(nil), val...)
	}
	return applyTracingFlags(&cfg.Tracing, fs)
}

func applyTracingFlags(t *TracingConfig, fs *pflag.FlagSet) error {
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		t.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		t.Insecure = val
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		t.Propagate = &val
	}
	return nil
}
