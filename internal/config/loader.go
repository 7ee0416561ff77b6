package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that set configuration keys,
// e.g. HTTPBATCH_TIMEOUT or HTTPBATCH_TRACING_ENDPOINT.
const EnvPrefix = "HTTPBATCH"

// Loader handles loading configuration from files, environment and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// settingKeys are the configuration keys bound to HTTPBATCH_* variables.
var settingKeys = []string{
	"file",
	"timeout",
	"output",
	"env_file",
	"concurrency",
	"log_errors",
	"dashboard",
	"html_output",
	"xlsx_output",
	"har_file",
	"har_filter",
	"thresholds",
	"tracing.endpoint",
	"tracing.protocol",
	"tracing.service_name",
	"tracing.sample_rate",
	"tracing.insecure",
	"tracing.propagate",
}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration sources to produce a
// Config. Precedence, highest first: flags, HTTPBATCH_* environment, config file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	cfgViper := viper.New()
	cfgViper.SetEnvPrefix(EnvPrefix)
	cfgViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, key := range settingKeys {
		if err := cfgViper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	// Nothing to run: no flags, no config file, no input from the environment.
	if len(args) == 0 && configPath == "" && !cfgViper.IsSet("file") && !cfgViper.IsSet("har_file") {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	cfg := &Config{
		Timeout:    DefaultTimeout,
		Output:     OutputPretty,
		EnvFile:    DefaultEnvFile,
		ConfigFile: configPath,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.File = strings.TrimSpace(cfg.File)
	cfg.HARFile = strings.TrimSpace(cfg.HARFile)
	cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(string(cfg.Output))))
	if cfg.Output == "" {
		cfg.Output = OutputPretty
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file or the environment to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("file: %w", err)
		}
		cfg.File = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("output: %w", err)
		}
		cfg.Output = OutputFormat(val)
	}

	if raw, ok := lookupSetting(settings, "env_file", "envfile", "env-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("envFile: %w", err)
		}
		cfg.EnvFile = strings.TrimSpace(val)
		cfg.EnvFileRequired = true
	}

	if raw, ok := lookupSetting(settings, "concurrency"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("concurrency: %w", err)
		}
		cfg.Concurrency = val
	}

	if raw, ok := lookupSetting(settings, "log_errors", "logerrors", "log-errors"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("logErrors: %w", err)
		}
		cfg.LogErrors = val
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "html_output", "htmloutput", "html-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("htmlOutput: %w", err)
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "xlsx_output", "xlsxoutput", "xlsx-output"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("xlsxOutput: %w", err)
		}
		cfg.XLSXOutput = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "har_file", "har", "harfile"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("harFile: %w", err)
		}
		cfg.HARFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "har_filter", "harfilter", "har-filter"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("harFilter: %w", err)
		}
		cfg.HARFilter = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = vals
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func applyTracingSettings(t *TracingConfig, raw interface{}) error {
	settings, err := toStringKeyMap(raw)
	if err != nil {
		return err
	}

	if v, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if v, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if v, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		val, err := asString(v)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if v, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		val, err := asFloat64(v)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if v, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(v)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if v, ok := lookupSetting(settings, "propagate"); ok {
		val, err := asBool(v)
		if err != nil {
			return fmt.Errorf("propagate: %w", err)
		}
		t.Propagate = &val
	}
	return nil
}
