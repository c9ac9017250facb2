// Package config loads and validates the scopedfs configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SCOPEDFS_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full scopedfs configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Bridge configures the connection to the platform-native provider host
	Bridge BridgeConfig `mapstructure:"bridge" yaml:"bridge"`

	// Platform describes the host platform generation, which decides
	// whether the generic write mode already guarantees truncation
	Platform PlatformConfig `mapstructure:"platform" yaml:"platform"`

	// Scratch configures the process-private scratch storage
	Scratch ScratchConfig `mapstructure:"scratch" yaml:"scratch"`

	// Executor selects the execution strategy for blocking bridge calls
	Executor ExecutorConfig `mapstructure:"executor" yaml:"executor"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is the output format: text or json
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls tracing and profiling.
type TelemetryConfig struct {
	Tracing   TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// TracingConfig controls OpenTelemetry trace export.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// BridgeConfig configures the provider host connection.
type BridgeConfig struct {
	// Endpoint is the provider host base URL
	Endpoint string `mapstructure:"endpoint" validate:"required,url" yaml:"endpoint"`

	// Timeout bounds a single bridge invocation end to end
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// PlatformConfig describes the host platform.
type PlatformConfig struct {
	// Generation is the platform API generation number. Generations at
	// or below 28 guarantee truncation for the generic write mode.
	Generation int `mapstructure:"generation" validate:"gte=0" yaml:"generation"`
}

// ScratchConfig configures scratch storage.
type ScratchConfig struct {
	// Dir overrides the scratch root directory. Empty resolves under
	// the user cache directory.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// SweepOnStart removes the whole scratch subtree during startup
	SweepOnStart bool `mapstructure:"sweep_on_start" yaml:"sweep_on_start"`
}

// ExecutorConfig selects and sizes the execution strategy.
type ExecutorConfig struct {
	// Strategy is "inline" or "pool"
	Strategy string `mapstructure:"strategy" validate:"oneof=inline pool" yaml:"strategy"`

	// Workers is the pool worker count (pool strategy only)
	Workers int `mapstructure:"workers" validate:"gte=0" yaml:"workers"`

	// QueueSize is the pool queue capacity (pool strategy only)
	QueueSize int `mapstructure:"queue_size" validate:"gte=0" yaml:"queue_size"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the metrics registry is initialized
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

var configValidator = validator.New()

// Load reads configuration from the given file path (empty uses the default
// locations), layered with SCOPEDFS_* environment variables and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "scopedfs"))
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SCOPEDFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file at a default location is fine; an explicit
		// path that cannot be read is not.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// WriteFile renders the configuration as YAML to path, creating parent
// directories as needed.
func (c *Config) WriteFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
