package config

import "time"

// defaults returns the viper default for every configuration key.
func defaults() map[string]any {
	return map[string]any{
		"logging.level":  "INFO",
		"logging.format": "text",
		"logging.output": "stderr",

		"telemetry.tracing.enabled":     false,
		"telemetry.tracing.endpoint":    "localhost:4317",
		"telemetry.tracing.insecure":    true,
		"telemetry.tracing.sample_rate": 1.0,

		"telemetry.profiling.enabled":       false,
		"telemetry.profiling.endpoint":      "http://localhost:4040",
		"telemetry.profiling.profile_types": []string{"cpu", "inuse_space", "goroutines"},

		"bridge.endpoint": "http://127.0.0.1:7300",
		"bridge.timeout":  30 * time.Second,

		// Generation 0 means unknown; truncation is then never assumed
		// and always enforced through the mode fallback chain.
		"platform.generation": 0,

		"scratch.dir":            "",
		"scratch.sweep_on_start": true,

		"executor.strategy":   "inline",
		"executor.workers":    4,
		"executor.queue_size": 64,

		"metrics.enabled": false,
	}
}

// Default returns the default configuration as a struct, for `config init`
// and tests. Kept in sync with defaults().
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stderr",
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Enabled:    false,
				Endpoint:   "localhost:4317",
				Insecure:   true,
				SampleRate: 1.0,
			},
			Profiling: ProfilingConfig{
				Enabled:      false,
				Endpoint:     "http://localhost:4040",
				ProfileTypes: []string{"cpu", "inuse_space", "goroutines"},
			},
		},
		Bridge: BridgeConfig{
			Endpoint: "http://127.0.0.1:7300",
			Timeout:  30 * time.Second,
		},
		Platform: PlatformConfig{Generation: 0},
		Scratch:  ScratchConfig{Dir: "", SweepOnStart: true},
		Executor: ExecutorConfig{
			Strategy:  "inline",
			Workers:   4,
			QueueSize: 64,
		},
		Metrics: MetricsConfig{Enabled: false},
	}
}
