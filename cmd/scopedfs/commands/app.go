package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/internal/telemetry"
	"github.com/scopedfs/scopedfs/pkg/access"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/config"
	"github.com/scopedfs/scopedfs/pkg/executor"
	"github.com/scopedfs/scopedfs/pkg/metrics"
	"github.com/scopedfs/scopedfs/pkg/resolve"
	"github.com/scopedfs/scopedfs/pkg/scratch"
	"github.com/scopedfs/scopedfs/pkg/stream"
)

// app holds the wired components shared by the bridge-backed commands.
type app struct {
	cfg       *config.Config
	bridge    bridge.Bridge
	resolver  *resolve.Resolver
	platform  access.Platform
	scratch   *scratch.Manager
	reflector *stream.Reflector

	pool             *executor.Pool
	shutdownTracing  func(context.Context) error
	shutdownProfiler func() error
}

// newApp loads configuration and wires the client stack.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	a := &app{cfg: cfg}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    "scopedfs",
			ServiceVersion: Version,
			Endpoint:       cfg.Telemetry.Tracing.Endpoint,
			Insecure:       cfg.Telemetry.Tracing.Insecure,
			SampleRate:     cfg.Telemetry.Tracing.SampleRate,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		a.shutdownTracing = shutdown
	}

	if cfg.Telemetry.Profiling.Enabled {
		stop, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
			Enabled:        true,
			ServiceName:    "scopedfs",
			ServiceVersion: Version,
			Endpoint:       cfg.Telemetry.Profiling.Endpoint,
			ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		})
		if err != nil {
			return nil, fmt.Errorf("starting profiler: %w", err)
		}
		a.shutdownProfiler = stop
	}

	var b bridge.Bridge = bridge.NewHTTPClient(cfg.Bridge.Endpoint, cfg.Bridge.Timeout, metrics.NewBridgeMetrics())

	var exec executor.Strategy = executor.Inline{}
	if cfg.Executor.Strategy == "pool" {
		a.pool = executor.NewPool(executor.PoolConfig{
			Workers:   cfg.Executor.Workers,
			QueueSize: cfg.Executor.QueueSize,
		})
		exec = a.pool
	}
	a.bridge = bridge.WithStrategy(b, exec)
	logger.Debug("bridge configured",
		logger.KeyEndpoint, cfg.Bridge.Endpoint,
		logger.KeyStrategy, cfg.Executor.Strategy)

	a.resolver = resolve.New(a.bridge)
	a.platform = access.Platform{Generation: cfg.Platform.Generation}
	a.scratch = scratch.NewManager(scratch.Config{Dir: cfg.Scratch.Dir}, metrics.NewScratchMetrics())
	a.reflector = stream.NewReflector(stream.DefaultReflectorConfig())

	if cfg.Scratch.SweepOnStart {
		if err := a.scratch.SweepAll(); err != nil {
			logger.Warn("startup scratch sweep failed", logger.Err(err))
		}
	}

	return a, nil
}

// streamDeps assembles the dependency set writable streams need.
func (a *app) streamDeps() stream.Deps {
	return stream.Deps{
		Bridge:    a.bridge,
		Platform:  a.platform,
		Scratch:   a.scratch,
		Reflector: a.reflector,
		Metrics:   metrics.NewStreamMetrics(),
	}
}

// Close releases pooled workers and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	a.reflector.Close()
	if a.pool != nil {
		a.pool.Close()
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			logger.Warn("tracing shutdown failed", logger.Err(err))
		}
	}
	if a.shutdownProfiler != nil {
		if err := a.shutdownProfiler(); err != nil {
			logger.Warn("profiler shutdown failed", logger.Err(err))
		}
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/scopedfs/config.yaml.
func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config directory: %w", err)
	}
	return filepath.Join(dir, "scopedfs", "config.yaml"), nil
}
