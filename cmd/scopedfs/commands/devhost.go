package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/pkg/bridge/devhost"
	"github.com/scopedfs/scopedfs/pkg/config"
	"github.com/scopedfs/scopedfs/pkg/metrics"
)

var (
	devhostListen       string
	devhostRoot         string
	devhostDirectWrites bool
)

var devhostCmd = &cobra.Command{
	Use:   "devhost",
	Short: "Serve the provider bridge over a local directory",
	Long: `Serve the bridge operations over a local directory tree. Intended for
development and testing on hosts without a native provider component:

  scopedfs devhost --root /tmp/grant --listen 127.0.0.1:7300

Point the bridge endpoint at the listen address and the directory behaves as
a granted storage root.`,
	RunE: runDevhost,
}

func init() {
	devhostCmd.Flags().StringVar(&devhostListen, "listen", "127.0.0.1:7300", "Listen address")
	devhostCmd.Flags().StringVar(&devhostRoot, "root", "", "Directory to serve as the granted root")
	devhostCmd.Flags().BoolVar(&devhostDirectWrites, "direct-writes", false, "Report direct write routing even for opaque refs")
	_ = devhostCmd.MarkFlagRequired("root")
}

func runDevhost(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	info, err := os.Stat(devhostRoot)
	if err != nil {
		return fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %q is not a directory", devhostRoot)
	}

	var opts []devhost.Option
	if devhostDirectWrites {
		opts = append(opts, devhost.WithDirectOpaqueWrites())
	}
	host := devhost.New(devhostRoot, opts...)

	mux := http.NewServeMux()
	mux.Handle("/", host.Router())
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mux.Handle("/metrics", metrics.Handler())
	}

	srv := &http.Server{
		Addr:              devhostListen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("devhost listening",
			logger.KeyEndpoint, devhostListen,
			logger.KeyTarget, devhostRoot,
			logger.KeyRef, host.RootRef().Reference)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
