package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/api"
	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/config"
	"github.com/roach88/xbridge/internal/invoke"
	"github.com/roach88/xbridge/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Database   string
	Listen     string

	// Invoker overrides the HTTP invoker built from the config (for testing).
	Invoker bridge.Invoker

	// Ready, if set, is called with the bound address once the node serves.
	Ready func(addr net.Addr)
}

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a bridge node",
		Long: `Run a bridge node: open the ledger, bootstrap the configured custodians
and serve the HTTP API until interrupted.

Example:
  xbridge serve --config node.yaml
  xbridge serve --config node.yaml --db /var/lib/xbridge/ledger.db --listen :9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to node configuration (required)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "override the configured database path")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "override the configured listen address")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	setupLogging(opts.Verbose)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}

	slog.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	invoker := opts.Invoker
	if invoker == nil {
		invoker = invoke.NewHTTPInvoker(cfg.Contracts, cfg.InvokeTimeoutDuration())
	}
	b := bridge.New(st, invoker,
		bridge.WithChain(cfg.Chain),
		bridge.WithMetrics(bridge.NewMetrics(reg)),
	)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := b.Bootstrap(ctx, cfg.Custodians); err != nil {
		_ = st.Close()
		return WrapExitError(ExitCommandError, "failed to bootstrap custodians", err)
	}

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		_ = st.Close()
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	srv := api.NewServer(api.NewRouter(b, reg), cfg.Listen)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	slog.Info("bridge node listening", "chain", cfg.Chain, "addr", ln.Addr().String())
	if opts.Ready != nil {
		opts.Ready(ln.Addr())
	}

	var result *multierror.Error
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			result = multierror.Append(result, err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := st.Close(); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return WrapExitError(ExitFailure, "node stopped with errors", err)
	}
	slog.Info("bridge node stopped")
	return nil
}

// signalContext returns a context cancelled by SIGINT, SIGTERM or parent.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
