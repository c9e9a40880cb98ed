package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/api"
	"github.com/roach88/xbridge/internal/config"
	"github.com/roach88/xbridge/internal/relayer"
)

// RelayOptions holds flags for the relay command.
type RelayOptions struct {
	*RootOptions
	ConfigPath string
	Once       bool
}

// NewRelayCommand creates the relay command.
func NewRelayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RelayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Port and dispatch messages as a validator",
		Long: `Run the relay loop of the validator named in the relayer section of the
config. Every interval each route ports at most one outbound message from its
source node to its destination node and dispatches what reached quorum.

Example:
  xbridge relay --config validator.yaml
  xbridge relay --config validator.yaml --once`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to node configuration (required)")
	cmd.Flags().BoolVar(&opts.Once, "once", false, "run a single tick and exit")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runRelay(cmd *cobra.Command, opts *RelayOptions) error {
	setupLogging(opts.Verbose)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.Relayer == nil {
		return NewExitError(ExitCommandError, "config has no relayer section")
	}

	rc := cfg.Relayer
	timeout := cfg.InvokeTimeoutDuration()
	routes := make([]relayer.Route, 0, len(rc.Routes))
	for _, r := range rc.Routes {
		routes = append(routes, relayer.Route{
			From:   r.From,
			To:     r.To,
			Source: api.NewClient(r.FromURL, rc.Identity, timeout),
			Dest:   api.NewClient(r.ToURL, rc.Identity, timeout),
		})
	}
	rl := relayer.New(rc.Identity, routes, rc.IntervalDuration())

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if opts.Once {
		if err := rl.Tick(ctx); err != nil {
			return WrapExitError(ExitFailure, "relay tick failed", err)
		}
		return nil
	}

	slog.Info("relayer started", "validator", rc.Identity, "routes", len(routes), "interval", rc.Interval)
	return rl.Run(ctx)
}
