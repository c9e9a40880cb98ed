package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/api"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ClientOptions holds the flags of commands that talk to a running node.
type ClientOptions struct {
	*RootOptions
	Node    string
	As      string
	Timeout time.Duration
}

// DefaultNode is the node URL used when --node is not given.
const DefaultNode = "http://127.0.0.1:8080"

// NewRootCommand creates the root command for the xbridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xbridge",
		Short: "xbridge - cross-chain message bridge",
		Long: `A cross-chain message bridge node.

Validators attest inbound messages; once a quorum of validators agrees on the
same content for the next sequence id, the message becomes executable and is
dispatched to its target contract exactly once. Lockers enqueue outbound
messages for validators to port to other chains.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRelayCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewExecutableCommand(opts))
	cmd.AddCommand(NewSentCommand(opts))
	cmd.AddCommand(NewRoleCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewWatermarkCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// bindClientFlags registers --node, --as and --timeout on cmd.
func bindClientFlags(cmd *cobra.Command, opts *ClientOptions) {
	cmd.Flags().StringVar(&opts.Node, "node", DefaultNode, "base URL of the bridge node")
	cmd.Flags().StringVar(&opts.As, "as", "", "identity to act as")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "request timeout")
}

func (o *ClientOptions) client() *api.Client {
	return api.NewClient(o.Node, o.As, o.Timeout)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// setupLogging installs the process logger on stderr.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
