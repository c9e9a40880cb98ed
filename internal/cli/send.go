package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/ir"
)

// SendOptions holds flags for the send command.
type SendOptions struct {
	ClientOptions
	Contract  string
	Action    string
	Data      string
	ResType   uint8
	SessionID uint64
}

// NewSendCommand creates the send command.
func NewSendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SendOptions{ClientOptions: ClientOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "send <to-chain>",
		Short: "Enqueue an outbound message as a locker",
		Long: `Enqueue an outbound message for validators to port to another chain.
The caller (--as) must be a registered locker.

Example:
  xbridge send chainB --as locker-1 --contract greeting --action greet --data '["hi"]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts, args[0])
		},
	}

	bindClientFlags(cmd, &opts.ClientOptions)
	cmd.Flags().StringVar(&opts.Contract, "contract", "", "target contract id (required)")
	cmd.Flags().StringVar(&opts.Action, "action", "", "target action (required)")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON array of action arguments")
	cmd.Flags().Uint8Var(&opts.ResType, "res-type", 0, "session response type")
	cmd.Flags().Uint64Var(&opts.SessionID, "session-id", 0, "session id")
	_ = cmd.MarkFlagRequired("contract")
	_ = cmd.MarkFlagRequired("action")

	return cmd
}

func runSend(cmd *cobra.Command, opts *SendOptions, toChain string) error {
	f := opts.formatter(cmd)
	content := ir.Content{Contract: opts.Contract, Action: opts.Action, Data: opts.Data}
	session := ir.Session{ResType: opts.ResType, ID: opts.SessionID}

	entry, err := opts.client().SendMessage(cmd.Context(), toChain, content, session)
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(entry, func(w io.Writer) {
		fmt.Fprintf(w, "sent %s #%d (%s)\n", entry.Key.Chain, entry.Key.ID, messageTarget(entry.Message))
	})
}
