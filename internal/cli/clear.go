package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear <received|sent> <chain>...",
		Short: "Purge bridge state as a custodian",
		Long: `Purge state for the listed chains.

  received  drops every pending and executable entry, and the global and
            validator watermarks of the listed source chains
  sent      drops the outbound log and counters of the listed chains

Example:
  xbridge clear received chainA chainB --as admin`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			c := opts.client()
			chains := args[1:]

			var err error
			switch args[0] {
			case "received":
				_, err = c.ClearReceivedMessage(cmd.Context(), chains)
			case "sent":
				_, err = c.ClearSentMessage(cmd.Context(), chains)
			default:
				err = fmt.Errorf("unknown target %q: must be received or sent", args[0])
			}
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(map[string]bool{"ok": true}, func(w io.Writer) {
				fmt.Fprintf(w, "cleared %s messages of %s\n", args[0], strings.Join(chains, ", "))
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}
