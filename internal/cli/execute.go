package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/ir"
)

// ExecuteOptions holds flags for the execute command.
type ExecuteOptions struct {
	ClientOptions
	Log bool
}

// NewExecuteCommand creates the execute command.
func NewExecuteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecuteOptions{ClientOptions: ClientOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "execute <chain> <id>",
		Short: "Dispatch an executable message",
		Long: `Dispatch the executable message (chain, id) to its target contract.
The entry is removed whether or not the call succeeds. With --log the
dispatch attempts recorded for the slot are listed instead.

Example:
  xbridge execute chainA 7
  xbridge execute chainA 7 --log`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExecute(cmd, opts, args[0], args[1])
		},
	}

	bindClientFlags(cmd, &opts.ClientOptions)
	cmd.Flags().BoolVar(&opts.Log, "log", false, "list recorded dispatch attempts")

	return cmd
}

func runExecute(cmd *cobra.Command, opts *ExecuteOptions, chain, rawID string) error {
	f := opts.formatter(cmd)
	id, err := parseID(rawID)
	if err != nil {
		return f.Fail(err)
	}
	c := opts.client()

	if opts.Log {
		records, err := c.DispatchLog(cmd.Context(), chain, id)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(records, func(w io.Writer) {
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{r.Token, string(r.Outcome), r.Error})
			}
			table(w, []string{"TOKEN", "OUTCOME", "ERROR"}, rows)
		})
	}

	rec, err := c.ExecuteMessage(cmd.Context(), chain, id)
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(rec, func(w io.Writer) {
		fmt.Fprintf(w, "%s #%d %s (token %s)\n", rec.Chain, rec.ID, rec.Outcome, rec.Token)
	})
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func messageTarget(m ir.Message) string {
	return m.Content.Contract + "." + m.Content.Action
}
