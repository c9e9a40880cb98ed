package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewPendingCommand creates the pending command.
func NewPendingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "pending",
		Short:         "List slots still collecting attestations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			slots, err := opts.client().PendingMessages(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(slots, func(w io.Writer) {
				var rows [][]string
				for _, s := range slots {
					for _, g := range s.Groups {
						rows = append(rows, []string{
							s.Key.Chain, formatID(s.Key.ID), shortHash(g.Hash),
							messageTarget(g.Message), strings.Join(g.Validators, ","),
						})
					}
				}
				table(w, []string{"CHAIN", "ID", "HASH", "TARGET", "VALIDATORS"}, rows)
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}

// NewExecutableCommand creates the executable command.
func NewExecutableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "executable",
		Short:         "List messages that reached quorum",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			entries, err := opts.client().ExecutableMessages(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(entries, func(w io.Writer) {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Key.Chain, formatID(e.Key.ID), messageTarget(e.Message), e.ClaimedBy,
					})
				}
				table(w, []string{"CHAIN", "ID", "TARGET", "CLAIMED_BY"}, rows)
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}

// SentOptions holds flags for the sent command.
type SentOptions struct {
	ClientOptions
	Count bool
	ID    uint64
}

// NewSentCommand creates the sent command.
func NewSentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SentOptions{ClientOptions: ClientOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "sent [to-chain]",
		Short: "Inspect the outbound message log",
		Long: `List outbound messages, optionally only those addressed to one chain.
With a chain, --count prints its outbound counter and --id prints one message.

Example:
  xbridge sent
  xbridge sent chainB --count
  xbridge sent chainB --id 3`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain := ""
			if len(args) == 1 {
				chain = args[0]
			}
			return runSent(cmd, opts, chain)
		},
	}

	bindClientFlags(cmd, &opts.ClientOptions)
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the outbound counter of the chain")
	cmd.Flags().Uint64Var(&opts.ID, "id", 0, "print the message with this id")

	return cmd
}

func runSent(cmd *cobra.Command, opts *SentOptions, chain string) error {
	f := opts.formatter(cmd)
	c := opts.client()
	ctx := cmd.Context()

	if (opts.Count || opts.ID != 0) && chain == "" {
		return f.Fail(fmt.Errorf("--count and --id need a chain"))
	}

	switch {
	case opts.Count:
		n, err := c.SentMessageCount(ctx, chain)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(map[string]uint64{"count": n}, func(w io.Writer) {
			fmt.Fprintln(w, n)
		})
	case opts.ID != 0:
		msg, err := c.SentMessageByID(ctx, chain, opts.ID)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(msg, func(w io.Writer) {
			fmt.Fprintf(w, "%s -> %s #%d %s sender=%s data=%s\n",
				msg.FromChain, msg.ToChain, opts.ID, messageTarget(msg), msg.Sender, msg.Content.Data)
		})
	}

	entries, err := c.SentMessages(ctx, chain)
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(entries, func(w io.Writer) {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{
				e.Key.Chain, formatID(e.Key.ID), messageTarget(e.Message), e.Message.Sender,
			})
		}
		table(w, []string{"TO", "ID", "TARGET", "SENDER"}, rows)
	})
}

// WatermarkOptions holds flags for the watermark command.
type WatermarkOptions struct {
	ClientOptions
	Task bool
}

// NewWatermarkCommand creates the watermark command.
func NewWatermarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatermarkOptions{ClientOptions: ClientOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "watermark <chain> [validator]",
		Short: "Show sequencing watermarks of a source chain",
		Long: `Print the highest id of chain that reached quorum or, with a validator,
the highest id that validator attested. With --task the next id the validator
should attest is printed instead.

Example:
  xbridge watermark chainA
  xbridge watermark chainA v1 --task`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatermark(cmd, opts, args)
		},
	}

	bindClientFlags(cmd, &opts.ClientOptions)
	cmd.Flags().BoolVar(&opts.Task, "task", false, "print the validator's next porting task")

	return cmd
}

func runWatermark(cmd *cobra.Command, opts *WatermarkOptions, args []string) error {
	f := opts.formatter(cmd)
	c := opts.client()
	ctx := cmd.Context()
	chain := args[0]

	var (
		id  uint64
		err error
	)
	switch {
	case len(args) == 1 && opts.Task:
		return f.Fail(fmt.Errorf("--task needs a validator"))
	case len(args) == 1:
		id, err = c.LatestMessageID(ctx, chain)
	case opts.Task:
		id, err = c.MsgPortingTask(ctx, chain, args[1])
	default:
		id, err = c.FinalReceivedMessageID(ctx, chain, args[1])
	}
	if err != nil {
		return f.Fail(err)
	}
	return f.Success(map[string]uint64{"id": id}, func(w io.Writer) {
		fmt.Fprintln(w, id)
	})
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
