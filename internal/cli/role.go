package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/ir"
)

// NewRoleCommand creates the role command and its subcommands.
func NewRoleCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage the role registry",
		Long: `List and change role membership. Adding lockers and validators and
removing validators requires a custodian caller (--as).

Example:
  xbridge role list validator
  xbridge role add validator v4 --as admin
  xbridge role remove v4 --as admin`,
	}

	cmd.AddCommand(newRoleListCommand(rootOpts))
	cmd.AddCommand(newRoleAddCommand(rootOpts))
	cmd.AddCommand(newRoleRemoveCommand(rootOpts))
	return cmd
}

func newRoleListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "list <custodian|locker|validator>",
		Short:         "List the identities holding a role",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			role := ir.Role(args[0])
			if !ir.ValidRoles[role] {
				return f.Fail(fmt.Errorf("unknown role %q", args[0]))
			}
			members, err := opts.client().Roles(cmd.Context(), role)
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(members, func(w io.Writer) {
				for _, m := range members {
					fmt.Fprintln(w, m)
				}
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}

func newRoleAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "add <locker|validator> <identity>",
		Short:         "Register an identity as locker or validator",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			c := opts.client()

			var err error
			switch ir.Role(args[0]) {
			case ir.RoleLocker:
				_, err = c.RegisterLocker(cmd.Context(), args[1])
			case ir.RoleValidator:
				_, err = c.RegisterValidator(cmd.Context(), args[1])
			default:
				err = fmt.Errorf("cannot add role %q: only locker and validator", args[0])
			}
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(map[string]bool{"ok": true}, func(w io.Writer) {
				fmt.Fprintf(w, "%s registered as %s\n", args[1], args[0])
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}

func newRoleRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:           "remove <identity>",
		Short:         "Unregister a validator",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			removed, err := opts.client().UnregisterValidator(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err)
			}
			return f.Success(map[string]bool{"ok": removed}, func(w io.Writer) {
				if removed {
					fmt.Fprintf(w, "%s unregistered\n", args[0])
				} else {
					fmt.Fprintf(w, "%s was not a validator\n", args[0])
				}
			})
		},
	}
	bindClientFlags(cmd, opts)
	return cmd
}
