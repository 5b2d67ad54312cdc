package cli

import (
	"github.com/spf13/cobra"

	"github.com/twirvo/revival/internal/config"
	"github.com/twirvo/revival/internal/identity"
	"github.com/twirvo/revival/internal/ledger"
)

// UsersOptions holds flags for the users command.
type UsersOptions struct {
	*RootOptions
	LedgerPath string
}

// NewUsersCommand creates the users command.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UsersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the simulated userbase",
		Long: `Replay the ledger and print the derived userbase: one entry per
wallet that has a username_set record, first name wins.

Example:
  revival users --ledger ./simulated_twirvo_ledger.txt
  revival users --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listUsers(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LedgerPath, "ledger", config.DefaultLedgerPath, "path to the ledger file")

	return cmd
}

func listUsers(cmd *cobra.Command, opts *UsersOptions) error {
	store := ledger.Open(opts.LedgerPath)
	entries, err := identity.Rebuild(store)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to rebuild userbase", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		return out.PrintJSON(entries)
	}

	if len(entries) == 0 {
		out.Printf("no identities in ledger\n")
		return nil
	}
	for _, e := range entries {
		out.Printf("%-20s %s\n", e.Username, e.Wallet)
	}
	out.Printf("%d identities\n", len(entries))
	return nil
}
