package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/twirvo/revival/internal/archive"
	"github.com/twirvo/revival/internal/config"
	"github.com/twirvo/revival/internal/ledger"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	LedgerPath string
	Database   string
	Top        int
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize ledger activity",
		Long: `Import the ledger into a SQLite archive and print aggregates:
record counts by type, distinct identities, and the most active
posters. The archive is derived state; deleting it loses nothing.

Example:
  revival stats --ledger ./simulated_twirvo_ledger.txt
  revival stats --db ./revival-archive.db --top 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showStats(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LedgerPath, "ledger", config.DefaultLedgerPath, "path to the ledger file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the archive database (default: <ledger>.db)")
	cmd.Flags().IntVar(&opts.Top, "top", 5, "number of top posters to show")

	return cmd
}

func showStats(cmd *cobra.Command, opts *StatsOptions) error {
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.LedgerPath + ".db"
	}

	arch, err := archive.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer arch.Close()

	ctx := cmd.Context()
	store := ledger.Open(opts.LedgerPath)
	imported, err := arch.Import(ctx, store)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to import ledger", err)
	}

	stats, err := arch.Stats(ctx, opts.Top)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to query archive", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if out.IsJSON() {
		return out.PrintJSON(stats)
	}

	out.Printf("imported %d new records into %s\n", imported, dbPath)
	out.Printf("total records: %d\n", stats.TotalRecords)
	out.Printf("identities:    %d\n", stats.Identities)

	types := make([]string, 0, len(stats.ByType))
	for typ := range stats.ByType {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		out.Printf("  %-20s %d\n", typ, stats.ByType[typ])
	}

	if len(stats.TopPosters) > 0 {
		out.Printf("top posters:\n")
		for _, pc := range stats.TopPosters {
			name := pc.Username
			if name == "" {
				name = pc.Wallet
			}
			out.Printf("  %-20s %d\n", name, pc.Posts)
		}
	}
	return nil
}
