package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kris-accounting/kris/internal/buildinfo"
	"github.com/kris-accounting/kris/internal/store"
)

// options are shared by every subcommand.
type options struct {
	configPath string
	envPath    string

	// client replaces the configured backend when set.
	client store.Client
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "kris",
		Short:   "Double-entry bookkeeping for a single business",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "kris.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&opts.envPath, "env", ".env", "optional .env file with credentials")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newAccountsCommand(opts))
	rootCmd.AddCommand(newJournalCommand(opts))
	rootCmd.AddCommand(newLedgerCommand(opts))
	rootCmd.AddCommand(newReportCommand(opts))
	rootCmd.AddCommand(newSummaryCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}
