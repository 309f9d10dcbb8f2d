package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSummaryCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show account and entry counts with overall debit and credit totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			sum, err := a.ledger.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Organization\t%s\n", a.cfg.Organization.Name)
			fmt.Fprintf(tw, "Accounts\t%d\n", sum.TotalAccounts)
			fmt.Fprintf(tw, "Journal entries\t%d\n", sum.TotalEntries)
			fmt.Fprintf(tw, "Total debit\t%s\n", a.money.Format(sum.TotalDebit))
			fmt.Fprintf(tw, "Total credit\t%s\n", a.money.Format(sum.TotalCredit))
			return tw.Flush()
		},
	}
}
