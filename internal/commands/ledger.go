package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
)

func newLedgerCommand(opts *options) *cobra.Command {
	var start, end, search string
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the general ledger with running balances",
		Long: `Show every account that has activity in the period, with its postings
in recording order, a running balance, and debit and credit totals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ledger.ParsePeriod(start, end)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			ledgers, err := a.ledger.Build(cmd.Context(), a.accounts.All(), p)
			if err != nil {
				return err
			}
			return printLedgers(cmd.OutOrStdout(), a, ledger.Search(ledger.Visible(ledgers), search))
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD (default unbounded)")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD (default unbounded)")
	cmd.Flags().StringVar(&search, "search", "", "filter by account code or name")
	return cmd
}

func printLedgers(out io.Writer, a *app, ledgers []ledger.AccountLedger) error {
	if len(ledgers) == 0 {
		fmt.Fprintln(out, "No ledger activity.")
		return nil
	}
	for i, l := range ledgers {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s %s (%s, normal %s)\n", l.Account.Code, l.Account.Name, l.Account.Type, l.Account.NormalBalance)

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tREFERENCE\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE")
		for _, tx := range l.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Entry.EntryDate.Format(model.DateFormat), tx.Entry.ReferenceNumber, tx.Entry.Description,
				blankZero(a, tx.Line.Debit), blankZero(a, tx.Line.Credit), a.money.Accounting(tx.RunningBalance))
		}
		fmt.Fprintf(tw, "\tTotal\t\t%s\t%s\t%s\n",
			a.money.Format(l.TotalDebit), a.money.Format(l.TotalCredit), a.money.Accounting(l.Balance))
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
