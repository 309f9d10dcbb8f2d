package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/model"
)

func newJournalCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Record and review journal entries",
	}
	cmd.AddCommand(
		newJournalListCommand(opts),
		newJournalCreateCommand(opts),
		newJournalDeleteCommand(opts),
		newJournalImportCommand(opts),
		newJournalExportCommand(opts),
	)
	return cmd
}

func newJournalListCommand(opts *options) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.journal.List(cmd.Context())
			if err != nil {
				return err
			}
			codeOf, _ := a.codeMaps()
			return printEntries(cmd.OutOrStdout(), a, journal.Search(entries, search), codeOf)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by reference or description")
	return cmd
}

func printEntries(out io.Writer, a *app, entries []model.EntryWithLines, codeOf map[string]string) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		debit, credit := e.Totals()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			e.EntryDate.Format(model.DateFormat), e.ReferenceNumber, e.Description,
			a.money.Format(debit), a.money.Format(credit))
		for _, l := range e.Lines {
			fmt.Fprintf(tw, "\t\t  %s\t%s\t%s\t\n",
				codeOr(codeOf, l.AccountID), blankZero(a, l.Debit), blankZero(a, l.Credit))
		}
	}
	return tw.Flush()
}

func codeOr(codeOf map[string]string, accountID string) string {
	if code, ok := codeOf[accountID]; ok {
		return code
	}
	return accountID
}

func blankZero(a *app, d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return a.money.Format(d)
}

func newJournalCreateCommand(opts *options) *cobra.Command {
	var (
		date, ref, desc string
		lines           []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a balanced journal entry",
		Example: `  kris journal create --desc "Owner capital" \
    --line 1-1001:1000000:0 --line 3-3001:0:1000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			_, idOf := a.codeMaps()
			d := journal.Draft{ReferenceNumber: ref, Description: desc}
			if date != "" {
				if d.Date, err = time.Parse(model.DateFormat, date); err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
			}
			for _, raw := range lines {
				l, err := parseLineFlag(raw, idOf)
				if err != nil {
					return err
				}
				d.Lines = append(d.Lines, l)
			}

			e, err := a.journal.Create(cmd.Context(), d)
			if err != nil {
				return err
			}
			debit, _ := e.Totals()
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s (%d lines, %s)\n",
				e.ReferenceNumber, e.EntryDate.Format(model.DateFormat), len(e.Lines), a.money.Format(debit))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&ref, "ref", "", "reference number (default JRN-<ulid>)")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "posting as code:debit:credit (repeatable)")
	return cmd
}

// parseLineFlag parses code:debit:credit. Empty amounts are zero.
func parseLineFlag(s string, idOf map[string]string) (journal.DraftLine, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return journal.DraftLine{}, fmt.Errorf("invalid --line %q: want code:debit:credit", s)
	}
	code := strings.TrimSpace(parts[0])
	accountID, ok := idOf[code]
	if !ok {
		return journal.DraftLine{}, fmt.Errorf("invalid --line %q: unknown account code %q", s, code)
	}
	amounts := [2]decimal.Decimal{}
	for i, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return journal.DraftLine{}, fmt.Errorf("invalid --line %q: %w", s, err)
		}
		amounts[i] = d
	}
	return journal.DraftLine{AccountID: accountID, Debit: amounts[0], Credit: amounts[1]}, nil
}

func newJournalDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reference>",
		Short: "Delete a journal entry and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.journal.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.ReferenceNumber == args[0] || e.ID == args[0] {
					if err := a.journal.Delete(cmd.Context(), e.ID); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", e.ReferenceNumber)
					return nil
				}
			}
			return fmt.Errorf("journal entry %q not found", args[0])
		},
	}
}

func newJournalImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import journal entries from CSV",
		Long: "Import journal entries from CSV with columns " + strings.Join(journal.Header, ",") + ".\n" +
			"Consecutive rows sharing reference, date and description form one entry.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			_, idOf := a.codeMaps()
			drafts, err := journal.ReadDrafts(f, idOf)
			if err != nil {
				return err
			}
			n, err := a.journal.Import(cmd.Context(), drafts)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d entries\n", n, len(drafts))
			return err
		},
	}
}

func newJournalExportCommand(opts *options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal entries as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			entries, err := a.journal.List(cmd.Context())
			if err != nil {
				return err
			}
			codeOf, _ := a.codeMaps()
			return writeTo(cmd.OutOrStdout(), outPath, func(w io.Writer) error {
				return journal.WriteEntries(w, entries, codeOf)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}
