package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/report"
)

func newReportCommand(opts *options) *cobra.Command {
	var start, end, export, outDir string
	kinds := make([]string, len(report.Kinds))
	for i, k := range report.Kinds {
		kinds[i] = string(k)
	}

	cmd := &cobra.Command{
		Use:       "report <" + strings.Join(kinds, "|") + ">",
		Short:     "Compile a financial statement",
		Long:      "Compile a financial statement. Open period bounds default to the current fiscal year to date.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := report.ParseKind(args[0])
			if err != nil {
				return err
			}
			p, err := ledger.ParsePeriod(start, end)
			if err != nil {
				return err
			}
			var format report.Format
			if export != "" {
				if format, err = report.ParseFormat(export); err != nil {
					return err
				}
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			_, doc, err := a.reports.Compile(cmd.Context(), kind, a.accounts.All(), p)
			if err != nil {
				return err
			}
			if export != "" {
				return exportDocument(cmd.OutOrStdout(), a, doc, format, outDir)
			}
			printDocument(cmd.OutOrStdout(), a, doc)
			if doc.Warning != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", doc.Warning)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD (default fiscal year start)")
	cmd.Flags().StringVar(&end, "end", "", "period end YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&export, "export", "", "write the report to a file: csv or pdf")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory for exported files")
	return cmd
}

func exportDocument(out io.Writer, a *app, doc report.Document, format report.Format, dir string) error {
	// Checked before creating the file so an unavailable format leaves nothing behind.
	if format == report.FormatPDF {
		return report.ErrFormatUnavailable
	}
	path := filepath.Join(dir, report.Filename(doc, format))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := a.exporter.Export(f, doc, format); err != nil {
		f.Close()
		return errors.Join(err, os.Remove(path))
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func printDocument(out io.Writer, a *app, doc report.Document) {
	fmt.Fprintln(out, doc.Title)
	if doc.AsOf {
		fmt.Fprintf(out, "As of %s\n", doc.Period.End.Format(model.DateFormat))
	} else {
		fmt.Fprintf(out, "For the period %s to %s\n",
			doc.Period.Start.Format(model.DateFormat), doc.Period.End.Format(model.DateFormat))
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, b := range doc.Blocks {
		fmt.Fprintln(tw, "\t\t")
		if b.Heading != "" {
			fmt.Fprintf(tw, "%s\t\t\n", b.Heading)
		}
		for _, g := range b.Groups {
			if g.Label != "" {
				fmt.Fprintf(tw, "  %s\t\t\n", g.Label)
			}
			for _, l := range g.Lines {
				fmt.Fprintf(tw, "    %s  %s\t\t%s\n", l.Code, l.Name, a.money.Format(l.Amount))
			}
		}
		for _, t := range b.Totals {
			amount := a.money.Accounting(t.Amount)
			if t.Deduction {
				amount = "(" + a.money.Format(t.Amount) + ")"
			}
			fmt.Fprintf(tw, "%s\t\t%s\n", t.Label, amount)
		}
	}
	_ = tw.Flush()
}
