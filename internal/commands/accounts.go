package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	acctpkg "github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/model"
)

func newAccountsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newAccountsListCommand(opts),
		newAccountsCreateCommand(opts),
		newAccountsUpdateCommand(opts),
		newAccountsDeleteCommand(opts),
		newAccountsSeedCommand(opts),
		newAccountsImportCommand(opts),
		newAccountsExportCommand(opts),
	)
	return cmd
}

func newAccountsListCommand(opts *options) *cobra.Command {
	var search, typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var accountType model.AccountType
			if typ != "" {
				t, err := model.ParseAccountType(typ)
				if err != nil {
					return err
				}
				accountType = t
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			accts := a.accounts.All()
			if accountType != "" {
				accts = a.accounts.ByType(accountType)
			}
			return printAccounts(cmd.OutOrStdout(), acctpkg.Search(accts, search))
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by code, name or type")
	cmd.Flags().StringVar(&typ, "type", "", "only accounts of this type, e.g. expense")
	return cmd
}

func printAccounts(out io.Writer, accts []model.Account) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tCATEGORY\tNORMAL\tID")
	for _, acct := range accts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			acct.Code, acct.Name, acct.Type, acct.Category, acct.NormalBalance, acct.ID)
	}
	return tw.Flush()
}

type accountFlags struct {
	code, name, typ, category, normal string
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.code, "code", "", "account code, e.g. 1-1001")
	cmd.Flags().StringVar(&f.name, "name", "", "account name")
	cmd.Flags().StringVar(&f.typ, "type", "", "Asset, Liability, Equity, Revenue or Expense")
	cmd.Flags().StringVar(&f.category, "category", "", "report category, e.g. Current Assets")
	cmd.Flags().StringVar(&f.normal, "normal-balance", "", "Debit or Credit")
}

func (f *accountFlags) fields() acctpkg.Fields {
	return acctpkg.Fields{
		Code:          f.code,
		Name:          f.name,
		Type:          model.AccountType(f.typ),
		Category:      f.category,
		NormalBalance: model.NormalBalance(f.normal),
	}
}

func newAccountsCreateCommand(opts *options) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			acct, err := a.accounts.Create(cmd.Context(), f.fields())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s %s (%s)\n", acct.Code, acct.Name, acct.ID)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAccountsUpdateCommand(opts *options) *cobra.Command {
	var f accountFlags
	cmd := &cobra.Command{
		Use:   "update <code>",
		Short: "Replace the fields of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			acct, err := findAccount(a, args[0])
			if err != nil {
				return err
			}
			// Unset flags keep the current value.
			fields := f.fields()
			if fields.Code == "" {
				fields.Code = acct.Code
			}
			if fields.Name == "" {
				fields.Name = acct.Name
			}
			if fields.Type == "" {
				fields.Type = acct.Type
			}
			if fields.Category == "" {
				fields.Category = acct.Category
			}
			if fields.NormalBalance == "" {
				fields.NormalBalance = acct.NormalBalance
			}
			if err := a.accounts.Update(cmd.Context(), acct.ID, fields); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s\n", fields.Code)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newAccountsDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			acct, err := findAccount(a, args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.Delete(cmd.Context(), acct.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account %s\n", acct.Code)
			return nil
		},
	}
}

// findAccount resolves an account by code, falling back to ID.
func findAccount(a *app, ref string) (model.Account, error) {
	for _, acct := range a.accounts.All() {
		if acct.Code == ref || acct.ID == ref {
			return acct, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %q not found", ref)
}

func newAccountsSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the default chart of accounts (existing codes are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.accounts.ImportChart(cmd.Context(), acctpkg.DefaultChart())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d accounts\n", n)
			return nil
		},
	}
}

func newAccountsImportCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import accounts from CSV (code,name,type,category,normal_balance)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			chart, err := acctpkg.ReadChart(f)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.accounts.ImportChart(cmd.Context(), chart)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d accounts\n", n, len(chart))
			return nil
		},
	}
}

func newAccountsExportCommand(opts *options) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the chart of accounts as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.close()

			return writeTo(cmd.OutOrStdout(), outPath, func(w io.Writer) error {
				return acctpkg.WriteChart(w, a.accounts.All())
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

// writeTo runs write against path, or against stdout when path is empty.
func writeTo(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
