package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/ledger"
)

// Document is a report flattened into printable blocks, shared by the CSV
// export and the CLI.
type Document struct {
	Kind    Kind
	Title   string
	Period  ledger.Period
	AsOf    bool // point-in-time report, described by its end date only
	Blocks  []Block
	Warning string
}

// Block is a headed run of account groups followed by total rows.
// A block without groups holds totals only.
type Block struct {
	Heading string
	Groups  []Group
	Totals  []Total
}

// Group is a list of account lines, optionally labelled.
type Group struct {
	Label string
	Lines []Line
}

// Total is a summary row. Deductions print in parentheses.
type Total struct {
	Label     string
	Amount    decimal.Decimal
	Deduction bool
}

func sectionBlock(s Section, totalLabel string, deduction bool) Block {
	return Block{
		Heading: strings.ToUpper(s.Title),
		Groups:  []Group{{Lines: s.Lines}},
		Totals:  []Total{{Label: totalLabel, Amount: s.Total, Deduction: deduction}},
	}
}

// Document renders the multi-section income statement.
func (s IncomeStatement) Document() Document {
	d := Document{Kind: KindIncome, Title: "INCOME STATEMENT", Period: s.Period}

	d.Blocks = append(d.Blocks, sectionBlock(s.Revenue, "Total Revenue", false))

	cogs := sectionBlock(s.COGS, "Total "+s.COGS.Title, true)
	cogs.Totals = append(cogs.Totals, Total{Label: "GROSS PROFIT", Amount: s.GrossProfit})
	d.Blocks = append(d.Blocks, cogs)

	opex := Block{Heading: "OPERATING EXPENSES"}
	for _, sec := range s.Operating {
		if sec.Empty() {
			continue
		}
		opex.Groups = append(opex.Groups, Group{Label: sec.Title, Lines: sec.Lines})
	}
	opex.Totals = []Total{
		{Label: "Total Operating Expenses", Amount: s.TotalOperating, Deduction: true},
		{Label: "OPERATING INCOME", Amount: s.OperatingIncome},
	}
	d.Blocks = append(d.Blocks, opex)

	if !s.NonOperating.Empty() {
		d.Blocks = append(d.Blocks, sectionBlock(s.NonOperating, "Total "+s.NonOperating.Title, true))
	}

	d.Blocks = append(d.Blocks, Block{Totals: []Total{{Label: "NET INCOME", Amount: s.NetIncome}}})
	return d
}

// Document renders the two-section income statement.
func (s SimpleIncomeStatement) Document() Document {
	return Document{
		Kind:   KindIncomeSimple,
		Title:  "INCOME STATEMENT SUMMARY",
		Period: s.Period,
		Blocks: []Block{
			sectionBlock(s.Revenue, "Total Revenue", false),
			sectionBlock(s.Expenses, "Total Expenses", true),
			{Totals: []Total{{Label: "NET INCOME", Amount: s.NetIncome}}},
		},
	}
}

// Document renders the balance sheet. Categories without accounts are left out.
func (s BalanceSheet) Document() Document {
	d := Document{Kind: KindBalance, Title: "BALANCE SHEET", Period: s.Period, AsOf: true, Warning: s.Warning()}

	for _, sec := range s.Assets {
		if !sec.Empty() {
			d.Blocks = append(d.Blocks, sectionBlock(sec, "Total "+sec.Title, false))
		}
	}
	d.Blocks = append(d.Blocks, Block{Totals: []Total{{Label: "TOTAL ASSETS", Amount: s.TotalAssets}}})

	for _, sec := range s.Liabilities {
		if !sec.Empty() {
			d.Blocks = append(d.Blocks, sectionBlock(sec, "Total "+sec.Title, false))
		}
	}
	d.Blocks = append(d.Blocks, Block{Totals: []Total{{Label: "TOTAL LIABILITIES", Amount: s.TotalLiabilities}}})

	d.Blocks = append(d.Blocks, Block{
		Heading: "EQUITY",
		Groups:  []Group{{Lines: s.Equity.Lines}},
		Totals: []Total{
			{Label: "Current Period Earnings", Amount: s.NetIncome},
			{Label: "Total Equity", Amount: s.TotalEquity},
		},
	})
	d.Blocks = append(d.Blocks, Block{Totals: []Total{{Label: "TOTAL LIABILITIES AND EQUITY", Amount: s.TotalLiabilitiesAndEquity}}})
	return d
}
