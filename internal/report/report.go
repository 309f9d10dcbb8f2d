// Package report compiles account balances into financial statements and
// exports them as delimited text.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
)

// Kind selects a report layout.
type Kind string

const (
	KindIncome       Kind = "income"
	KindIncomeSimple Kind = "income-simple"
	KindBalance      Kind = "balance"
)

// Kinds lists every report layout.
var Kinds = []Kind{KindIncome, KindIncomeSimple, KindBalance}

// ParseKind parses a report kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q (want income, income-simple or balance)", s)
}

// Line is one account shown in a section.
type Line struct {
	AccountID string          `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// Section groups accounts under a heading. Lines below model.Tolerance are left out
// of Lines but still counted in Total.
type Section struct {
	Title string          `json:"title"`
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return len(s.Lines) == 0 && s.Total.IsZero()
}

// side returns the balance as seen from side: unchanged for accounts whose normal
// balance is side, negated for contra accounts.
func side(b model.AccountBalance, normal model.NormalBalance) decimal.Decimal {
	if b.Account.NormalBalance == normal {
		return b.Balance
	}
	return b.Balance.Neg()
}

func newSection(title string, balances []model.AccountBalance, normal model.NormalBalance) Section {
	s := Section{Title: title, Lines: []Line{}, Total: decimal.Zero}
	for _, b := range balances {
		amount := side(b, normal)
		s.Total = s.Total.Add(amount)
		if model.Negligible(amount) {
			continue
		}
		s.Lines = append(s.Lines, Line{
			AccountID: b.Account.ID,
			Code:      b.Account.Code,
			Name:      b.Account.Name,
			Amount:    amount,
		})
	}
	return s
}

func sumSections(sections []Section) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sections {
		total = total.Add(s.Total)
	}
	return total
}

// categorySections builds one section per configured category, then one per
// remaining category of balances in name order.
func categorySections(balances []model.AccountBalance, configured []string, normal model.NormalBalance) []Section {
	byCategory := make(map[string][]model.AccountBalance)
	for _, b := range balances {
		byCategory[b.Account.Category] = append(byCategory[b.Account.Category], b)
	}

	var out []Section
	seen := make(map[string]bool)
	for _, c := range configured {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, newSection(c, byCategory[c], normal))
	}
	var extra []string
	for c := range byCategory {
		if !seen[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	for _, c := range extra {
		out = append(out, newSection(c, byCategory[c], normal))
	}
	return out
}

func ofType(balances []model.AccountBalance, t model.AccountType) []model.AccountBalance {
	var out []model.AccountBalance
	for _, b := range balances {
		if b.Account.Type == t {
			out = append(out, b)
		}
	}
	return out
}

// DefaultPeriod runs from the most recent fiscal year start up to today.
func DefaultPeriod(now time.Time, fiscalMonth, fiscalDay int) ledger.Period {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	start := time.Date(y, time.Month(fiscalMonth), fiscalDay, 0, 0, 0, 0, time.UTC)
	if start.After(today) {
		start = start.AddDate(-1, 0, 0)
	}
	return ledger.Period{Start: start, End: today}
}
