package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/model"
)

// ErrUnbalanced is wrapped by the ValidationError of an entry whose debits and
// credits differ by more than model.Tolerance.
var ErrUnbalanced = errors.New("total debit does not equal total credit")

// ValidationError describes why a draft was rejected before reaching storage.
// Line is 1-based; zero means the entry as a whole.
type ValidationError struct {
	Line        int
	Reason      string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Err         error
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id string) bool
}

// Draft is a journal entry as submitted, before pruning and validation.
type Draft struct {
	Date            time.Time
	ReferenceNumber string
	Description     string
	Lines           []DraftLine
}

// DraftLine is one submitted posting.
type DraftLine struct {
	AccountID string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

func (l DraftLine) empty() bool {
	return strings.TrimSpace(l.AccountID) == "" || (l.Debit.IsZero() && l.Credit.IsZero())
}

// Prune drops lines with a blank account or with zero in both columns. A line
// with positive amounts in both columns keeps only their difference, on the
// larger side, so every stored line carries at most one amount.
func Prune(lines []DraftLine) []DraftLine {
	out := make([]DraftLine, 0, len(lines))
	for _, l := range lines {
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			net := l.Debit.Sub(l.Credit)
			l.Debit, l.Credit = decimal.Zero, decimal.Zero
			if net.IsPositive() {
				l.Debit = net
			} else {
				l.Credit = net.Neg()
			}
		}
		if l.empty() {
			continue
		}
		l.AccountID = strings.TrimSpace(l.AccountID)
		out = append(out, l)
	}
	return out
}

// Totals sums the debit and credit columns.
func Totals(lines []DraftLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Validate checks an already pruned draft. accounts may be nil, in which case
// account references are left to the backend.
func Validate(d Draft, accounts AccountChecker) error {
	if len(d.Lines) == 0 {
		return &ValidationError{Reason: "entry has no lines"}
	}
	for i, l := range d.Lines {
		switch {
		case l.Debit.IsNegative() || l.Credit.IsNegative():
			return &ValidationError{Line: i + 1, Reason: "amounts must not be negative"}
		case accounts != nil && !accounts.Exists(l.AccountID):
			return &ValidationError{Line: i + 1, Reason: fmt.Sprintf("unknown account %s", l.AccountID)}
		}
	}

	debit, credit := Totals(d.Lines)
	if !model.WithinTolerance(debit, credit) {
		return &ValidationError{
			Reason: fmt.Sprintf("total debit (%s) must equal total credit (%s)",
				debit.StringFixed(2), credit.StringFixed(2)),
			TotalDebit:  debit,
			TotalCredit: credit,
			Err:         ErrUnbalanced,
		}
	}
	return nil
}
