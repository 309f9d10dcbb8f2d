// Package ledger derives per-account ledgers and balances from journal lines.
// Nothing here is persisted; every view recomputes from a fresh Snapshot.
package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/model"
)

// Posting is a journal line together with the header of its entry.
type Posting struct {
	Entry model.JournalEntry
	Line  model.JournalLine
}

// Transaction is a posting with its signed contribution and the running balance after it.
type Transaction struct {
	Posting
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
}

// AccountLedger is the derived ledger of one account.
type AccountLedger struct {
	Account      model.Account
	Transactions []Transaction
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	Balance      decimal.Decimal
}

// Fold folds postings in the given order into a ledger for acct.
func Fold(acct model.Account, postings []Posting) AccountLedger {
	l := AccountLedger{
		Account:      acct,
		Transactions: make([]Transaction, 0, len(postings)),
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		Balance:      decimal.Zero,
	}
	for _, p := range postings {
		amount := model.SignedAmount(p.Line.Debit, p.Line.Credit, acct.NormalBalance)
		l.Balance = l.Balance.Add(amount)
		l.TotalDebit = l.TotalDebit.Add(p.Line.Debit)
		l.TotalCredit = l.TotalCredit.Add(p.Line.Credit)
		l.Transactions = append(l.Transactions, Transaction{
			Posting:        p,
			Amount:         amount,
			RunningBalance: l.Balance,
		})
	}
	return l
}

// Snapshot is the line set of a set of accounts over one period.
type Snapshot struct {
	Period   Period
	Accounts []model.Account
	// Postings holds each account's postings in line creation order, keyed by account ID.
	Postings map[string][]Posting
}

// Ledgers folds every account of the snapshot, in account order.
func (s Snapshot) Ledgers() []AccountLedger {
	out := make([]AccountLedger, len(s.Accounts))
	for i, a := range s.Accounts {
		out[i] = Fold(a, s.Postings[a.ID])
	}
	return out
}

// Balances returns the final balance of every account of the snapshot.
func (s Snapshot) Balances() []model.AccountBalance {
	out := make([]model.AccountBalance, len(s.Accounts))
	for i, l := range s.Ledgers() {
		out[i] = model.AccountBalance{Account: l.Account, Balance: l.Balance}
	}
	return out
}

// Visible drops accounts that have no transactions and a zero balance.
func Visible(ledgers []AccountLedger) []AccountLedger {
	var out []AccountLedger
	for _, l := range ledgers {
		if len(l.Transactions) == 0 && l.Balance.IsZero() {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Search filters ledgers by a case-insensitive substring of account code or name.
func Search(ledgers []AccountLedger, term string) []AccountLedger {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ledgers
	}
	var out []AccountLedger
	for _, l := range ledgers {
		if strings.Contains(strings.ToLower(l.Account.Code), term) ||
			strings.Contains(strings.ToLower(l.Account.Name), term) {
			out = append(out, l)
		}
	}
	return out
}

func sortByCode(accts []model.Account) []model.Account {
	out := make([]model.Account, len(accts))
	copy(out, accts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
