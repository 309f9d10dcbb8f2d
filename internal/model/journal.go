package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the wire format of entry dates.
const DateFormat = "2006-01-02"

// JournalEntry is the header of a double-entry posting.
type JournalEntry struct {
	ID              string
	EntryDate       time.Time
	ReferenceNumber string
	Description     string
	CreatedAt       time.Time
}

// JournalLine is one debit-or-credit posting against one account.
type JournalLine struct {
	ID             string
	JournalEntryID string
	AccountID      string
	Debit          decimal.Decimal // zero if credit side
	Credit         decimal.Decimal // zero if debit side
	CreatedAt      time.Time
}

// EntryWithLines is a journal entry together with its ordered lines.
type EntryWithLines struct {
	JournalEntry
	Lines []JournalLine
}

// Totals returns the summed debit and credit of the entry's lines.
func (e EntryWithLines) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Matches reports whether term is a case-insensitive substring of the reference or description.
func (e JournalEntry) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.ReferenceNumber), term) ||
		strings.Contains(strings.ToLower(e.Description), term)
}
