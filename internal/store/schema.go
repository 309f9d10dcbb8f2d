package store

import (
	"fmt"
	"time"

	"github.com/kris-accounting/kris/internal/id"
)

// Table names.
const (
	TableAccounts = "chart_of_accounts"
	TableEntries  = "journal_entries"
	TableLines    = "journal_entry_lines"
)

// Column names shared by the tables.
const (
	ColID              = "id"
	ColCreatedAt       = "created_at"
	ColCode            = "code"
	ColName            = "name"
	ColType            = "type"
	ColCategory        = "category"
	ColNormalBalance   = "normal_balance"
	ColEntryDate       = "entry_date"
	ColReferenceNumber = "reference_number"
	ColDescription     = "description"
	ColJournalEntryID  = "journal_entry_id"
	ColAccountID       = "account_id"
	ColDebit           = "debit"
	ColCredit          = "credit"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindTimestamp
	KindNumeric
)

// Column describes one column of a table.
type Column struct {
	Name string
	Kind Kind
}

// Schema lists the columns of every table in declaration order.
var Schema = map[string][]Column{
	TableAccounts: {
		{ColID, KindText},
		{ColCode, KindText},
		{ColName, KindText},
		{ColType, KindText},
		{ColCategory, KindText},
		{ColNormalBalance, KindText},
		{ColCreatedAt, KindTimestamp},
	},
	TableEntries: {
		{ColID, KindText},
		{ColEntryDate, KindDate},
		{ColReferenceNumber, KindText},
		{ColDescription, KindText},
		{ColCreatedAt, KindTimestamp},
	},
	TableLines: {
		{ColID, KindText},
		{ColJournalEntryID, KindText},
		{ColAccountID, KindText},
		{ColDebit, KindNumeric},
		{ColCredit, KindNumeric},
		{ColCreatedAt, KindTimestamp},
	},
}

// Columns returns the columns of table.
func Columns(table string) ([]Column, error) {
	cols, ok := Schema[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return cols, nil
}

// CheckColumn returns an error unless col belongs to table.
func CheckColumn(table, col string) error {
	cols, err := Columns(table)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if c.Name == col {
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, col)
}

// CheckQuery validates every column a query references.
func CheckQuery(q Query) error {
	if _, err := Columns(q.Table); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if err := CheckColumn(q.Table, f.Column); err != nil {
			return err
		}
		switch f.Op {
		case Eq, Gte, Lte:
		default:
			return fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	for _, o := range q.Order {
		if err := CheckColumn(q.Table, o.Column); err != nil {
			return err
		}
	}
	return nil
}

// CheckFields validates the keys of a row against table.
func CheckFields(table string, fields Row) error {
	for col := range fields {
		if err := CheckColumn(table, col); err != nil {
			return err
		}
	}
	return nil
}

// Prepare returns a copy of row ready for insert: id generated when absent and
// created_at stamped with now.
func Prepare(table string, row Row, now time.Time) (Row, error) {
	if err := CheckFields(table, row); err != nil {
		return nil, err
	}
	out := make(Row, len(row)+2)
	for k, v := range row {
		out[k] = v
	}
	if s, _ := out[ColID].(string); s == "" {
		out[ColID] = id.New()
	}
	out[ColCreatedAt] = now
	return out, nil
}
