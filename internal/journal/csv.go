package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/model"
)

// Header is the CSV header of a journal export: one row per line.
var Header = []string{"reference_number", "entry_date", "description", "account_code", "debit", "credit"}

const (
	numFields  = 6
	colRef     = 0
	colDate    = 1
	colDesc    = 2
	colAccount = 3
	colDebit   = 4
	colCredit  = 5
)

// WriteEntries writes entries as CSV, one row per line. codeOf maps an account ID
// to its code; unknown IDs are written as-is.
func WriteEntries(w io.Writer, entries []model.EntryWithLines, codeOf map[string]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, e := range entries {
		for _, l := range e.Lines {
			if err := cw.Write(MarshalLine(e.JournalEntry, l, codeOf)); err != nil {
				return fmt.Errorf("writing entry %s: %w", e.ReferenceNumber, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts one line of an entry to a CSV row.
func MarshalLine(e model.JournalEntry, l model.JournalLine, codeOf map[string]string) []string {
	row := make([]string, numFields)
	row[colRef] = e.ReferenceNumber
	row[colDate] = e.EntryDate.Format(model.DateFormat)
	row[colDesc] = e.Description
	row[colAccount] = l.AccountID
	if code, ok := codeOf[l.AccountID]; ok {
		row[colAccount] = code
	}
	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(2)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(2)
	}
	return row
}

// ReadDrafts reads a journal CSV into drafts. Consecutive rows sharing reference,
// date and description form one draft. idOf maps account codes to IDs.
func ReadDrafts(r io.Reader, idOf map[string]string) ([]Draft, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var drafts []Draft
	for i, rec := range records[1:] {
		d, err := UnmarshalRow(rec, idOf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(drafts); n > 0 && sameEntry(drafts[n-1], d) {
			drafts[n-1].Lines = append(drafts[n-1].Lines, d.Lines...)
			continue
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func sameEntry(a, b Draft) bool {
	return a.ReferenceNumber == b.ReferenceNumber && a.Date.Equal(b.Date) && a.Description == b.Description
}

// UnmarshalRow converts a CSV row into a single-line draft.
func UnmarshalRow(record []string, idOf map[string]string) (Draft, error) {
	if len(record) != numFields {
		return Draft{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(model.DateFormat, strings.TrimSpace(record[colDate]))
	if err != nil {
		return Draft{}, fmt.Errorf("parsing entry_date %q: %w", record[colDate], err)
	}

	code := strings.TrimSpace(record[colAccount])
	accountID, ok := idOf[code]
	if !ok {
		return Draft{}, fmt.Errorf("unknown account code %q", code)
	}

	debit, err := parseAmount(record[colDebit])
	if err != nil {
		return Draft{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
	}
	credit, err := parseAmount(record[colCredit])
	if err != nil {
		return Draft{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
	}

	return Draft{
		Date:            date,
		ReferenceNumber: strings.TrimSpace(record[colRef]),
		Description:     record[colDesc],
		Lines:           []DraftLine{{AccountID: accountID, Debit: debit, Credit: credit}},
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
