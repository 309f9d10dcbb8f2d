package accounts

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kris-accounting/kris/internal/model"
)

// Header is the CSV header for chart-of-accounts files.
var Header = []string{"code", "name", "type", "category", "normal_balance"}

const (
	numFields    = 5
	colCode      = 0
	colName      = 1
	colType      = 2
	colCategory  = 3
	colNormalBal = 4
)

// ReadChart reads a chart-of-accounts CSV.
func ReadChart(r io.Reader) ([]Fields, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var chart []Fields
	for i, rec := range records[1:] {
		f, err := UnmarshalFields(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		chart = append(chart, f)
	}
	return chart, nil
}

// WriteChart writes accounts as a chart-of-accounts CSV.
func WriteChart(w io.Writer, accts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCategory] = acct.Category
	row[colNormalBal] = string(acct.NormalBalance)
	return row
}

// UnmarshalFields converts a CSV row to account Fields.
func UnmarshalFields(record []string) (Fields, error) {
	if len(record) != numFields {
		return Fields{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	t, err := model.ParseAccountType(record[colType])
	if err != nil {
		return Fields{}, err
	}
	nb, err := model.ParseNormalBalance(record[colNormalBal])
	if err != nil {
		return Fields{}, err
	}

	return Fields{
		Code:          record[colCode],
		Name:          record[colName],
		Type:          t,
		Category:      record[colCategory],
		NormalBalance: nb,
	}, nil
}
