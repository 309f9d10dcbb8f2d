package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Coerce converts v to the Go type used for columns of kind:
// string for text, time.Time for dates and timestamps, decimal.Decimal for numerics.
// Dates are truncated to midnight UTC.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindText:
		switch t := v.(type) {
		case string:
			return t, nil
		case fmt.Stringer:
			return t.String(), nil
		case nil:
			return "", nil
		}
	case KindDate, KindTimestamp:
		var tm time.Time
		switch t := v.(type) {
		case time.Time:
			tm = t
		case string:
			parsed, err := parseTime(t)
			if err != nil {
				return nil, err
			}
			tm = parsed
		default:
			return nil, fmt.Errorf("cannot use %T as time", v)
		}
		if kind == KindDate {
			y, m, d := tm.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
		return tm, nil
	case KindNumeric:
		switch t := v.(type) {
		case decimal.Decimal:
			return t, nil
		case string:
			d, err := decimal.NewFromString(t)
			if err != nil {
				return nil, fmt.Errorf("parsing numeric %q: %w", t, err)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(t), nil
		case int:
			return decimal.NewFromInt(int64(t)), nil
		case int64:
			return decimal.NewFromInt(t), nil
		case []byte:
			d, err := decimal.NewFromString(string(t))
			if err != nil {
				return nil, fmt.Errorf("parsing numeric %q: %w", t, err)
			}
			return d, nil
		case nil:
			return decimal.Zero, nil
		}
	}
	return nil, fmt.Errorf("cannot use %T for column kind %d", v, kind)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing time %q", s)
}

// ColumnKind returns the kind of table.col.
func ColumnKind(table, col string) (Kind, error) {
	cols, err := Columns(table)
	if err != nil {
		return 0, err
	}
	for _, c := range cols {
		if c.Name == col {
			return c.Kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, col)
}

// CoerceRow converts every value of row to its column's Go type.
func CoerceRow(table string, row Row) (Row, error) {
	out := make(Row, len(row))
	for col, v := range row {
		kind, err := ColumnKind(table, col)
		if err != nil {
			return nil, err
		}
		cv, err := Coerce(kind, v)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		out[col] = cv
	}
	return out, nil
}

// Compare orders two coerced values of the same kind: -1, 0 or +1.
func Compare(a, b any) int {
	switch x := a.(type) {
	case string:
		y, _ := b.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case time.Time:
		y, _ := b.(time.Time)
		return x.Compare(y)
	case decimal.Decimal:
		y, _ := b.(decimal.Decimal)
		return x.Cmp(y)
	}
	return 0
}
