package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// timeValue scans DATE and TIMESTAMP columns from drivers that return either
// time.Time or text.
type timeValue struct {
	time.Time
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
	case time.Time:
		t.Time = v
	case []byte:
		parsed, err := parseTime(string(v))
		if err != nil {
			return err
		}
		t.Time = parsed
	case string:
		parsed, err := parseTime(v)
		if err != nil {
			return err
		}
		t.Time = parsed
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	return nil
}

// numericValue scans NUMERIC/DECIMAL columns, treating NULL as zero.
type numericValue struct {
	decimal.Decimal
}

func (n *numericValue) Scan(src any) error {
	if src == nil {
		n.Decimal = decimal.Zero
		return nil
	}
	return n.Decimal.Scan(src)
}
