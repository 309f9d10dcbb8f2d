package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/kris-accounting/kris/internal/model"
)

// Period is an inclusive range of entry dates. A zero bound is open.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Contains reports whether date falls within the period, both ends inclusive.
func (p Period) Contains(date time.Time) bool {
	if !p.Start.IsZero() && date.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && date.After(p.End) {
		return false
	}
	return true
}

// ParsePeriod parses YYYY-MM-DD bounds. Blank strings leave the bound open.
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	var err error
	if s := strings.TrimSpace(start); s != "" {
		if p.Start, err = time.Parse(model.DateFormat, s); err != nil {
			return Period{}, fmt.Errorf("parsing start date %q: %w", start, err)
		}
	}
	if s := strings.TrimSpace(end); s != "" {
		if p.End, err = time.Parse(model.DateFormat, s); err != nil {
			return Period{}, fmt.Errorf("parsing end date %q: %w", end, err)
		}
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return p, nil
}
