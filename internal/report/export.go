package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/kris-accounting/kris/internal/model"
)

// ErrFormatUnavailable is returned for export formats that are not implemented.
var ErrFormatUnavailable = errors.New("PDF export is not yet available")

// Format is an export file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat parses an export format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatPDF:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or pdf)", s)
	}
}

// ColumnHeader heads every group of account lines.
const ColumnHeader = "Code,Account Name,Amount"

var whitespace = regexp.MustCompile(`\s+`)

// Filename returns <Title>_<start>_<end>.<format> with whitespace in the title
// replaced by underscores.
func Filename(d Document, f Format) string {
	return fmt.Sprintf("%s_%s_%s.%s",
		whitespace.ReplaceAllString(strings.TrimSpace(d.Title), "_"),
		formatDate(d.Period.Start), formatDate(d.Period.End), f)
}

// Exporter writes documents with the organization preamble.
type Exporter struct {
	Organization string
	CurrencyNote string
}

// Export writes d in format f and returns the file name to offer it under.
func (e Exporter) Export(w io.Writer, d Document, f Format) (string, error) {
	switch f {
	case FormatCSV:
		if err := e.WriteCSV(w, d); err != nil {
			return "", err
		}
		return Filename(d, f), nil
	case FormatPDF:
		return "", ErrFormatUnavailable
	default:
		return "", fmt.Errorf("unknown export format %q", f)
	}
}

// WriteCSV writes d as comma-separated text. Account names and total labels are
// always quoted; amounts carry two decimals, deductions in parentheses.
func (e Exporter) WriteCSV(w io.Writer, d Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, field(e.Organization))
	fmt.Fprintln(bw, field(d.Title))
	if d.AsOf {
		fmt.Fprintf(bw, "As of %s\n", formatDate(d.Period.End))
	} else {
		fmt.Fprintf(bw, "For the period %s to %s\n", formatDate(d.Period.Start), formatDate(d.Period.End))
	}
	if e.CurrencyNote != "" {
		fmt.Fprintln(bw, field(e.CurrencyNote))
	}
	fmt.Fprintln(bw)

	for _, b := range d.Blocks {
		if b.Heading != "" {
			fmt.Fprintln(bw, field(b.Heading))
		}
		for i, g := range b.Groups {
			if i > 0 {
				fmt.Fprintln(bw)
			}
			if g.Label != "" {
				fmt.Fprintln(bw, field(g.Label))
			}
			fmt.Fprintln(bw, ColumnHeader)
			for _, l := range g.Lines {
				fmt.Fprintf(bw, "%s,%s,%s\n", field(l.Code), quote(l.Name), l.Amount.StringFixed(2))
			}
		}
		for _, t := range b.Totals {
			fmt.Fprintf(bw, ",%s,%s\n", quote(t.Label), amount(t))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

func amount(t Total) string {
	if t.Deduction {
		return "(" + t.Amount.StringFixed(2) + ")"
	}
	return t.Amount.StringFixed(2)
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// field quotes s only when it would otherwise split the row.
func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func formatDate(t time.Time) string {
	return t.Format(model.DateFormat)
}
