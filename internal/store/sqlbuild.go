package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Placeholder renders the n-th (1-based) bind parameter of a SQL dialect.
type Placeholder func(n int) string

// Dollar renders PostgreSQL placeholders: $1, $2, ...
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders MySQL placeholders.
func Question(int) string { return "?" }

var opSQL = map[Op]string{Eq: "=", Gte: ">=", Lte: "<="}

// SelectSQL builds a SELECT of every schema column of q.Table. It returns the
// statement, its arguments and the column list in scan order.
func SelectSQL(q Query, ph Placeholder) (string, []any, []Column, error) {
	if err := CheckQuery(q); err != nil {
		return "", nil, nil, err
	}
	cols, _ := Columns(q.Table)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(names, ", "), q.Table)

	args := make([]any, 0, len(q.Filters))
	for i, f := range q.Filters {
		kind, _ := ColumnKind(q.Table, f.Column)
		v, err := Coerce(kind, f.Value)
		if err != nil {
			return "", nil, nil, fmt.Errorf("filter %s: %w", f.Column, err)
		}
		args = append(args, v)
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "%s %s %s", f.Column, opSQL[f.Op], ph(len(args)))
	}

	if len(q.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.Column)
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	return b.String(), args, cols, nil
}

// InsertSQL builds a single-row INSERT for a prepared row. Columns are emitted in
// sorted order so statements are stable.
func InsertSQL(table string, row Row, ph Placeholder) (string, []any, error) {
	row, err := CoerceRow(table, row)
	if err != nil {
		return "", nil, err
	}
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		args[i] = row[c]
		marks[i] = ph(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return stmt, args, nil
}

// UpdateSQL builds an UPDATE by id. id and created_at are never updated.
func UpdateSQL(table, id string, fields Row, ph Placeholder) (string, []any, error) {
	fields, err := CoerceRow(table, fields)
	if err != nil {
		return "", nil, err
	}
	cols := make([]string, 0, len(fields))
	for c := range fields {
		if c == ColID || c == ColCreatedAt {
			continue
		}
		cols = append(cols, c)
	}
	if len(cols) == 0 {
		return "", nil, fmt.Errorf("update %s %s: no fields", table, id)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols)+1)
	sets := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, fields[c])
		sets[i] = fmt.Sprintf("%s = %s", c, ph(len(args)))
	}
	args = append(args, id)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s", table, strings.Join(sets, ", "), ph(len(args)))
	return stmt, args, nil
}

// DeleteSQL builds a DELETE by id.
func DeleteSQL(table, id string, ph Placeholder) (string, []any, error) {
	if _, err := Columns(table); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("DELETE FROM %s WHERE id = %s", table, ph(1)), []any{id}, nil
}

// ScanTargets returns one pointer per column for use with rows.Scan, and a function
// that collects the scanned values into a Row.
func ScanTargets(cols []Column) ([]any, func() Row) {
	targets := make([]any, len(cols))
	for i, c := range cols {
		switch c.Kind {
		case KindText:
			targets[i] = new(string)
		case KindDate, KindTimestamp:
			targets[i] = new(timeValue)
		case KindNumeric:
			targets[i] = new(numericValue)
		}
	}
	collect := func() Row {
		row := make(Row, len(cols))
		for i, c := range cols {
			switch t := targets[i].(type) {
			case *string:
				row[c.Name] = *t
			case *timeValue:
				row[c.Name] = t.Time
			case *numericValue:
				row[c.Name] = t.Decimal
			}
		}
		return row
	}
	return targets, collect
}
