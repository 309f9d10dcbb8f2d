// Package store defines the generic table capability the bookkeeping services are
// written against: filtered selects, inserts returning the stored rows, and
// update/delete by id over three fixed tables.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
)

// Row is a single record keyed by column name.
type Row map[string]any

// String returns the column value as a string, or "" if absent or not a string.
func (r Row) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Time returns the column value as a time, or the zero time.
func (r Row) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// Decimal returns the column value as a decimal, or zero.
func (r Row) Decimal(col string) decimal.Decimal {
	d, _ := r[col].(decimal.Decimal)
	return d
}

// Op is a filter comparison.
type Op string

const (
	Eq  Op = "eq"
	Gte Op = "gte"
	Lte Op = "lte"
)

// Filter restricts a select to rows whose column compares to Value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Order sorts a select by a column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a select over one table. All filters must hold.
type Query struct {
	Table   string
	Filters []Filter
	Order   []Order
}

// Where appends an equality filter.
func (q Query) Where(col string, v any) Query {
	q.Filters = append(q.Filters, Filter{Column: col, Op: Eq, Value: v})
	return q
}

// Between appends an inclusive range filter. Zero-valued bounds are skipped by the caller.
func (q Query) Between(col string, from, to any) Query {
	q.Filters = append(q.Filters,
		Filter{Column: col, Op: Gte, Value: from},
		Filter{Column: col, Op: Lte, Value: to},
	)
	return q
}

// OrderBy appends a sort key.
func (q Query) OrderBy(col string, desc bool) Query {
	q.Order = append(q.Order, Order{Column: col, Desc: desc})
	return q
}

// Client is the table capability every backend implements.
type Client interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	// Insert stores rows and returns them as stored, with id and created_at filled in.
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table, id string, fields Row) error
	Delete(ctx context.Context, table, id string) error
}

// Transactor is implemented by backends that can run several mutations atomically.
type Transactor interface {
	InTx(ctx context.Context, fn func(Client) error) error
}
