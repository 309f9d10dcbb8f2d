// Package memory is an in-process store.Client used by tests and the demo server.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kris-accounting/kris/internal/store"
)

type record struct {
	seq int64
	row store.Row
}

// Store keeps every table in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]record
	seq    int64
	now    func() time.Time
	faults map[fault]error
}

type fault struct {
	op    string
	table string
}

// New creates an empty Store.
func New() *Store {
	s := &Store{
		tables: make(map[string][]record),
		now:    time.Now,
		faults: make(map[fault]error),
	}
	for table := range store.Schema {
		s.tables[table] = nil
	}
	return s
}

// SetClock overrides the clock used for created_at.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next call of op ("select", "insert", "update", "delete") on table return err.
func (s *Store) FailNext(op, table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[fault{op, table}] = err
}

func (s *Store) takeFault(op, table string) error {
	k := fault{op, table}
	if err, ok := s.faults[k]; ok {
		delete(s.faults, k)
		return err
	}
	return nil
}

// Count returns the number of rows in table.
func (s *Store) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

func (s *Store) Select(_ context.Context, q store.Query) ([]store.Row, error) {
	if err := store.CheckQuery(q); err != nil {
		return nil, err
	}
	filters := make([]store.Filter, len(q.Filters))
	for i, f := range q.Filters {
		kind, err := store.ColumnKind(q.Table, f.Column)
		if err != nil {
			return nil, err
		}
		v, err := store.Coerce(kind, f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Column, err)
		}
		filters[i] = store.Filter{Column: f.Column, Op: f.Op, Value: v}
	}

	s.mu.Lock()
	err := s.takeFault("select", q.Table)
	var matched []record
	if err == nil {
		for _, rec := range s.tables[q.Table] {
			if matches(rec.row, filters) {
				matched = append(matched, record{seq: rec.seq, row: copyRow(rec.row)})
			}
		}
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range q.Order {
			c := store.Compare(matched[i].row[o.Column], matched[j].row[o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].seq < matched[j].seq
	})

	rows := make([]store.Row, len(matched))
	for i, rec := range matched {
		rows[i] = rec.row
	}
	return rows, nil
}

func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		c := store.Compare(row[f.Column], f.Value)
		switch f.Op {
		case store.Eq:
			if c != 0 {
				return false
			}
		case store.Gte:
			if c < 0 {
				return false
			}
		case store.Lte:
			if c > 0 {
				return false
			}
		}
	}
	return true
}

func (s *Store) Insert(_ context.Context, table string, rows []store.Row) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.takeFault("insert", table); err != nil {
		return nil, err
	}

	now := s.now()
	prepared := make([]store.Row, 0, len(rows))
	for i, r := range rows {
		p, err := store.Prepare(table, r, now)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		p, err = store.CoerceRow(table, p)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		for _, rec := range s.tables[table] {
			if rec.row[store.ColID] == p[store.ColID] {
				return nil, fmt.Errorf("row %d: duplicate id %v", i, p[store.ColID])
			}
		}
		prepared = append(prepared, p)
	}

	out := make([]store.Row, len(prepared))
	for i, p := range prepared {
		s.seq++
		s.tables[table] = append(s.tables[table], record{seq: s.seq, row: p})
		out[i] = copyRow(p)
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, table, id string, fields store.Row) error {
	if err := store.CheckFields(table, fields); err != nil {
		return err
	}
	coerced, err := store.CoerceRow(table, fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault("update", table); err != nil {
		return err
	}
	for _, rec := range s.tables[table] {
		if rec.row.String(store.ColID) == id {
			for k, v := range coerced {
				if k == store.ColID || k == store.ColCreatedAt {
					continue
				}
				rec.row[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
}

func (s *Store) Delete(_ context.Context, table, id string) error {
	if _, err := store.Columns(table); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFault("delete", table); err != nil {
		return err
	}
	recs := s.tables[table]
	for i, rec := range recs {
		if rec.row.String(store.ColID) == id {
			s.tables[table] = append(recs[:i:i], recs[i+1:]...)
			if table == store.TableEntries {
				s.cascadeLines(id)
			}
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
}

// cascadeLines mirrors the ON DELETE CASCADE of the SQL schemas.
func (s *Store) cascadeLines(entryID string) {
	kept := s.tables[store.TableLines][:0:0]
	for _, rec := range s.tables[store.TableLines] {
		if rec.row.String(store.ColJournalEntryID) != entryID {
			kept = append(kept, rec)
		}
	}
	s.tables[store.TableLines] = kept
}

// InTx runs fn against the store and restores the previous contents if fn fails.
// Writers outside fn are not isolated from it.
func (s *Store) InTx(ctx context.Context, fn func(store.Client) error) error {
	s.mu.Lock()
	snapshot := make(map[string][]record, len(s.tables))
	for table, recs := range s.tables {
		cp := make([]record, len(recs))
		for i, rec := range recs {
			cp[i] = record{seq: rec.seq, row: copyRow(rec.row)}
		}
		snapshot[table] = cp
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func copyRow(r store.Row) store.Row {
	out := make(store.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

var (
	_ store.Client     = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)
