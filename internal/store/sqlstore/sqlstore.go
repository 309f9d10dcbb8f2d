// Package sqlstore implements store.Client over database/sql for the "postgres"
// (lib/pq) and "mysql" drivers.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/kris-accounting/kris/internal/store"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is a store.Client backed by a database/sql pool.
type Store struct {
	db     *sql.DB
	q      execQuerier
	driver string
	ph     store.Placeholder
	now    func() time.Time
}

// Open opens and pings a database using driver ("postgres" or "mysql").
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == DriverMySQL {
		var err error
		if dsn, err = mysqlDSN(dsn); err != nil {
			return nil, err
		}
	}
	if _, err := placeholder(driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(15 * time.Minute)

	return New(db, driver)
}

// New wraps an open *sql.DB.
func New(db *sql.DB, driver string) (*Store, error) {
	ph, err := placeholder(driver)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, q: db, driver: driver, ph: ph, now: time.Now}, nil
}

func placeholder(driver string) (store.Placeholder, error) {
	switch driver {
	case DriverPostgres:
		return store.Dollar, nil
	case DriverMySQL:
		return store.Question, nil
	}
	return nil, fmt.Errorf("unsupported sql driver %q", driver)
}

// mysqlDSN forces parseTime so DATE and DATETIME columns scan as time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parsing mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the bookkeeping tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range ddl(s.driver) {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	stmt, args, cols, err := store.SelectSQL(q, s.ph)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, stmt, toDriverArgs(args)...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		targets, collect := store.ScanTargets(cols)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", q.Table, err)
		}
		out = append(out, collect())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, rows []store.Row) ([]store.Row, error) {
	now := s.now().UTC().Truncate(time.Microsecond)
	out := make([]store.Row, 0, len(rows))
	for i, r := range rows {
		// Rows of one batch get increasing created_at so they list back in batch order.
		p, err := store.Prepare(table, r, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		stmt, args, err := store.InsertSQL(table, p, s.ph)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, err := s.q.ExecContext(ctx, stmt, toDriverArgs(args)...); err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, describe(err))
		}
		coerced, _ := store.CoerceRow(table, p)
		out = append(out, coerced)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, table, id string, fields store.Row) error {
	stmt, args, err := store.UpdateSQL(table, id, fields, s.ph)
	if err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, stmt, toDriverArgs(args)...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, describe(err))
	}
	return checkAffected(res, table, id)
}

func (s *Store) Delete(ctx context.Context, table, id string) error {
	stmt, args, err := store.DeleteSQL(table, id, s.ph)
	if err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, describe(err))
	}
	return checkAffected(res, table, id)
}

// InTx runs fn inside a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(store.Client) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	txStore := &Store{db: s.db, q: tx, driver: s.driver, ph: s.ph, now: s.now}
	if err := fn(txStore); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func checkAffected(res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

// toDriverArgs renders decimals as strings, which both drivers bind to NUMERIC/DECIMAL.
func toDriverArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if v, ok := a.(interface{ StringFixed(int32) string }); ok {
			out[i] = v.StringFixed(2)
			continue
		}
		out[i] = a
	}
	return out
}

// describe adds server-side detail from either driver's error type.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pqErr.Message, pqErr.Detail, err)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return fmt.Errorf("mysql error %d: %w", myErr.Number, err)
	}
	return err
}

func ddl(driver string) []string {
	ts, num := "TIMESTAMPTZ", "NUMERIC(18, 2)"
	text, key := "TEXT", "TEXT"
	if driver == DriverMySQL {
		ts, num = "DATETIME(6)", "DECIMAL(18, 2)"
		text, key = "VARCHAR(255)", "VARCHAR(64)"
	}
	r := strings.NewReplacer("{ts}", ts, "{num}", num, "{text}", text, "{key}", key)
	return []string{
		r.Replace(`CREATE TABLE IF NOT EXISTS chart_of_accounts (
    id {key} PRIMARY KEY,
    code {key} NOT NULL UNIQUE,
    name {text} NOT NULL,
    type {key} NOT NULL,
    category {text} NOT NULL,
    normal_balance {key} NOT NULL,
    created_at {ts} NOT NULL
)`),
		r.Replace(`CREATE TABLE IF NOT EXISTS journal_entries (
    id {key} PRIMARY KEY,
    entry_date DATE NOT NULL,
    reference_number {text} NOT NULL,
    description {text} NOT NULL,
    created_at {ts} NOT NULL
)`),
		r.Replace(`CREATE TABLE IF NOT EXISTS journal_entry_lines (
    id {key} PRIMARY KEY,
    journal_entry_id {key} NOT NULL,
    account_id {key} NOT NULL,
    debit {num} NOT NULL,
    credit {num} NOT NULL,
    created_at {ts} NOT NULL,
    FOREIGN KEY (journal_entry_id) REFERENCES journal_entries(id) ON DELETE CASCADE,
    FOREIGN KEY (account_id) REFERENCES chart_of_accounts(id)
)`),
	}
}

var (
	_ store.Client     = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)
