// Package pgstore implements store.Client on a PostgreSQL pgx connection pool.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kris-accounting/kris/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is a store.Client backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	now  func() time.Time
}

// Open connects to dsn and verifies the connection with a ping.
func Open(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool, now: time.Now}
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the bookkeeping tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	stmt, args, cols, err := store.SelectSQL(q, store.Dollar)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, stmt, args...)
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
		stmt, args, err := store.InsertSQL(table, p, store.Dollar)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if _, err := s.q.Exec(ctx, stmt, args...); err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, describe(err))
		}
		coerced, _ := store.CoerceRow(table, p)
		out = append(out, coerced)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, table, id string, fields store.Row) error {
	stmt, args, err := store.UpdateSQL(table, id, fields, store.Dollar)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, describe(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table, id string) error {
	stmt, args, err := store.DeleteSQL(table, id, store.Dollar)
	if err != nil {
		return err
	}
	tag, err := s.q.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, describe(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", table, id, store.ErrNotFound)
	}
	return nil
}

// InTx runs fn inside a single database transaction.
func (s *Store) InTx(ctx context.Context, fn func(store.Client) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{q: tx, now: s.now}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// describe surfaces the server's message and detail for constraint violations.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%s (%s): %w", pgErr.Message, pgErr.Detail, err)
	}
	return err
}

var (
	_ store.Client     = (*Store)(nil)
	_ store.Transactor = (*Store)(nil)
)
