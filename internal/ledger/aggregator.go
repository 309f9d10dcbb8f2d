package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/logging"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/store"
)

// Aggregator reads line sets from storage. Read failures never fail a build:
// the affected account or table contributes nothing and a warning is logged.
type Aggregator struct {
	client          store.Client
	log             *zap.Logger
	readConcurrency int
}

// NewAggregator creates an Aggregator issuing at most readConcurrency reads at once.
func NewAggregator(client store.Client, log *zap.Logger, readConcurrency int) *Aggregator {
	if readConcurrency < 1 {
		readConcurrency = 1
	}
	return &Aggregator{client: client, log: logging.OrNop(log), readConcurrency: readConcurrency}
}

// Snapshot reads the postings of accts whose entry date falls in p.
// Accounts are returned ordered by code.
func (a *Aggregator) Snapshot(ctx context.Context, accts []model.Account, p Period) (Snapshot, error) {
	snap := Snapshot{
		Period:   p,
		Accounts: sortByCode(accts),
		Postings: make(map[string][]Posting, len(accts)),
	}

	entries := a.entries(ctx, p)

	perAccount := make([][]Posting, len(snap.Accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.readConcurrency)
	for i, acct := range snap.Accounts {
		g.Go(func() error {
			q := store.Query{Table: store.TableLines}.
				Where(store.ColAccountID, acct.ID).
				OrderBy(store.ColCreatedAt, false)
			rows, err := a.client.Select(gctx, q)
			if err != nil {
				a.log.Warn("reading account lines",
					zap.String("account", acct.Code), zap.Error(err))
				return nil
			}
			for _, r := range rows {
				line := journal.LineFromRow(r)
				entry, ok := entries[line.JournalEntryID]
				if !ok {
					continue
				}
				perAccount[i] = append(perAccount[i], Posting{Entry: entry, Line: line})
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	for i, acct := range snap.Accounts {
		snap.Postings[acct.ID] = perAccount[i]
	}
	return snap, nil
}

func (a *Aggregator) entries(ctx context.Context, p Period) map[string]model.JournalEntry {
	q := store.Query{Table: store.TableEntries}
	switch {
	case !p.Start.IsZero() && !p.End.IsZero():
		q = q.Between(store.ColEntryDate, p.Start, p.End)
	case !p.Start.IsZero():
		q.Filters = append(q.Filters, store.Filter{Column: store.ColEntryDate, Op: store.Gte, Value: p.Start})
	case !p.End.IsZero():
		q.Filters = append(q.Filters, store.Filter{Column: store.ColEntryDate, Op: store.Lte, Value: p.End})
	}
	rows, err := a.client.Select(ctx, q)
	if err != nil {
		a.log.Warn("reading journal entries", zap.Error(err))
		return nil
	}
	out := make(map[string]model.JournalEntry, len(rows))
	for _, r := range rows {
		e := journal.EntryFromRow(r)
		// Backends storing a time of day compare past the end date.
		if !p.Contains(e.EntryDate) {
			continue
		}
		out[e.ID] = e
	}
	return out
}

// Build returns the ledger of every account over p, ordered by code.
func (a *Aggregator) Build(ctx context.Context, accts []model.Account, p Period) ([]AccountLedger, error) {
	snap, err := a.Snapshot(ctx, accts, p)
	if err != nil {
		return nil, err
	}
	return snap.Ledgers(), nil
}

// Balances returns the balance of every account over p, ordered by code.
func (a *Aggregator) Balances(ctx context.Context, accts []model.Account, p Period) ([]model.AccountBalance, error) {
	snap, err := a.Snapshot(ctx, accts, p)
	if err != nil {
		return nil, err
	}
	return snap.Balances(), nil
}

// Summary holds the dashboard counters.
type Summary struct {
	TotalAccounts int
	TotalEntries  int
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
}

// Summarize counts accounts and entries and sums every line. The three reads run
// concurrently; a failed one contributes zero.
func (a *Aggregator) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.client.Select(gctx, store.Query{Table: store.TableAccounts})
		if err != nil {
			a.log.Warn("counting accounts", zap.Error(err))
			return nil
		}
		sum.TotalAccounts = len(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := a.client.Select(gctx, store.Query{Table: store.TableEntries})
		if err != nil {
			a.log.Warn("counting journal entries", zap.Error(err))
			return nil
		}
		sum.TotalEntries = len(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := a.client.Select(gctx, store.Query{Table: store.TableLines})
		if err != nil {
			a.log.Warn("summing journal lines", zap.Error(err))
			return nil
		}
		debit, credit := decimal.Zero, decimal.Zero
		for _, r := range rows {
			debit = debit.Add(r.Decimal(store.ColDebit))
			credit = credit.Add(r.Decimal(store.ColCredit))
		}
		sum.TotalDebit, sum.TotalCredit = debit, credit
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
