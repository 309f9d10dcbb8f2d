package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kris-accounting/kris/internal/id"
	"github.com/kris-accounting/kris/internal/logging"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/store"
)

// Service is the journal recorder.
type Service struct {
	client          store.Client
	accounts        AccountChecker
	log             *zap.Logger
	readConcurrency int
	now             func() time.Time
}

// NewService creates a journal Service. accounts may be nil.
func NewService(client store.Client, accounts AccountChecker, log *zap.Logger, readConcurrency int) *Service {
	if readConcurrency < 1 {
		readConcurrency = 1
	}
	return &Service{
		client:          client,
		accounts:        accounts,
		log:             logging.OrNop(log),
		readConcurrency: readConcurrency,
		now:             time.Now,
	}
}

// SetClock overrides the clock used for default dates and reference numbers.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// List returns every entry with its lines, newest entry date first. Lines are in
// creation order. An entry whose lines cannot be read is returned without lines.
func (s *Service) List(ctx context.Context) ([]model.EntryWithLines, error) {
	q := store.Query{Table: store.TableEntries}.
		OrderBy(store.ColEntryDate, true).
		OrderBy(store.ColCreatedAt, true)
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}

	out := make([]model.EntryWithLines, len(rows))
	for i, r := range rows {
		out[i].JournalEntry = EntryFromRow(r)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.readConcurrency)
	for i := range out {
		g.Go(func() error {
			lines, err := s.lines(gctx, out[i].ID)
			if err != nil {
				s.log.Warn("reading journal lines",
					zap.String("entry_id", out[i].ID), zap.Error(err))
				return nil
			}
			out[i].Lines = lines
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// Get returns one entry with its lines.
func (s *Service) Get(ctx context.Context, entryID string) (model.EntryWithLines, error) {
	rows, err := s.client.Select(ctx, store.Query{Table: store.TableEntries}.Where(store.ColID, entryID))
	if err != nil {
		return model.EntryWithLines{}, fmt.Errorf("reading journal entry %s: %w", entryID, err)
	}
	if len(rows) == 0 {
		return model.EntryWithLines{}, fmt.Errorf("journal entry %s: %w", entryID, store.ErrNotFound)
	}
	lines, err := s.lines(ctx, entryID)
	if err != nil {
		return model.EntryWithLines{}, fmt.Errorf("reading journal entry %s: %w", entryID, err)
	}
	return model.EntryWithLines{JournalEntry: EntryFromRow(rows[0]), Lines: lines}, nil
}

func (s *Service) lines(ctx context.Context, entryID string) ([]model.JournalLine, error) {
	q := store.Query{Table: store.TableLines}.
		Where(store.ColJournalEntryID, entryID).
		OrderBy(store.ColCreatedAt, false)
	rows, err := s.client.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	lines := make([]model.JournalLine, len(rows))
	for i, r := range rows {
		lines[i] = LineFromRow(r)
	}
	return lines, nil
}

// Create prunes and validates d, then stores the entry header and its lines.
// On backends implementing store.Transactor both inserts share one transaction.
// Elsewhere a failed line insert is compensated by deleting the header.
func (s *Service) Create(ctx context.Context, d Draft) (model.EntryWithLines, error) {
	d.Lines = Prune(d.Lines)
	if err := Validate(d, s.accounts); err != nil {
		return model.EntryWithLines{}, err
	}

	now := s.now()
	if d.Date.IsZero() {
		d.Date = now
	}
	y, m, day := d.Date.Date()
	d.Date = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	d.ReferenceNumber = strings.TrimSpace(d.ReferenceNumber)
	if d.ReferenceNumber == "" {
		d.ReferenceNumber = id.NewReference(now)
	}

	var created model.EntryWithLines
	var err error
	if tx, ok := s.client.(store.Transactor); ok {
		err = tx.InTx(ctx, func(c store.Client) error {
			var err error
			created, err = insertEntry(ctx, c, d)
			return err
		})
	} else {
		created, err = s.createCompensated(ctx, d)
	}
	if err != nil {
		s.log.Error("creating journal entry",
			zap.String("reference", d.ReferenceNumber), zap.Error(err))
		return model.EntryWithLines{}, err
	}
	return created, nil
}

func (s *Service) createCompensated(ctx context.Context, d Draft) (model.EntryWithLines, error) {
	header, err := insertHeader(ctx, s.client, d)
	if err != nil {
		return model.EntryWithLines{}, err
	}
	lines, err := insertLines(ctx, s.client, header.ID, d.Lines)
	if err != nil {
		if derr := s.client.Delete(ctx, store.TableEntries, header.ID); derr != nil {
			s.log.Error("removing orphaned journal entry",
				zap.String("entry_id", header.ID), zap.Error(derr))
			return model.EntryWithLines{}, errors.Join(err, fmt.Errorf("removing orphaned entry %s: %w", header.ID, derr))
		}
		return model.EntryWithLines{}, err
	}
	return model.EntryWithLines{JournalEntry: header, Lines: lines}, nil
}

func insertEntry(ctx context.Context, c store.Client, d Draft) (model.EntryWithLines, error) {
	header, err := insertHeader(ctx, c, d)
	if err != nil {
		return model.EntryWithLines{}, err
	}
	lines, err := insertLines(ctx, c, header.ID, d.Lines)
	if err != nil {
		return model.EntryWithLines{}, err
	}
	return model.EntryWithLines{JournalEntry: header, Lines: lines}, nil
}

func insertHeader(ctx context.Context, c store.Client, d Draft) (model.JournalEntry, error) {
	rows, err := c.Insert(ctx, store.TableEntries, []store.Row{{
		store.ColEntryDate:       d.Date,
		store.ColReferenceNumber: d.ReferenceNumber,
		store.ColDescription:     strings.TrimSpace(d.Description),
	}})
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("creating journal entry: %w", err)
	}
	return EntryFromRow(rows[0]), nil
}

func insertLines(ctx context.Context, c store.Client, entryID string, lines []DraftLine) ([]model.JournalLine, error) {
	rows := make([]store.Row, len(lines))
	for i, l := range lines {
		rows[i] = store.Row{
			store.ColJournalEntryID: entryID,
			store.ColAccountID:      l.AccountID,
			store.ColDebit:          l.Debit,
			store.ColCredit:         l.Credit,
		}
	}
	inserted, err := c.Insert(ctx, store.TableLines, rows)
	if err != nil {
		return nil, fmt.Errorf("creating journal lines: %w", err)
	}
	out := make([]model.JournalLine, len(inserted))
	for i, r := range inserted {
		out[i] = LineFromRow(r)
	}
	return out, nil
}

// Delete removes an entry. Its lines go with it.
func (s *Service) Delete(ctx context.Context, entryID string) error {
	if err := s.client.Delete(ctx, store.TableEntries, entryID); err != nil {
		s.log.Error("deleting journal entry", zap.String("entry_id", entryID), zap.Error(err))
		return fmt.Errorf("deleting journal entry %s: %w", entryID, err)
	}
	return nil
}

// Import creates each draft in order and stops at the first failure.
// It returns the number of entries created.
func (s *Service) Import(ctx context.Context, drafts []Draft) (int, error) {
	for i, d := range drafts {
		if _, err := s.Create(ctx, d); err != nil {
			return i, fmt.Errorf("entry %d (%s): %w", i+1, d.ReferenceNumber, err)
		}
	}
	return len(drafts), nil
}

// Search filters entries by a case-insensitive substring of reference or description.
func Search(entries []model.EntryWithLines, term string) []model.EntryWithLines {
	term = strings.TrimSpace(term)
	if term == "" {
		return entries
	}
	var out []model.EntryWithLines
	for _, e := range entries {
		if e.Matches(term) {
			out = append(out, e)
		}
	}
	return out
}

// EntryFromRow converts a journal_entries row.
func EntryFromRow(r store.Row) model.JournalEntry {
	return model.JournalEntry{
		ID:              r.String(store.ColID),
		EntryDate:       r.Time(store.ColEntryDate),
		ReferenceNumber: r.String(store.ColReferenceNumber),
		Description:     r.String(store.ColDescription),
		CreatedAt:       r.Time(store.ColCreatedAt),
	}
}

// LineFromRow converts a journal_entry_lines row.
func LineFromRow(r store.Row) model.JournalLine {
	return model.JournalLine{
		ID:             r.String(store.ColID),
		JournalEntryID: r.String(store.ColJournalEntryID),
		AccountID:      r.String(store.ColAccountID),
		Debit:          r.Decimal(store.ColDebit),
		Credit:         r.Decimal(store.ColCredit),
		CreatedAt:      r.Time(store.ColCreatedAt),
	}
}
