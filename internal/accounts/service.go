package accounts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kris-accounting/kris/internal/logging"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/store"
)

// Fields are the user-editable attributes of an account.
type Fields struct {
	Code          string
	Name          string
	Type          model.AccountType
	Category      string
	NormalBalance model.NormalBalance
}

// ValidationError reports a missing or invalid account field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("account %s: %s", e.Field, e.Reason)
}

// Validate checks that every required field is present and well-formed.
// Duplicate codes are left to the backend.
func (f Fields) Validate() error {
	switch {
	case strings.TrimSpace(f.Code) == "":
		return ValidationError{"code", "is required"}
	case strings.TrimSpace(f.Name) == "":
		return ValidationError{"name", "is required"}
	case strings.TrimSpace(f.Category) == "":
		return ValidationError{"category", "is required"}
	}
	if _, err := model.ParseAccountType(string(f.Type)); err != nil {
		return ValidationError{"type", err.Error()}
	}
	if _, err := model.ParseNormalBalance(string(f.NormalBalance)); err != nil {
		return ValidationError{"normal_balance", err.Error()}
	}
	return nil
}

func (f Fields) row() store.Row {
	return store.Row{
		store.ColCode:          strings.TrimSpace(f.Code),
		store.ColName:          strings.TrimSpace(f.Name),
		store.ColType:          string(f.Type),
		store.ColCategory:      strings.TrimSpace(f.Category),
		store.ColNormalBalance: string(f.NormalBalance),
	}
}

// Service is the account registry: CRUD over the chart of accounts with an
// in-memory copy of the last successful listing.
type Service struct {
	client store.Client
	log    *zap.Logger

	mu       sync.RWMutex
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service over client. Call Reload to populate it.
func NewService(client store.Client, log *zap.Logger) *Service {
	return &Service{
		client: client,
		log:    logging.OrNop(log),
		byID:   make(map[string]model.Account),
	}
}

// List fetches every account ordered by code.
func (s *Service) List(ctx context.Context) ([]model.Account, error) {
	rows, err := s.client.Select(ctx, store.Query{Table: store.TableAccounts}.OrderBy(store.ColCode, false))
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	accts := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		accts = append(accts, FromRow(r))
	}
	return accts, nil
}

// Reload refreshes the cached listing. On a read failure the previous listing is
// kept and the failure is logged.
func (s *Service) Reload(ctx context.Context) []model.Account {
	accts, err := s.List(ctx)
	if err != nil {
		s.log.Warn("keeping previous chart of accounts", zap.Error(err))
		return s.All()
	}
	s.set(accts)
	return accts
}

func (s *Service) set(accts []model.Account) {
	byID := make(map[string]model.Account, len(accts))
	for _, a := range accts {
		byID[a.ID] = a
	}
	s.mu.Lock()
	s.accounts = accts
	s.byID = byID
	s.mu.Unlock()
}

// Create inserts a new account and reloads the listing.
func (s *Service) Create(ctx context.Context, f Fields) (model.Account, error) {
	f, err := normalize(f)
	if err != nil {
		return model.Account{}, err
	}
	rows, err := s.client.Insert(ctx, store.TableAccounts, []store.Row{f.row()})
	if err != nil {
		s.log.Error("creating account", zap.String("code", f.Code), zap.Error(err))
		return model.Account{}, fmt.Errorf("creating account %s: %w", f.Code, err)
	}
	s.Reload(ctx)
	return FromRow(rows[0]), nil
}

// Update replaces the fields of account id and reloads the listing.
func (s *Service) Update(ctx context.Context, id string, f Fields) error {
	f, err := normalize(f)
	if err != nil {
		return err
	}
	if err := s.client.Update(ctx, store.TableAccounts, id, f.row()); err != nil {
		s.log.Error("updating account", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("updating account %s: %w", id, err)
	}
	s.Reload(ctx)
	return nil
}

// Delete removes account id and reloads the listing.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, store.TableAccounts, id); err != nil {
		s.log.Error("deleting account", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	s.Reload(ctx)
	return nil
}

// ImportChart creates every account in chart whose code is not yet present.
// It returns the number of accounts created.
func (s *Service) ImportChart(ctx context.Context, chart []Fields) (int, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	codes := make(map[string]bool, len(existing))
	for _, a := range existing {
		codes[a.Code] = true
	}

	var rows []store.Row
	for i, f := range chart {
		f, err := normalize(f)
		if err != nil {
			return 0, fmt.Errorf("account %d: %w", i+1, err)
		}
		if codes[f.Code] {
			continue
		}
		codes[f.Code] = true
		rows = append(rows, f.row())
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if _, err := s.client.Insert(ctx, store.TableAccounts, rows); err != nil {
		return 0, fmt.Errorf("importing chart of accounts: %w", err)
	}
	s.Reload(ctx)
	return len(rows), nil
}

func normalize(f Fields) (Fields, error) {
	if err := f.Validate(); err != nil {
		return f, err
	}
	f.Type, _ = model.ParseAccountType(string(f.Type))
	f.NormalBalance, _ = model.ParseNormalBalance(string(f.NormalBalance))
	return f, nil
}

// All returns the cached accounts ordered by code.
func (s *Service) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts
}

// Get returns a cached account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID is in the cached listing.
func (s *Service) Exists(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// ByType returns the cached accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.All() {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Search filters accounts by a case-insensitive substring of code, name or type.
func Search(accts []model.Account, term string) []model.Account {
	term = strings.TrimSpace(term)
	if term == "" {
		return accts
	}
	var out []model.Account
	for _, a := range accts {
		if a.Matches(term) {
			out = append(out, a)
		}
	}
	return out
}

// FromRow converts a chart_of_accounts row to an Account.
func FromRow(r store.Row) model.Account {
	return model.Account{
		ID:            r.String(store.ColID),
		Code:          r.String(store.ColCode),
		Name:          r.String(store.ColName),
		Type:          model.AccountType(r.String(store.ColType)),
		Category:      r.String(store.ColCategory),
		NormalBalance: model.NormalBalance(r.String(store.ColNormalBalance)),
		CreatedAt:     r.Time(store.ColCreatedAt),
	}
}
