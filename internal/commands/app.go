package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/logging"
	"github.com/kris-accounting/kris/internal/money"
	"github.com/kris-accounting/kris/internal/report"
	"github.com/kris-accounting/kris/internal/store"
	"github.com/kris-accounting/kris/internal/store/memory"
	"github.com/kris-accounting/kris/internal/store/pgstore"
	"github.com/kris-accounting/kris/internal/store/sqlstore"
)

// app is the wired set of services a command runs against.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	client   store.Client
	accounts *accounts.Service
	journal  *journal.Service
	ledger   *ledger.Aggregator
	reports  *report.Compiler
	exporter report.Exporter
	money    *money.Formatter
	close    func()
}

// migrator is implemented by the SQL backends.
type migrator interface {
	Migrate(ctx context.Context) error
}

func openApp(ctx context.Context, opts *options) (*app, error) {
	cfg, err := config.LoadWithEnv(opts.configPath, opts.envPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	client, closeFn, err := openStore(ctx, cfg, opts)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		accounts: accounts.NewService(client, log),
		ledger:   ledger.NewAggregator(client, log, cfg.Storage.ReadConcurrency),
		exporter: report.Exporter{Organization: cfg.Organization.Name, CurrencyNote: cfg.Organization.CurrencyNote},
		money:    money.NewFormatter(cfg.Display.Locale),
	}
	a.journal = journal.NewService(client, a.accounts, log, cfg.Storage.ReadConcurrency)
	a.reports = report.NewCompiler(a.ledger, cfg.Report.Categories, cfg.Fiscal)
	a.close = func() {
		closeFn()
		_ = log.Sync()
	}
	a.accounts.Reload(ctx)
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, opts *options) (store.Client, func(), error) {
	if opts.client != nil {
		return opts.client, func() {}, nil
	}
	switch cfg.Storage.Driver {
	case "memory":
		return memory.New(), func() {}, nil
	case "pgx":
		if cfg.Storage.DSN == "" {
			return nil, nil, fmt.Errorf("storage.dsn is empty: set it in %s or %s", opts.configPath, config.EnvDatabaseURL)
		}
		s, err := pgstore.Open(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case sqlstore.DriverPostgres, sqlstore.DriverMySQL:
		if cfg.Storage.DSN == "" {
			return nil, nil, fmt.Errorf("storage.dsn is empty: set it in %s or %s", opts.configPath, config.EnvDatabaseURL)
		}
		s, err := sqlstore.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// codeMaps returns account ID to code and code to ID lookups from the cached chart.
func (a *app) codeMaps() (codeOf, idOf map[string]string) {
	accts := a.accounts.All()
	codeOf = make(map[string]string, len(accts))
	idOf = make(map[string]string, len(accts))
	for _, acct := range accts {
		codeOf[acct.ID] = acct.Code
		idOf[acct.Code] = acct.ID
	}
	return codeOf, idOf
}
