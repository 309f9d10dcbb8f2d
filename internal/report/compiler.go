package report

import (
	"context"
	"time"

	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
)

// Compiler derives reports from fresh balances on every call.
type Compiler struct {
	agg         *ledger.Aggregator
	cats        config.Categories
	fiscalMonth int
	fiscalDay   int
	now         func() time.Time
}

// NewCompiler creates a Compiler. An invalid fiscal year start falls back to January 1.
func NewCompiler(agg *ledger.Aggregator, cats config.Categories, fiscal config.FiscalConfig) *Compiler {
	month, day, err := fiscal.MonthDay()
	if err != nil {
		month, day = 1, 1
	}
	return &Compiler{agg: agg, cats: cats, fiscalMonth: month, fiscalDay: day, now: time.Now}
}

// SetClock overrides the clock used for the default period.
func (c *Compiler) SetClock(now func() time.Time) { c.now = now }

// Period fills the open bounds of p from the default period.
func (c *Compiler) Period(p ledger.Period) ledger.Period {
	def := DefaultPeriod(c.now(), c.fiscalMonth, c.fiscalDay)
	if p.Start.IsZero() {
		p.Start = def.Start
	}
	if p.End.IsZero() {
		p.End = def.End
	}
	return p
}

// IncomeStatement compiles the multi-section income statement.
func (c *Compiler) IncomeStatement(ctx context.Context, accts []model.Account, p ledger.Period) (IncomeStatement, error) {
	p = c.Period(p)
	balances, err := c.agg.Balances(ctx, accts, p)
	if err != nil {
		return IncomeStatement{}, err
	}
	return BuildIncomeStatement(balances, c.cats, p), nil
}

// SimpleIncomeStatement compiles the two-section income statement.
func (c *Compiler) SimpleIncomeStatement(ctx context.Context, accts []model.Account, p ledger.Period) (SimpleIncomeStatement, error) {
	p = c.Period(p)
	balances, err := c.agg.Balances(ctx, accts, p)
	if err != nil {
		return SimpleIncomeStatement{}, err
	}
	return BuildSimpleIncomeStatement(balances, p), nil
}

// BalanceSheet compiles the balance sheet. Net income comes from the
// multi-section income statement over the same balances.
func (c *Compiler) BalanceSheet(ctx context.Context, accts []model.Account, p ledger.Period) (BalanceSheet, error) {
	p = c.Period(p)
	balances, err := c.agg.Balances(ctx, accts, p)
	if err != nil {
		return BalanceSheet{}, err
	}
	income := BuildIncomeStatement(balances, c.cats, p)
	return BuildBalanceSheet(balances, c.cats, income.NetIncome, p), nil
}

// Compile builds the report of kind k and returns it with its printable form.
func (c *Compiler) Compile(ctx context.Context, k Kind, accts []model.Account, p ledger.Period) (any, Document, error) {
	switch k {
	case KindIncome:
		s, err := c.IncomeStatement(ctx, accts, p)
		return s, s.Document(), err
	case KindIncomeSimple:
		s, err := c.SimpleIncomeStatement(ctx, accts, p)
		return s, s.Document(), err
	case KindBalance:
		s, err := c.BalanceSheet(ctx, accts, p)
		return s, s.Document(), err
	default:
		_, err := ParseKind(string(k))
		return nil, Document{}, err
	}
}
