package report

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
)

// BalanceSheet compares total assets with total liabilities plus equity. Equity
// includes the net income of the period.
type BalanceSheet struct {
	Period                    ledger.Period   `json:"period"`
	Assets                    []Section       `json:"assets"`
	TotalAssets               decimal.Decimal `json:"total_assets"`
	Liabilities               []Section       `json:"liabilities"`
	TotalLiabilities          decimal.Decimal `json:"total_liabilities"`
	Equity                    Section         `json:"equity"`
	NetIncome                 decimal.Decimal `json:"net_income"`
	TotalEquity               decimal.Decimal `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Difference                decimal.Decimal `json:"difference"`
}

// BuildBalanceSheet lays out balances. netIncome is the net income of the
// multi-section income statement over the same balances.
func BuildBalanceSheet(balances []model.AccountBalance, cats config.Categories, netIncome decimal.Decimal, p ledger.Period) BalanceSheet {
	s := BalanceSheet{
		Period:      p,
		Assets:      categorySections(ofType(balances, model.AccountTypeAsset), cats.Assets, model.NormalDebit),
		Liabilities: categorySections(ofType(balances, model.AccountTypeLiability), cats.Liabilities, model.NormalCredit),
		Equity:      newSection("Equity", ofType(balances, model.AccountTypeEquity), model.NormalCredit),
		NetIncome:   netIncome,
	}
	s.TotalAssets = sumSections(s.Assets)
	s.TotalLiabilities = sumSections(s.Liabilities)
	s.TotalEquity = s.Equity.Total.Add(netIncome)
	s.TotalLiabilitiesAndEquity = s.TotalLiabilities.Add(s.TotalEquity)
	s.Difference = s.TotalAssets.Sub(s.TotalLiabilitiesAndEquity).Abs()
	return s
}

// Balanced reports whether both sides agree within model.Tolerance.
func (s BalanceSheet) Balanced() bool {
	return model.WithinTolerance(s.TotalAssets, s.TotalLiabilitiesAndEquity)
}

// Warning returns the mismatch message, or "" when the sheet balances.
func (s BalanceSheet) Warning() string {
	if s.Balanced() {
		return ""
	}
	return fmt.Sprintf("Balance sheet does not balance! Difference: %s", s.Difference.StringFixed(2))
}
