package report

import (
	"github.com/shopspring/decimal"

	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
)

// IncomeStatement is the multi-section layout: revenue less cost of goods sold
// gives gross profit, less operating expenses gives operating income, less
// non-operating expenses gives net income.
type IncomeStatement struct {
	Period          ledger.Period   `json:"period"`
	Revenue         Section         `json:"revenue"`
	COGS            Section         `json:"cogs"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	Operating       []Section       `json:"operating"`
	TotalOperating  decimal.Decimal `json:"total_operating"`
	OperatingIncome decimal.Decimal `json:"operating_income"`
	NonOperating    Section         `json:"non_operating"`
	NetIncome       decimal.Decimal `json:"net_income"`
}

// BuildIncomeStatement lays out balances. Revenue accounts form the revenue section.
// Expense accounts land in COGS, non-operating or operating by category. Other
// types belong to the balance sheet and are left out.
func BuildIncomeStatement(balances []model.AccountBalance, cats config.Categories, p ledger.Period) IncomeStatement {
	var revenue, cogs, nonOperating, expenses []model.AccountBalance
	for _, b := range balances {
		a := b.Account
		switch {
		case a.Type == model.AccountTypeRevenue:
			revenue = append(revenue, b)
		case a.Type != model.AccountTypeExpense:
			// Balance sheet account.
		case a.Category == cats.COGS:
			cogs = append(cogs, b)
		case a.Category == cats.NonOperatingExpenses:
			nonOperating = append(nonOperating, b)
		default:
			expenses = append(expenses, b)
		}
	}

	s := IncomeStatement{
		Period:       p,
		Revenue:      newSection("Revenue", revenue, model.NormalCredit),
		COGS:         newSection(nonEmpty(cats.COGS, "Cost of Goods Sold"), cogs, model.NormalDebit),
		Operating:    categorySections(expenses, cats.OperatingExpenses, model.NormalDebit),
		NonOperating: newSection(nonEmpty(cats.NonOperatingExpenses, "Non-Operating Expenses"), nonOperating, model.NormalDebit),
	}
	s.GrossProfit = s.Revenue.Total.Sub(s.COGS.Total)
	s.TotalOperating = sumSections(s.Operating)
	s.OperatingIncome = s.GrossProfit.Sub(s.TotalOperating)
	s.NetIncome = s.OperatingIncome.Sub(s.NonOperating.Total)
	return s
}

// SimpleIncomeStatement is the two-section layout: revenue less expenses.
type SimpleIncomeStatement struct {
	Period    ledger.Period   `json:"period"`
	Revenue   Section         `json:"revenue"`
	Expenses  Section         `json:"expenses"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// BuildSimpleIncomeStatement sums every Revenue and every Expense account.
func BuildSimpleIncomeStatement(balances []model.AccountBalance, p ledger.Period) SimpleIncomeStatement {
	s := SimpleIncomeStatement{
		Period:   p,
		Revenue:  newSection("Revenue", ofType(balances, model.AccountTypeRevenue), model.NormalCredit),
		Expenses: newSection("Expenses", ofType(balances, model.AccountTypeExpense), model.NormalDebit),
	}
	s.NetIncome = s.Revenue.Total.Sub(s.Expenses.Total)
	return s
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
