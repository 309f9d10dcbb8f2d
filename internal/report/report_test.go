package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/store/memory"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

var year2024 = ledger.Period{Start: date(2024, 1, 1), End: date(2024, 12, 31)}

func bal(code, name string, t model.AccountType, category string, normal model.NormalBalance, amount string) model.AccountBalance {
	return model.AccountBalance{
		Account: model.Account{ID: "id-" + code, Code: code, Name: name, Type: t, Category: category, NormalBalance: normal},
		Balance: dec(amount),
	}
}

// finalTotal returns the last total row of d.
func finalTotal(d Document) Total {
	for i := len(d.Blocks) - 1; i >= 0; i-- {
		if t := d.Blocks[i].Totals; len(t) > 0 {
			return t[len(t)-1]
		}
	}
	return Total{}
}

// exportedAmount parses an exported amount, reading parentheses as negative.
func exportedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if neg {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !neg {
		return d, err
	}
	return d.Neg(), nil
}

func scenarioC() []model.AccountBalance {
	return []model.AccountBalance{
		bal("4-1001", "Pendapatan Jasa", model.AccountTypeRevenue, "Operating Revenue", model.NormalCredit, "2000000"),
		bal("6-1001", "Beban Gaji", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "1200000"),
	}
}

func TestSimpleIncomeStatement_ScenarioC(t *testing.T) {
	s := BuildSimpleIncomeStatement(scenarioC(), year2024)
	assert.True(t, s.Revenue.Total.Equal(dec("2000000")))
	assert.True(t, s.Expenses.Total.Equal(dec("1200000")))
	assert.True(t, s.NetIncome.Equal(dec("800000")))

	full := BuildIncomeStatement(scenarioC(), config.DefaultCategories(), year2024)
	assert.True(t, full.COGS.Total.IsZero())
	assert.True(t, full.NetIncome.Equal(s.NetIncome))
}

func TestIncomeStatement_Sections(t *testing.T) {
	balances := []model.AccountBalance{
		bal("4-1001", "Sales", model.AccountTypeRevenue, "Operating Revenue", model.NormalCredit, "10000"),
		bal("5-1001", "Cost of Goods Sold", model.AccountTypeExpense, "Cost of Goods Sold", model.NormalDebit, "4000"),
		bal("5-1002", "Purchase Discounts", model.AccountTypeExpense, "Cost of Goods Sold", model.NormalCredit, "500"),
		bal("6-1001", "Salaries", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "2000"),
		bal("6-2001", "Depreciation", model.AccountTypeExpense, "Depreciation Expenses", model.NormalDebit, "300"),
		bal("6-3001", "Marketing", model.AccountTypeExpense, "Marketing Expenses", model.NormalDebit, "200"),
		bal("7-1001", "Interest", model.AccountTypeExpense, "Non-Operating Expenses", model.NormalDebit, "100"),
		bal("1-1001", "Cash", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "99999"),
	}
	s := BuildIncomeStatement(balances, config.DefaultCategories(), year2024)

	assert.True(t, s.Revenue.Total.Equal(dec("10000")))
	assert.True(t, s.COGS.Total.Equal(dec("3500")), "credit-normal COGS account reduces the total")
	assert.True(t, s.GrossProfit.Equal(dec("6500")))

	require.Len(t, s.Operating, 3)
	assert.Equal(t, "Operating Expenses", s.Operating[0].Title)
	assert.Equal(t, "Depreciation Expenses", s.Operating[1].Title)
	assert.Equal(t, "Marketing Expenses", s.Operating[2].Title)
	assert.True(t, s.TotalOperating.Equal(dec("2500")))
	assert.True(t, s.OperatingIncome.Equal(dec("4000")))

	assert.True(t, s.NonOperating.Total.Equal(dec("100")))
	assert.True(t, s.NetIncome.Equal(dec("3900")))

	want := s.Revenue.Total.Sub(s.COGS.Total).Sub(s.TotalOperating).Sub(s.NonOperating.Total)
	assert.True(t, s.NetIncome.Equal(want))
}

func TestIncomeStatement_OnlyIncomeAccounts(t *testing.T) {
	cats := config.DefaultCategories()
	balances := []model.AccountBalance{
		bal("1-1001", "Kas", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "1000"),
		bal("1-1005", "Prepaid Rent", model.AccountTypeAsset, "Operating Expenses", model.NormalDebit, "300"),
		bal("1-1006", "Inventory in Transit", model.AccountTypeAsset, "Cost of Goods Sold", model.NormalDebit, "200"),
		bal("2-1003", "Accrued Interest", model.AccountTypeLiability, "Non-Operating Expenses", model.NormalCredit, "100"),
		bal("3-1001", "Modal", model.AccountTypeEquity, "Capital", model.NormalCredit, "1400"),
	}
	s := BuildIncomeStatement(balances, cats, year2024)
	assert.True(t, s.COGS.Empty())
	assert.True(t, s.NonOperating.Empty())
	assert.True(t, s.TotalOperating.IsZero())
	assert.True(t, s.NetIncome.IsZero())

	sheet := BuildBalanceSheet(balances, cats, s.NetIncome, year2024)
	assert.True(t, sheet.TotalAssets.Equal(dec("1500")))
	assert.True(t, sheet.TotalLiabilities.Equal(dec("100")))
	assert.True(t, sheet.Balanced(), sheet.Warning())
}

func TestSectionSuppressesNegligibleLines(t *testing.T) {
	balances := []model.AccountBalance{
		bal("6-1001", "Salaries", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "100"),
		bal("6-1002", "Rounding", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "0.004"),
		bal("6-1003", "Unused", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "0"),
	}
	s := BuildSimpleIncomeStatement(balances, year2024)
	require.Len(t, s.Expenses.Lines, 1)
	assert.Equal(t, "6-1001", s.Expenses.Lines[0].Code)
	assert.True(t, s.Expenses.Total.Equal(dec("100.004")))
}

func TestBalanceSheet_Balanced(t *testing.T) {
	balances := []model.AccountBalance{
		bal("1-1001", "Kas", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "1000000"),
		bal("3-1001", "Modal Pemilik", model.AccountTypeEquity, "Capital", model.NormalCredit, "1000000"),
	}
	cats := config.DefaultCategories()
	income := BuildIncomeStatement(balances, cats, year2024)
	s := BuildBalanceSheet(balances, cats, income.NetIncome, year2024)

	assert.True(t, s.TotalAssets.Equal(dec("1000000")))
	assert.True(t, s.TotalEquity.Equal(dec("1000000")))
	assert.True(t, s.Balanced())
	assert.Empty(t, s.Warning())
}

func TestBalanceSheet_ContraAndNetIncome(t *testing.T) {
	balances := []model.AccountBalance{
		bal("1-1001", "Cash", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "1500"),
		bal("1-2001", "Equipment", model.AccountTypeAsset, "Fixed Assets", model.NormalDebit, "1000"),
		bal("1-2002", "Accumulated Depreciation", model.AccountTypeAsset, "Fixed Assets", model.NormalCredit, "100"),
		bal("1-9001", "Deposits", model.AccountTypeAsset, "Other Assets", model.NormalDebit, "100"),
		bal("2-1001", "Payables", model.AccountTypeLiability, "Current Liabilities", model.NormalCredit, "500"),
		bal("3-1001", "Capital", model.AccountTypeEquity, "Capital", model.NormalCredit, "1700"),
		bal("4-1001", "Sales", model.AccountTypeRevenue, "Operating Revenue", model.NormalCredit, "400"),
		bal("6-2001", "Depreciation", model.AccountTypeExpense, "Depreciation Expenses", model.NormalDebit, "100"),
	}
	cats := config.DefaultCategories()
	income := BuildIncomeStatement(balances, cats, year2024)
	require.True(t, income.NetIncome.Equal(dec("300")))

	s := BuildBalanceSheet(balances, cats, income.NetIncome, year2024)
	require.Len(t, s.Assets, 5, "four configured categories plus Other Assets")
	assert.Equal(t, "Other Assets", s.Assets[4].Title)
	assert.True(t, s.Assets[2].Total.Equal(dec("900")))
	assert.True(t, s.TotalAssets.Equal(dec("2500")))
	assert.True(t, s.TotalLiabilities.Equal(dec("500")))
	assert.True(t, s.TotalEquity.Equal(dec("2000")))
	assert.True(t, s.Balanced())
}

func TestBalanceSheet_Warning(t *testing.T) {
	balances := []model.AccountBalance{
		bal("1-1001", "Kas", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "1000"),
		bal("3-1001", "Modal", model.AccountTypeEquity, "Capital", model.NormalCredit, "900"),
	}
	s := BuildBalanceSheet(balances, config.DefaultCategories(), decimal.Zero, year2024)
	assert.False(t, s.Balanced())
	assert.Equal(t, "Balance sheet does not balance! Difference: 100.00", s.Warning())

	d := s.Document()
	assert.Equal(t, s.Warning(), d.Warning)
	assert.True(t, finalTotal(d).Amount.Equal(dec("900")), "sheet still renders")

	within := BuildBalanceSheet(balances, config.DefaultCategories(), dec("99.995"), year2024)
	assert.Empty(t, within.Warning())
}

func TestDefaultPeriod(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	p := DefaultPeriod(now, 1, 1)
	assert.Equal(t, date(2024, 1, 1), p.Start)
	assert.Equal(t, date(2024, 3, 15), p.End)

	p = DefaultPeriod(now, 7, 1)
	assert.Equal(t, date(2023, 7, 1), p.Start)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(strings.ToUpper(string(k)))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("cash-flow")
	assert.Error(t, err)
}

func TestCompiler(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	accts := accounts.NewService(mem, nil)
	jrnl := journal.NewService(mem, accts, nil, 4)
	ids := make(map[string]string)
	for _, f := range []accounts.Fields{
		{Code: "1-1001", Name: "Kas", Type: model.AccountTypeAsset, Category: "Current Assets", NormalBalance: model.NormalDebit},
		{Code: "3-1001", Name: "Modal Pemilik", Type: model.AccountTypeEquity, Category: "Capital", NormalBalance: model.NormalCredit},
		{Code: "4-1001", Name: "Pendapatan Jasa", Type: model.AccountTypeRevenue, Category: "Operating Revenue", NormalBalance: model.NormalCredit},
		{Code: "6-1001", Name: "Beban Gaji", Type: model.AccountTypeExpense, Category: "Operating Expenses", NormalBalance: model.NormalDebit},
	} {
		a, err := accts.Create(ctx, f)
		require.NoError(t, err)
		ids[f.Code] = a.ID
	}
	post := func(d time.Time, dr, cr, amount string) {
		_, err := jrnl.Create(ctx, journal.Draft{Date: d, Lines: []journal.DraftLine{
			{AccountID: ids[dr], Debit: dec(amount)},
			{AccountID: ids[cr], Credit: dec(amount)},
		}})
		require.NoError(t, err)
	}
	post(date(2024, 1, 2), "1-1001", "3-1001", "1000000")
	post(date(2024, 2, 1), "1-1001", "4-1001", "2000000")
	post(date(2024, 2, 28), "6-1001", "1-1001", "1200000")
	post(date(2025, 1, 2), "6-1001", "1-1001", "5")

	c := NewCompiler(ledger.NewAggregator(mem, nil, 2), config.DefaultCategories(), config.FiscalConfig{YearStart: "01-01"})
	c.SetClock(func() time.Time { return time.Date(2024, 12, 31, 9, 0, 0, 0, time.UTC) })

	simple, err := c.SimpleIncomeStatement(ctx, accts.All(), ledger.Period{})
	require.NoError(t, err)
	assert.Equal(t, year2024, simple.Period)
	assert.True(t, simple.NetIncome.Equal(dec("800000")))

	sheet, err := c.BalanceSheet(ctx, accts.All(), ledger.Period{})
	require.NoError(t, err)
	assert.True(t, sheet.TotalAssets.Equal(dec("1800000")))
	assert.True(t, sheet.TotalEquity.Equal(dec("1800000")))
	assert.Empty(t, sheet.Warning())

	_, doc, err := c.Compile(ctx, KindIncome, accts.All(), ledger.Period{})
	require.NoError(t, err)
	assert.True(t, finalTotal(doc).Amount.Equal(dec("800000")))

	_, _, err = c.Compile(ctx, Kind("cash-flow"), accts.All(), ledger.Period{})
	assert.Error(t, err)
}

func readRows(t *testing.T, body string) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportCSV_ScenarioD(t *testing.T) {
	e := Exporter{Organization: "KRIS ACCOUNTING", CurrencyNote: "(Presented in Rupiah unless otherwise stated)"}

	for _, d := range []Document{
		BuildSimpleIncomeStatement(scenarioC(), year2024).Document(),
		BuildIncomeStatement(scenarioC(), config.DefaultCategories(), year2024).Document(),
	} {
		var buf bytes.Buffer
		name, err := e.Export(&buf, d, FormatCSV)
		require.NoError(t, err)
		assert.Contains(t, name, "2024-01-01")
		assert.Contains(t, name, "2024-12-31")
		assert.True(t, strings.HasSuffix(name, ".csv"))
		assert.NotContains(t, name, " ")

		rows := readRows(t, buf.String())
		assert.Equal(t, []string{"KRIS ACCOUNTING"}, rows[0])
		assert.Equal(t, []string{d.Title}, rows[1])
		assert.Equal(t, []string{"For the period 2024-01-01 to 2024-12-31"}, rows[2])

		last := rows[len(rows)-1]
		require.Len(t, last, 3)
		assert.Equal(t, "NET INCOME", last[1])
		got, err := exportedAmount(last[2])
		require.NoError(t, err)
		assert.True(t, got.Equal(dec("800000")), "final row %v", last)
	}
}

func TestExportCSV_Layout(t *testing.T) {
	balances := []model.AccountBalance{
		bal("4-1001", `Jasa "Premium", Konsultasi`, model.AccountTypeRevenue, "Operating Revenue", model.NormalCredit, "1000"),
		bal("6-1001", "Beban Gaji", model.AccountTypeExpense, "Operating Expenses", model.NormalDebit, "250.5"),
	}
	d := BuildSimpleIncomeStatement(balances, year2024).Document()

	var buf bytes.Buffer
	require.NoError(t, Exporter{Organization: "Toko, Maju"}.WriteCSV(&buf, d))
	body := buf.String()

	assert.True(t, strings.HasPrefix(body, "\"Toko, Maju\"\nINCOME STATEMENT SUMMARY\n"))
	assert.Contains(t, body, "REVENUE\nCode,Account Name,Amount\n4-1001,\"Jasa \"\"Premium\"\", Konsultasi\",1000.00\n,\"Total Revenue\",1000.00\n")
	assert.Contains(t, body, ",\"Total Expenses\",(250.50)\n")
	assert.Contains(t, body, ",\"NET INCOME\",749.50\n")
	assert.Equal(t, "INCOME_STATEMENT_SUMMARY_2024-01-01_2024-12-31.csv", Filename(d, FormatCSV))
}

func TestExportBalanceSheetAsOf(t *testing.T) {
	balances := []model.AccountBalance{
		bal("1-1001", "Kas", model.AccountTypeAsset, "Current Assets", model.NormalDebit, "1000000"),
		bal("3-1001", "Modal Pemilik", model.AccountTypeEquity, "Capital", model.NormalCredit, "1000000"),
	}
	d := BuildBalanceSheet(balances, config.DefaultCategories(), decimal.Zero, year2024).Document()

	var buf bytes.Buffer
	name, err := Exporter{Organization: "KRIS"}.Export(&buf, d, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "BALANCE_SHEET_2024-01-01_2024-12-31.csv", name)
	assert.Contains(t, buf.String(), "As of 2024-12-31\n")
	assert.Contains(t, buf.String(), "CURRENT ASSETS\n")
	assert.NotContains(t, buf.String(), "FIXED ASSETS")
	assert.Contains(t, buf.String(), ",\"TOTAL LIABILITIES AND EQUITY\",1000000.00\n")
}

func TestExportPDFUnavailable(t *testing.T) {
	d := BuildSimpleIncomeStatement(scenarioC(), year2024).Document()
	var buf bytes.Buffer
	_, err := Exporter{}.Export(&buf, d, FormatPDF)
	require.ErrorIs(t, err, ErrFormatUnavailable)
	assert.Equal(t, "PDF export is not yet available", err.Error())
	assert.Zero(t, buf.Len())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
