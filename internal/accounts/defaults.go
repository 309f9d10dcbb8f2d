package accounts

import "github.com/kris-accounting/kris/internal/model"

// DefaultChart returns a starter chart of accounts for a small trading business.
func DefaultChart() []Fields {
	const (
		asset     = model.AccountTypeAsset
		liability = model.AccountTypeLiability
		equity    = model.AccountTypeEquity
		revenue   = model.AccountTypeRevenue
		expense   = model.AccountTypeExpense
		debit     = model.NormalDebit
		credit    = model.NormalCredit
	)
	return []Fields{
		{"1-1001", "Cash", asset, "Current Assets", debit},
		{"1-1002", "Bank", asset, "Current Assets", debit},
		{"1-1003", "Accounts Receivable", asset, "Current Assets", debit},
		{"1-1004", "Merchandise Inventory", asset, "Current Assets", debit},
		{"1-2001", "Equipment", asset, "Fixed Assets", debit},
		{"1-2002", "Accumulated Depreciation - Equipment", asset, "Fixed Assets", credit},
		{"2-1001", "Accounts Payable", liability, "Current Liabilities", credit},
		{"2-2001", "Bank Loan", liability, "Long-Term Liabilities", credit},
		{"3-1001", "Owner's Capital", equity, "Capital", credit},
		{"3-1002", "Owner's Drawings", equity, "Capital", debit},
		{"4-1001", "Sales Revenue", revenue, "Operating Revenue", credit},
		{"4-1002", "Service Revenue", revenue, "Operating Revenue", credit},
		{"5-1001", "Cost of Goods Sold", expense, "Cost of Goods Sold", debit},
		{"5-1002", "Purchase Discounts", expense, "Cost of Goods Sold", credit},
		{"6-1001", "Salaries Expense", expense, "Operating Expenses", debit},
		{"6-1002", "Rent Expense", expense, "Operating Expenses", debit},
		{"6-1003", "Utilities Expense", expense, "Operating Expenses", debit},
		{"6-2001", "Depreciation Expense - Equipment", expense, "Depreciation Expenses", debit},
		{"7-1001", "Interest Expense", expense, "Non-Operating Expenses", debit},
	}
}
