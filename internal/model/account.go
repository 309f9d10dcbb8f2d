package model

import (
	"fmt"
	"strings"
	"time"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

// AccountTypes lists every account type in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// ParseAccountType accepts any casing of a known account type.
func ParseAccountType(s string) (AccountType, error) {
	for _, t := range AccountTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown account type %q", s)
}

// NormalBalance is the side on which an account's balance is positive.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "Debit"
	NormalCredit NormalBalance = "Credit"
)

// ParseNormalBalance accepts any casing of Debit or Credit.
func ParseNormalBalance(s string) (NormalBalance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit":
		return NormalDebit, nil
	case "credit":
		return NormalCredit, nil
	}
	return "", fmt.Errorf("unknown normal balance %q", s)
}

// Account represents a row in chart_of_accounts.
type Account struct {
	ID            string
	Code          string
	Name          string
	Type          AccountType
	Category      string
	NormalBalance NormalBalance
	CreatedAt     time.Time
}

// Matches reports whether term is a case-insensitive substring of the code, name or type.
func (a Account) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.Code), term) ||
		strings.Contains(strings.ToLower(a.Name), term) ||
		strings.Contains(strings.ToLower(string(a.Type)), term)
}
