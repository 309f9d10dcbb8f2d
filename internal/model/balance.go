package model

import "github.com/shopspring/decimal"

// Tolerance is the absolute amount below which two totals are considered equal
// and below which a report line is suppressed.
var Tolerance = decimal.RequireFromString("0.01")

// SignedAmount is a line's contribution to the balance of an account with the given
// normal balance: debit minus credit for debit-normal accounts, credit minus debit otherwise.
func SignedAmount(debit, credit decimal.Decimal, normal NormalBalance) decimal.Decimal {
	if normal == NormalCredit {
		return credit.Sub(debit)
	}
	return debit.Sub(credit)
}

// AccountBalance is a derived, never persisted, balance of one account over a line set.
type AccountBalance struct {
	Account Account
	Balance decimal.Decimal
}

// WithinTolerance reports whether |a-b| <= Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Negligible reports whether |d| < Tolerance.
func Negligible(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}
