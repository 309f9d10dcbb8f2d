package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAccounts implements AccountChecker for testing.
type mockAccounts struct {
	ids map[string]bool
}

func (m *mockAccounts) Exists(id string) bool {
	return m.ids[id]
}

func newMockAccounts(ids ...string) *mockAccounts {
	m := &mockAccounts{ids: make(map[string]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func debit(acct, amount string) DraftLine {
	return DraftLine{AccountID: acct, Debit: dec(amount)}
}

func credit(acct, amount string) DraftLine {
	return DraftLine{AccountID: acct, Credit: dec(amount)}
}

func TestPrune(t *testing.T) {
	lines := []DraftLine{
		debit("kas", "100"),
		{AccountID: "  ", Debit: dec("50")},
		{AccountID: "modal"},
		credit(" modal ", "100"),
	}
	got := Prune(lines)
	require.Len(t, got, 2)
	assert.Equal(t, "kas", got[0].AccountID)
	assert.Equal(t, "modal", got[1].AccountID)
}

func TestPrune_NetsTwoSidedLines(t *testing.T) {
	got := Prune([]DraftLine{
		{AccountID: "kas", Debit: dec("100"), Credit: dec("30")},
		{AccountID: "modal", Debit: dec("20"), Credit: dec("90")},
		{AccountID: "beban", Debit: dec("15"), Credit: dec("15")},
	})
	require.Len(t, got, 2, "a line netting to zero is dropped")
	assert.True(t, got[0].Debit.Equal(dec("70")))
	assert.True(t, got[0].Credit.IsZero())
	assert.True(t, got[1].Debit.IsZero())
	assert.True(t, got[1].Credit.Equal(dec("70")))

	// Netting never changes the balance check.
	assert.NoError(t, Validate(Draft{Lines: got}, nil))
}

func TestPrune_KeepsNegativeForValidation(t *testing.T) {
	got := Prune([]DraftLine{{AccountID: "kas", Debit: dec("10"), Credit: dec("-10")}})
	require.Len(t, got, 1)
	var ve *ValidationError
	require.ErrorAs(t, Validate(Draft{Lines: got}, nil), &ve)
	assert.Equal(t, 1, ve.Line)
}

func TestValidate_Balanced(t *testing.T) {
	d := Draft{Lines: []DraftLine{debit("kas", "1000000"), credit("modal", "1000000")}}
	assert.NoError(t, Validate(d, newMockAccounts("kas", "modal")))
}

func TestValidate_WithinTolerance(t *testing.T) {
	d := Draft{Lines: []DraftLine{debit("kas", "100.00"), credit("modal", "99.99")}}
	assert.NoError(t, Validate(d, nil))
}

func TestValidate_Unbalanced(t *testing.T) {
	d := Draft{Lines: []DraftLine{debit("kas", "500"), credit("modal", "400")}}
	err := Validate(d, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalanced))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.TotalDebit.Equal(dec("500")))
	assert.True(t, ve.TotalCredit.Equal(dec("400")))
	assert.Contains(t, err.Error(), "500.00")
}

func TestValidate_LineErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []DraftLine
		line  int
	}{
		{"no lines", nil, 0},
		{"negative", []DraftLine{debit("kas", "10"), credit("modal", "-10")}, 2},
		{"unknown account", []DraftLine{debit("kas", "10"), credit("nope", "10")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Draft{Lines: tt.lines}, newMockAccounts("kas", "modal"))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.line, ve.Line)
			assert.False(t, errors.Is(err, ErrUnbalanced))
		})
	}
}
