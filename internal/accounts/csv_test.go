package accounts

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-accounting/kris/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accts := []model.Account{
		{Code: "1-1001", Name: "Kas", Type: model.AccountTypeAsset, Category: "Current Assets", NormalBalance: model.NormalDebit},
		{Code: "4-1001", Name: "Pendapatan, Jasa", Type: model.AccountTypeRevenue, Category: "Operating Revenue", NormalBalance: model.NormalCredit},
	}

	var buf bytes.Buffer
	err := WriteChart(&buf, accts)
	require.NoError(t, err)

	got, err := ReadChart(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i := range accts {
		assert.Equal(t, accts[i].Code, got[i].Code)
		assert.Equal(t, accts[i].Name, got[i].Name)
		assert.Equal(t, accts[i].Type, got[i].Type)
		assert.Equal(t, accts[i].Category, got[i].Category)
		assert.Equal(t, accts[i].NormalBalance, got[i].NormalBalance)
	}
}

func TestReadChart_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"bad type", "code,name,type,category,normal_balance\n1,Kas,Aset,Current Assets,Debit\n"},
		{"bad normal balance", "code,name,type,category,normal_balance\n1,Kas,Asset,Current Assets,Kredit\n"},
		{"wrong field count", "code,name,type,category,normal_balance\n1,Kas,Asset\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadChart(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestReadChart_Empty(t *testing.T) {
	got, err := ReadChart(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	chart, err := ReadChart(f)
	require.NoError(t, err)
	require.Len(t, chart, 11)

	types := make(map[model.AccountType]bool)
	for _, acct := range chart {
		types[acct.Type] = true
		assert.NoError(t, acct.Validate(), "account %s", acct.Code)
	}
	for _, at := range model.AccountTypes {
		assert.True(t, types[at], "expected an account of type %s", at)
	}
}

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart()
	require.NotEmpty(t, chart)

	codes := make(map[string]bool)
	for _, f := range chart {
		assert.NoError(t, f.Validate(), "account %s", f.Code)
		assert.False(t, codes[f.Code], "duplicate code %s", f.Code)
		codes[f.Code] = true
	}
	assert.True(t, codes["1-1001"], "expected Cash (1-1001)")
	assert.True(t, codes["5-1001"], "expected Cost of Goods Sold (5-1001)")
}
