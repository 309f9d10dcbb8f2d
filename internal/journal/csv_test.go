package journal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-accounting/kris/internal/model"
)

func TestRoundTrip(t *testing.T) {
	entries := []model.EntryWithLines{
		{
			JournalEntry: model.JournalEntry{ReferenceNumber: "JRN-1", EntryDate: date(2024, 1, 2), Description: "Setoran, modal"},
			Lines: []model.JournalLine{
				{AccountID: "id-kas", Debit: dec("1000000")},
				{AccountID: "id-modal", Credit: dec("1000000")},
			},
		},
		{
			JournalEntry: model.JournalEntry{ReferenceNumber: "JRN-2", EntryDate: date(2024, 1, 3), Description: "Sewa"},
			Lines: []model.JournalLine{
				{AccountID: "id-beban", Debit: dec("250000.50")},
				{AccountID: "id-kas", Credit: dec("250000.50")},
			},
		},
	}
	codeOf := map[string]string{"id-kas": "1-1001", "id-modal": "3-1001", "id-beban": "6-1002"}
	idOf := map[string]string{"1-1001": "id-kas", "3-1001": "id-modal", "6-1002": "id-beban"}

	var buf bytes.Buffer
	require.NoError(t, WriteEntries(&buf, entries, codeOf))
	assert.Contains(t, buf.String(), "JRN-1,2024-01-02,\"Setoran, modal\",1-1001,1000000.00,\n")

	drafts, err := ReadDrafts(&buf, idOf)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	assert.Equal(t, "JRN-1", drafts[0].ReferenceNumber)
	assert.Equal(t, "Setoran, modal", drafts[0].Description)
	assert.True(t, drafts[0].Date.Equal(date(2024, 1, 2)))
	require.Len(t, drafts[0].Lines, 2)
	assert.Equal(t, "id-kas", drafts[0].Lines[0].AccountID)
	assert.True(t, drafts[0].Lines[0].Debit.Equal(dec("1000000")))
	assert.True(t, drafts[0].Lines[1].Credit.Equal(dec("1000000")))

	require.Len(t, drafts[1].Lines, 2)
	assert.True(t, drafts[1].Lines[0].Debit.Equal(dec("250000.50")))
}

func TestReadDrafts_Errors(t *testing.T) {
	idOf := map[string]string{"1-1001": "id-kas"}
	tests := []struct {
		name string
		csv  string
	}{
		{"bad date", "h1,h2,h3,h4,h5,h6\nJRN-1,02/01/2024,x,1-1001,10,\n"},
		{"unknown code", "h1,h2,h3,h4,h5,h6\nJRN-1,2024-01-02,x,9-9999,10,\n"},
		{"bad amount", "h1,h2,h3,h4,h5,h6\nJRN-1,2024-01-02,x,1-1001,ten,\n"},
		{"wrong field count", "h1,h2,h3,h4,h5,h6\nJRN-1,2024-01-02\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDrafts(strings.NewReader(tt.csv), idOf)
			assert.Error(t, err)
		})
	}
}
