package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/config"
	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/report"
	"github.com/kris-accounting/kris/internal/store"
	"github.com/kris-accounting/kris/internal/store/memory"
)

type testServer struct {
	mem     *memory.Store
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := memory.New()
	accts := accounts.NewService(mem, nil)
	agg := ledger.NewAggregator(mem, nil, 4)
	compiler := report.NewCompiler(agg, config.DefaultCategories(), config.FiscalConfig{YearStart: "01-01"})
	compiler.SetClock(func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC) })
	h := NewHandler(accts, journal.NewService(mem, accts, nil, 4), agg, compiler,
		report.Exporter{Organization: "KRIS ACCOUNTING"}, nil)
	return &testServer{mem: mem, handler: h.Routes()}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env Envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) createAccount(t *testing.T, body string) string {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/accounts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return env.Data.(map[string]any)["id"].(string)
}

func (s *testServer) seed(t *testing.T) (kas, modal, pendapatan, beban string) {
	t.Helper()
	kas = s.createAccount(t, `{"code":"1-1001","name":"Kas","type":"Asset","category":"Current Assets","normal_balance":"Debit"}`)
	modal = s.createAccount(t, `{"code":"3-1001","name":"Modal Pemilik","type":"Equity","category":"Capital","normal_balance":"Credit"}`)
	pendapatan = s.createAccount(t, `{"code":"4-1001","name":"Pendapatan Jasa","type":"Revenue","category":"Operating Revenue","normal_balance":"Credit"}`)
	beban = s.createAccount(t, `{"code":"6-1001","name":"Beban Gaji","type":"Expense","category":"Operating Expenses","normal_balance":"Debit"}`)
	return kas, modal, pendapatan, beban
}

func entryBody(date, debitAcct, creditAcct, amount string) string {
	return `{"entry_date":"` + date + `","description":"test","lines":[` +
		`{"account_id":"` + debitAcct + `","debit":"` + amount + `","credit":"0"},` +
		`{"account_id":"` + creditAcct + `","debit":"0","credit":"` + amount + `"}]}`
}

func TestAccounts(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec, env := s.do(t, http.MethodGet, "/api/accounts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", env.Status)
	list := env.Data.([]any)
	require.Len(t, list, 4)
	assert.Equal(t, "1-1001", list[0].(map[string]any)["code"])

	_, env = s.do(t, http.MethodGet, "/api/accounts?q=beban", "")
	assert.Len(t, env.Data.([]any), 1)

	rec, env = s.do(t, http.MethodPost, "/api/accounts", `{"code":"9","name":"","type":"Asset","category":"x","normal_balance":"Debit"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Message, "name")

	rec, _ = s.do(t, http.MethodPost, "/api/accounts", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/accounts/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournalAcceptsAccountCreatedElsewhere(t *testing.T) {
	s := newTestServer(t)
	kas := s.createAccount(t, `{"code":"1-1001","name":"Kas","type":"Asset","category":"Current Assets","normal_balance":"Debit"}`)

	// A second process writing to the same books.
	other := accounts.NewService(s.mem, nil)
	modal, err := other.Create(context.Background(), accounts.Fields{
		Code: "3-1001", Name: "Modal Pemilik", Type: "Equity", Category: "Capital", NormalBalance: "Credit",
	})
	require.NoError(t, err)

	rec, _ := s.do(t, http.MethodPost, "/api/journal", entryBody("2024-01-02", kas, modal.ID, "1000000"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.mem.Count(store.TableEntries))
	assert.Equal(t, 2, s.mem.Count(store.TableLines))
}

func TestJournalUnbalancedRejected(t *testing.T) {
	s := newTestServer(t)
	kas, modal, _, _ := s.seed(t)

	body := `{"entry_date":"2024-03-01","lines":[` +
		`{"account_id":"` + kas + `","debit":"500"},{"account_id":"` + modal + `","credit":"400"}]}`
	rec, env := s.do(t, http.MethodPost, "/api/journal", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, env.Message, "500.00")
	assert.Equal(t, 0, s.mem.Count(store.TableEntries))
	assert.Equal(t, 0, s.mem.Count(store.TableLines))
}

func TestJournalAndLedger(t *testing.T) {
	s := newTestServer(t)
	kas, modal, _, _ := s.seed(t)

	rec, env := s.do(t, http.MethodPost, "/api/journal", entryBody("2024-01-02", kas, modal, "1000000"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entryID := env.Data.(map[string]any)["id"].(string)

	_, env = s.do(t, http.MethodGet, "/api/journal", "")
	require.Len(t, env.Data.([]any), 1)

	rec, env = s.do(t, http.MethodGet, "/api/ledger?q=kas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ledgers := env.Data.([]any)
	require.Len(t, ledgers, 1)
	assert.Equal(t, "1000000", ledgers[0].(map[string]any)["balance"])

	rec, _ = s.do(t, http.MethodGet, "/api/ledger?start=2024-02-30", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/journal/"+entryID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, s.mem.Count(store.TableLines))
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	kas, modal, pendapatan, beban := s.seed(t)
	for _, body := range []string{
		entryBody("2024-01-02", kas, modal, "1000000"),
		entryBody("2024-02-01", kas, pendapatan, "2000000"),
		entryBody("2024-02-28", beban, kas, "1200000"),
	} {
		rec, _ := s.do(t, http.MethodPost, "/api/journal", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, env := s.do(t, http.MethodGet, "/api/reports/income-simple", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	assert.Equal(t, "800000", data["report"].(map[string]any)["net_income"])

	_, env = s.do(t, http.MethodGet, "/api/reports/balance?start=2024-01-01&end=2024-12-31", "")
	data = env.Data.(map[string]any)
	assert.Nil(t, data["warning"])
	assert.Equal(t, "1800000", data["report"].(map[string]any)["total_assets"])

	rec, _ = s.do(t, http.MethodGet, "/api/reports/cash-flow", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/reports/income/export?format=csv&start=2024-01-01&end=2024-12-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "INCOME_STATEMENT_2024-01-01_2024-12-31.csv")
	assert.True(t, strings.HasSuffix(rec.Body.String(), ",\"NET INCOME\",800000.00\n\n"))

	rec, env = s.do(t, http.MethodGet, "/api/reports/income/export?format=pdf", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "PDF export is not yet available", env.Message)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	kas, modal, _, _ := s.seed(t)
	rec, _ := s.do(t, http.MethodPost, "/api/journal", entryBody("2024-01-02", kas, modal, "1000000"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := env.Data.(map[string]any)
	assert.EqualValues(t, 4, data["total_accounts"])
	assert.EqualValues(t, 1, data["total_entries"])
	assert.Equal(t, "1000000", data["total_debit"])
}
