package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/model"
	"github.com/kris-accounting/kris/internal/report"
	"github.com/kris-accounting/kris/internal/store"
)

type accountJSON struct {
	ID            string `json:"id,omitempty"`
	Code          string `json:"code"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	NormalBalance string `json:"normal_balance"`
}

func toAccountJSON(a model.Account) accountJSON {
	return accountJSON{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          string(a.Type),
		Category:      a.Category,
		NormalBalance: string(a.NormalBalance),
	}
}

func (in accountJSON) fields() accounts.Fields {
	return accounts.Fields{
		Code:          in.Code,
		Name:          in.Name,
		Type:          model.AccountType(in.Type),
		Category:      in.Category,
		NormalBalance: model.NormalBalance(in.NormalBalance),
	}
}

type lineJSON struct {
	ID        string          `json:"id,omitempty"`
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type entryJSON struct {
	ID              string     `json:"id,omitempty"`
	EntryDate       string     `json:"entry_date"`
	ReferenceNumber string     `json:"reference_number"`
	Description     string     `json:"description"`
	Lines           []lineJSON `json:"lines"`
}

func toEntryJSON(e model.EntryWithLines) entryJSON {
	out := entryJSON{
		ID:              e.ID,
		EntryDate:       e.EntryDate.Format(model.DateFormat),
		ReferenceNumber: e.ReferenceNumber,
		Description:     e.Description,
		Lines:           make([]lineJSON, len(e.Lines)),
	}
	for i, l := range e.Lines {
		out.Lines[i] = lineJSON{ID: l.ID, AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit}
	}
	return out
}

func (in entryJSON) draft() (journal.Draft, error) {
	d := journal.Draft{ReferenceNumber: in.ReferenceNumber, Description: in.Description}
	if in.EntryDate != "" {
		date, err := time.Parse(model.DateFormat, in.EntryDate)
		if err != nil {
			return journal.Draft{}, fmt.Errorf("invalid entry_date %q: want YYYY-MM-DD", in.EntryDate)
		}
		d.Date = date
	}
	for _, l := range in.Lines {
		d.Lines = append(d.Lines, journal.DraftLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
	}
	return d, nil
}

type transactionJSON struct {
	EntryID         string          `json:"entry_id"`
	EntryDate       string          `json:"entry_date"`
	ReferenceNumber string          `json:"reference_number"`
	Description     string          `json:"description"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	RunningBalance  decimal.Decimal `json:"running_balance"`
}

type ledgerJSON struct {
	Account      accountJSON       `json:"account"`
	Transactions []transactionJSON `json:"transactions"`
	TotalDebit   decimal.Decimal   `json:"total_debit"`
	TotalCredit  decimal.Decimal   `json:"total_credit"`
	Balance      decimal.Decimal   `json:"balance"`
}

type reportJSON struct {
	Kind    report.Kind `json:"kind"`
	Title   string      `json:"title"`
	Report  any         `json:"report"`
	Warning string      `json:"warning,omitempty"`
}

type summaryJSON struct {
	TotalAccounts int             `json:"total_accounts"`
	TotalEntries  int             `json:"total_entries"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	TotalCredit   decimal.Decimal `json:"total_credit"`
}

// writeFailure maps service errors onto status codes.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var accountErr accounts.ValidationError
	var entryErr *journal.ValidationError
	switch {
	case errors.As(err, &accountErr), errors.As(err, &entryErr):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, report.ErrFormatUnavailable):
		Error(w, http.StatusNotImplemented, err.Error())
	default:
		Error(w, http.StatusBadGateway, err.Error())
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accts := accounts.Search(h.accounts.Reload(r.Context()), r.URL.Query().Get("q"))
	out := make([]accountJSON, len(accts))
	for i, a := range accts {
		out[i] = toAccountJSON(a)
	}
	JSON(w, http.StatusOK, out)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in accountJSON
	if !decode(w, r, &in) {
		return
	}
	a, err := h.accounts.Create(r.Context(), in.fields())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	JSON(w, http.StatusCreated, toAccountJSON(a))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var in accountJSON
	if !decode(w, r, &in) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.accounts.Update(r.Context(), id, in.fields()); err != nil {
		h.writeFailure(w, err)
		return
	}
	a, _ := h.accounts.Get(id)
	JSON(w, http.StatusOK, toAccountJSON(a))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, nil)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.List(r.Context())
	if err != nil {
		h.log.Warn("listing journal entries", zap.Error(err))
	}
	entries = journal.Search(entries, r.URL.Query().Get("q"))
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = toEntryJSON(e)
	}
	JSON(w, http.StatusOK, out)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in entryJSON
	if !decode(w, r, &in) {
		return
	}
	d, err := in.draft()
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	// Accounts may have been added by another process since the last load.
	h.accounts.Reload(r.Context())
	created, err := h.journal.Create(r.Context(), d)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	JSON(w, http.StatusCreated, toEntryJSON(created))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, nil)
}

func period(w http.ResponseWriter, r *http.Request) (ledger.Period, bool) {
	p, err := ledger.ParsePeriod(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return ledger.Period{}, false
	}
	return p, true
}

func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	p, ok := period(w, r)
	if !ok {
		return
	}
	ledgers, err := h.ledger.Build(r.Context(), h.accounts.Reload(r.Context()), p)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	ledgers = ledger.Search(ledger.Visible(ledgers), r.URL.Query().Get("q"))

	out := make([]ledgerJSON, len(ledgers))
	for i, l := range ledgers {
		lj := ledgerJSON{
			Account:      toAccountJSON(l.Account),
			Transactions: make([]transactionJSON, len(l.Transactions)),
			TotalDebit:   l.TotalDebit,
			TotalCredit:  l.TotalCredit,
			Balance:      l.Balance,
		}
		for j, tx := range l.Transactions {
			lj.Transactions[j] = transactionJSON{
				EntryID:         tx.Entry.ID,
				EntryDate:       tx.Entry.EntryDate.Format(model.DateFormat),
				ReferenceNumber: tx.Entry.ReferenceNumber,
				Description:     tx.Entry.Description,
				Debit:           tx.Line.Debit,
				Credit:          tx.Line.Credit,
				RunningBalance:  tx.RunningBalance,
			}
		}
		out[i] = lj
	}
	JSON(w, http.StatusOK, out)
}

func (h *Handler) compile(w http.ResponseWriter, r *http.Request) (any, report.Document, bool) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		Error(w, http.StatusNotFound, err.Error())
		return nil, report.Document{}, false
	}
	p, ok := period(w, r)
	if !ok {
		return nil, report.Document{}, false
	}
	rep, doc, err := h.reports.Compile(r.Context(), kind, h.accounts.Reload(r.Context()), p)
	if err != nil {
		h.writeFailure(w, err)
		return nil, report.Document{}, false
	}
	return rep, doc, true
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	rep, doc, ok := h.compile(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, reportJSON{Kind: doc.Kind, Title: doc.Title, Report: rep, Warning: doc.Warning})
}

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	_, doc, ok := h.compile(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	name, err := h.exporter.Export(&buf, doc, format)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.Summarize(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	JSON(w, http.StatusOK, summaryJSON{
		TotalAccounts: sum.TotalAccounts,
		TotalEntries:  sum.TotalEntries,
		TotalDebit:    sum.TotalDebit,
		TotalCredit:   sum.TotalCredit,
	})
}
