// Package httpapi exposes the bookkeeping operations as a JSON API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kris-accounting/kris/internal/accounts"
	"github.com/kris-accounting/kris/internal/journal"
	"github.com/kris-accounting/kris/internal/ledger"
	"github.com/kris-accounting/kris/internal/logging"
	"github.com/kris-accounting/kris/internal/report"
)

// Handler serves the API over the bookkeeping services.
type Handler struct {
	accounts *accounts.Service
	journal  *journal.Service
	ledger   *ledger.Aggregator
	reports  *report.Compiler
	exporter report.Exporter
	log      *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(
	accts *accounts.Service,
	jrnl *journal.Service,
	agg *ledger.Aggregator,
	reports *report.Compiler,
	exporter report.Exporter,
	log *zap.Logger,
) *Handler {
	return &Handler{
		accounts: accts,
		journal:  jrnl,
		ledger:   agg,
		reports:  reports,
		exporter: exporter,
		log:      logging.OrNop(log),
	}
}

// Routes builds the router with its middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Put("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
		})
		r.Route("/journal", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})
		r.Get("/ledger", h.Ledger)
		r.Get("/reports/{kind}", h.Report)
		r.Get("/reports/{kind}/export", h.ExportReport)
		r.Get("/summary", h.Summary)
	})

	return r
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
