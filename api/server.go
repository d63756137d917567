/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP from proxy headers
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/months", func(r chi.Router) {
			r.Get("/", h.ListMonths)
			r.Post("/", h.GenerateMonth)

			r.Route("/{month}", func(r chi.Router) {
				r.Get("/", h.GetMonth)
				r.Delete("/", h.DeleteMonth)
				r.Get("/detail", h.GetDetailedMonth)
				r.Get("/overdue", h.GetOverdueReport)
				r.Post("/sync", h.SyncMonth)
				r.Post("/lock", h.LockMonth)
				r.Post("/unlock", h.UnlockMonth)

				r.Route("/instances", func(r chi.Router) {
					r.Post("/", h.AddAdhocInstance)
					r.Route("/{instanceID}", func(r chi.Router) {
						r.Delete("/", h.RemoveInstance)
						r.Post("/close", h.CloseInstance)
						r.Route("/occurrences", func(r chi.Router) {
							r.Post("/", h.AddAdhocOccurrence)
							r.Route("/{occurrenceID}", func(r chi.Router) {
								r.Put("/", h.UpdateOccurrenceAmount)
								r.Delete("/", h.RemoveOccurrence)
								r.Post("/close", h.CloseOccurrence)
								r.Post("/reopen", h.ReopenOccurrence)
							})
						})
					})
				})

				r.Route("/expenses", func(r chi.Router) {
					r.Post("/", h.AddVariableExpense)
					r.Delete("/{expenseID}", h.RemoveVariableExpense)
				})

				r.Put("/balances/{sourceID}", h.SetBankBalance)
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Post("/", h.CreateTemplate)
			r.Route("/{role}", func(r chi.Router) {
				r.Get("/", h.ListTemplates)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetTemplate)
					r.Put("/", h.UpdateTemplate)
					r.Delete("/", h.DeleteTemplate)
				})
			})
		})

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", h.ListSources)
			r.Post("/", h.CreateSource)
			r.Put("/{id}", h.UpdateSource)
			r.Delete("/{id}", h.DeleteSource)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		r.Route("/undo", func(r chi.Router) {
			r.Get("/", h.ListUndoEntries)
			r.Post("/", h.Undo)
		})

		r.Get("/insights/commitments", h.GetCommitments)

		r.Route("/backup", func(r chi.Router) {
			r.Get("/", h.ExportBackup)
			r.Post("/", h.ImportBackup)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
