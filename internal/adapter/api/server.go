package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the middleware stack and routes. apiToken enables bearer
// authentication on /api when non-empty.
func NewRouter(h *Handler, apiToken string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(requireToken(apiToken))

		r.Route("/operations", func(r chi.Router) {
			r.Get("/", h.ListOperations)
			r.Post("/", h.CreateOperation)
			r.Get("/{id}", h.GetOperation)
			r.Get("/{id}/events", h.ListOperationEvents)
			r.Post("/{id}/approve", h.ApproveOperation)
			r.Post("/{id}/reject", h.RejectOperation)
			r.Post("/{id}/disburse", h.DisburseOperation)
			r.Post("/{id}/complete", h.CompleteOperation)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", h.RegisterInvoice)
			r.Post("/{id}/pay", h.PayInvoice)
			r.Post("/{id}/void", h.VoidInvoice)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/", h.RegisterClient)
			r.Post("/{id}/activate", h.ActivateClient)
			r.Post("/{id}/suspend", h.SuspendClient)
		})
	})

	return r
}
