/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/facilities/*     Facility data, assessment and verification
  /api/evaluate         Stateless snapshot assessment
  /api/simulate         Stateless revenue simulation
  /api/verification/*   Run history across facilities
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

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

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", h.ListFacilities)
			r.Post("/", h.CreateFacility)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetFacility)
				r.Get("/staff", h.ListStaff)
				r.Post("/staff", h.AddStaff)
				r.Post("/children", h.AddChildren)
				r.Post("/usage", h.AddUsage)
				r.Post("/billing", h.AddBilling)

				r.Get("/eligibility", h.GetEligibility)
				r.Get("/simulation", h.GetSimulation)
				r.Get("/advice", h.GetAdvice)

				r.Route("/verification", func(r chi.Router) {
					r.Get("/usage", h.GetUsageVerification)
					r.Get("/upper-limits", h.GetUpperLimitVerification)
					r.Get("/runs", h.ListFacilityRuns)
				})
			})
		})

		r.Post("/evaluate", h.Evaluate)
		r.Post("/simulate", h.Simulate)

		r.Get("/verification/runs", h.ListVerificationRuns)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
