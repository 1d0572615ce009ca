// Package api assembles the HTTP surface of the SEOScout service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/seoscout/seoscout/internal/api/middleware"
	"github.com/seoscout/seoscout/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	CreateAnalysisHandler http.HandlerFunc
	GetAnalysisHandler    http.HandlerFunc
	ListAnalysisHandler   http.HandlerFunc

	CreateOptimizationHandler http.HandlerFunc
	GetOptimizationHandler    http.HandlerFunc
	ListOptimizationHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/analyze", orNotImplemented(deps.CreateAnalysisHandler))
		r.Get("/api/v1/analyze/{recordID}", orNotImplemented(deps.GetAnalysisHandler))
		r.Get("/api/v1/analyze", orNotImplemented(deps.ListAnalysisHandler))

		r.Post("/api/v1/optimize", orNotImplemented(deps.CreateOptimizationHandler))
		r.Get("/api/v1/optimize/{recordID}", orNotImplemented(deps.GetOptimizationHandler))
		r.Get("/api/v1/optimize", orNotImplemented(deps.ListOptimizationHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
