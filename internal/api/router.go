package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/clipper/internal/api/middleware"
	"github.com/kiranshivaraju/clipper/internal/api/response"
)

// Dependencies holds all handler dependencies for the router.
type Dependencies struct {
	HealthHandler      http.HandlerFunc
	ProcessHandler     http.HandlerFunc
	JobHandler         http.HandlerFunc
	ClipHandler        http.HandlerFunc
	BundleHandler      http.HandlerFunc
	HistoryHandler     http.HandlerFunc
	ListHistoryHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/", orNotImplemented(deps.HealthHandler))
	r.Get("/health", orNotImplemented(deps.HealthHandler))

	r.Post("/process", orNotImplemented(deps.ProcessHandler))
	r.Get("/jobs/{jobID}", orNotImplemented(deps.JobHandler))

	// download-all must be registered ahead of the {index} pattern.
	r.Get("/clips/{jobID}/download-all", orNotImplemented(deps.BundleHandler))
	r.Get("/clips/{jobID}/{index}", orNotImplemented(deps.ClipHandler))

	r.Get("/history", orNotImplemented(deps.ListHistoryHandler))
	r.Get("/history/{jobID}", orNotImplemented(deps.HistoryHandler))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
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
