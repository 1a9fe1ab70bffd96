package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions carries the optional pieces of the router wiring.
type RouterOptions struct {
	// RateLimiter throttles the unauthenticated recovery endpoint. Nil
	// disables throttling (tests).
	RateLimiter *RateLimiter

	// Metrics, when non-nil, is mounted at /metrics.
	Metrics http.Handler
}

// NewRouter constructs the API HTTP router.
//
// Session recovery is the only unauthenticated workflow route: its whole
// point is to turn a one-time token into a session. Everything else sits
// behind requireSession.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoint for infra checks.
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.RecoveryMiddleware())
			}
			r.Post("/session/recover", s.handleRecoverSession)
		})

		r.Post("/password", s.handleUpdatePassword)
		r.Patch("/settings", s.handleApplySettings)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/profile", s.handleGetProfile)
			r.Get("/travels", s.handleListTravels)
			r.Post("/travels", s.handleCreateTravel)
			r.Delete("/account", s.handleDeleteAccount)
			r.Get("/account/deletion", s.handleDeletionProgress)
		})
	})

	return r
}
