package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JJET88/dit205-midterm-fullstack/backend/internal/setup"
	mw "github.com/JJET88/dit205-midterm-fullstack/shared/middleware"
	"github.com/JJET88/dit205-midterm-fullstack/shared/middleware/metrics"
)

// New creates the API router.
// Limiters attached with Use count requests for every route of that group combined.
func New(deps *setup.Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.Cors.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(deps.Config.Public.Server.HTTPS, mw.APIContentSecurityPolicy))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/health", h.Health)
		v1.Get("/ready", h.Ready)

		v1.Route("/auth", func(auth chi.Router) {
			auth.Use(mw.NoStore)

			auth.Group(func(login chi.Router) {
				login.Use(mw.GlobalRateLimit(deps.Limiters.Global))
				login.Use(mw.RateLimit(deps.Limiters.PerIP, mw.GetIP))
				login.Use(mw.RateLimit(deps.Limiters.PerEmail, mw.GetEmailKeyFromBody))
				login.Post("/login", h.Login)
			})

			auth.Group(func(bound chi.Router) {
				bound.Use(authMw.OptionalAuth())
				bound.Post("/logout", h.Logout)
				bound.Get("/session", h.Session)
			})

			auth.With(authMw.NeedAuth()).Get("/me", h.Session)
		})
	})

	return r
}
