package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/waap-dev/waap/internal/middleware"
	"github.com/waap-dev/waap/internal/middleware/metrics"
	"github.com/waap-dev/waap/internal/setup"
)

// New creates and configures the API router with all the routes.
func New(deps *setup.Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(metrics.Middleware)
	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Public.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		// Public routes
		v1.Group(func(public chi.Router) {
			public.Use(authMw.OptionalAuth())
			public.Get("/postings", h.ListPostings)
			public.Get("/postings/{id}", h.GetPosting)
		})
		v1.Post("/postings/{id}/contact", h.ContactOwner)
		v1.Get("/departments", h.Departments)
		v1.Get("/classifications", h.Classifications)

		// Auth routes
		v1.Route("/auth", func(auth chi.Router) {
			auth.Post("/login_request", h.RequestLogin)
			auth.Post("/verify/{token}", h.VerifyLogin)
			auth.Post("/admin_login", h.AdminLogin)
			auth.Post("/logout", h.Logout)
			auth.With(authMw.RegistrationOnly()).Post("/complete_registration", h.CompleteRegistration)
		})

		// Deletion confirmation is authorized by the token itself
		v1.Post("/postings/delete_confirm/{token}", h.ConfirmDeletion)

		// Logged-in routes
		v1.Group(func(loggedIn chi.Router) {
			loggedIn.Use(authMw.NeedAuth())
			loggedIn.Get("/me", h.Me)
			loggedIn.Put("/me", h.UpdateProfile)
			loggedIn.Get("/my/postings", h.MyPostings)
			loggedIn.Post("/postings", h.CreatePosting)
			loggedIn.Post("/postings/{id}/request_deletion", h.RequestDeletion)
		})

		// Admin routes
		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(authMw.AdminOnly())
			admin.Post("/postings/{id}/approve", h.ApprovePosting)
			admin.Post("/postings/{id}/flag", h.FlagPosting)
			admin.Post("/postings/{id}/remove", h.RemovePosting)
		})
	})

	return r
}
