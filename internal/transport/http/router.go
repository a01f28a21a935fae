package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/todo-api-nosql/internal/config"
	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/transport/http/handler"
	appmiddleware "github.com/todo-api-nosql/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps, svc *Services) http.Handler {
	r := chi.NewRouter()
	r.Use(appmiddleware.TrustedProxies(cfg.TrustedProxies))
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.SecurityHeaders)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.Debug(cfg.IsDevelopment()))

	r.Handle("/metrics", promhttp.Handler())

	authMw := appmiddleware.Auth(svc.Auth)
	sensitive := func(next http.Handler) http.Handler { return next }
	if deps.AuthLimiter != nil {
		sensitive = deps.AuthLimiter.Limit
	}

	healthH := handler.NewHealthHandler(deps.HealthCheck)
	authH := handler.NewAuthHandler(svc.Registration, svc.Auth, svc.User)
	todoH := handler.NewTodoHandler(svc.Todo)
	userH := handler.NewUserHandler(svc.User)

	r.Route("/api", func(r chi.Router) {
		if deps.Counters != nil {
			r.Use(appmiddleware.WindowLimit(deps.Counters, cfg.RateLimitMax, cfg.RateLimitWindow))
		}

		r.Get("/health", healthH.Health)

		r.Group(func(r chi.Router) {
			r.Use(sensitive)
			r.Post("/auth/register", authH.Register)
			r.Post("/auth/verify-otp", authH.VerifyOTP)
			r.Post("/auth/resend-otp", authH.ResendOTP)
			r.Post("/auth/login", authH.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/auth/me", authH.Me)
			r.Get("/todos", todoH.List)
			r.Post("/todos", todoH.Create)
			r.Put("/todos/{id}", todoH.Update)
			r.Delete("/todos/{id}", todoH.Delete)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
