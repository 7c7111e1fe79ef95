package http

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sefavnl/giris-ve-kayit/internal/service"
	"github.com/sefavnl/giris-ve-kayit/pkg/health"
	"github.com/sefavnl/giris-ve-kayit/pkg/middleware"
)

// RouterConfig bundles the dependencies the router wires together.
type RouterConfig struct {
	AuthService *service.AuthService
	Health      *health.Handler
	Logger      *slog.Logger
	ServiceName string
	CORS        middleware.CORSConfig
}

// NewRouter builds the HTTP routing tree with the full middleware chain.
func NewRouter(cfg RouterConfig) chi.Router {
	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)
	userHandler := NewUserHandler(cfg.AuthService, cfg.Logger)

	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	// RequestLogger must come after RequestLogging and Tracing so the
	// request-scoped logger picks up the correlation and span IDs.
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/forgot-password", authHandler.ForgotPassword)
				r.Post("/reset-password", authHandler.ResetPassword)
			})
			// OAuth2-style form endpoint, deliberately outside the JSON
			// content-type guard.
			r.Post("/token", authHandler.Token)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator(cfg.AuthService)))
			r.Get("/me", userHandler.Me)
		})
	})

	return r
}

// tokenValidator adapts the auth service to the middleware contract. Each
// request re-resolves the token subject against the user store, so tokens for
// deleted accounts stop working immediately.
func tokenValidator(svc *service.AuthService) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		user, err := svc.CurrentUser(ctx, token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: user.ID, Email: user.Email}, nil
	}
}
