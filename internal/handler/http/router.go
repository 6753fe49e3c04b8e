package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aqdev/uauth/pkg/health"
	"github.com/aqdev/uauth/pkg/middleware"

	"github.com/aqdev/uauth/internal/domain"
	"github.com/aqdev/uauth/internal/service"
)

// RouterConfig carries the HTTP-surface knobs the router needs.
type RouterConfig struct {
	CORS       middleware.CORSConfig
	AuthRPS    int
	AuthBurst  int
	PprofCIDRs []string
}

// NewRouter creates a chi router with all auth service routes registered.
func NewRouter(
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. Tracing sits outside recovery so a span always sees
	// the 500 a recovered panic turns into.
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Tracing("uauth"))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("uauth"))
	r.Use(middleware.Authenticate(authService.ValidateAccess))

	// Operational endpoints
	r.Get("/healthz", healthHandler.LivenessHandler())
	r.Get("/readyz", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	// Auth endpoints. Token responses must never land in a shared cache,
	// and the whole group is rate limited per client IP.
	authHandler := NewAuthHandler(authService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.NoStore())
		r.Use(middleware.RateLimit(cfg.AuthRPS, cfg.AuthBurst, logger))

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Logout carries no body; the session comes from the bearer token.
		r.Post("/logout", authHandler.Logout)
	})

	// Profile endpoints (auth required)
	userHandler := NewUserHandler(authService, logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth())

		r.Get("/me", userHandler.GetProfile)
	})

	// Admin surface: admins only, one permission per method.
	adminHandler := NewResourceHandler("admin")
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(domain.RoleAdmin.String()))

		r.With(middleware.RequirePermission(domain.PermAdminRead.String())).Get("/", adminHandler.Get)
		r.With(middleware.RequirePermission(domain.PermAdminCreate.String())).Post("/", adminHandler.Post)
		r.With(middleware.RequirePermission(domain.PermAdminUpdate.String())).Put("/", adminHandler.Put)
		r.With(middleware.RequirePermission(domain.PermAdminDelete.String())).Delete("/", adminHandler.Delete)
	})

	// Management surface: admins and managers.
	managementHandler := NewResourceHandler("management")
	r.Route("/api/v1/management", func(r chi.Router) {
		r.Use(middleware.RequireRole(domain.RoleAdmin.String(), domain.RoleManager.String()))

		r.With(middleware.RequirePermission(domain.PermManagementRead.String())).Get("/", managementHandler.Get)
		r.With(middleware.RequirePermission(domain.PermManagementCreate.String())).Post("/", managementHandler.Post)
		r.With(middleware.RequirePermission(domain.PermManagementUpdate.String())).Put("/", managementHandler.Put)
		r.With(middleware.RequirePermission(domain.PermManagementDelete.String())).Delete("/", managementHandler.Delete)
	})

	return r
}
