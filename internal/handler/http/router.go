package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmaazkhanhere/learnpath/internal/auth"
	"github.com/mmaazkhanhere/learnpath/internal/service"
	"github.com/mmaazkhanhere/learnpath/pkg/health"
	"github.com/mmaazkhanhere/learnpath/pkg/httputil"
	"github.com/mmaazkhanhere/learnpath/pkg/middleware"
)

// RouterDeps holds everything NewRouter wires into the routes.
type RouterDeps struct {
	ServiceName string
	Version     string

	Auth      *service.AuthService
	Users     *service.UserService
	Skills    *service.SkillService
	Resources *service.ResourceService
	Guard     Authorizer
	Health    *health.Handler
	Logger    *slog.Logger

	CORS       middleware.CORSConfig
	PprofCIDRs []string
	// AuthRateLimit guards the credential endpoints. The zero value disables it.
	AuthRateLimit middleware.RateLimitConfig
	// StaticDir is served under /static when set.
	StaticDir string
}

// NewRouter creates a chi router with all learnpath routes registered.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(d.Logger))
	r.Use(middleware.PrometheusMetrics(d.ServiceName))
	r.Use(middleware.Tracing(d.ServiceName))
	r.Use(middleware.RequestLogger(d.Logger))

	// Health check endpoints
	r.Get("/health/live", d.Health.LivenessHandler())
	r.Get("/health/ready", d.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteData(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": d.ServiceName,
			"version": d.Version,
		})
	})

	if d.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir)))
		r.With(middleware.CacheControl(3600)).Handle("/static/*", fs)
	}

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, d.PprofCIDRs, d.Logger)

	authenticated := Require(d.Guard, auth.LevelAuthenticated, d.Logger)
	contributor := Require(d.Guard, auth.LevelContributor, d.Logger)
	admin := Require(d.Guard, auth.LevelAdmin, d.Logger)

	// Auth endpoints (public). Token responses must never be cached.
	authHandler := NewAuthHandler(d.Auth, d.Logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.AuthRateLimit, d.Logger))
		r.Use(middleware.NoStore)

		r.With(ContentTypeForm).Post("/token", authHandler.Token)
		r.With(ContentTypeJSON).Post("/login", authHandler.Login)
		r.With(ContentTypeJSON).Post("/register", authHandler.Register)
	})

	skillHandler := NewSkillHandler(d.Skills, d.Logger)
	r.Route("/api/v1/skills", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", skillHandler.List)
		r.Get("/{id}", skillHandler.Get)
		r.With(contributor).Post("/", skillHandler.Create)
		r.With(contributor).Put("/{id}", skillHandler.Update)
		r.With(admin).Delete("/{id}", skillHandler.Delete)
	})

	resourceHandler := NewResourceHandler(d.Resources, d.Logger)
	r.Route("/api/v1/resources", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", resourceHandler.List)
		r.Get("/{id}", resourceHandler.Get)
		r.With(contributor).Post("/", resourceHandler.Create)
		r.With(contributor).Put("/{id}", resourceHandler.Update)
		r.With(admin).Delete("/{id}", resourceHandler.Delete)
	})

	userHandler := NewUserHandler(d.Users, d.Logger)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(authenticated).Get("/me", userHandler.Me)
		r.With(authenticated).Get("/me/skills", skillHandler.ListMine)
		r.With(contributor).Post("/me/skills", skillHandler.AssignToMe)

		r.Group(func(r chi.Router) {
			r.Use(admin)

			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Patch("/{id}/role", userHandler.UpdateRole)
			r.Patch("/{id}/status", userHandler.UpdateStatus)
		})
	})

	return r
}
