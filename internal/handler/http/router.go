package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kaustubh7916/Examprepshare/internal/auth"
	"github.com/kaustubh7916/Examprepshare/internal/service"
	"github.com/kaustubh7916/Examprepshare/pkg/health"
	"github.com/kaustubh7916/Examprepshare/pkg/middleware"
)

// RouterConfig holds the knobs the router needs beyond its services.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	RateLimitRPS   int
	RateLimitBurst int
	PprofCIDRs     []string
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	userService *service.UserService,
	resourceService *service.ResourceService,
	ratingService *service.RatingService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Token validator that bridges to the internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}

	authHandler := NewAuthHandler(userService, logger)
	resourceHandler := NewResourceHandler(resourceService, logger)
	ratingHandler := NewRatingHandler(ratingService, logger)

	// Auth endpoints (public, rate limited against credential stuffing)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		if cfg.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
		}

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
	})

	// User profile endpoints (auth required)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", authHandler.Me)
	})

	// Resource endpoints
	r.Route("/api/v1/resources", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads, cacheable for a short window.
		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(60))

			r.Get("/", resourceHandler.List)
			r.Get("/{id}", resourceHandler.Get)
		})

		r.Post("/{id}/download", resourceHandler.Download)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", resourceHandler.Create)
			r.Delete("/{id}", resourceHandler.Delete)
		})
	})

	// Rating endpoints
	r.Route("/api/v1/ratings", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads
		r.Get("/resource/{resourceId}", ratingHandler.ListByResource)
		r.Get("/user/{userId}", ratingHandler.ListByUser)
		r.Get("/stats/{resourceId}", ratingHandler.Stats)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", ratingHandler.Submit)
			r.Get("/my-ratings", ratingHandler.MyRatings)
			r.Delete("/{ratingId}", ratingHandler.Delete)
		})
	})

	return r
}
