package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"honeypot-lab/internal/api/handlers"
	apimiddleware "honeypot-lab/internal/api/middleware"
	"honeypot-lab/internal/config"
	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance. c may be nil, which disables rate limiting.
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(apimiddleware.Recoverer(r.logger))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit, r.logger))
	}

	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	auth := apimiddleware.APIKeyAuth(r.config.Auth.Header, r.config.Auth.APIKey)
	timeout := func(next http.Handler) http.Handler { return next }
	if r.config.Server.RequestTimeout > 0 {
		timeout = middleware.Timeout(r.config.Server.RequestTimeout)
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// Honeypot endpoint. Auth is attached to the POST handler itself so
	// other methods are answered with 405 before the key is looked at.
	router.With(timeout, auth).Post("/honeypot", r.handlers.Honeypot.Engage)
	router.With(timeout, auth).Post("/api/honeypot", r.handlers.Honeypot.Engage)

	// Operator API
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(auth)

		api.Group(func(g chi.Router) {
			g.Use(timeout)

			g.Get("/stats", r.handlers.Stats.Get)

			g.Route("/conversations", func(conv chi.Router) {
				conv.Get("/{id}", r.handlers.Conversations.Get)
				conv.Delete("/{id}", r.handlers.Conversations.Delete)
			})
		})

		// Long-lived; no request timeout
		api.Get("/stream", r.handlers.Streaming.HandleWebSocket)
	})

	return router
}
