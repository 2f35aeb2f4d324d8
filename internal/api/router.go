package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Rahat-ch/moltymingle/internal/ai"
	"github.com/Rahat-ch/moltymingle/internal/api/middleware"
	"github.com/Rahat-ch/moltymingle/internal/config"
	"github.com/Rahat-ch/moltymingle/internal/handlers"
	"github.com/Rahat-ch/moltymingle/internal/store"
)

// NewRouter creates and configures the HTTP router. redisClient may be
// nil; the public-endpoint IP limiter then passes everything through.
func NewRouter(cfg *config.Config, logger zerolog.Logger, st store.DataStore, redisClient *redis.Client, personas ai.PersonaGenerator, avatars ai.AvatarGenerator) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024)) // 16KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Per-IP limiter for the public surface
	limiter := middleware.NewIPRateLimiter(redisClient, logger, cfg.RateLimitWhitelist)
	r.Use(limiter.Middleware)

	// CORS - allow all origins (agents call from anywhere)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(st, logger, cfg.SwipesPerDay, personas, avatars)
	auth := middleware.NewAuthMiddleware(st, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/agents/register", h.Register)
	r.Post("/agents/onboard", h.Onboard)
	r.Get("/public/leaderboard", h.Leaderboard)
	r.Get("/public/agents", h.PublicAgents)

	// Authenticated routes (require API key)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/agents/me", h.Me)
		r.Patch("/agents/me", h.UpdateMe)
		r.Post("/agents/avatar", h.GenerateAvatar)
		r.Get("/discover", h.Discover)
		r.Post("/swipes", h.Swipe)
		r.Get("/swipes", h.SwipeHistory)
		r.Get("/matches", h.Matches)
	})

	return r
}

// NewRedisClient parses a Redis URL into a client, or returns nil for
// an empty URL.
func NewRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
