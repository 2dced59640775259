package api

import (
	"net/http"

	"github.com/Rrens/identity-api/internal/api/handler"
	customMiddleware "github.com/Rrens/identity-api/internal/api/middleware"
	"github.com/Rrens/identity-api/internal/config"
	"github.com/Rrens/identity-api/internal/identity"
	"github.com/Rrens/identity-api/internal/repository"
	"github.com/Rrens/identity-api/internal/repository/redis"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/Rrens/identity-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Handlers are the collaborators the routes are bound to
type Handlers struct {
	Account     *handler.AccountHandler
	Tokens      customMiddleware.TokenValidator
	RateLimiter customMiddleware.RateLimiter // optional; nil disables rate limiting
	Ready       map[string]handler.Pinger
}

// NewRouter wires the account service over the given storage and returns
// the HTTP router
func NewRouter(cfg *config.Config, db *repository.Database, redisClient *redis.Client) (http.Handler, error) {
	// Initialize security components
	issuer, err := security.NewTokenIssuer(cfg.Tokens.TokenConfig())
	if err != nil {
		return nil, err
	}
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	// Initialize identity store
	sessions := redis.NewSessionStore(redisClient)
	store := identity.NewStore(db.Users, hasher, sessions, identity.SessionConfig{
		TTL:           cfg.Session.TTL,
		PersistentTTL: cfg.Session.PersistentTTL,
	})

	// Initialize services
	authService := service.NewAuthService(
		store,
		service.NewCredentialVerifier(store),
		service.NewRegistrationValidator(),
		issuer,
	)

	h := Handlers{
		Account: handler.NewAccountHandler(authService, handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		}),
		Tokens: issuer,
		Ready: map[string]handler.Pinger{
			"database": db,
			"redis":    redisClient,
		},
	}

	if cfg.Security.RateLimit.Enabled {
		h.RateLimiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
	} else {
		log.Info().Msg("Rate limiting disabled")
	}

	return Routes(cfg, h), nil
}

// Routes configures the HTTP router
func Routes(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	authMiddleware := customMiddleware.NewAuthMiddleware(h.Tokens)

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(h.Ready))

		r.Route("/account", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if h.RateLimiter != nil {
					r.Use(customMiddleware.NewRateLimitMiddleware(h.RateLimiter).Limit)
				}
				r.Post("/login", h.Account.Login)
				r.Post("/register", h.Account.Register)
			})

			r.Post("/signout", h.Account.SignOut)

			// Protected routes
			r.With(authMiddleware.Authenticate).Post("/refreshtoken", h.Account.RefreshToken)
		})
	})

	return r
}
