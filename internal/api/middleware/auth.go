package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rrens/identity-api/internal/api/response"
	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/security"
	"github.com/rs/zerolog/log"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	Validate(token string) (*security.Claims, error)
}

// AuthMiddleware handles JWT bearer authentication
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the bearer token and stores the caller's
// Principal in the request context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.tokens.Validate(parts[1])
		if err != nil {
			log.Debug().Err(err).Msg("Rejected bearer token")
			unauthorized(w, "invalid or expired token")
			return
		}

		principal := domain.Principal{
			Subject:    claims.Subject,
			UniqueName: claims.UniqueName,
			TokenID:    claims.ID,
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer`)
	response.Unauthorized(w, message)
}

// WithPrincipal returns a copy of ctx carrying the principal
func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipal gets the authenticated caller from context
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	return principal, ok
}
