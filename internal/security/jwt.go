package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/identity-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// minKeyLength is the shortest accepted HMAC secret, in bytes.
const minKeyLength = 16

// Claims represents JWT claims.
// IssuedAt shadows the numeric registered claim: iat is written as an
// RFC 3339 UTC string.
type Claims struct {
	UniqueName string `json:"unique_name"`
	IssuedAt   string `json:"iat"`
	jwt.RegisteredClaims
}

// TokenConfig holds the settings every issued token is bound to
type TokenConfig struct {
	Key      string
	Lifetime time.Duration
	Audience string
	Issuer   string
}

// Validate reports every missing or invalid token setting
func (c TokenConfig) Validate() error {
	var problems []string
	if c.Key == "" {
		problems = append(problems, "signing key is required")
	} else if len(c.Key) < minKeyLength {
		problems = append(problems, fmt.Sprintf("signing key must be at least %d bytes", minKeyLength))
	}
	if c.Lifetime <= 0 {
		problems = append(problems, "token lifetime must be positive")
	}
	if c.Audience == "" {
		problems = append(problems, "token audience is required")
	}
	if c.Issuer == "" {
		problems = append(problems, "token issuer is required")
	}
	if len(problems) > 0 {
		return &domain.ConfigurationError{Problems: problems}
	}
	return nil
}

// TokenOption customises a TokenIssuer
type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and validating
func WithClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) { i.now = now }
}

// WithIDGenerator overrides the jti source
func WithIDGenerator(newID func() uuid.UUID) TokenOption {
	return func(i *TokenIssuer) { i.newID = newID }
}

// TokenIssuer signs and validates HS256 bearer tokens
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	audience string
	issuer   string
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewTokenIssuer creates a token issuer, failing on invalid configuration
func NewTokenIssuer(cfg TokenConfig, opts ...TokenOption) (*TokenIssuer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	i := &TokenIssuer{
		secret:   []byte(cfg.Key),
		lifetime: cfg.Lifetime,
		audience: cfg.Audience,
		issuer:   cfg.Issuer,
		now:      time.Now,
		newID:    uuid.New,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Claims builds the claim set for a user at the current instant
func (i *TokenIssuer) Claims(user *domain.User) Claims {
	now := i.now().UTC()
	return Claims{
		UniqueName: user.UserName,
		IssuedAt:   now.Format(time.RFC3339),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        i.newID().String(),
			Audience:  jwt.ClaimStrings{i.audience},
			Issuer:    i.issuer,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
		},
	}
}

// Issue generates a signed token for the user
func (i *TokenIssuer) Issue(user *domain.User) (string, error) {
	if user == nil {
		return "", errors.New("cannot issue token for nil user")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, i.Claims(user))
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	log.Info().Str("user", user.UserName).Msg("Successfully created token")
	return signed, nil
}

// Validate validates a token and returns its claims
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// Lifetime returns the configured token lifetime
func (i *TokenIssuer) Lifetime() time.Duration {
	return i.lifetime
}
