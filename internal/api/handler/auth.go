package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Rrens/identity-api/internal/api/middleware"
	"github.com/Rrens/identity-api/internal/api/response"
	"github.com/Rrens/identity-api/internal/domain"
	"github.com/Rrens/identity-api/internal/service"
	"github.com/rs/zerolog/log"
)

// AuthService is the account API's view of service.AuthService
type AuthService interface {
	Login(ctx context.Context, input domain.LoginRequest) (*service.AuthResult, error)
	Register(ctx context.Context, input domain.RegisterRequest) (*service.AuthResult, error)
	SignOut(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, principal domain.Principal) (*service.AuthResult, error)
}

// CookieConfig describes the sign-in session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

// AccountHandler handles the account endpoints
type AccountHandler struct {
	authService AuthService
	cookie      CookieConfig
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService AuthService, cookie CookieConfig) *AccountHandler {
	return &AccountHandler{authService: authService, cookie: cookie}
}

// Login handles user login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.LoginRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.SessionID)
	response.OK(w, tokenResponse(result))
}

// Register handles user registration
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.RegisterRequest
	if err := response.Decode(r, &input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.SessionID)
	response.OK(w, tokenResponse(result))
}

// SignOut ends the caller's sign-in session and clears the cookie
func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		sessionID = cookie.Value
	}

	if err := h.authService.SignOut(r.Context(), sessionID); err != nil {
		writeError(w, err)
		return
	}

	h.clearSessionCookie(w)
	response.NoContent(w)
}

// RefreshToken issues a fresh token for the bearer of a valid one
func (h *AccountHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	result, err := h.authService.RefreshToken(r.Context(), principal)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, tokenResponse(result))
}

func tokenResponse(result *service.AuthResult) domain.TokenResponse {
	return domain.TokenResponse{
		Token:     result.Token,
		ExpiresIn: result.ExpiresIn,
	}
}

func (h *AccountHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	if sessionID == "" {
		return
	}
	// No expiry: sign-in is never persistent, so the cookie lives for the
	// browser session only
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AccountHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeError maps service errors to HTTP responses
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	var registrationErr *domain.RegistrationError

	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, validationErr.Fields)
	case errors.As(err, &registrationErr):
		response.BadRequest(w, registrationErr.Errors)
	case errors.Is(err, domain.ErrAuthenticationFailed):
		response.Unauthorized(w, domain.ErrAuthenticationFailed.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		response.Unauthorized(w, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, domain.ErrNotFound.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		response.InternalError(w, "internal server error")
	}
}
