package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey contextKey = "user"
	// GuestTokenKey is the context key for the guest token header value
	GuestTokenKey contextKey = "guest_token"
)

// GuestTokenHeader carries a guest's anonymous claim token
const GuestTokenHeader = "X-Guest-Token"

// TokenDecoder validates an access token and returns the subject user ID
type TokenDecoder interface {
	DecodeAccess(token string) (uuid.UUID, error)
}

// UserProvider provides user lookup by ID
type UserProvider interface {
	GetByID(id uuid.UUID) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and resolves the caller
type AuthMiddleware struct {
	tokens TokenDecoder
	users  UserProvider
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenDecoder, users UserProvider) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Authenticate returns an Echo middleware that requires a valid bearer token
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := m.resolveUser(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			ctx := context.WithValue(c.Request().Context(), UserKey, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// OptionalAuthenticate resolves the caller when credentials are present
// but never rejects. It also captures the guest token header so later
// handlers can build a claimant either way.
func (m *AuthMiddleware) OptionalAuthenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if user, err := m.resolveUser(c); err == nil && user != nil {
				ctx = context.WithValue(ctx, UserKey, user)
			}
			if token := c.Request().Header.Get(GuestTokenHeader); token != "" {
				ctx = context.WithValue(ctx, GuestTokenKey, token)
			}

			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// resolveUser parses the Authorization header and loads the user.
// Returns (nil, nil) when no header is present.
func (m *AuthMiddleware) resolveUser(c echo.Context) (*domain.User, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, domain.ErrInvalidToken
	}

	userID, err := m.tokens.DecodeAccess(parts[1])
	if err != nil {
		log.Debug().Err(err).Msg("Token validation failed")
		return nil, err
	}

	user, err := m.users.GetByID(userID)
	if err != nil {
		log.Debug().Err(err).Str("user_id", userID.String()).Msg("User lookup failed")
		return nil, err
	}
	return user, nil
}

// GetUser extracts the authenticated user from the context, nil if anonymous
func GetUser(c echo.Context) *domain.User {
	if user, ok := c.Request().Context().Value(UserKey).(*domain.User); ok {
		return user
	}
	return nil
}

// GetGuestToken extracts the guest token header value from the context
func GetGuestToken(c echo.Context) string {
	if token, ok := c.Request().Context().Value(GuestTokenKey).(string); ok {
		return token
	}
	return ""
}

// GetClaimant builds the caller's claim identity from the context.
// An authenticated user wins over a guest token.
func GetClaimant(c echo.Context) domain.Claimant {
	if user := GetUser(c); user != nil {
		return domain.UserClaimant(user.ID)
	}
	return domain.GuestClaimant(GetGuestToken(c))
}
