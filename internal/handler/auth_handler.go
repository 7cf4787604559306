package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
)

// AuthHandler handles registration, login and session introspection
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token and user profile
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user, token, err := h.authService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return NewConflictError(c, "An account with this email already exists")
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "Invalid email, password or name", nil)
		}
		log.Error().Err(err).Msg("Failed to register user")
		return NewInternalError(c, "Failed to register")
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	user, token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewUnauthorizedError(c, "Invalid email or password")
		}
		log.Error().Err(err).Msg("Failed to log in user")
		return NewInternalError(c, "Failed to log in")
	}

	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}
	return c.JSON(http.StatusOK, user)
}
