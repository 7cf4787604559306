package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vishlist/vishlist-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AccessTokenTTL is the session token lifetime (7 days)
	AccessTokenTTL = 7 * 24 * time.Hour

	minPasswordLength = 8
	maxNameLength     = 100
)

// AuthService handles registration, login and session lookup
type AuthService struct {
	userRepo domain.UserRepository
	tokens   *TokenService
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// RegisterInput contains input for registering a user
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a user with a bcrypt password hash and returns the
// user with a fresh session token
func (s *AuthService) Register(input RegisterInput) (*domain.User, string, error) {
	email := NormalizeEmail(input.Email)
	if !ValidEmail(email) {
		return nil, "", domain.ErrInvalidInput
	}
	if len(input.Password) < minPasswordLength {
		return nil, "", domain.ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, "", domain.ErrInvalidInput
	}

	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, "", domain.ErrEmailTaken
	} else if err != domain.ErrUserNotFound {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	hashStr := string(hash)

	user, err := s.userRepo.Create(&domain.User{
		Email:        email,
		PasswordHash: &hashStr,
		Name:         name,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.EncodeAccess(user.ID, AccessTokenTTL)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("email", email).Msg("User registered")
	return user, token, nil
}

// Login verifies credentials and returns the user with a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(email, password string) (*domain.User, string, error) {
	email = NormalizeEmail(email)

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if user.PasswordHash == nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.EncodeAccess(user.ID, AccessTokenTTL)
	if err != nil {
		return nil, "", err
	}

	log.Info().Str("email", email).Msg("User logged in")
	return user, token, nil
}

// GetUser loads a user by ID, used by the session middleware
func (s *AuthService) GetUser(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// NormalizeEmail lowercases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail is a minimal sanity check; real validation happens at the
// mailbox.
func ValidEmail(email string) bool {
	if email == "" || len(email) > domain.MaxEmailLength {
		return false
	}
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
