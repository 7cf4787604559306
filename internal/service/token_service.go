package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// Token purposes. Session and recovery tokens share one signing
// mechanism and are distinguished only by this claim.
const (
	PurposeAccess        = "access"
	PurposeGuestRecovery = "guest_recovery"
)

// RecoveryTokenTTL is the fixed lifetime of guest recovery tokens
const RecoveryTokenTTL = time.Hour

// TokenService signs and verifies HS256 tokens for sessions and guest
// recovery. Decode failures never reveal which check failed.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a new TokenService
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// EncodeAccess creates a session token for a user
func (s *TokenService) EncodeAccess(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":     userID.String(),
		"purpose": PurposeAccess,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// DecodeAccess validates a session token and returns the user ID.
// Returns domain.ErrInvalidToken on any signature, expiry or purpose
// mismatch.
func (s *TokenService) DecodeAccess(token string) (uuid.UUID, error) {
	claims, err := s.decode(token, PurposeAccess)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, domain.ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return userID, nil
}

// EncodeRecovery creates a recovery token embedding the guest token and
// the wishlist slug it belongs to, with a fixed 1-hour expiry.
func (s *TokenService) EncodeRecovery(guestToken, wishlistSlug string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"guest_token":   guestToken,
		"wishlist_slug": wishlistSlug,
		"purpose":       PurposeGuestRecovery,
		"exp":           now.Add(RecoveryTokenTTL).Unix(),
		"iat":           now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// DecodeRecovery validates a recovery token and returns the embedded
// guest token and wishlist slug
func (s *TokenService) DecodeRecovery(token string) (guestToken, wishlistSlug string, err error) {
	claims, err := s.decode(token, PurposeGuestRecovery)
	if err != nil {
		return "", "", err
	}
	guestToken, ok := claims["guest_token"].(string)
	if !ok || guestToken == "" {
		return "", "", domain.ErrInvalidToken
	}
	wishlistSlug, ok = claims["wishlist_slug"].(string)
	if !ok || wishlistSlug == "" {
		return "", "", domain.ErrInvalidToken
	}
	return guestToken, wishlistSlug, nil
}

func (s *TokenService) decode(token, purpose string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
