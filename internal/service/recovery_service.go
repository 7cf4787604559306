package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// mailTimeout bounds outbound email delivery so recovery requests
// never hang on the mail provider
const mailTimeout = 5 * time.Second

// Mailer delivers transactional email. Failures are logged by callers
// and never surfaced to end users.
type Mailer interface {
	SendRecoveryEmail(ctx context.Context, to, wishlistTitle, recoveryURL string) error
}

// RecoveryService lets a guest who lost their bearer token re-derive
// it from a registered email. Responses are identical whether or not
// the email matched, to prevent enumeration.
type RecoveryService struct {
	wishlistRepo domain.WishlistRepository
	claimRepo    domain.ClaimRepository
	tokens       *TokenService
	mailer       Mailer
	frontendURL  string
	debug        bool
}

// NewRecoveryService creates a new RecoveryService. In debug mode the
// recovery token is returned to the caller instead of being emailed.
func NewRecoveryService(wishlistRepo domain.WishlistRepository, claimRepo domain.ClaimRepository, tokens *TokenService, mailer Mailer, frontendURL string, debug bool) *RecoveryService {
	return &RecoveryService{
		wishlistRepo: wishlistRepo,
		claimRepo:    claimRepo,
		tokens:       tokens,
		mailer:       mailer,
		frontendURL:  frontendURL,
		debug:        debug,
	}
}

// Recover looks for a guest claim on the wishlist carrying the given
// email. On a match it signs a recovery token and emails a link; the
// returned value is non-nil only in debug mode. Every failure path is
// logged and swallowed so the caller's response never varies.
func (s *RecoveryService) Recover(email, wishlistSlug string) *string {
	email = NormalizeEmail(email)

	wishlist, err := s.wishlistRepo.GetBySlug(wishlistSlug)
	if err != nil || wishlist.IsDeleted {
		log.Info().Str("slug", wishlistSlug).Msg("Guest recovery: wishlist not found")
		return nil
	}

	guestToken, err := s.claimRepo.FindGuestTokenByEmail(wishlist.ID, email)
	if err != nil {
		if err != domain.ErrNotFound {
			log.Error().Err(err).Str("slug", wishlistSlug).Msg("Guest recovery: claim lookup failed")
		} else {
			log.Info().Str("slug", wishlistSlug).Msg("Guest recovery: no matching email")
		}
		return nil
	}

	recoveryToken, err := s.tokens.EncodeRecovery(guestToken, wishlistSlug)
	if err != nil {
		log.Error().Err(err).Str("slug", wishlistSlug).Msg("Guest recovery: token signing failed")
		return nil
	}

	log.Info().Str("slug", wishlistSlug).Msg("Guest recovery: token generated")

	if s.debug {
		return &recoveryToken
	}

	recoveryURL := fmt.Sprintf("%s/w/%s?recovery=%s", s.frontendURL, wishlistSlug, recoveryToken)
	ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
	defer cancel()
	if err := s.mailer.SendRecoveryEmail(ctx, email, wishlist.Title, recoveryURL); err != nil {
		log.Error().Err(err).Str("slug", wishlistSlug).Msg("Guest recovery: email delivery failed")
	}
	return nil
}

// Verify validates a recovery token and returns the embedded guest
// token and wishlist slug. Fails with ErrInvalidToken on any
// signature, expiry or purpose mismatch, without distinguishing cause.
func (s *RecoveryService) Verify(token string) (guestToken, wishlistSlug string, err error) {
	return s.tokens.DecodeRecovery(token)
}
