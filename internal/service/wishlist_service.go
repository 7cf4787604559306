package service

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

const (
	slugMaxLength    = 100
	slugSuffixLength = 4
	slugSuffixChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// WishlistService handles wishlist business logic
type WishlistService struct {
	wishlistRepo domain.WishlistRepository
	itemRepo     domain.ItemRepository
	publisher    websocket.EventPublisher
}

// NewWishlistService creates a new WishlistService
func NewWishlistService(wishlistRepo domain.WishlistRepository, itemRepo domain.ItemRepository, publisher websocket.EventPublisher) *WishlistService {
	return &WishlistService{
		wishlistRepo: wishlistRepo,
		itemRepo:     itemRepo,
		publisher:    publisher,
	}
}

// CreateWishlistInput contains input for creating a wishlist
type CreateWishlistInput struct {
	Title       string
	Description *string
	Emoji       string
	EventDate   *time.Time
}

// CreateWishlist creates a wishlist with a unique slug
func (s *WishlistService) CreateWishlist(userID uuid.UUID, input CreateWishlistInput) (*domain.Wishlist, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrWishlistTitleEmpty
	}
	if len(title) > domain.MaxWishlistTitleLength {
		return nil, domain.ErrWishlistTitleTooLong
	}

	count, err := s.wishlistRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxWishlistsPerUser {
		return nil, domain.ErrWishlistLimit
	}

	uniqueSlug, err := s.uniqueSlug(title)
	if err != nil {
		return nil, err
	}

	emoji := input.Emoji
	if emoji == "" {
		emoji = "🎁"
	}

	wishlist := &domain.Wishlist{
		UserID:      userID,
		Title:       title,
		Description: trimPtr(input.Description),
		Slug:        uniqueSlug,
		Emoji:       emoji,
		EventDate:   input.EventDate,
	}

	created, err := s.wishlistRepo.Create(wishlist)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("slug", created.Slug).Msg("Wishlist created")
	return created, nil
}

// GetWishlists retrieves all wishlists for a user with item counts
func (s *WishlistService) GetWishlists(userID uuid.UUID) ([]*domain.WishlistWithStats, error) {
	return s.wishlistRepo.GetAllByUser(userID)
}

// GetWishlist retrieves one owned wishlist with its item count
func (s *WishlistService) GetWishlist(userID uuid.UUID, id uuid.UUID) (*domain.WishlistWithStats, error) {
	wishlist, err := s.wishlistRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	count, err := s.itemRepo.CountByWishlist(wishlist.ID)
	if err != nil {
		return nil, err
	}
	return &domain.WishlistWithStats{Wishlist: *wishlist, ItemCount: int(count)}, nil
}

// UpdateWishlistInput contains input for updating a wishlist; nil
// fields are left unchanged
type UpdateWishlistInput struct {
	Title       *string
	Description *string
	Emoji       *string
	EventDate   *time.Time
	IsArchived  *bool
}

// UpdateWishlist updates an owned wishlist. The slug never changes
// after creation so shared links stay valid.
func (s *WishlistService) UpdateWishlist(userID uuid.UUID, id uuid.UUID, input UpdateWishlistInput) (*domain.Wishlist, error) {
	existing, err := s.wishlistRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, domain.ErrWishlistTitleEmpty
		}
		if len(title) > domain.MaxWishlistTitleLength {
			return nil, domain.ErrWishlistTitleTooLong
		}
		existing.Title = title
	}
	if input.Description != nil {
		existing.Description = trimPtr(input.Description)
	}
	if input.Emoji != nil && *input.Emoji != "" {
		existing.Emoji = *input.Emoji
	}
	if input.EventDate != nil {
		existing.EventDate = input.EventDate
	}
	if input.IsArchived != nil {
		existing.IsArchived = *input.IsArchived
	}

	return s.wishlistRepo.Update(existing)
}

// DeleteWishlist soft-deletes a wishlist, notifies subscribers and
// force-closes their connections
func (s *WishlistService) DeleteWishlist(userID uuid.UUID, id uuid.UUID) error {
	wishlist, err := s.wishlistRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	if err := s.wishlistRepo.SoftDelete(userID, id); err != nil {
		return err
	}

	s.publisher.Publish(wishlist.ID, websocket.WishlistDeleted())
	s.publisher.CloseAll(wishlist.ID)

	log.Info().Str("user_id", userID.String()).Str("slug", wishlist.Slug).Msg("Wishlist deleted (soft)")
	return nil
}

// uniqueSlug slugifies the title and retries with a random suffix on
// collision, up to SlugMaxAttempts
func (s *WishlistService) uniqueSlug(title string) (string, error) {
	base := slug.Make(title)
	if len(base) > slugMaxLength {
		base = base[:slugMaxLength]
	}
	if base == "" {
		base = "wishlist"
	}

	candidate := base
	for attempt := 0; attempt < domain.SlugMaxAttempts; attempt++ {
		exists, err := s.wishlistRepo.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix, err := randomSuffix(slugSuffixLength)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + suffix
	}
	return "", domain.ErrSlugExhausted
}

func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(slugSuffixChars))))
		if err != nil {
			return "", err
		}
		b[i] = slugSuffixChars[idx.Int64()]
	}
	return string(b), nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
