package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrWishlistNotFound     = errors.New("wishlist not found")
	ErrWishlistGone         = errors.New("wishlist has been deleted")
	ErrWishlistTitleEmpty   = errors.New("wishlist title is required")
	ErrWishlistTitleTooLong = errors.New("wishlist title must be 100 characters or less")
	ErrWishlistLimit        = errors.New("wishlist limit reached")
	ErrSlugExhausted        = errors.New("could not generate a unique slug")
)

const (
	MaxWishlistTitleLength = 100
	MaxWishlistsPerUser    = 20
	SlugMaxAttempts        = 5
)

// Wishlist is the root entity: a user-owned list of items published
// under a unique slug.
type Wishlist struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Slug        string     `json:"slug"`
	Emoji       string     `json:"emoji"`
	EventDate   *time.Time `json:"eventDate,omitempty"`
	IsArchived  bool       `json:"isArchived"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// WishlistWithStats includes the live item count for list views
type WishlistWithStats struct {
	Wishlist
	ItemCount int `json:"itemCount"`
}

func (w *Wishlist) Validate() error {
	title := strings.TrimSpace(w.Title)
	if title == "" {
		return ErrWishlistTitleEmpty
	}
	if len(title) > MaxWishlistTitleLength {
		return ErrWishlistTitleTooLong
	}
	return nil
}

type WishlistRepository interface {
	Create(wishlist *Wishlist) (*Wishlist, error)
	GetByID(userID uuid.UUID, id uuid.UUID) (*Wishlist, error)
	// Get returns a live wishlist regardless of owner.
	Get(id uuid.UUID) (*Wishlist, error)
	// GetBySlug returns the wishlist regardless of owner; soft-deleted
	// rows are returned with IsDeleted set so callers can answer 410.
	GetBySlug(slug string) (*Wishlist, error)
	SlugExists(slug string) (bool, error)
	GetAllByUser(userID uuid.UUID) ([]*WishlistWithStats, error)
	CountByUser(userID uuid.UUID) (int64, error)
	Update(wishlist *Wishlist) (*Wishlist, error)
	SoftDelete(userID uuid.UUID, id uuid.UUID) error
}
