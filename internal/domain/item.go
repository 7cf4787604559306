package domain

import (
	"errors"
	"net/url"
	"time"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound        = errors.New("item not found")
	ErrItemTitleEmpty      = errors.New("item title is required")
	ErrItemTitleTooLong    = errors.New("item title must be 200 characters or less")
	ErrItemInvalidURL      = errors.New("item url must be a valid URL")
	ErrItemInvalidImageURL = errors.New("image url must be a valid URL")
	ErrItemInvalidPrice    = errors.New("price must be a positive amount")
	ErrItemLimit           = errors.New("item limit reached for this wishlist")
)

const (
	MaxItemTitleLength  = 200
	MaxItemNoteLength   = 500
	MaxItemsPerWishlist = 100
)

// Item belongs to exactly one wishlist. Price is in minor currency
// units; nil means the item is not open for contributions.
type Item struct {
	ID         uuid.UUID `json:"id"`
	WishlistID uuid.UUID `json:"wishlistId"`
	Title      string    `json:"title"`
	URL        *string   `json:"url,omitempty"`
	Price      *int64    `json:"price,omitempty"`
	ImageURL   *string   `json:"imageUrl,omitempty"`
	Note       *string   `json:"note,omitempty"`
	Position   int32     `json:"position"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (item *Item) Validate() error {
	if item.Title == "" {
		return ErrItemTitleEmpty
	}
	if len(item.Title) > MaxItemTitleLength {
		return ErrItemTitleTooLong
	}
	if item.Price != nil && *item.Price <= 0 {
		return ErrItemInvalidPrice
	}
	if item.URL != nil && *item.URL != "" {
		if _, err := url.ParseRequestURI(*item.URL); err != nil {
			return ErrItemInvalidURL
		}
	}
	if item.ImageURL != nil && *item.ImageURL != "" {
		if _, err := url.ParseRequestURI(*item.ImageURL); err != nil {
			return ErrItemInvalidImageURL
		}
	}
	return nil
}

// ItemPosition is a single entry of a reorder request
type ItemPosition struct {
	ID       uuid.UUID `json:"id"`
	Position int32     `json:"position"`
}

type ItemRepository interface {
	Create(item *Item) (*Item, error)
	// GetByID returns a live (not soft-deleted) item from any wishlist.
	GetByID(id uuid.UUID) (*Item, error)
	// GetAny returns an item regardless of its soft-delete flag.
	GetAny(id uuid.UUID) (*Item, error)
	// GetOwned returns a live item only if it belongs to a wishlist
	// owned by userID.
	GetOwned(userID uuid.UUID, id uuid.UUID) (*Item, error)
	GetDeletedOwned(userID uuid.UUID, id uuid.UUID) (*Item, error)
	ListByWishlist(wishlistID uuid.UUID, offset, limit int) ([]*Item, int64, error)
	CountByWishlist(wishlistID uuid.UUID) (int64, error)
	MaxPosition(wishlistID uuid.UUID) (int32, error)
	Update(item *Item) (*Item, error)
	SetDeleted(id uuid.UUID, deleted bool) error
	Reorder(wishlistID uuid.UUID, positions []ItemPosition) error
}
