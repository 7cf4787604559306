package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

// ItemService handles owner-side item management
type ItemService struct {
	itemRepo     domain.ItemRepository
	wishlistRepo domain.WishlistRepository
	publisher    websocket.EventPublisher
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo domain.ItemRepository, wishlistRepo domain.WishlistRepository, publisher websocket.EventPublisher) *ItemService {
	return &ItemService{
		itemRepo:     itemRepo,
		wishlistRepo: wishlistRepo,
		publisher:    publisher,
	}
}

// ListItems returns one page of a wishlist's live items ordered by
// position, plus the total count
func (s *ItemService) ListItems(userID, wishlistID uuid.UUID, page, perPage int) ([]*domain.Item, int64, error) {
	if _, err := s.wishlistRepo.GetByID(userID, wishlistID); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * perPage
	return s.itemRepo.ListByWishlist(wishlistID, offset, perPage)
}

// CreateItemInput contains input for creating an item
type CreateItemInput struct {
	Title    string
	URL      *string
	Price    *int64
	ImageURL *string
	Note     *string
}

// CreateItem appends an item to an owned wishlist
func (s *ItemService) CreateItem(userID, wishlistID uuid.UUID, input CreateItemInput) (*domain.Item, error) {
	wishlist, err := s.wishlistRepo.GetByID(userID, wishlistID)
	if err != nil {
		return nil, err
	}

	count, err := s.itemRepo.CountByWishlist(wishlistID)
	if err != nil {
		return nil, err
	}
	if count >= domain.MaxItemsPerWishlist {
		return nil, domain.ErrItemLimit
	}

	maxPos, err := s.itemRepo.MaxPosition(wishlistID)
	if err != nil {
		return nil, err
	}

	item := &domain.Item{
		WishlistID: wishlistID,
		Title:      strings.TrimSpace(input.Title),
		URL:        input.URL,
		Price:      input.Price,
		ImageURL:   input.ImageURL,
		Note:       trimPtr(input.Note),
		Position:   maxPos + 1,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	created, err := s.itemRepo.Create(item)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(wishlist.ID, websocket.ItemAdded(created.ID))

	log.Info().Str("wishlist_id", wishlistID.String()).Str("item_id", created.ID.String()).Msg("Item created")
	return created, nil
}

// UpdateItemInput contains input for updating an item; nil fields are
// left unchanged. Pointer-to-pointer fields distinguish "clear" from
// "leave alone".
type UpdateItemInput struct {
	Title    *string
	URL      **string
	Price    **int64
	ImageURL **string
	Note     **string
}

// UpdateItem updates an owned item
func (s *ItemService) UpdateItem(userID, itemID uuid.UUID, input UpdateItemInput) (*domain.Item, error) {
	item, err := s.itemRepo.GetOwned(userID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		item.Title = strings.TrimSpace(*input.Title)
	}
	if input.URL != nil {
		item.URL = *input.URL
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.ImageURL != nil {
		item.ImageURL = *input.ImageURL
	}
	if input.Note != nil {
		item.Note = trimPtr(*input.Note)
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.itemRepo.Update(item)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(item.WishlistID, websocket.ItemUpdated(item.ID))
	return updated, nil
}

// DeleteItem soft-deletes an owned item. Claims on the item are kept;
// only visibility cascades.
func (s *ItemService) DeleteItem(userID, itemID uuid.UUID) error {
	item, err := s.itemRepo.GetOwned(userID, itemID)
	if err != nil {
		return err
	}

	if err := s.itemRepo.SetDeleted(itemID, true); err != nil {
		return err
	}

	s.publisher.Publish(item.WishlistID, websocket.ItemDeleted(item.ID))

	log.Info().Str("item_id", itemID.String()).Msg("Item deleted (soft)")
	return nil
}

// RestoreItem undoes a soft delete
func (s *ItemService) RestoreItem(userID, itemID uuid.UUID) (*domain.Item, error) {
	item, err := s.itemRepo.GetDeletedOwned(userID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.itemRepo.SetDeleted(itemID, false); err != nil {
		return nil, err
	}
	item.IsDeleted = false

	s.publisher.Publish(item.WishlistID, websocket.ItemAdded(item.ID))
	return item, nil
}

// ReorderItems applies new display positions to an owned wishlist's
// items. Unknown item ids are skipped.
func (s *ItemService) ReorderItems(userID, wishlistID uuid.UUID, positions []domain.ItemPosition) error {
	if _, err := s.wishlistRepo.GetByID(userID, wishlistID); err != nil {
		return err
	}
	return s.itemRepo.Reorder(wishlistID, positions)
}
