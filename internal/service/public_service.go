package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// PublicService assembles the shared wishlist view, applying the
// per-viewer visibility rules: the owner sees claim aggregates but
// never claimant identities; everyone else sees claim details plus an
// isMine marker.
type PublicService struct {
	wishlistRepo domain.WishlistRepository
	itemRepo     domain.ItemRepository
	claimRepo    domain.ClaimRepository
	userRepo     domain.UserRepository
}

// NewPublicService creates a new PublicService
func NewPublicService(wishlistRepo domain.WishlistRepository, itemRepo domain.ItemRepository, claimRepo domain.ClaimRepository, userRepo domain.UserRepository) *PublicService {
	return &PublicService{
		wishlistRepo: wishlistRepo,
		itemRepo:     itemRepo,
		claimRepo:    claimRepo,
		userRepo:     userRepo,
	}
}

// PublicReservation is a reservation as shown to non-owner viewers
type PublicReservation struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	GuestName *string   `json:"guestName"`
	IsMine    bool      `json:"isMine"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicContribution is a contribution as shown to non-owner viewers
type PublicContribution struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"itemId"`
	GuestName *string   `json:"guestName"`
	Amount    int64     `json:"amount"`
	IsMine    bool      `json:"isMine"`
	CreatedAt time.Time `json:"createdAt"`
}

// PublicItem is one item of the shared wishlist view. Reservation and
// Contributions are empty for the owner.
type PublicItem struct {
	ID                uuid.UUID            `json:"id"`
	WishlistID        uuid.UUID            `json:"wishlistId"`
	Title             string               `json:"title"`
	URL               *string              `json:"url,omitempty"`
	Price             *int64               `json:"price,omitempty"`
	ImageURL          *string              `json:"imageUrl,omitempty"`
	Note              *string              `json:"note,omitempty"`
	Position          int32                `json:"position"`
	IsReserved        bool                 `json:"isReserved"`
	TotalContributed  int64                `json:"totalContributed"`
	ContributorsCount int                  `json:"contributorsCount"`
	Reservation       *PublicReservation   `json:"reservation"`
	Contributions     []PublicContribution `json:"contributions"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// PublicWishlist is the shared view of a wishlist
type PublicWishlist struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Slug        string        `json:"slug"`
	Emoji       string        `json:"emoji"`
	EventDate   *time.Time    `json:"eventDate,omitempty"`
	IsArchived  bool          `json:"isArchived"`
	OwnerName   string        `json:"ownerName"`
	IsOwner     bool          `json:"isOwner"`
	Items       []*PublicItem `json:"items"`
	Total       int64         `json:"total"`
	Page        int           `json:"page"`
	PerPage     int           `json:"perPage"`
	Pages       int           `json:"pages"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// GetPublicWishlist resolves a slug and builds the per-viewer view.
// Returns ErrWishlistNotFound for unknown slugs and ErrWishlistGone
// for soft-deleted wishlists.
func (s *PublicService) GetPublicWishlist(slug string, viewer domain.Claimant, page, perPage int) (*PublicWishlist, error) {
	wishlist, err := s.wishlistRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if wishlist.IsDeleted {
		return nil, domain.ErrWishlistGone
	}

	isOwner := viewer.UserID != nil && *viewer.UserID == wishlist.UserID

	owner, err := s.userRepo.GetByID(wishlist.UserID)
	if err != nil {
		return nil, err
	}

	offset := (page - 1) * perPage
	items, total, err := s.itemRepo.ListByWishlist(wishlist.ID, offset, perPage)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}
	reservations, err := s.claimRepo.ReservationsByItems(itemIDs)
	if err != nil {
		return nil, err
	}
	contributions, err := s.claimRepo.ContributionsByItems(itemIDs)
	if err != nil {
		return nil, err
	}

	publicItems := make([]*PublicItem, len(items))
	for i, item := range items {
		publicItems[i] = BuildPublicItem(item, reservations[item.ID], contributions[item.ID], wishlist.UserID, viewer)
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))

	return &PublicWishlist{
		ID:          wishlist.ID,
		Title:       wishlist.Title,
		Description: wishlist.Description,
		Slug:        wishlist.Slug,
		Emoji:       wishlist.Emoji,
		EventDate:   wishlist.EventDate,
		IsArchived:  wishlist.IsArchived,
		OwnerName:   owner.Name,
		IsOwner:     isOwner,
		Items:       publicItems,
		Total:       total,
		Page:        page,
		PerPage:     perPage,
		Pages:       pages,
		CreatedAt:   wishlist.CreatedAt,
		UpdatedAt:   wishlist.UpdatedAt,
	}, nil
}

// BuildPublicItem applies the visibility rules for one item. Pure
// function of the loaded claim state and the viewer identity.
func BuildPublicItem(item *domain.Item, reservation *domain.Reservation, contributions []*domain.Contribution, ownerID uuid.UUID, viewer domain.Claimant) *PublicItem {
	var totalContributed int64
	for _, c := range contributions {
		totalContributed += c.Amount
	}

	out := &PublicItem{
		ID:                item.ID,
		WishlistID:        item.WishlistID,
		Title:             item.Title,
		URL:               item.URL,
		Price:             item.Price,
		ImageURL:          item.ImageURL,
		Note:              item.Note,
		Position:          item.Position,
		IsReserved:        reservation != nil,
		TotalContributed:  totalContributed,
		ContributorsCount: len(contributions),
		Contributions:     []PublicContribution{},
	}
	out.CreatedAt = item.CreatedAt
	out.UpdatedAt = item.UpdatedAt

	isOwner := viewer.UserID != nil && *viewer.UserID == ownerID
	if isOwner {
		// The owner learns only that claims exist, never who made them.
		return out
	}

	if reservation != nil {
		out.Reservation = &PublicReservation{
			ID:        reservation.ID,
			ItemID:    reservation.ItemID,
			GuestName: reservation.GuestName,
			IsMine:    reservation.ClaimedBy(viewer),
			CreatedAt: reservation.CreatedAt,
		}
	}
	for _, c := range contributions {
		out.Contributions = append(out.Contributions, PublicContribution{
			ID:        c.ID,
			ItemID:    c.ItemID,
			GuestName: c.GuestName,
			Amount:    c.Amount,
			IsMine:    c.ClaimedBy(viewer),
			CreatedAt: c.CreatedAt,
		})
	}
	return out
}
