package service

import (
	"hash/fnv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

const lockShards = 64

// itemLocks serializes claim mutations per item. Sharded so unrelated
// items rarely contend and the map never grows.
type itemLocks struct {
	shards [lockShards]sync.Mutex
}

func (l *itemLocks) forItem(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(id[:])
	return &l.shards[h.Sum32()%lockShards]
}

// ClaimService is the reservation/contribution ledger. All mutations
// to one item's claim state run under that item's lock; operations on
// different items proceed in parallel. The lock is never held across
// email delivery or broadcast.
type ClaimService struct {
	claimRepo    domain.ClaimRepository
	itemRepo     domain.ItemRepository
	wishlistRepo domain.WishlistRepository
	publisher    websocket.EventPublisher
	locks        itemLocks
}

// NewClaimService creates a new ClaimService
func NewClaimService(claimRepo domain.ClaimRepository, itemRepo domain.ItemRepository, wishlistRepo domain.WishlistRepository, publisher websocket.EventPublisher) *ClaimService {
	return &ClaimService{
		claimRepo:    claimRepo,
		itemRepo:     itemRepo,
		wishlistRepo: wishlistRepo,
		publisher:    publisher,
	}
}

// Reserve places an exclusive claim on an item. Fails if the caller
// owns the wishlist, the item is already reserved, or contributions
// exist. For guests without a token a fresh one is minted and returned
// on the reservation, to be stored client-side.
func (s *ClaimService) Reserve(itemID uuid.UUID, claimant domain.Claimant, displayName string) (*domain.Reservation, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, domain.ErrGuestNameEmpty
	}
	if len(name) > domain.MaxGuestNameLength {
		return nil, domain.ErrInvalidInput
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	wishlist, err := s.wishlistRepo.Get(item.WishlistID)
	if err != nil {
		return nil, err
	}
	if claimant.IsUser() && wishlist.UserID == *claimant.UserID {
		return nil, domain.ErrOwnerCannotClaim
	}

	mu := s.locks.forItem(itemID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.claimRepo.GetReservationByItem(itemID); err == nil {
		return nil, domain.ErrAlreadyReserved
	} else if err != domain.ErrReservationNotFound {
		return nil, err
	}

	total, err := s.claimRepo.SumContributionsByItem(itemID)
	if err != nil {
		return nil, err
	}
	if total > 0 {
		return nil, domain.ErrAlreadyCollecting
	}

	reservation := &domain.Reservation{
		ItemID:    itemID,
		GuestName: &name,
	}
	if claimant.IsUser() {
		reservation.UserID = claimant.UserID
	} else {
		token := mintOrReuseToken(claimant)
		reservation.GuestToken = &token
	}

	created, err := s.claimRepo.CreateReservation(reservation)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(wishlist.ID, websocket.ReservationCreated(itemID))

	log.Info().Str("item_id", itemID.String()).Bool("guest", !claimant.IsUser()).Msg("Reservation created")
	return created, nil
}

// CancelReservation removes a reservation. Only the claimant that
// placed it may cancel; guest tokens are matched in constant time.
func (s *ClaimService) CancelReservation(itemID uuid.UUID, claimant domain.Claimant) error {
	reservation, err := s.claimRepo.GetReservationByItem(itemID)
	if err != nil {
		return err
	}
	if !reservation.ClaimedBy(claimant) {
		return domain.ErrNotClaimant
	}

	item, err := s.itemRepo.GetAny(reservation.ItemID)
	if err != nil {
		return err
	}

	if err := s.claimRepo.DeleteReservation(reservation.ID); err != nil {
		return err
	}

	s.publisher.Publish(item.WishlistID, websocket.ReservationCancelled(item.ID))

	log.Info().Str("item_id", itemID.String()).Msg("Reservation cancelled")
	return nil
}

// Contribute pools money toward a priced item. The sum of all
// contributions never exceeds the price; a rejected amount reports the
// exact remaining headroom.
func (s *ClaimService) Contribute(itemID uuid.UUID, claimant domain.Claimant, displayName string, amount int64) (*domain.Contribution, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return nil, domain.ErrGuestNameEmpty
	}
	if len(name) > domain.MaxGuestNameLength {
		return nil, domain.ErrInvalidInput
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	item, err := s.itemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	wishlist, err := s.wishlistRepo.Get(item.WishlistID)
	if err != nil {
		return nil, err
	}
	if claimant.IsUser() && wishlist.UserID == *claimant.UserID {
		return nil, domain.ErrOwnerCannotClaim
	}
	if item.Price == nil {
		return nil, domain.ErrNoPrice
	}

	mu := s.locks.forItem(itemID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.claimRepo.GetReservationByItem(itemID); err == nil {
		return nil, domain.ErrAlreadyReserved
	} else if err != domain.ErrReservationNotFound {
		return nil, err
	}

	total, err := s.claimRepo.SumContributionsByItem(itemID)
	if err != nil {
		return nil, err
	}
	remaining := *item.Price - total
	if remaining <= 0 {
		return nil, domain.ErrFullyFunded
	}
	if amount > remaining {
		return nil, &domain.AmountTooLargeError{Remaining: remaining}
	}

	contribution := &domain.Contribution{
		ItemID:    itemID,
		GuestName: &name,
		Amount:    amount,
	}
	if claimant.IsUser() {
		contribution.UserID = claimant.UserID
	} else {
		token := mintOrReuseToken(claimant)
		contribution.GuestToken = &token
	}

	created, err := s.claimRepo.CreateContribution(contribution)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(wishlist.ID, websocket.ContributionCreated(itemID))

	log.Info().Str("item_id", itemID.String()).Int64("amount", amount).Msg("Contribution created")
	return created, nil
}

// DeleteContribution removes a contribution. Removing one can only
// free headroom, so other contributions need no revalidation.
func (s *ClaimService) DeleteContribution(contributionID uuid.UUID, claimant domain.Claimant) error {
	contribution, err := s.claimRepo.GetContributionByID(contributionID)
	if err != nil {
		return err
	}
	if !contribution.ClaimedBy(claimant) {
		return domain.ErrNotClaimant
	}

	item, err := s.itemRepo.GetAny(contribution.ItemID)
	if err != nil {
		return err
	}

	if err := s.claimRepo.DeleteContribution(contributionID); err != nil {
		return err
	}

	s.publisher.Publish(item.WishlistID, websocket.ContributionDeleted(item.ID))

	log.Info().Str("contribution_id", contributionID.String()).Msg("Contribution deleted")
	return nil
}

// UpdateReservationEmail attaches a recovery email to a guest
// reservation. Requires the reservation's own guest token.
func (s *ClaimService) UpdateReservationEmail(reservationID uuid.UUID, guestToken, email string) error {
	reservation, err := s.claimRepo.GetReservationByID(reservationID)
	if err != nil {
		return err
	}
	if guestToken == "" || reservation.GuestToken == nil || !domain.TokensEqual(guestToken, *reservation.GuestToken) {
		return domain.ErrNotClaimant
	}

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return domain.ErrInvalidInput
	}
	return s.claimRepo.UpdateReservationEmail(reservationID, email)
}

// UpdateContributionEmail attaches a recovery email to a guest
// contribution. Requires the contribution's own guest token.
func (s *ClaimService) UpdateContributionEmail(contributionID uuid.UUID, guestToken, email string) error {
	contribution, err := s.claimRepo.GetContributionByID(contributionID)
	if err != nil {
		return err
	}
	if guestToken == "" || contribution.GuestToken == nil || !domain.TokensEqual(guestToken, *contribution.GuestToken) {
		return domain.ErrNotClaimant
	}

	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return domain.ErrInvalidInput
	}
	return s.claimRepo.UpdateContributionEmail(contributionID, email)
}

// mintOrReuseToken returns the presented guest token, or a fresh
// high-entropy one when the guest has none yet
func mintOrReuseToken(claimant domain.Claimant) string {
	if claimant.GuestToken != nil && *claimant.GuestToken != "" {
		return *claimant.GuestToken
	}
	return uuid.NewString()
}
