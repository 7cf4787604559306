package domain

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrContributionNotFound = errors.New("contribution not found")
	ErrAlreadyReserved      = errors.New("item is already reserved")
	ErrAlreadyCollecting    = errors.New("item already has contributions")
	ErrOwnerCannotClaim     = errors.New("wishlist owner cannot claim own items")
	ErrNotClaimant          = errors.New("caller does not own this claim")
	ErrNoPrice              = errors.New("item has no price to collect toward")
	ErrFullyFunded          = errors.New("item is fully funded")
	ErrGuestNameEmpty       = errors.New("guest name is required")
	ErrInvalidAmount        = errors.New("amount must be positive")
)

// AmountTooLargeError reports the exact headroom left on an item so the
// caller can retry with a valid amount.
type AmountTooLargeError struct {
	Remaining int64
}

func (e *AmountTooLargeError) Error() string {
	return fmt.Sprintf("amount exceeds remaining headroom of %d", e.Remaining)
}

// Claimant is the identity behind a claim: a registered user or an
// anonymous guest token holder. Exactly one side is set.
type Claimant struct {
	UserID     *uuid.UUID
	GuestToken *string
}

// UserClaimant builds a claimant for a registered user
func UserClaimant(id uuid.UUID) Claimant {
	return Claimant{UserID: &id}
}

// GuestClaimant builds a claimant for a guest token holder. An empty
// token means "anonymous without a token yet" and the ledger mints one.
func GuestClaimant(token string) Claimant {
	if token == "" {
		return Claimant{}
	}
	return Claimant{GuestToken: &token}
}

// IsUser reports whether the claimant is a registered user
func (c Claimant) IsUser() bool {
	return c.UserID != nil
}

// TokensEqual compares two guest tokens in constant time to avoid
// leaking token prefixes through response timing.
func TokensEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Reservation is an exclusive claim on an item: at most one per item,
// mutually exclusive with contributions.
type Reservation struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"itemId"`
	UserID     *uuid.UUID `json:"-"`
	GuestName  *string    `json:"guestName,omitempty"`
	GuestToken *string    `json:"-"`
	GuestEmail *string    `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ClaimedBy reports whether the claimant owns this reservation.
// Guest tokens are compared in constant time.
func (r *Reservation) ClaimedBy(claimant Claimant) bool {
	if claimant.UserID != nil && r.UserID != nil {
		return *claimant.UserID == *r.UserID
	}
	if claimant.GuestToken != nil && r.GuestToken != nil {
		return TokensEqual(*claimant.GuestToken, *r.GuestToken)
	}
	return false
}

// Contribution is a partial claim pooling money toward a priced item.
// The sum of amounts per item never exceeds the item price.
type Contribution struct {
	ID         uuid.UUID  `json:"id"`
	ItemID     uuid.UUID  `json:"itemId"`
	UserID     *uuid.UUID `json:"-"`
	GuestName  *string    `json:"guestName,omitempty"`
	GuestToken *string    `json:"-"`
	GuestEmail *string    `json:"-"`
	Amount     int64      `json:"amount"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ClaimedBy reports whether the claimant owns this contribution
func (c *Contribution) ClaimedBy(claimant Claimant) bool {
	if claimant.UserID != nil && c.UserID != nil {
		return *claimant.UserID == *c.UserID
	}
	if claimant.GuestToken != nil && c.GuestToken != nil {
		return TokensEqual(*claimant.GuestToken, *c.GuestToken)
	}
	return false
}

// ClaimRepository persists reservations and contributions. Writes are
// atomic per call; serialization of read-check-write sequences is the
// ledger's job, not the repository's.
type ClaimRepository interface {
	CreateReservation(r *Reservation) (*Reservation, error)
	GetReservationByID(id uuid.UUID) (*Reservation, error)
	GetReservationByItem(itemID uuid.UUID) (*Reservation, error)
	DeleteReservation(id uuid.UUID) error
	UpdateReservationEmail(id uuid.UUID, email string) error

	CreateContribution(c *Contribution) (*Contribution, error)
	GetContributionByID(id uuid.UUID) (*Contribution, error)
	ListContributionsByItem(itemID uuid.UUID) ([]*Contribution, error)
	SumContributionsByItem(itemID uuid.UUID) (int64, error)
	DeleteContribution(id uuid.UUID) error
	UpdateContributionEmail(id uuid.UUID, email string) error

	// Batch loads for the public wishlist view
	ReservationsByItems(itemIDs []uuid.UUID) (map[uuid.UUID]*Reservation, error)
	ContributionsByItems(itemIDs []uuid.UUID) (map[uuid.UUID][]*Contribution, error)

	// FindGuestTokenByEmail scans a wishlist's claims for a stored guest
	// email and returns the matching guest token, or ErrNotFound.
	FindGuestTokenByEmail(wishlistID uuid.UUID, email string) (string, error)
}
