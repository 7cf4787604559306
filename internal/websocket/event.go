package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to wishlist subscribers
const (
	EventItemAdded            = "itemAdded"
	EventItemUpdated          = "itemUpdated"
	EventItemDeleted          = "itemDeleted"
	EventReservationCreated   = "reservationCreated"
	EventReservationCancelled = "reservationCancelled"
	EventContributionCreated  = "contributionCreated"
	EventContributionDeleted  = "contributionDeleted"
	EventWishlistDeleted      = "wishlistDeleted"
)

// Event is the wire message sent to subscribers. ItemID is omitted for
// wishlist-level events.
type Event struct {
	Type      string     `json:"type"`
	ItemID    *uuid.UUID `json:"itemId,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewItemEvent creates an event about a single item
func NewItemEvent(eventType string, itemID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		ItemID:    &itemID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ItemAdded creates an itemAdded event
func ItemAdded(itemID uuid.UUID) Event {
	return NewItemEvent(EventItemAdded, itemID)
}

// ItemUpdated creates an itemUpdated event
func ItemUpdated(itemID uuid.UUID) Event {
	return NewItemEvent(EventItemUpdated, itemID)
}

// ItemDeleted creates an itemDeleted event
func ItemDeleted(itemID uuid.UUID) Event {
	return NewItemEvent(EventItemDeleted, itemID)
}

// ReservationCreated creates a reservationCreated event
func ReservationCreated(itemID uuid.UUID) Event {
	return NewItemEvent(EventReservationCreated, itemID)
}

// ReservationCancelled creates a reservationCancelled event
func ReservationCancelled(itemID uuid.UUID) Event {
	return NewItemEvent(EventReservationCancelled, itemID)
}

// ContributionCreated creates a contributionCreated event
func ContributionCreated(itemID uuid.UUID) Event {
	return NewItemEvent(EventContributionCreated, itemID)
}

// ContributionDeleted creates a contributionDeleted event
func ContributionDeleted(itemID uuid.UUID) Event {
	return NewItemEvent(EventContributionDeleted, itemID)
}

// WishlistDeleted creates a wishlistDeleted event
func WishlistDeleted() Event {
	return Event{
		Type:      EventWishlistDeleted,
		Timestamp: time.Now().UTC(),
	}
}
