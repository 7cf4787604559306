package websocket

import "github.com/google/uuid"

// EventPublisher defines the interface for publishing events to
// wishlist subscribers
type EventPublisher interface {
	// Publish sends an event to all subscribers of the wishlist
	Publish(wishlistID uuid.UUID, event Event)
	// CloseAll disconnects every subscriber of the wishlist
	CloseAll(wishlistID uuid.UUID)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting to the wishlist
func (h *Hub) Publish(wishlistID uuid.UUID, event Event) {
	h.Broadcast(wishlistID, event)
}

// NoOpPublisher is a publisher that does nothing (for tests)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(wishlistID uuid.UUID, event Event) {}

// CloseAll does nothing
func (n *NoOpPublisher) CloseAll(wishlistID uuid.UUID) {}
