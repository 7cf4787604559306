package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	WishlistID() uuid.UUID
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by wishlist.
// It is safe for concurrent use.
type Hub struct {
	// wishlists maps wishlist ID to a map of client ID to client
	wishlists map[uuid.UUID]map[string]ClientInterface
	mu        sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		wishlists: make(map[uuid.UUID]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its wishlist
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	wishlistID := client.WishlistID()
	clientID := client.ID()

	if h.wishlists[wishlistID] == nil {
		h.wishlists[wishlistID] = make(map[string]ClientInterface)
	}

	h.wishlists[wishlistID][clientID] = client

	log.Debug().
		Str("wishlist_id", wishlistID.String()).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	wishlistID := client.WishlistID()
	clientID := client.ID()

	if clients, ok := h.wishlists[wishlistID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty wishlist maps
			if len(clients) == 0 {
				delete(h.wishlists, wishlistID)
			}

			log.Debug().
				Str("wishlist_id", wishlistID.String()).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to all clients subscribed to a wishlist.
// A client whose send fails is treated as dead and unregistered.
func (h *Hub) Broadcast(wishlistID uuid.UUID, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("wishlist_id", wishlistID.String()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.wishlists[wishlistID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy clients to avoid holding lock during send
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("wishlist_id", wishlistID.String()).
					Str("client_id", c.ID()).
					Msg("Failed to send to client, dropping")
				h.Unregister(c)
				c.Close()
			}
		}(client)
	}

	log.Debug().
		Str("wishlist_id", wishlistID.String()).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// CloseAll forcibly disconnects every subscriber of a wishlist. Used
// when the wishlist itself is deleted and no further events follow.
func (h *Hub) CloseAll(wishlistID uuid.UUID) {
	h.mu.Lock()
	clients, ok := h.wishlists[wishlistID]
	if !ok {
		h.mu.Unlock()
		return
	}
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		clientsCopy = append(clientsCopy, client)
	}
	delete(h.wishlists, wishlistID)
	h.mu.Unlock()

	for _, client := range clientsCopy {
		client.Close()
	}

	log.Info().
		Str("wishlist_id", wishlistID.String()).
		Int("client_count", len(clientsCopy)).
		Msg("Closed all subscribers")
}

// ClientCount returns the number of clients subscribed to a wishlist
func (h *Hub) ClientCount(wishlistID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.wishlists[wishlistID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.wishlists {
		total += len(clients)
	}
	return total
}
