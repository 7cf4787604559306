package handler

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

// WebSocketHandler upgrades wishlist subscribers onto the hub
type WebSocketHandler struct {
	hub            *websocket.Hub
	wishlistRepo   domain.WishlistRepository
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, wishlistRepo domain.WishlistRepository, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		wishlistRepo:   wishlistRepo,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().Str("origin", origin).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws/:slug.
// Subscription is open to anyone who knows the slug; events carry item
// ids only, never claimant identities.
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	slug := c.Param("slug")

	wishlist, err := h.wishlistRepo.GetBySlug(slug)
	if err != nil || wishlist.IsDeleted {
		log.Debug().Str("slug", slug).Msg("WebSocket connection rejected: unknown wishlist")
		return echo.NewHTTPError(http.StatusNotFound, "wishlist not found")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, wishlist.ID, h.hub)
	h.hub.Register(client)

	log.Info().
		Str("slug", slug).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
