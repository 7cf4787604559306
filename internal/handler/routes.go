package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vishlist/vishlist-backend/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, authHandler *AuthHandler, wishlistHandler *WishlistHandler, itemHandler *ItemHandler, publicHandler *PublicHandler, claimHandler *ClaimHandler, wsHandler *WebSocketHandler) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// API version 1
	api := e.Group("/api/v1")

	rateLimited := middleware.RateLimitMiddleware(rateLimiter)

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register, rateLimited)
	auth.POST("/login", authHandler.Login, rateLimited)
	auth.GET("/me", authHandler.Me, authMiddleware.Authenticate())

	// Wishlist routes (owner, protected)
	wishlists := api.Group("/wishlists")
	// Public view goes first so it never requires auth.
	wishlists.GET("/public/:slug", publicHandler.GetPublicWishlist, authMiddleware.OptionalAuthenticate())

	protected := wishlists.Group("")
	protected.Use(authMiddleware.Authenticate())
	protected.GET("", wishlistHandler.GetWishlists)
	protected.POST("", wishlistHandler.CreateWishlist)
	protected.GET("/:id", wishlistHandler.GetWishlist)
	protected.PUT("/:id", wishlistHandler.UpdateWishlist)
	protected.DELETE("/:id", wishlistHandler.DeleteWishlist)
	protected.GET("/:id/items", itemHandler.ListItems)
	protected.POST("/:id/items", itemHandler.CreateItem)
	protected.PATCH("/:id/items/reorder", itemHandler.ReorderItems)

	// Item routes (owner, protected)
	items := api.Group("/items")
	items.PUT("/:id", itemHandler.UpdateItem, authMiddleware.Authenticate())
	items.DELETE("/:id", itemHandler.DeleteItem, authMiddleware.Authenticate())
	items.POST("/:id/restore", itemHandler.RestoreItem, authMiddleware.Authenticate())

	// Claim routes (users or guests)
	items.POST("/:id/reserve", claimHandler.Reserve, authMiddleware.OptionalAuthenticate())
	items.DELETE("/:id/reserve", claimHandler.CancelReservation, authMiddleware.OptionalAuthenticate())
	items.POST("/:id/contribute", claimHandler.Contribute, authMiddleware.OptionalAuthenticate())

	contributions := api.Group("/contributions")
	contributions.DELETE("/:id", claimHandler.DeleteContribution, authMiddleware.OptionalAuthenticate())
	contributions.PATCH("/:id/email", claimHandler.UpdateContributionEmail)

	reservations := api.Group("/reservations")
	reservations.PATCH("/:id/email", claimHandler.UpdateReservationEmail)

	// Guest recovery
	guest := api.Group("/guest")
	guest.POST("/recover", claimHandler.Recover, rateLimited)
	guest.POST("/verify", claimHandler.Verify, rateLimited)

	// Realtime
	e.GET("/ws/:slug", wsHandler.HandleWS)
}
