package handler

import (
	"errors"

	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
)

// PublicHandler serves the shared wishlist view
type PublicHandler struct {
	publicService *service.PublicService
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(publicService *service.PublicService) *PublicHandler {
	return &PublicHandler{publicService: publicService}
}

// GetPublicWishlist handles GET /api/v1/wishlists/public/:slug
func (h *PublicHandler) GetPublicWishlist(c echo.Context) error {
	slug := c.Param("slug")
	if slug == "" {
		return NewValidationError(c, "Slug is required", nil)
	}

	page, perPage := pageParams(c)
	viewer := middleware.GetClaimant(c)

	wishlist, err := h.publicService.GetPublicWishlist(slug, viewer, page, perPage)
	if err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		if errors.Is(err, domain.ErrWishlistGone) {
			return NewGoneError(c, "This wishlist has been deleted")
		}
		log.Error().Err(err).Str("slug", slug).Msg("Failed to get public wishlist")
		return NewInternalError(c, "Failed to get wishlist")
	}

	return c.JSON(http.StatusOK, wishlist)
}
