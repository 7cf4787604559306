package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
)

// WishlistHandler handles owner-side wishlist HTTP requests
type WishlistHandler struct {
	wishlistService *service.WishlistService
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

// CreateWishlistRequest represents the create wishlist request body
type CreateWishlistRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Emoji       string     `json:"emoji"`
	EventDate   *time.Time `json:"eventDate"`
}

// UpdateWishlistRequest represents the update wishlist request body.
// Absent fields are left unchanged.
type UpdateWishlistRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Emoji       *string    `json:"emoji"`
	EventDate   *time.Time `json:"eventDate"`
	IsArchived  *bool      `json:"isArchived"`
}

// CreateWishlist handles POST /api/v1/wishlists
func (h *WishlistHandler) CreateWishlist(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateWishlistRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	wishlist, err := h.wishlistService.CreateWishlist(user.ID, service.CreateWishlistInput{
		Title:       req.Title,
		Description: req.Description,
		Emoji:       req.Emoji,
		EventDate:   req.EventDate,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWishlistTitleEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title is required"},
			})
		}
		if errors.Is(err, domain.ErrWishlistTitleTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title must be 100 characters or less"},
			})
		}
		if errors.Is(err, domain.ErrWishlistLimit) {
			return NewConflictError(c, "Wishlist limit reached")
		}
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to create wishlist")
		return NewInternalError(c, "Failed to create wishlist")
	}

	return c.JSON(http.StatusCreated, wishlist)
}

// GetWishlists handles GET /api/v1/wishlists
func (h *WishlistHandler) GetWishlists(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	wishlists, err := h.wishlistService.GetWishlists(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to get wishlists")
		return NewInternalError(c, "Failed to get wishlists")
	}
	if wishlists == nil {
		wishlists = []*domain.WishlistWithStats{}
	}

	return c.JSON(http.StatusOK, wishlists)
}

// GetWishlist handles GET /api/v1/wishlists/:id
func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	wishlist, err := h.wishlistService.GetWishlist(user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		log.Error().Err(err).Str("wishlist_id", id.String()).Msg("Failed to get wishlist")
		return NewInternalError(c, "Failed to get wishlist")
	}

	return c.JSON(http.StatusOK, wishlist)
}

// UpdateWishlist handles PUT /api/v1/wishlists/:id
func (h *WishlistHandler) UpdateWishlist(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	var req UpdateWishlistRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	wishlist, err := h.wishlistService.UpdateWishlist(user.ID, id, service.UpdateWishlistInput{
		Title:       req.Title,
		Description: req.Description,
		Emoji:       req.Emoji,
		EventDate:   req.EventDate,
		IsArchived:  req.IsArchived,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		if errors.Is(err, domain.ErrWishlistTitleEmpty) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title is required"},
			})
		}
		if errors.Is(err, domain.ErrWishlistTitleTooLong) {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "title", Message: "Title must be 100 characters or less"},
			})
		}
		log.Error().Err(err).Str("wishlist_id", id.String()).Msg("Failed to update wishlist")
		return NewInternalError(c, "Failed to update wishlist")
	}

	return c.JSON(http.StatusOK, wishlist)
}

// DeleteWishlist handles DELETE /api/v1/wishlists/:id
func (h *WishlistHandler) DeleteWishlist(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	if err := h.wishlistService.DeleteWishlist(user.ID, id); err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		log.Error().Err(err).Str("wishlist_id", id.String()).Msg("Failed to delete wishlist")
		return NewInternalError(c, "Failed to delete wishlist")
	}

	return c.NoContent(http.StatusNoContent)
}
