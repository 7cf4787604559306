package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
)

const (
	defaultPerPage = 50
	maxPerPage     = 100
)

// ItemHandler handles owner-side item HTTP requests
type ItemHandler struct {
	itemService *service.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *service.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// CreateItemRequest represents the create item request body
type CreateItemRequest struct {
	Title    string  `json:"title"`
	URL      *string `json:"url"`
	Price    *int64  `json:"price"`
	ImageURL *string `json:"imageUrl"`
	Note     *string `json:"note"`
}

// ItemListResponse is one page of a wishlist's items
type ItemListResponse struct {
	Items   []*domain.Item `json:"items"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

// ReorderRequest represents the reorder request body
type ReorderRequest struct {
	Positions []domain.ItemPosition `json:"positions"`
}

// ListItems handles GET /api/v1/wishlists/:id/items
func (h *ItemHandler) ListItems(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	wishlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	page, perPage := pageParams(c)

	items, total, err := h.itemService.ListItems(user.ID, wishlistID, page, perPage)
	if err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		log.Error().Err(err).Str("wishlist_id", wishlistID.String()).Msg("Failed to list items")
		return NewInternalError(c, "Failed to list items")
	}
	if items == nil {
		items = []*domain.Item{}
	}

	return c.JSON(http.StatusOK, ItemListResponse{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// CreateItem handles POST /api/v1/wishlists/:id/items
func (h *ItemHandler) CreateItem(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	wishlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	item, err := h.itemService.CreateItem(user.ID, wishlistID, service.CreateItemInput{
		Title:    req.Title,
		URL:      req.URL,
		Price:    req.Price,
		ImageURL: req.ImageURL,
		Note:     req.Note,
	})
	if err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		if errors.Is(err, domain.ErrItemLimit) {
			return NewConflictError(c, "Item limit reached for this wishlist")
		}
		if valErr := itemValidationError(c, err); valErr != nil {
			return valErr
		}
		log.Error().Err(err).Str("wishlist_id", wishlistID.String()).Msg("Failed to create item")
		return NewInternalError(c, "Failed to create item")
	}

	return c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /api/v1/items/:id. Fields absent from the body
// are left unchanged; fields set to null are cleared.
func (h *ItemHandler) UpdateItem(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input, err := buildUpdateItemInput(raw)
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	item, err := h.itemService.UpdateItem(user.ID, itemID, input)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return NewNotFoundError(c, "Item not found")
		}
		if valErr := itemValidationError(c, err); valErr != nil {
			return valErr
		}
		log.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to update item")
		return NewInternalError(c, "Failed to update item")
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/items/:id
func (h *ItemHandler) DeleteItem(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	if err := h.itemService.DeleteItem(user.ID, itemID); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return NewNotFoundError(c, "Item not found")
		}
		log.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to delete item")
		return NewInternalError(c, "Failed to delete item")
	}

	return c.NoContent(http.StatusNoContent)
}

// RestoreItem handles POST /api/v1/items/:id/restore
func (h *ItemHandler) RestoreItem(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	item, err := h.itemService.RestoreItem(user.ID, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return NewNotFoundError(c, "Item not found")
		}
		log.Error().Err(err).Str("item_id", itemID.String()).Msg("Failed to restore item")
		return NewInternalError(c, "Failed to restore item")
	}

	return c.JSON(http.StatusOK, item)
}

// ReorderItems handles PATCH /api/v1/wishlists/:id/items/reorder
func (h *ItemHandler) ReorderItems(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	wishlistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid wishlist ID", nil)
	}

	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.itemService.ReorderItems(user.ID, wishlistID, req.Positions); err != nil {
		if errors.Is(err, domain.ErrWishlistNotFound) {
			return NewNotFoundError(c, "Wishlist not found")
		}
		log.Error().Err(err).Str("wishlist_id", wishlistID.String()).Msg("Failed to reorder items")
		return NewInternalError(c, "Failed to reorder items")
	}

	return c.NoContent(http.StatusNoContent)
}

// buildUpdateItemInput turns a partial JSON body into the service
// input, keeping the absent/null distinction per field
func buildUpdateItemInput(raw map[string]json.RawMessage) (service.UpdateItemInput, error) {
	var input service.UpdateItemInput

	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return input, err
		}
		input.Title = &title
	}
	if v, ok := raw["url"]; ok {
		var url *string
		if err := json.Unmarshal(v, &url); err != nil {
			return input, err
		}
		input.URL = &url
	}
	if v, ok := raw["price"]; ok {
		var price *int64
		if err := json.Unmarshal(v, &price); err != nil {
			return input, err
		}
		input.Price = &price
	}
	if v, ok := raw["imageUrl"]; ok {
		var imageURL *string
		if err := json.Unmarshal(v, &imageURL); err != nil {
			return input, err
		}
		input.ImageURL = &imageURL
	}
	if v, ok := raw["note"]; ok {
		var note *string
		if err := json.Unmarshal(v, &note); err != nil {
			return input, err
		}
		input.Note = &note
	}
	return input, nil
}

// itemValidationError maps item validation failures to a 400, nil if
// the error is not a validation failure
func itemValidationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrItemTitleEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "title", Message: "Title is required"},
		})
	case errors.Is(err, domain.ErrItemTitleTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "title", Message: "Title must be 200 characters or less"},
		})
	case errors.Is(err, domain.ErrItemInvalidPrice):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "price", Message: "Price must be a positive amount"},
		})
	case errors.Is(err, domain.ErrItemInvalidURL):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "url", Message: "URL must be valid"},
		})
	case errors.Is(err, domain.ErrItemInvalidImageURL):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "imageUrl", Message: "Image URL must be valid"},
		})
	}
	return nil
}

// pageParams parses and clamps pagination query parameters
func pageParams(c echo.Context) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && v > 0 {
		perPage = v
		if perPage > maxPerPage {
			perPage = maxPerPage
		}
	}
	return page, perPage
}
