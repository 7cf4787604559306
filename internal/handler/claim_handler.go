package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
)

// ClaimHandler handles reservation and contribution HTTP requests from
// both authenticated users and anonymous guests
type ClaimHandler struct {
	claimService    *service.ClaimService
	recoveryService *service.RecoveryService
}

// NewClaimHandler creates a new ClaimHandler
func NewClaimHandler(claimService *service.ClaimService, recoveryService *service.RecoveryService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, recoveryService: recoveryService}
}

// ReserveRequest represents the reserve request body
type ReserveRequest struct {
	Name string `json:"name"`
}

// ContributeRequest represents the contribute request body
type ContributeRequest struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

// UpdateEmailRequest represents the attach-email request body
type UpdateEmailRequest struct {
	Email string `json:"email"`
}

// RecoverRequest represents the guest recovery request body
type RecoverRequest struct {
	Email        string `json:"email"`
	WishlistSlug string `json:"wishlistSlug"`
}

// VerifyRequest represents the recovery verification request body
type VerifyRequest struct {
	Token string `json:"token"`
}

// ReservationResponse carries a created reservation. GuestToken is set
// only on the response to the guest who just minted it; it is never
// readable again through the API.
type ReservationResponse struct {
	*domain.Reservation
	GuestToken *string `json:"guestToken,omitempty"`
}

// ContributionResponse carries a created contribution, with the same
// one-time GuestToken rule as reservations
type ContributionResponse struct {
	*domain.Contribution
	GuestToken *string `json:"guestToken,omitempty"`
}

// Reserve handles POST /api/v1/items/:id/reserve
func (h *ClaimHandler) Reserve(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	claimant := middleware.GetClaimant(c)

	reservation, err := h.claimService.Reserve(itemID, claimant, req.Name)
	if err != nil {
		return claimError(c, err, "Failed to reserve item")
	}

	resp := ReservationResponse{Reservation: reservation}
	if !claimant.IsUser() {
		resp.GuestToken = reservation.GuestToken
	}
	return c.JSON(http.StatusCreated, resp)
}

// CancelReservation handles DELETE /api/v1/items/:id/reserve
func (h *ClaimHandler) CancelReservation(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	if err := h.claimService.CancelReservation(itemID, middleware.GetClaimant(c)); err != nil {
		return claimError(c, err, "Failed to cancel reservation")
	}
	return c.NoContent(http.StatusNoContent)
}

// Contribute handles POST /api/v1/items/:id/contribute
func (h *ClaimHandler) Contribute(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid item ID", nil)
	}

	var req ContributeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	claimant := middleware.GetClaimant(c)

	contribution, err := h.claimService.Contribute(itemID, claimant, req.Name, req.Amount)
	if err != nil {
		return claimError(c, err, "Failed to contribute")
	}

	resp := ContributionResponse{Contribution: contribution}
	if !claimant.IsUser() {
		resp.GuestToken = contribution.GuestToken
	}
	return c.JSON(http.StatusCreated, resp)
}

// DeleteContribution handles DELETE /api/v1/contributions/:id
func (h *ClaimHandler) DeleteContribution(c echo.Context) error {
	contributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	if err := h.claimService.DeleteContribution(contributionID, middleware.GetClaimant(c)); err != nil {
		return claimError(c, err, "Failed to delete contribution")
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateReservationEmail handles PATCH /api/v1/reservations/:id/email
func (h *ClaimHandler) UpdateReservationEmail(c echo.Context) error {
	reservationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid reservation ID", nil)
	}

	var req UpdateEmailRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	token := c.Request().Header.Get(middleware.GuestTokenHeader)
	if err := h.claimService.UpdateReservationEmail(reservationID, token, req.Email); err != nil {
		return claimError(c, err, "Failed to update reservation email")
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateContributionEmail handles PATCH /api/v1/contributions/:id/email
func (h *ClaimHandler) UpdateContributionEmail(c echo.Context) error {
	contributionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid contribution ID", nil)
	}

	var req UpdateEmailRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	token := c.Request().Header.Get(middleware.GuestTokenHeader)
	if err := h.claimService.UpdateContributionEmail(contributionID, token, req.Email); err != nil {
		return claimError(c, err, "Failed to update contribution email")
	}
	return c.NoContent(http.StatusNoContent)
}

// RecoverResponse is the fixed-shape recovery response. Its message
// never reveals whether the email matched a claim.
type RecoverResponse struct {
	Message       string  `json:"message"`
	RecoveryToken *string `json:"recoveryToken,omitempty"`
}

// Recover handles POST /api/v1/guest/recover
func (h *ClaimHandler) Recover(c echo.Context) error {
	var req RecoverRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" || req.WishlistSlug == "" {
		return NewValidationError(c, "Email and wishlist slug are required", nil)
	}

	debugToken := h.recoveryService.Recover(req.Email, req.WishlistSlug)

	return c.JSON(http.StatusOK, RecoverResponse{
		Message:       "If this email was used on the wishlist, a recovery link has been sent",
		RecoveryToken: debugToken,
	})
}

// VerifyResponse carries the recovered guest identity
type VerifyResponse struct {
	GuestToken   string `json:"guestToken"`
	WishlistSlug string `json:"wishlistSlug"`
}

// Verify handles POST /api/v1/guest/verify
func (h *ClaimHandler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	guestToken, slug, err := h.recoveryService.Verify(req.Token)
	if err != nil {
		return NewValidationError(c, "Invalid or expired recovery token", nil)
	}

	return c.JSON(http.StatusOK, VerifyResponse{GuestToken: guestToken, WishlistSlug: slug})
}

// claimError maps ledger errors to HTTP responses
func claimError(c echo.Context, err error, logMsg string) error {
	var tooLarge *domain.AmountTooLargeError
	switch {
	case errors.Is(err, domain.ErrItemNotFound):
		return NewNotFoundError(c, "Item not found")
	case errors.Is(err, domain.ErrWishlistNotFound):
		return NewNotFoundError(c, "Wishlist not found")
	case errors.Is(err, domain.ErrReservationNotFound):
		return NewNotFoundError(c, "Reservation not found")
	case errors.Is(err, domain.ErrContributionNotFound):
		return NewNotFoundError(c, "Contribution not found")
	case errors.Is(err, domain.ErrOwnerCannotClaim):
		return NewForbiddenError(c, "You cannot claim items on your own wishlist")
	case errors.Is(err, domain.ErrNotClaimant):
		return NewForbiddenError(c, "Only the claimant can do this")
	case errors.Is(err, domain.ErrAlreadyReserved):
		return NewConflictError(c, "This item is already reserved")
	case errors.Is(err, domain.ErrAlreadyCollecting):
		return NewConflictError(c, "This item is already collecting contributions")
	case errors.Is(err, domain.ErrGuestNameEmpty):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNoPrice):
		return NewValidationError(c, "This item has no price and cannot collect contributions", nil)
	case errors.Is(err, domain.ErrFullyFunded):
		return NewConflictError(c, "This item is already fully funded")
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount", Message: "Amount must be a positive number"},
		})
	case errors.As(err, &tooLarge):
		return NewValidationError(c, tooLarge.Error(), []ValidationError{
			{Field: "amount", Message: tooLarge.Error()},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	}
	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg(logMsg)
	return NewInternalError(c, logMsg)
}
