package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/middleware"
	"github.com/vishlist/vishlist-backend/internal/service"
	"github.com/vishlist/vishlist-backend/internal/testutil"
)

type claimHandlerFixture struct {
	handler   *ClaimHandler
	claimRepo *testutil.MockClaimRepository
	tokens    *service.TokenService
	owner     uuid.UUID
	wishlist  *domain.Wishlist
	item      *domain.Item
}

func newClaimHandlerFixture(t *testing.T) *claimHandlerFixture {
	t.Helper()
	claimRepo := testutil.NewMockClaimRepository()
	itemRepo := testutil.NewMockItemRepository()
	wishlistRepo := testutil.NewMockWishlistRepository(itemRepo)
	publisher := testutil.NewMockPublisher()
	tokens := service.NewTokenService("test-secret")

	owner := uuid.New()
	wishlist := &domain.Wishlist{UserID: owner, Title: "Birthday", Slug: "birthday"}
	wishlistRepo.AddWishlist(wishlist)

	price := int64(1000)
	item := &domain.Item{WishlistID: wishlist.ID, Title: "Book", Price: &price}
	itemRepo.AddItem(item)

	claimService := service.NewClaimService(claimRepo, itemRepo, wishlistRepo, publisher)
	recoveryService := service.NewRecoveryService(wishlistRepo, claimRepo, tokens, nil, "http://localhost:3000", true)

	return &claimHandlerFixture{
		handler:   NewClaimHandler(claimService, recoveryService),
		claimRepo: claimRepo,
		tokens:    tokens,
		owner:     owner,
		wishlist:  wishlist,
		item:      item,
	}
}

// setGuestToken mirrors what OptionalAuthenticate puts in the context
func setGuestToken(c echo.Context, token string) {
	ctx := context.WithValue(c.Request().Context(), middleware.GuestTokenKey, token)
	c.SetRequest(c.Request().WithContext(ctx))
}

// setUser mirrors what the auth middleware puts in the context
func setUser(c echo.Context, user *domain.User) {
	ctx := context.WithValue(c.Request().Context(), middleware.UserKey, user)
	c.SetRequest(c.Request().WithContext(ctx))
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// Reserve tests

func TestReserveHandler_GuestReceivesTokenOnce(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/reserve", `{"name":"Tia"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.item.ID.String())

	if err := f.handler.Reserve(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	token, ok := response["guestToken"].(string)
	if !ok || token == "" {
		t.Error("Expected guestToken in the guest's creation response")
	}
	if response["guestName"] != "Tia" {
		t.Errorf("Expected guestName Tia, got %v", response["guestName"])
	}
}

func TestReserveHandler_UserGetsNoGuestToken(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/reserve", `{"name":"Sam"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.item.ID.String())
	setUser(c, &domain.User{ID: uuid.New(), Email: "sam@example.com", Name: "Sam"})

	if err := f.handler.Reserve(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if _, present := response["guestToken"]; present {
		t.Error("Expected no guestToken for an authenticated user")
	}
}

func TestReserveHandler_OwnerForbidden(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/reserve", `{"name":"Me"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.item.ID.String())
	setUser(c, &domain.User{ID: f.owner, Email: "owner@example.com", Name: "Olive"})

	if err := f.handler.Reserve(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

func TestReserveHandler_Conflict(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	reserve := func() *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/reserve", `{"name":"Tia"}`)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(f.item.ID.String())
		if err := f.handler.Reserve(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return rec
	}

	if rec := reserve(); rec.Code != http.StatusCreated {
		t.Fatalf("Expected first reserve to return 201, got %d", rec.Code)
	}
	rec := reserve()
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Type != ErrorTypeConflict {
		t.Errorf("Expected conflict problem type, got %s", problem.Type)
	}
}

func TestReserveHandler_InvalidItemID(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/items/nope/reserve", `{"name":"Tia"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("nope")

	if err := f.handler.Reserve(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

// Contribute tests

func TestContributeHandler_TooLargeAmountExplains(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	contribute := func(body string) *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/contribute", body)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(f.item.ID.String())
		if err := f.handler.Contribute(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return rec
	}

	if rec := contribute(`{"name":"A","amount":600}`); rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}

	rec := contribute(`{"name":"B","amount":500}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !strings.Contains(problem.Detail, "400") {
		t.Errorf("Expected remaining headroom in detail, got %q", problem.Detail)
	}
}

func TestContributeHandler_FullyFundedConflicts(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	contribute := func(body string) *httptest.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/contribute", body)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(f.item.ID.String())
		if err := f.handler.Contribute(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return rec
	}

	if rec := contribute(`{"name":"A","amount":1000}`); rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 filling the item, got %d", rec.Code)
	}

	rec := contribute(`{"name":"B","amount":1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status 409 once fully funded, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if problem.Type != ErrorTypeConflict {
		t.Errorf("Expected conflict problem type, got %s", problem.Type)
	}
}

func TestContributeHandler_GuestTokenReused(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()
	token := uuid.NewString()

	req := jsonRequest(http.MethodPost, "/api/v1/items/"+f.item.ID.String()+"/contribute", `{"name":"Tia","amount":100}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.item.ID.String())
	setGuestToken(c, token)

	if err := f.handler.Contribute(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["guestToken"] != token {
		t.Errorf("Expected the presented token to be echoed, got %v", response["guestToken"])
	}
}

// UpdateReservationEmail tests

func TestUpdateReservationEmailHandler_WrongToken(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	token := uuid.NewString()
	name := "Tia"
	reservation, err := f.claimRepo.CreateReservation(&domain.Reservation{
		ItemID:     f.item.ID,
		GuestToken: &token,
		GuestName:  &name,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := jsonRequest(http.MethodPatch, "/api/v1/reservations/"+reservation.ID.String()+"/email", `{"email":"tia@example.com"}`)
	req.Header.Set(middleware.GuestTokenHeader, uuid.NewString())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(reservation.ID.String())

	if err := f.handler.UpdateReservationEmail(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", rec.Code)
	}
}

func TestUpdateReservationEmailHandler_Success(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	token := uuid.NewString()
	name := "Tia"
	reservation, err := f.claimRepo.CreateReservation(&domain.Reservation{
		ItemID:     f.item.ID,
		GuestToken: &token,
		GuestName:  &name,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req := jsonRequest(http.MethodPatch, "/api/v1/reservations/"+reservation.ID.String()+"/email", `{"email":"tia@example.com"}`)
	req.Header.Set(middleware.GuestTokenHeader, token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(reservation.ID.String())

	if err := f.handler.UpdateReservationEmail(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

// Recover / Verify tests

func TestRecoverHandler_FixedMessage(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	call := func(body string) RecoverResponse {
		req := jsonRequest(http.MethodPost, "/api/v1/guest/recover", body)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := f.handler.Recover(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
		var response RecoverResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		return response
	}

	// No claim carries this email; the message must not change.
	miss := call(`{"email":"nobody@example.com","wishlistSlug":"birthday"}`)
	if miss.Message == "" || miss.RecoveryToken != nil {
		t.Error("Expected fixed message and no token for a miss")
	}

	token := uuid.NewString()
	name := "Tia"
	email := "tia@example.com"
	f.claimRepo.CreateReservation(&domain.Reservation{
		ItemID:     f.item.ID,
		GuestToken: &token,
		GuestName:  &name,
		GuestEmail: &email,
	})

	hit := call(`{"email":"tia@example.com","wishlistSlug":"birthday"}`)
	if hit.Message != miss.Message {
		t.Error("Expected identical messages for hit and miss")
	}
	if hit.RecoveryToken == nil {
		t.Fatal("Expected a recovery token in debug mode")
	}

	guestToken, slug, err := f.tokens.DecodeRecovery(*hit.RecoveryToken)
	if err != nil {
		t.Fatalf("Expected decodable recovery token, got %v", err)
	}
	if guestToken != token || slug != "birthday" {
		t.Errorf("Expected embedded identity, got %s / %s", guestToken, slug)
	}
}

func TestVerifyHandler_InvalidToken(t *testing.T) {
	f := newClaimHandlerFixture(t)
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/guest/verify", `{"token":"garbage"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := f.handler.Verify(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
