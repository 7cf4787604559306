package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/service"
	"github.com/vishlist/vishlist-backend/internal/testutil"
)

func newWishlistHandlerFixture() (*WishlistHandler, *domain.User) {
	itemRepo := testutil.NewMockItemRepository()
	wishlistRepo := testutil.NewMockWishlistRepository(itemRepo)
	publisher := testutil.NewMockPublisher()
	svc := service.NewWishlistService(wishlistRepo, itemRepo, publisher)

	user := &domain.User{ID: uuid.New(), Email: "tia@example.com", Name: "Tia"}
	return NewWishlistHandler(svc), user
}

func TestCreateWishlistHandler_Success(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/wishlists", `{"title":"Birthday","emoji":"🎂"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUser(c, user)

	if err := handler.CreateWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}

	var wishlist domain.Wishlist
	if err := json.Unmarshal(rec.Body.Bytes(), &wishlist); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if wishlist.Slug != "birthday" {
		t.Errorf("Expected slug birthday, got %s", wishlist.Slug)
	}
	if wishlist.Emoji != "🎂" {
		t.Errorf("Expected emoji 🎂, got %s", wishlist.Emoji)
	}
}

func TestCreateWishlistHandler_EmptyTitle(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/wishlists", `{"title":"  "}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUser(c, user)

	if err := handler.CreateWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "title" {
		t.Errorf("Expected a title field error, got %v", problem.Errors)
	}
}

func TestCreateWishlistHandler_Anonymous(t *testing.T) {
	handler, _ := newWishlistHandlerFixture()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/wishlists", `{"title":"Birthday"}`)
	rec := httptest.NewRecorder()

	if err := handler.CreateWishlist(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetWishlistsHandler_EmptyIsArray(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlists", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUser(c, user)

	if err := handler.GetWishlists(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("Expected empty JSON array, got %q", body)
	}
}

func TestUpdateWishlistHandler_NotFound(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	id := uuid.NewString()
	req := jsonRequest(http.MethodPut, "/api/v1/wishlists/"+id, `{"title":"Renamed"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	setUser(c, user)

	if err := handler.UpdateWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestDeleteWishlistHandler_Success(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/wishlists", `{"title":"Birthday"}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setUser(c, user)
	if err := handler.CreateWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var wishlist domain.Wishlist
	if err := json.Unmarshal(rec.Body.Bytes(), &wishlist); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/wishlists/"+wishlist.ID.String(), nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(wishlist.ID.String())
	setUser(c, user)

	if err := handler.DeleteWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
}

func TestInvalidWishlistID(t *testing.T) {
	handler, user := newWishlistHandlerFixture()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlists/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	setUser(c, user)

	if err := handler.GetWishlist(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}
