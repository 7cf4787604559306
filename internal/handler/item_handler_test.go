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

type itemHandlerFixture struct {
	handler  *ItemHandler
	itemRepo *testutil.MockItemRepository
	user     *domain.User
	wishlist *domain.Wishlist
}

func newItemHandlerFixture() *itemHandlerFixture {
	itemRepo := testutil.NewMockItemRepository()
	wishlistRepo := testutil.NewMockWishlistRepository(itemRepo)
	publisher := testutil.NewMockPublisher()

	user := &domain.User{ID: uuid.New(), Email: "tia@example.com", Name: "Tia"}
	wishlist := &domain.Wishlist{UserID: user.ID, Title: "Birthday", Slug: "birthday"}
	wishlistRepo.AddWishlist(wishlist)
	itemRepo.SetOwner(wishlist.ID, user.ID)

	return &itemHandlerFixture{
		handler:  NewItemHandler(service.NewItemService(itemRepo, wishlistRepo, publisher)),
		itemRepo: itemRepo,
		user:     user,
		wishlist: wishlist,
	}
}

func (f *itemHandlerFixture) createItem(t *testing.T, body string) *domain.Item {
	t.Helper()
	e := echo.New()
	req := jsonRequest(http.MethodPost, "/api/v1/wishlists/"+f.wishlist.ID.String()+"/items", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.wishlist.ID.String())
	setUser(c, f.user)

	if err := f.handler.CreateItem(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var item domain.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	return &item
}

func TestCreateItemHandler_Success(t *testing.T) {
	f := newItemHandlerFixture()

	item := f.createItem(t, `{"title":"Book","url":"https://example.com/book","price":2500}`)
	if item.Title != "Book" {
		t.Errorf("Expected title Book, got %s", item.Title)
	}
	if item.Price == nil || *item.Price != 2500 {
		t.Error("Expected price 2500")
	}
	if item.Position != 1 {
		t.Errorf("Expected position 1, got %d", item.Position)
	}
}

func TestCreateItemHandler_InvalidPrice(t *testing.T) {
	f := newItemHandlerFixture()
	e := echo.New()

	req := jsonRequest(http.MethodPost, "/api/v1/wishlists/"+f.wishlist.ID.String()+"/items", `{"title":"Book","price":-5}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.wishlist.ID.String())
	setUser(c, f.user)

	if err := f.handler.CreateItem(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(problem.Errors) != 1 || problem.Errors[0].Field != "price" {
		t.Errorf("Expected a price field error, got %v", problem.Errors)
	}
}

func TestListItemsHandler_Pagination(t *testing.T) {
	f := newItemHandlerFixture()
	e := echo.New()

	f.createItem(t, `{"title":"Book"}`)
	f.createItem(t, `{"title":"Mug"}`)
	f.createItem(t, `{"title":"Socks"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wishlists/"+f.wishlist.ID.String()+"/items?page=2&perPage=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.wishlist.ID.String())
	setUser(c, f.user)

	if err := f.handler.ListItems(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response ItemListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Total != 3 {
		t.Errorf("Expected total 3, got %d", response.Total)
	}
	if len(response.Items) != 1 || response.Items[0].Title != "Socks" {
		t.Errorf("Expected only Socks on page 2, got %v", response.Items)
	}
}

// An absent field stays, an explicit null clears.

func TestUpdateItemHandler_NullClearsField(t *testing.T) {
	f := newItemHandlerFixture()
	e := echo.New()

	item := f.createItem(t, `{"title":"Book","url":"https://example.com/book","price":2500}`)

	req := jsonRequest(http.MethodPut, "/api/v1/items/"+item.ID.String(), `{"url":null}`)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())
	setUser(c, f.user)

	if err := f.handler.UpdateItem(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var updated domain.Item
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if updated.URL != nil {
		t.Errorf("Expected URL cleared, got %v", *updated.URL)
	}
	if updated.Price == nil || *updated.Price != 2500 {
		t.Error("Expected absent price field to stay")
	}
}

func TestDeleteItemHandler_ThenRestore(t *testing.T) {
	f := newItemHandlerFixture()
	e := echo.New()

	item := f.createItem(t, `{"title":"Book"}`)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/items/"+item.ID.String(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())
	setUser(c, f.user)

	if err := f.handler.DeleteItem(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/items/"+item.ID.String()+"/restore", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(item.ID.String())
	setUser(c, f.user)

	if err := f.handler.RestoreItem(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
}

func TestReorderItemsHandler_Success(t *testing.T) {
	f := newItemHandlerFixture()
	e := echo.New()

	first := f.createItem(t, `{"title":"Book"}`)
	second := f.createItem(t, `{"title":"Mug"}`)

	body := `{"positions":[{"id":"` + first.ID.String() + `","position":2},{"id":"` + second.ID.String() + `","position":1}]}`
	req := jsonRequest(http.MethodPatch, "/api/v1/wishlists/"+f.wishlist.ID.String()+"/items/reorder", body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(f.wishlist.ID.String())
	setUser(c, f.user)

	if err := f.handler.ReorderItems(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}

	items, _, err := f.itemRepo.ListByWishlist(f.wishlist.ID, 0, 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if items[0].Title != "Mug" {
		t.Errorf("Expected Mug first after reorder, got %s", items[0].Title)
	}
}
