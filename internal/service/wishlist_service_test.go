package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/testutil"
)

func newWishlistFixture() (*WishlistService, *testutil.MockWishlistRepository, *testutil.MockItemRepository, *testutil.MockPublisher) {
	itemRepo := testutil.NewMockItemRepository()
	wishlistRepo := testutil.NewMockWishlistRepository(itemRepo)
	publisher := testutil.NewMockPublisher()
	return NewWishlistService(wishlistRepo, itemRepo, publisher), wishlistRepo, itemRepo, publisher
}

// CreateWishlist tests

func TestCreateWishlist_Success(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()
	userID := uuid.New()

	wishlist, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "Birthday 2026"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if wishlist.Title != "Birthday 2026" {
		t.Errorf("Expected title Birthday 2026, got %s", wishlist.Title)
	}
	if wishlist.Slug != "birthday-2026" {
		t.Errorf("Expected slug birthday-2026, got %s", wishlist.Slug)
	}
	if wishlist.Emoji != "🎁" {
		t.Errorf("Expected default emoji, got %s", wishlist.Emoji)
	}
	if wishlist.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, wishlist.UserID)
	}
}

func TestCreateWishlist_TrimsTitle(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	wishlist, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: "  Housewarming  "})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if wishlist.Title != "Housewarming" {
		t.Errorf("Expected trimmed title, got %q", wishlist.Title)
	}
}

func TestCreateWishlist_EmptyTitle(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	for _, title := range []string{"", "   "} {
		_, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: title})
		if !errors.Is(err, domain.ErrWishlistTitleEmpty) {
			t.Errorf("Expected ErrWishlistTitleEmpty for %q, got %v", title, err)
		}
	}
}

func TestCreateWishlist_TitleTooLong(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	_, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: strings.Repeat("a", domain.MaxWishlistTitleLength+1)})
	if !errors.Is(err, domain.ErrWishlistTitleTooLong) {
		t.Errorf("Expected ErrWishlistTitleTooLong, got %v", err)
	}
}

func TestCreateWishlist_SlugCollisionGetsSuffix(t *testing.T) {
	svc, wishlistRepo, _, _ := newWishlistFixture()

	wishlistRepo.AddWishlist(&domain.Wishlist{UserID: uuid.New(), Title: "Birthday", Slug: "birthday"})

	wishlist, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.HasPrefix(wishlist.Slug, "birthday-") || len(wishlist.Slug) != len("birthday-")+4 {
		t.Errorf("Expected suffixed slug, got %s", wishlist.Slug)
	}
}

func TestCreateWishlist_Limit(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()
	userID := uuid.New()

	for i := 0; i < domain.MaxWishlistsPerUser; i++ {
		if _, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: fmt.Sprintf("List %d", i)}); err != nil {
			t.Fatalf("Expected wishlist %d to be created, got %v", i, err)
		}
	}

	_, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "One too many"})
	if !errors.Is(err, domain.ErrWishlistLimit) {
		t.Errorf("Expected ErrWishlistLimit, got %v", err)
	}
}

// GetWishlist tests

func TestGetWishlist_WithItemCount(t *testing.T) {
	svc, _, itemRepo, _ := newWishlistFixture()
	userID := uuid.New()

	wishlist, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	itemRepo.AddItem(&domain.Item{WishlistID: wishlist.ID, Title: "Book"})
	itemRepo.AddItem(&domain.Item{WishlistID: wishlist.ID, Title: "Mug"})

	got, err := svc.GetWishlist(userID, wishlist.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.ItemCount != 2 {
		t.Errorf("Expected item count 2, got %d", got.ItemCount)
	}
}

func TestGetWishlist_OtherOwner(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	wishlist, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, err = svc.GetWishlist(uuid.New(), wishlist.ID)
	if !errors.Is(err, domain.ErrWishlistNotFound) {
		t.Errorf("Expected ErrWishlistNotFound, got %v", err)
	}
}

// UpdateWishlist tests

func TestUpdateWishlist_PartialUpdate(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()
	userID := uuid.New()

	wishlist, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	originalSlug := wishlist.Slug

	title := "Birthday Bash"
	archived := true
	updated, err := svc.UpdateWishlist(userID, wishlist.ID, UpdateWishlistInput{Title: &title, IsArchived: &archived})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Title != "Birthday Bash" {
		t.Errorf("Expected updated title, got %s", updated.Title)
	}
	if !updated.IsArchived {
		t.Error("Expected wishlist to be archived")
	}
	if updated.Slug != originalSlug {
		t.Errorf("Expected slug to stay %s, got %s", originalSlug, updated.Slug)
	}
	if updated.Emoji != "🎁" {
		t.Errorf("Expected emoji unchanged, got %s", updated.Emoji)
	}
}

func TestUpdateWishlist_EmptyTitle(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()
	userID := uuid.New()

	wishlist, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	title := "  "
	_, err = svc.UpdateWishlist(userID, wishlist.ID, UpdateWishlistInput{Title: &title})
	if !errors.Is(err, domain.ErrWishlistTitleEmpty) {
		t.Errorf("Expected ErrWishlistTitleEmpty, got %v", err)
	}
}

// DeleteWishlist tests

func TestDeleteWishlist_NotifiesAndCloses(t *testing.T) {
	svc, wishlistRepo, _, publisher := newWishlistFixture()
	userID := uuid.New()

	wishlist, err := svc.CreateWishlist(userID, CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := svc.DeleteWishlist(userID, wishlist.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	stored := wishlistRepo.Wishlists[wishlist.ID]
	if !stored.IsDeleted {
		t.Error("Expected wishlist to be soft-deleted")
	}

	types := publisher.EventTypes()
	if len(types) != 1 || types[0] != "wishlistDeleted" {
		t.Errorf("Expected a wishlistDeleted event, got %v", types)
	}
	if len(publisher.Closed) != 1 || publisher.Closed[0] != wishlist.ID {
		t.Errorf("Expected connections closed for %s, got %v", wishlist.ID, publisher.Closed)
	}
}

func TestDeleteWishlist_OtherOwner(t *testing.T) {
	svc, _, _, _ := newWishlistFixture()

	wishlist, err := svc.CreateWishlist(uuid.New(), CreateWishlistInput{Title: "Birthday"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err = svc.DeleteWishlist(uuid.New(), wishlist.ID)
	if !errors.Is(err, domain.ErrWishlistNotFound) {
		t.Errorf("Expected ErrWishlistNotFound, got %v", err)
	}
}
