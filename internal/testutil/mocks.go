package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vishlist/vishlist-backend/internal/domain"
	"github.com/vishlist/vishlist-backend/internal/websocket"
)

// The mocks are mutex-guarded because the ledger tests hammer them from
// many goroutines at once.

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mu      sync.Mutex
	ByID    map[uuid.UUID]*domain.User
	ByEmail map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:    make(map[uuid.UUID]*domain.User),
		ByEmail: make(map[string]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ByEmail[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.ByID[user.ID] = user
	m.ByEmail[user.Email] = user
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.ByID[user.ID] = user
	m.ByEmail[user.Email] = user
}

// MockWishlistRepository is a mock implementation of domain.WishlistRepository
type MockWishlistRepository struct {
	mu        sync.Mutex
	Wishlists map[uuid.UUID]*domain.Wishlist
	BySlug    map[string]*domain.Wishlist
	itemRepo  *MockItemRepository
}

// NewMockWishlistRepository creates a new MockWishlistRepository. The
// item repository, when set, feeds the item counts of GetAllByUser.
func NewMockWishlistRepository(itemRepo *MockItemRepository) *MockWishlistRepository {
	return &MockWishlistRepository{
		Wishlists: make(map[uuid.UUID]*domain.Wishlist),
		BySlug:    make(map[string]*domain.Wishlist),
		itemRepo:  itemRepo,
	}
}

// Create creates a new wishlist
func (m *MockWishlistRepository) Create(wishlist *domain.Wishlist) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wishlist.ID = uuid.New()
	now := time.Now()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now
	m.Wishlists[wishlist.ID] = wishlist
	m.BySlug[wishlist.Slug] = wishlist
	return wishlist, nil
}

// GetByID retrieves a live wishlist owned by userID
func (m *MockWishlistRepository) GetByID(userID uuid.UUID, id uuid.UUID) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wishlists[id]
	if !ok || w.UserID != userID || w.IsDeleted {
		return nil, domain.ErrWishlistNotFound
	}
	return w, nil
}

// Get retrieves a live wishlist regardless of owner
func (m *MockWishlistRepository) Get(id uuid.UUID) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wishlists[id]
	if !ok || w.IsDeleted {
		return nil, domain.ErrWishlistNotFound
	}
	return w, nil
}

// GetBySlug retrieves a wishlist by slug, soft-deleted rows included
func (m *MockWishlistRepository) GetBySlug(slug string) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.BySlug[slug]; ok {
		return w, nil
	}
	return nil, domain.ErrWishlistNotFound
}

// SlugExists checks slug uniqueness
func (m *MockWishlistRepository) SlugExists(slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.BySlug[slug]
	return ok, nil
}

// GetAllByUser retrieves a user's live wishlists with item counts
func (m *MockWishlistRepository) GetAllByUser(userID uuid.UUID) ([]*domain.WishlistWithStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.WishlistWithStats
	for _, w := range m.Wishlists {
		if w.UserID != userID || w.IsDeleted {
			continue
		}
		count := 0
		if m.itemRepo != nil {
			n, _ := m.itemRepo.CountByWishlist(w.ID)
			count = int(n)
		}
		result = append(result, &domain.WishlistWithStats{Wishlist: *w, ItemCount: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if result == nil {
		result = []*domain.WishlistWithStats{}
	}
	return result, nil
}

// CountByUser counts a user's live wishlists
func (m *MockWishlistRepository) CountByUser(userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, w := range m.Wishlists {
		if w.UserID == userID && !w.IsDeleted {
			count++
		}
	}
	return count, nil
}

// Update updates a wishlist
func (m *MockWishlistRepository) Update(wishlist *domain.Wishlist) (*domain.Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Wishlists[wishlist.ID]; !ok {
		return nil, domain.ErrWishlistNotFound
	}
	wishlist.UpdatedAt = time.Now()
	m.Wishlists[wishlist.ID] = wishlist
	m.BySlug[wishlist.Slug] = wishlist
	return wishlist, nil
}

// SoftDelete marks a wishlist as deleted
func (m *MockWishlistRepository) SoftDelete(userID uuid.UUID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.Wishlists[id]
	if !ok || w.UserID != userID || w.IsDeleted {
		return domain.ErrWishlistNotFound
	}
	w.IsDeleted = true
	return nil
}

// AddWishlist adds a wishlist to the mock repository (helper for tests)
func (m *MockWishlistRepository) AddWishlist(wishlist *domain.Wishlist) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wishlist.ID == uuid.Nil {
		wishlist.ID = uuid.New()
	}
	m.Wishlists[wishlist.ID] = wishlist
	if wishlist.Slug != "" {
		m.BySlug[wishlist.Slug] = wishlist
	}
}

// MockItemRepository is a mock implementation of domain.ItemRepository.
// Owners maps wishlist id to owner id for owner-scoped lookups.
type MockItemRepository struct {
	mu     sync.Mutex
	Items  map[uuid.UUID]*domain.Item
	Owners map[uuid.UUID]uuid.UUID
}

// NewMockItemRepository creates a new MockItemRepository
func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		Items:  make(map[uuid.UUID]*domain.Item),
		Owners: make(map[uuid.UUID]uuid.UUID),
	}
}

// Create creates a new item
func (m *MockItemRepository) Create(item *domain.Item) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = uuid.New()
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	m.Items[item.ID] = item
	return item, nil
}

// GetByID retrieves a live item
func (m *MockItemRepository) GetByID(id uuid.UUID) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.Items[id]
	if !ok || item.IsDeleted {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// GetAny retrieves an item regardless of its soft-delete flag
func (m *MockItemRepository) GetAny(id uuid.UUID) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.Items[id]; ok {
		return item, nil
	}
	return nil, domain.ErrItemNotFound
}

// GetOwned retrieves a live owned item
func (m *MockItemRepository) GetOwned(userID uuid.UUID, id uuid.UUID) (*domain.Item, error) {
	return m.getOwned(userID, id, false)
}

// GetDeletedOwned retrieves a soft-deleted owned item
func (m *MockItemRepository) GetDeletedOwned(userID uuid.UUID, id uuid.UUID) (*domain.Item, error) {
	return m.getOwned(userID, id, true)
}

// SetOwner records the owner of a wishlist for owner-scoped lookups
func (m *MockItemRepository) SetOwner(wishlistID, userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Owners[wishlistID] = userID
}

func (m *MockItemRepository) getOwned(userID uuid.UUID, id uuid.UUID, deleted bool) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.Items[id]
	if !ok || item.IsDeleted != deleted {
		return nil, domain.ErrItemNotFound
	}
	if owner, known := m.Owners[item.WishlistID]; known && owner != userID {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// ListByWishlist retrieves one page of a wishlist's live items
func (m *MockItemRepository) ListByWishlist(wishlistID uuid.UUID, offset, limit int) ([]*domain.Item, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*domain.Item
	for _, item := range m.Items {
		if item.WishlistID == wishlistID && !item.IsDeleted {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	total := int64(len(items))
	if offset >= len(items) {
		return []*domain.Item{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}

// CountByWishlist counts a wishlist's live items
func (m *MockItemRepository) CountByWishlist(wishlistID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, item := range m.Items {
		if item.WishlistID == wishlistID && !item.IsDeleted {
			count++
		}
	}
	return count, nil
}

// MaxPosition returns the highest position in a wishlist
func (m *MockItemRepository) MaxPosition(wishlistID uuid.UUID) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var max int32
	for _, item := range m.Items {
		if item.WishlistID == wishlistID && item.Position > max {
			max = item.Position
		}
	}
	return max, nil
}

// Update updates an item
func (m *MockItemRepository) Update(item *domain.Item) (*domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Items[item.ID]
	if !ok || existing.IsDeleted {
		return nil, domain.ErrItemNotFound
	}
	item.UpdatedAt = time.Now()
	m.Items[item.ID] = item
	return item, nil
}

// SetDeleted flips the soft-delete flag
func (m *MockItemRepository) SetDeleted(id uuid.UUID, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.Items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	item.IsDeleted = deleted
	return nil
}

// Reorder applies new positions
func (m *MockItemRepository) Reorder(wishlistID uuid.UUID, positions []domain.ItemPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range positions {
		if item, ok := m.Items[p.ID]; ok && item.WishlistID == wishlistID {
			item.Position = p.Position
		}
	}
	return nil
}

// AddItem adds an item to the mock repository (helper for tests)
func (m *MockItemRepository) AddItem(item *domain.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	m.Items[item.ID] = item
}

// MockClaimRepository is a mock implementation of domain.ClaimRepository
type MockClaimRepository struct {
	mu            sync.Mutex
	Reservations  map[uuid.UUID]*domain.Reservation
	Contributions map[uuid.UUID]*domain.Contribution
}

// NewMockClaimRepository creates a new MockClaimRepository
func NewMockClaimRepository() *MockClaimRepository {
	return &MockClaimRepository{
		Reservations:  make(map[uuid.UUID]*domain.Reservation),
		Contributions: make(map[uuid.UUID]*domain.Contribution),
	}
}

// CreateReservation inserts a reservation
func (m *MockClaimRepository) CreateReservation(r *domain.Reservation) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.Reservations[r.ID] = r
	return r, nil
}

// GetReservationByID retrieves a reservation by ID
func (m *MockClaimRepository) GetReservationByID(id uuid.UUID) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Reservations[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReservationNotFound
}

// GetReservationByItem retrieves the reservation on an item
func (m *MockClaimRepository) GetReservationByItem(itemID uuid.UUID) (*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Reservations {
		if r.ItemID == itemID {
			return r, nil
		}
	}
	return nil, domain.ErrReservationNotFound
}

// DeleteReservation deletes a reservation
func (m *MockClaimRepository) DeleteReservation(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Reservations[id]; !ok {
		return domain.ErrReservationNotFound
	}
	delete(m.Reservations, id)
	return nil
}

// UpdateReservationEmail attaches an email to a reservation
func (m *MockClaimRepository) UpdateReservationEmail(id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	r.GuestEmail = &email
	return nil
}

// CreateContribution inserts a contribution
func (m *MockClaimRepository) CreateContribution(c *domain.Contribution) (*domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.Contributions[c.ID] = c
	return c, nil
}

// GetContributionByID retrieves a contribution by ID
func (m *MockClaimRepository) GetContributionByID(id uuid.UUID) (*domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Contributions[id]; ok {
		return c, nil
	}
	return nil, domain.ErrContributionNotFound
}

// ListContributionsByItem retrieves an item's contributions
func (m *MockClaimRepository) ListContributionsByItem(itemID uuid.UUID) ([]*domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contributionsByItem(itemID), nil
}

func (m *MockClaimRepository) contributionsByItem(itemID uuid.UUID) []*domain.Contribution {
	var result []*domain.Contribution
	for _, c := range m.Contributions {
		if c.ItemID == itemID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// SumContributionsByItem sums an item's contributions
func (m *MockClaimRepository) SumContributionsByItem(itemID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, c := range m.Contributions {
		if c.ItemID == itemID {
			sum += c.Amount
		}
	}
	return sum, nil
}

// DeleteContribution deletes a contribution
func (m *MockClaimRepository) DeleteContribution(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Contributions[id]; !ok {
		return domain.ErrContributionNotFound
	}
	delete(m.Contributions, id)
	return nil
}

// UpdateContributionEmail attaches an email to a contribution
func (m *MockClaimRepository) UpdateContributionEmail(id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Contributions[id]
	if !ok {
		return domain.ErrContributionNotFound
	}
	c.GuestEmail = &email
	return nil
}

// ReservationsByItems loads reservations for a set of items
func (m *MockClaimRepository) ReservationsByItems(itemIDs []uuid.UUID) (map[uuid.UUID]*domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[uuid.UUID]*domain.Reservation)
	for _, id := range itemIDs {
		for _, r := range m.Reservations {
			if r.ItemID == id {
				result[id] = r
				break
			}
		}
	}
	return result, nil
}

// ContributionsByItems loads contributions for a set of items
func (m *MockClaimRepository) ContributionsByItems(itemIDs []uuid.UUID) (map[uuid.UUID][]*domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[uuid.UUID][]*domain.Contribution)
	for _, id := range itemIDs {
		if cs := m.contributionsByItem(id); len(cs) > 0 {
			result[id] = cs
		}
	}
	return result, nil
}

// FindGuestTokenByEmail scans claims for a stored guest email. The
// wishlist scoping is approximated by the item ids known to the mock.
func (m *MockClaimRepository) FindGuestTokenByEmail(wishlistID uuid.UUID, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Reservations {
		if r.GuestEmail != nil && *r.GuestEmail == email && r.GuestToken != nil {
			return *r.GuestToken, nil
		}
	}
	for _, c := range m.Contributions {
		if c.GuestEmail != nil && *c.GuestEmail == email && c.GuestToken != nil {
			return *c.GuestToken, nil
		}
	}
	return "", domain.ErrNotFound
}

// MockPublisher records published events for assertions
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
	Closed []uuid.UUID
}

// PublishedEvent is one recorded Publish call
type PublishedEvent struct {
	WishlistID uuid.UUID
	Event      websocket.Event
}

// NewMockPublisher creates a new MockPublisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// Publish records an event
func (m *MockPublisher) Publish(wishlistID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WishlistID: wishlistID, Event: event})
}

// CloseAll records a close-all call
func (m *MockPublisher) CloseAll(wishlistID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = append(m.Closed, wishlistID)
}

// EventTypes returns the recorded event types in publish order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}
