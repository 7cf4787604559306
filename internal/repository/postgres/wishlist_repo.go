package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// WishlistRepository implements domain.WishlistRepository using PostgreSQL
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository creates a new WishlistRepository
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

const wishlistColumns = "id, user_id, title, description, slug, emoji, event_date, is_archived, is_deleted, created_at, updated_at"

// Create creates a new wishlist
func (r *WishlistRepository) Create(wishlist *domain.Wishlist) (*domain.Wishlist, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO wishlists (user_id, title, description, slug, emoji, event_date)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+wishlistColumns,
		wishlist.UserID, wishlist.Title, wishlist.Description, wishlist.Slug, wishlist.Emoji, wishlist.EventDate)
	return scanWishlist(row)
}

// GetByID retrieves a live wishlist owned by userID
func (r *WishlistRepository) GetByID(userID uuid.UUID, id uuid.UUID) (*domain.Wishlist, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+wishlistColumns+" FROM wishlists WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE",
		id, userID)
	return scanWishlist(row)
}

// Get retrieves a live wishlist regardless of owner
func (r *WishlistRepository) Get(id uuid.UUID) (*domain.Wishlist, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+wishlistColumns+" FROM wishlists WHERE id = $1 AND is_deleted = FALSE", id)
	return scanWishlist(row)
}

// GetBySlug retrieves a wishlist by slug. Soft-deleted rows are
// returned with IsDeleted set so callers can answer 410 Gone.
func (r *WishlistRepository) GetBySlug(slug string) (*domain.Wishlist, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+wishlistColumns+" FROM wishlists WHERE slug = $1", slug)
	return scanWishlist(row)
}

// SlugExists reports whether a slug is taken (including by deleted
// wishlists, whose links may still circulate)
func (r *WishlistRepository) SlugExists(slug string) (bool, error) {
	ctx := context.Background()
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM wishlists WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// GetAllByUser retrieves a user's live wishlists with item counts,
// active before archived, most recently updated first
func (r *WishlistRepository) GetAllByUser(userID uuid.UUID) ([]*domain.WishlistWithStats, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, w.user_id, w.title, w.description, w.slug, w.emoji, w.event_date,
		        w.is_archived, w.is_deleted, w.created_at, w.updated_at,
		        COUNT(i.id) FILTER (WHERE i.is_deleted = FALSE) AS item_count
		 FROM wishlists w
		 LEFT JOIN wishlist_items i ON i.wishlist_id = w.id
		 WHERE w.user_id = $1 AND w.is_deleted = FALSE
		 GROUP BY w.id
		 ORDER BY w.is_archived, w.updated_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.WishlistWithStats
	for rows.Next() {
		var w domain.WishlistWithStats
		var count int64
		if err := rows.Scan(&w.ID, &w.UserID, &w.Title, &w.Description, &w.Slug, &w.Emoji,
			&w.EventDate, &w.IsArchived, &w.IsDeleted, &w.CreatedAt, &w.UpdatedAt, &count); err != nil {
			return nil, err
		}
		w.ItemCount = int(count)
		result = append(result, &w)
	}
	return result, rows.Err()
}

// CountByUser counts a user's live wishlists
func (r *WishlistRepository) CountByUser(userID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM wishlists WHERE user_id = $1 AND is_deleted = FALSE", userID).Scan(&count)
	return count, err
}

// Update updates a wishlist's mutable fields
func (r *WishlistRepository) Update(wishlist *domain.Wishlist) (*domain.Wishlist, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE wishlists
		 SET title = $3, description = $4, emoji = $5, event_date = $6, is_archived = $7, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE
		 RETURNING `+wishlistColumns,
		wishlist.ID, wishlist.UserID, wishlist.Title, wishlist.Description, wishlist.Emoji,
		wishlist.EventDate, wishlist.IsArchived)
	return scanWishlist(row)
}

// SoftDelete marks a wishlist as deleted
func (r *WishlistRepository) SoftDelete(userID uuid.UUID, id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		"UPDATE wishlists SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND user_id = $2 AND is_deleted = FALSE",
		id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWishlistNotFound
	}
	return nil
}

func scanWishlist(row pgx.Row) (*domain.Wishlist, error) {
	var w domain.Wishlist
	err := row.Scan(&w.ID, &w.UserID, &w.Title, &w.Description, &w.Slug, &w.Emoji,
		&w.EventDate, &w.IsArchived, &w.IsDeleted, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrWishlistNotFound
		}
		return nil, err
	}
	return &w, nil
}
