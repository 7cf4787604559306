package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// ItemRepository implements domain.ItemRepository using PostgreSQL
type ItemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(pool *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{pool: pool}
}

const itemColumns = "id, wishlist_id, title, url, price, image_url, note, position, is_deleted, created_at, updated_at"

// Create creates a new item
func (r *ItemRepository) Create(item *domain.Item) (*domain.Item, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO wishlist_items (wishlist_id, title, url, price, image_url, note, position)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+itemColumns,
		item.WishlistID, item.Title, item.URL, item.Price, item.ImageURL, item.Note, item.Position)
	return scanItem(row)
}

// GetByID retrieves a live item from any wishlist
func (r *ItemRepository) GetByID(id uuid.UUID) (*domain.Item, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM wishlist_items WHERE id = $1 AND is_deleted = FALSE", id)
	return scanItem(row)
}

// GetAny retrieves an item regardless of its soft-delete flag
func (r *ItemRepository) GetAny(id uuid.UUID) (*domain.Item, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM wishlist_items WHERE id = $1", id)
	return scanItem(row)
}

// GetOwned retrieves a live item belonging to a wishlist owned by userID
func (r *ItemRepository) GetOwned(userID uuid.UUID, id uuid.UUID) (*domain.Item, error) {
	return r.getOwned(userID, id, false)
}

// GetDeletedOwned retrieves a soft-deleted owned item (for restore)
func (r *ItemRepository) GetDeletedOwned(userID uuid.UUID, id uuid.UUID) (*domain.Item, error) {
	return r.getOwned(userID, id, true)
}

func (r *ItemRepository) getOwned(userID uuid.UUID, id uuid.UUID, deleted bool) (*domain.Item, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT i.id, i.wishlist_id, i.title, i.url, i.price, i.image_url, i.note, i.position, i.is_deleted, i.created_at, i.updated_at
		 FROM wishlist_items i
		 JOIN wishlists w ON w.id = i.wishlist_id
		 WHERE i.id = $1 AND w.user_id = $2 AND i.is_deleted = $3 AND w.is_deleted = FALSE`,
		id, userID, deleted)
	return scanItem(row)
}

// ListByWishlist retrieves one page of a wishlist's live items ordered
// by position, plus the total live count
func (r *ItemRepository) ListByWishlist(wishlistID uuid.UUID, offset, limit int) ([]*domain.Item, int64, error) {
	ctx := context.Background()

	total, err := r.CountByWishlist(wishlistID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		"SELECT "+itemColumns+` FROM wishlist_items
		 WHERE wishlist_id = $1 AND is_deleted = FALSE
		 ORDER BY position, created_at
		 OFFSET $2 LIMIT $3`,
		wishlistID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.WishlistID, &item.Title, &item.URL, &item.Price,
			&item.ImageURL, &item.Note, &item.Position, &item.IsDeleted, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &item)
	}
	return items, total, rows.Err()
}

// CountByWishlist counts a wishlist's live items
func (r *ItemRepository) CountByWishlist(wishlistID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var count int64
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM wishlist_items WHERE wishlist_id = $1 AND is_deleted = FALSE", wishlistID).Scan(&count)
	return count, err
}

// MaxPosition returns the highest position in a wishlist, 0 when empty
func (r *ItemRepository) MaxPosition(wishlistID uuid.UUID) (int32, error) {
	ctx := context.Background()
	var max int32
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(MAX(position), 0) FROM wishlist_items WHERE wishlist_id = $1", wishlistID).Scan(&max)
	return max, err
}

// Update updates an item's mutable fields
func (r *ItemRepository) Update(item *domain.Item) (*domain.Item, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE wishlist_items
		 SET title = $2, url = $3, price = $4, image_url = $5, note = $6, updated_at = NOW()
		 WHERE id = $1 AND is_deleted = FALSE
		 RETURNING `+itemColumns,
		item.ID, item.Title, item.URL, item.Price, item.ImageURL, item.Note)
	return scanItem(row)
}

// SetDeleted flips the soft-delete flag
func (r *ItemRepository) SetDeleted(id uuid.UUID, deleted bool) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		"UPDATE wishlist_items SET is_deleted = $2, updated_at = NOW() WHERE id = $1", id, deleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Reorder applies new positions to items of one wishlist in a single
// transaction. Items not in the wishlist are skipped.
func (r *ItemRepository) Reorder(wishlistID uuid.UUID, positions []domain.ItemPosition) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, p := range positions {
		if _, err := tx.Exec(ctx,
			"UPDATE wishlist_items SET position = $3, updated_at = NOW() WHERE id = $1 AND wishlist_id = $2",
			p.ID, wishlistID, p.Position); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	err := row.Scan(&item.ID, &item.WishlistID, &item.Title, &item.URL, &item.Price,
		&item.ImageURL, &item.Note, &item.Position, &item.IsDeleted, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}
