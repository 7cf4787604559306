package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vishlist/vishlist-backend/internal/domain"
)

// ClaimRepository implements domain.ClaimRepository using PostgreSQL.
// The item_reservations table carries a UNIQUE constraint on item_id
// as a backstop for the ledger's one-reservation-per-item rule.
type ClaimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository creates a new ClaimRepository
func NewClaimRepository(pool *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{pool: pool}
}

const reservationColumns = "id, item_id, user_id, guest_name, guest_token, guest_email, created_at"
const contributionColumns = "id, item_id, user_id, guest_name, guest_token, guest_email, amount, created_at"

// CreateReservation inserts a reservation
func (r *ClaimRepository) CreateReservation(res *domain.Reservation) (*domain.Reservation, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO item_reservations (item_id, user_id, guest_name, guest_token, guest_email)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+reservationColumns,
		res.ItemID, res.UserID, res.GuestName, res.GuestToken, res.GuestEmail)
	return scanReservation(row)
}

// GetReservationByID retrieves a reservation by its ID
func (r *ClaimRepository) GetReservationByID(id uuid.UUID) (*domain.Reservation, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+reservationColumns+" FROM item_reservations WHERE id = $1", id)
	return scanReservation(row)
}

// GetReservationByItem retrieves the reservation on an item, if any
func (r *ClaimRepository) GetReservationByItem(itemID uuid.UUID) (*domain.Reservation, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+reservationColumns+" FROM item_reservations WHERE item_id = $1", itemID)
	return scanReservation(row)
}

// DeleteReservation deletes a reservation
func (r *ClaimRepository) DeleteReservation(id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, "DELETE FROM item_reservations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// UpdateReservationEmail attaches a recovery email to a reservation
func (r *ClaimRepository) UpdateReservationEmail(id uuid.UUID, email string) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		"UPDATE item_reservations SET guest_email = $2 WHERE id = $1", id, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// CreateContribution inserts a contribution
func (r *ClaimRepository) CreateContribution(c *domain.Contribution) (*domain.Contribution, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO item_contributions (item_id, user_id, guest_name, guest_token, guest_email, amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+contributionColumns,
		c.ItemID, c.UserID, c.GuestName, c.GuestToken, c.GuestEmail, c.Amount)
	return scanContribution(row)
}

// GetContributionByID retrieves a contribution by its ID
func (r *ClaimRepository) GetContributionByID(id uuid.UUID) (*domain.Contribution, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		"SELECT "+contributionColumns+" FROM item_contributions WHERE id = $1", id)
	return scanContribution(row)
}

// ListContributionsByItem retrieves an item's contributions oldest first
func (r *ClaimRepository) ListContributionsByItem(itemID uuid.UUID) ([]*domain.Contribution, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		"SELECT "+contributionColumns+" FROM item_contributions WHERE item_id = $1 ORDER BY created_at", itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectContributions(rows)
}

// SumContributionsByItem returns the total contributed to an item
func (r *ClaimRepository) SumContributionsByItem(itemID uuid.UUID) (int64, error) {
	ctx := context.Background()
	var sum int64
	err := r.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM item_contributions WHERE item_id = $1", itemID).Scan(&sum)
	return sum, err
}

// DeleteContribution deletes a contribution
func (r *ClaimRepository) DeleteContribution(id uuid.UUID) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, "DELETE FROM item_contributions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContributionNotFound
	}
	return nil
}

// UpdateContributionEmail attaches a recovery email to a contribution
func (r *ClaimRepository) UpdateContributionEmail(id uuid.UUID, email string) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		"UPDATE item_contributions SET guest_email = $2 WHERE id = $1", id, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrContributionNotFound
	}
	return nil
}

// ReservationsByItems loads reservations for a set of items
func (r *ClaimRepository) ReservationsByItems(itemIDs []uuid.UUID) (map[uuid.UUID]*domain.Reservation, error) {
	result := make(map[uuid.UUID]*domain.Reservation)
	if len(itemIDs) == 0 {
		return result, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		"SELECT "+reservationColumns+" FROM item_reservations WHERE item_id = ANY($1)", itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.ItemID, &res.UserID, &res.GuestName, &res.GuestToken, &res.GuestEmail, &res.CreatedAt); err != nil {
			return nil, err
		}
		result[res.ItemID] = &res
	}
	return result, rows.Err()
}

// ContributionsByItems loads contributions for a set of items
func (r *ClaimRepository) ContributionsByItems(itemIDs []uuid.UUID) (map[uuid.UUID][]*domain.Contribution, error) {
	result := make(map[uuid.UUID][]*domain.Contribution)
	if len(itemIDs) == 0 {
		return result, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		"SELECT "+contributionColumns+" FROM item_contributions WHERE item_id = ANY($1) ORDER BY created_at", itemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contributions, err := collectContributions(rows)
	if err != nil {
		return nil, err
	}
	for _, c := range contributions {
		result[c.ItemID] = append(result[c.ItemID], c)
	}
	return result, nil
}

// FindGuestTokenByEmail scans a wishlist's reservations then
// contributions for a stored guest email, returning the guest token of
// the first match
func (r *ClaimRepository) FindGuestTokenByEmail(wishlistID uuid.UUID, email string) (string, error) {
	ctx := context.Background()
	var token *string
	err := r.pool.QueryRow(ctx,
		`SELECT r.guest_token FROM item_reservations r
		 JOIN wishlist_items i ON i.id = r.item_id
		 WHERE i.wishlist_id = $1 AND r.guest_email = $2 AND r.guest_token IS NOT NULL
		 LIMIT 1`,
		wishlistID, email).Scan(&token)
	if err == nil && token != nil {
		return *token, nil
	}
	if err != nil && err != pgx.ErrNoRows {
		return "", err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT c.guest_token FROM item_contributions c
		 JOIN wishlist_items i ON i.id = c.item_id
		 WHERE i.wishlist_id = $1 AND c.guest_email = $2 AND c.guest_token IS NOT NULL
		 LIMIT 1`,
		wishlistID, email).Scan(&token)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	if token == nil {
		return "", domain.ErrNotFound
	}
	return *token, nil
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var res domain.Reservation
	err := row.Scan(&res.ID, &res.ItemID, &res.UserID, &res.GuestName, &res.GuestToken, &res.GuestEmail, &res.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

func scanContribution(row pgx.Row) (*domain.Contribution, error) {
	var c domain.Contribution
	err := row.Scan(&c.ID, &c.ItemID, &c.UserID, &c.GuestName, &c.GuestToken, &c.GuestEmail, &c.Amount, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}
	return &c, nil
}

func collectContributions(rows pgx.Rows) ([]*domain.Contribution, error) {
	var result []*domain.Contribution
	for rows.Next() {
		var c domain.Contribution
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.GuestName, &c.GuestToken, &c.GuestEmail, &c.Amount, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	return result, rows.Err()
}
