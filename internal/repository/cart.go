package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-core/internal/domain/cart"
)

const (
	getCartSQL   = `SELECT items FROM carts WHERE customer_id = $1`
	clearCartSQL = `DELETE FROM carts WHERE customer_id = $1`
)

var _ cart.Source = (*CartRepository)(nil)

// CartRepository implements cart.Source backed by PostgreSQL. A missing
// row reads as an empty cart.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Snapshot reads the customer's current cart contents.
func (r *CartRepository) Snapshot(ctx context.Context, customerID string) (cart.Snapshot, error) {
	snap := cart.Snapshot{CustomerID: customerID}

	var itemsJSON []byte
	err := r.pool.QueryRow(ctx, getCartSQL, customerID).Scan(&itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, nil
		}
		return snap, fmt.Errorf("reading cart of customer %q: %w", customerID, err)
	}

	if err := json.Unmarshal(itemsJSON, &snap.Items); err != nil {
		return snap, fmt.Errorf("unmarshaling cart of customer %q: %w", customerID, err)
	}
	return snap, nil
}

// Clear empties the customer's cart after a successful checkout.
func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, customerID)
	if err != nil {
		return fmt.Errorf("clearing cart of customer %q: %w", customerID, err)
	}
	return nil
}
