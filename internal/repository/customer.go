package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-core/internal/domain/customer"
)

const upsertCustomerSQL = `INSERT INTO customers (id, name, email, phone, shipping_address, updated_at)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		shipping_address = EXCLUDED.shipping_address,
		updated_at = now()`

var _ customer.Store = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Store backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Upsert writes the customer's latest contact details.
func (r *CustomerRepository) Upsert(ctx context.Context, p customer.Profile) error {
	_, err := r.pool.Exec(ctx, upsertCustomerSQL,
		p.ID, p.Name, p.Email, p.Phone, p.ShippingAddress,
	)
	if err != nil {
		return fmt.Errorf("upserting customer %q: %w", p.ID, err)
	}
	return nil
}
