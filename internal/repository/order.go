package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/checkout-core/internal/domain/cart"
	"github.com/xenking/checkout-core/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, customer_name, email, phone,
		shipping_address, items, subtotal, welcome_discount, coupon_code,
		coupon_discount, wallet_credit, total, payment_method, payment_status,
		payment_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	getOrderSQL = `SELECT id, customer_id, customer_name, email, phone,
		shipping_address, items, subtotal, welcome_discount, coupon_code,
		coupon_discount, wallet_credit, total, payment_method, payment_status,
		payment_ref, status, created_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

// ErrOrderNotFound is returned by Get for an unknown order id.
var ErrOrderNotFound = errors.New("order not found")

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. The primary key on id makes a replayed
// create fail instead of silently writing a second row. Items are
// serialized to JSON for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	bd := o.Breakdown
	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, o.CustomerName, o.Email, o.Phone,
		o.ShippingAddress, itemsJSON, bd.Subtotal, bd.WelcomeDiscount, bd.CouponCode,
		bd.CouponDiscount, bd.WalletCredit, bd.Total, o.PaymentMethod, o.PaymentStatus,
		o.PaymentRef, o.Status, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return nil
}

// Get fetches a persisted order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus moves an order to a new fulfilment status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		itemsJSON     []byte
		paymentMethod string
		paymentStatus string
		status        string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &o.Email, &o.Phone,
		&o.ShippingAddress, &itemsJSON, &o.Breakdown.Subtotal, &o.Breakdown.WelcomeDiscount,
		&o.Breakdown.CouponCode, &o.Breakdown.CouponDiscount, &o.Breakdown.WalletCredit,
		&o.Breakdown.Total, &paymentMethod, &paymentStatus,
		&o.PaymentRef, &status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if o.Items == nil {
		o.Items = []cart.Item{}
	}
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(paymentStatus)
	o.Status = order.Status(status)
	return o, nil
}
