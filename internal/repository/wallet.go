package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-core/internal/domain/wallet"
)

const (
	getWalletBalanceSQL = `SELECT balance FROM wallets WHERE customer_id = $1`

	// The CHECK (balance >= 0) constraint makes an over-debit fail the
	// statement instead of leaving a negative balance.
	adjustWalletSQL = `INSERT INTO wallets (customer_id, balance, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (customer_id) DO UPDATE SET
			balance = wallets.balance + EXCLUDED.balance,
			updated_at = now()`
)

var _ wallet.Store = (*WalletRepository)(nil)

// WalletRepository implements wallet.Store backed by PostgreSQL.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository returns a WalletRepository that uses the given pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

// Balance reads the customer's credit balance. A customer without a wallet
// row has a zero balance.
func (r *WalletRepository) Balance(ctx context.Context, customerID string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, getWalletBalanceSQL, customerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("reading wallet of customer %q: %w", customerID, err)
	}
	return balance, nil
}

// Adjust applies a relative balance change, creating the wallet row on
// first use.
func (r *WalletRepository) Adjust(ctx context.Context, customerID string, delta decimal.Decimal) error {
	_, err := r.pool.Exec(ctx, adjustWalletSQL, customerID, delta)
	if err != nil {
		return fmt.Errorf("adjusting wallet of customer %q: %w", customerID, err)
	}
	return nil
}
