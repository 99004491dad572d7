package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store gives access to the single numeric credit balance each customer has.
//
// Adjust applies a relative delta so that debit and reward can be combined
// into one store call inside the persistence step; the balance must never be
// read before a payment await and written after it.
type Store interface {
	Balance(ctx context.Context, customerID string) (decimal.Decimal, error)
	Adjust(ctx context.Context, customerID string, delta decimal.Decimal) error
}
