package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is a single cart line captured at checkout start.
type Item struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Snapshot is an immutable copy of a customer's cart, taken when checkout
// begins. The checkout core only reads it; mutation belongs to the cart
// collaborator.
type Snapshot struct {
	CustomerID string
	Items      []Item
}

// Subtotal returns the sum of unit price times quantity across all lines.
func (s Snapshot) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// Empty reports whether the snapshot has no lines.
func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Source supplies cart snapshots and accepts the clear-cart signal fired
// after a checkout succeeds.
type Source interface {
	Snapshot(ctx context.Context, customerID string) (Snapshot, error)
	Clear(ctx context.Context, customerID string) error
}
