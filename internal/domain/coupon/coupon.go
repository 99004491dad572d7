package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the cart subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary amount capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

// ErrNotFound is returned by Repository lookups when no active coupon
// matches the given code.
var ErrNotFound = errors.New("coupon not found")

// Coupon defines a discount code's behaviour and eligibility constraints.
// Coupons are created and edited elsewhere; the checkout core treats them as
// read-only except for UsedCount, which is incremented exactly once per
// persisted order that applied the code.
type Coupon struct {
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	MinPurchase  decimal.Decimal // zero means no minimum
	MaxUses      int             // zero means unlimited
	UsedCount    int
	ExpiresAt    *time.Time
	Active       bool
}

// Repository provides lookup and usage tracking for coupons. FindByCode
// matches codes case-insensitively and only returns active coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	IncrementUses(ctx context.Context, code string) error
}
