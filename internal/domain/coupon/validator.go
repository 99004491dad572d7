package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Reason explains why a coupon was rejected.
type Reason string

const (
	ReasonInvalidCode Reason = "invalid code"
	ReasonExpired     Reason = "expired"
	ReasonUsageLimit  Reason = "usage limit reached"
	ReasonMinPurchase Reason = "minimum purchase not met"
)

// Result is the outcome of validating a coupon against a cart subtotal.
// Rejection is an expected outcome, not an error: the error return of
// Validate is reserved for store faults.
type Result struct {
	Valid    bool
	Code     string // the coupon's stored code, as the repository knows it
	Discount decimal.Decimal
	Reason   Reason
}

// Validator checks coupon eligibility and computes the discount a coupon
// yields for a given subtotal. It never mutates usage counters; usage is
// committed by the persistence coordinator once the order exists.
type Validator struct {
	repo Repository
	now  func() time.Time
}

// NewValidator creates a Validator backed by the given Repository.
func NewValidator(repo Repository) *Validator {
	return &Validator{repo: repo, now: time.Now}
}

var hundred = decimal.NewFromInt(100)

// Validate looks up the coupon for code and evaluates eligibility checks in
// a fixed short-circuit order: not found, expired, usage limit, minimum
// purchase. The first failing check wins. On success the discount is
// computed from the rule and clamped to the subtotal.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	c, err := v.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected(ReasonInvalidCode), nil
		}
		return Result{}, errors.Wrap(err, "lookup coupon")
	}
	if !c.Active {
		return rejected(ReasonInvalidCode), nil
	}

	if c.ExpiresAt != nil && v.now().After(*c.ExpiresAt) {
		return rejected(ReasonExpired), nil
	}

	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return rejected(ReasonUsageLimit), nil
	}

	if c.MinPurchase.IsPositive() && subtotal.LessThan(c.MinPurchase) {
		return rejected(ReasonMinPurchase), nil
	}

	// Return the stored code, not the normalized submission: lookup is
	// case-insensitive but the usage increment at persistence matches the
	// stored code exactly.
	return Result{Valid: true, Code: c.Code, Discount: discountFor(c, subtotal)}, nil
}

// discountFor computes the monetary discount for a valid coupon, clamped to
// the subtotal so it can never exceed what the cart is worth.
func discountFor(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case DiscountFixed:
		amount = c.Value
	default:
		return decimal.Zero
	}

	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

func rejected(reason Reason) Result {
	return Result{Valid: false, Reason: reason}
}
