// Package pricing computes the discount breakdown that turns a cart
// subtotal into a payable total. It is pure: no I/O, no clocks, no stores.
package pricing

import "github.com/shopspring/decimal"

var (
	zero = decimal.Zero

	// welcomeRate is the first-order discount applied to the original
	// subtotal for eligible customers.
	welcomeRate = decimal.RequireFromString("0.15")

	// rewardRate is the share of the paid total credited back to the
	// customer's wallet once the order is durably persisted.
	rewardRate = decimal.RequireFromString("0.10")
)

// Inputs are the discount sources stacked on top of a subtotal.
//
// CouponDiscount arrives pre-validated (and pre-clamped to the subtotal) by
// the coupon validator; the engine does not recompute coupon rules.
type Inputs struct {
	WelcomeEligible bool
	CouponCode      string
	CouponDiscount  decimal.Decimal
	WalletBalance   decimal.Decimal
	UseWallet       bool
}

// Breakdown is the computed result. It is never persisted on its own.
//
// Invariants:
//   - Total = Subtotal - WelcomeDiscount - CouponDiscount - WalletCredit
//   - every component is >= 0
//   - WelcomeDiscount and CouponDiscount are each computed against the
//     original subtotal and do not compound on each other; only
//     WalletCredit is computed against the subtotal net of the other two.
type Breakdown struct {
	Subtotal        decimal.Decimal
	WelcomeDiscount decimal.Decimal
	CouponCode      string
	CouponDiscount  decimal.Decimal
	WalletCredit    decimal.Decimal
	Total           decimal.Decimal
}

// ComputeTotals derives the full discount breakdown for the given subtotal.
func ComputeTotals(subtotal decimal.Decimal, in Inputs) Breakdown {
	subtotal = floorAtZero(subtotal)

	welcome := zero
	if in.WelcomeEligible {
		welcome = subtotal.Mul(welcomeRate).Round(2)
	}

	coupon := floorAtZero(in.CouponDiscount).Round(2)

	// Wallet credit is clamped to whatever remains after the two
	// independent discounts, and to the available balance.
	remainder := floorAtZero(subtotal.Sub(welcome).Sub(coupon))
	credit := zero
	if in.UseWallet {
		credit = decimal.Min(floorAtZero(in.WalletBalance), remainder).Round(2)
	}

	total := floorAtZero(subtotal.Sub(welcome).Sub(coupon).Sub(credit)).Round(2)

	code := in.CouponCode
	if coupon.IsZero() {
		code = ""
	}

	return Breakdown{
		Subtotal:        subtotal,
		WelcomeDiscount: welcome,
		CouponCode:      code,
		CouponDiscount:  coupon,
		WalletCredit:    credit,
		Total:           total,
	}
}

// RewardCredits returns the wallet credit earned for a paid total, at the
// fixed 10% reward rate.
func RewardCredits(total decimal.Decimal) decimal.Decimal {
	return floorAtZero(total).Mul(rewardRate).Round(2)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
