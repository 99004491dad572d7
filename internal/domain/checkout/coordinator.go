package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/checkout-core/internal/domain/coupon"
	"github.com/xenking/checkout-core/internal/domain/customer"
	"github.com/xenking/checkout-core/internal/domain/order"
	"github.com/xenking/checkout-core/internal/domain/wallet"
)

// CommitInput describes the side effects of one successful checkout.
type CommitInput struct {
	Order *order.Order
	// CouponCode is the applied coupon to charge a use against; empty when
	// no coupon was applied.
	CouponCode string
	// WalletDebit is the credit the customer spent on this order.
	WalletDebit decimal.Decimal
	// RewardCredit is the credit earned from this order's total.
	RewardCredit decimal.Decimal
}

// CommitResult reports how completely the commit landed. Degraded means the
// order exists but some secondary bookkeeping did not; Issues lists what.
type CommitResult struct {
	Degraded bool
	Issues   []string
}

// Coordinator makes the side effects of a successful checkout — order
// write, customer upsert, coupon usage, wallet adjustment — behave as one
// logical unit even though the store offers no multi-table transaction
// across them.
//
// The order write goes first because its failure is the least recoverable;
// everything after it is best-effort. By the time the secondary steps run
// the customer has already been charged, so their failures are logged and
// reported as degraded success, never rolled back and never re-presented
// as a checkout failure.
type Coordinator struct {
	orders    order.Repository
	customers customer.Store
	coupons   coupon.Repository
	wallets   wallet.Store
}

// NewCoordinator creates a Coordinator over the given stores.
func NewCoordinator(
	orders order.Repository,
	customers customer.Store,
	coupons coupon.Repository,
	wallets wallet.Store,
) *Coordinator {
	return &Coordinator{
		orders:    orders,
		customers: customers,
		coupons:   coupons,
		wallets:   wallets,
	}
}

// Commit durably records the order and then applies the secondary side
// effects. An error is returned only when the order write itself fails.
func (c *Coordinator) Commit(ctx context.Context, in CommitInput) (CommitResult, error) {
	if err := c.orders.Create(ctx, in.Order); err != nil {
		return CommitResult{}, errors.Wrap(err, "create order")
	}

	lg := zctx.From(ctx).With(zap.String("order_id", in.Order.ID))
	var res CommitResult
	degrade := func(step string, err error) {
		lg.Warn("post-order bookkeeping failed",
			zap.String("step", step), zap.Error(err))
		res.Degraded = true
		res.Issues = append(res.Issues, step)
	}

	if err := c.customers.Upsert(ctx, customer.Profile{
		ID:              in.Order.CustomerID,
		Name:            in.Order.CustomerName,
		Email:           in.Order.Email,
		Phone:           in.Order.Phone,
		ShippingAddress: in.Order.ShippingAddress,
	}); err != nil {
		degrade("customer upsert", err)
	}

	if in.CouponCode != "" {
		if err := c.coupons.IncrementUses(ctx, in.CouponCode); err != nil {
			degrade("coupon usage increment", err)
		}
	}

	// Debit and reward land as one relative adjustment so the balance is
	// only touched here, inside the persistence step — never across the
	// payment await.
	delta := in.RewardCredit.Sub(in.WalletDebit)
	if !delta.IsZero() {
		if err := c.wallets.Adjust(ctx, in.Order.CustomerID, delta); err != nil {
			degrade("wallet adjustment", err)
		}
	}

	return res, nil
}
