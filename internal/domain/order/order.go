package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-core/internal/domain/cart"
)

// PaymentMethod selects how an order is paid.
type PaymentMethod string

const (
	MethodOnline         PaymentMethod = "online"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// PaymentStatus describes how far payment has progressed for an order.
type PaymentStatus string

const (
	// PaymentCompleted means the gateway settled the charge.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentPending is used for cash-on-delivery orders.
	PaymentPending PaymentStatus = "pending"
	// PaymentByCredit means discounts and wallet credit covered the full
	// total, so no gateway charge was made.
	PaymentByCredit PaymentStatus = "completed_by_credit"
)

// Status is the fulfilment status of a persisted order.
type Status string

const (
	StatusPlaced Status = "placed"
)

// Breakdown records how the payable total was derived from the cart
// subtotal. It is computed by the pricing engine and stored verbatim with
// the order. All components are non-negative and
// Total = Subtotal - WelcomeDiscount - CouponDiscount - WalletCredit.
type Breakdown struct {
	Subtotal        decimal.Decimal
	WelcomeDiscount decimal.Decimal
	CouponCode      string
	CouponDiscount  decimal.Decimal
	WalletCredit    decimal.Decimal
	Total           decimal.Decimal
}

// Order is the durable record of a finalized checkout. It is created exactly
// once, after payment is verified or deliberately bypassed. The ID is minted
// before payment starts so it can act as an idempotency key across retries.
type Order struct {
	ID              string
	CustomerID      string
	CustomerName    string
	Email           string
	Phone           string
	ShippingAddress string
	Items           []cart.Item
	Breakdown       Breakdown
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	PaymentRef      string
	Status          Status
	CreatedAt       time.Time
}

// Repository defines persistence operations for orders. Create must insert
// exactly one row per order ID; a replay of the same ID is an error, never a
// silent second write.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
