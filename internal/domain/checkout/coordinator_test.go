package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/checkout-core/internal/domain/coupon"
	"github.com/xenking/checkout-core/internal/domain/customer"
	"github.com/xenking/checkout-core/internal/domain/order"
)

type mockOrderRepo struct {
	created   *order.Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, _ string) (*order.Order, error) {
	return m.created, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ string, _ order.Status) error {
	return nil
}

type mockCustomerStore struct {
	upserted  *customer.Profile
	upsertErr error
}

func (m *mockCustomerStore) Upsert(_ context.Context, p customer.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = &p
	return nil
}

type mockCouponRepo struct {
	incremented  string
	incrementErr error
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	panic("not used in coordinator tests")
}

func (m *mockCouponRepo) IncrementUses(_ context.Context, code string) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	m.incremented = code
	return nil
}

type mockWalletStore struct {
	balance   decimal.Decimal
	adjusted  []decimal.Decimal
	adjustErr error
}

func (m *mockWalletStore) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	return m.balance, nil
}

func (m *mockWalletStore) Adjust(_ context.Context, _ string, delta decimal.Decimal) error {
	if m.adjustErr != nil {
		return m.adjustErr
	}
	m.adjusted = append(m.adjusted, delta)
	return nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:              "ORD-TEST",
		CustomerID:      "cust-1",
		CustomerName:    "Ada",
		Email:           "ada@example.com",
		ShippingAddress: "1 Test Lane",
		PaymentMethod:   order.MethodOnline,
		PaymentStatus:   order.PaymentCompleted,
		Status:          order.StatusPlaced,
	}
}

func TestCoordinator_Commit(t *testing.T) {
	orders := &mockOrderRepo{}
	customers := &mockCustomerStore{}
	coupons := &mockCouponRepo{}
	wallets := &mockWalletStore{}
	c := NewCoordinator(orders, customers, coupons, wallets)

	res, err := c.Commit(context.Background(), CommitInput{
		Order:        testOrder(),
		CouponCode:   "TEN",
		WalletDebit:  decimal.NewFromInt(50),
		RewardCredit: decimal.NewFromInt(75),
	})

	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, res.Issues)

	require.NotNil(t, orders.created)
	require.NotNil(t, customers.upserted)
	assert.Equal(t, "cust-1", customers.upserted.ID)
	assert.Equal(t, "TEN", coupons.incremented)

	// Debit and reward collapse into one relative adjustment.
	require.Len(t, wallets.adjusted, 1)
	assert.True(t, decimal.NewFromInt(25).Equal(wallets.adjusted[0]),
		"want +25, got %s", wallets.adjusted[0])
}

func TestCoordinator_OrderWriteFailureIsHard(t *testing.T) {
	orders := &mockOrderRepo{createErr: errors.New("disk full")}
	customers := &mockCustomerStore{}
	coupons := &mockCouponRepo{}
	wallets := &mockWalletStore{}
	c := NewCoordinator(orders, customers, coupons, wallets)

	_, err := c.Commit(context.Background(), CommitInput{
		Order:      testOrder(),
		CouponCode: "TEN",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")

	// Nothing downstream runs when the order write fails.
	assert.Nil(t, customers.upserted)
	assert.Empty(t, coupons.incremented)
	assert.Empty(t, wallets.adjusted)
}

func TestCoordinator_SecondaryFailuresDegrade(t *testing.T) {
	orders := &mockOrderRepo{}
	customers := &mockCustomerStore{upsertErr: errors.New("timeout")}
	coupons := &mockCouponRepo{incrementErr: errors.New("timeout")}
	wallets := &mockWalletStore{adjustErr: errors.New("timeout")}
	c := NewCoordinator(orders, customers, coupons, wallets)

	res, err := c.Commit(context.Background(), CommitInput{
		Order:        testOrder(),
		CouponCode:   "TEN",
		RewardCredit: decimal.NewFromInt(10),
	})

	// The order exists; the rest is degraded success, not failure.
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t,
		[]string{"customer upsert", "coupon usage increment", "wallet adjustment"},
		res.Issues)
	require.NotNil(t, orders.created)
}

func TestCoordinator_SkipsWhatDoesNotApply(t *testing.T) {
	orders := &mockOrderRepo{}
	customers := &mockCustomerStore{}
	coupons := &mockCouponRepo{}
	wallets := &mockWalletStore{}
	c := NewCoordinator(orders, customers, coupons, wallets)

	// No coupon, no wallet movement.
	res, err := c.Commit(context.Background(), CommitInput{Order: testOrder()})

	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Empty(t, coupons.incremented)
	assert.Empty(t, wallets.adjusted)
}
