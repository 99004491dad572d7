package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	coupon      *Coupon
	err         error
	lookedUp    string
	incremented string
}

func (m *mockRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.lookedUp = code
	if m.err != nil {
		return nil, m.err
	}
	return m.coupon, nil
}

func (m *mockRepo) IncrementUses(_ context.Context, code string) error {
	m.incremented = code
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestValidator_Validate(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name         string
		repo         *mockRepo
		code         string
		subtotal     decimal.Decimal
		wantValid    bool
		wantDiscount decimal.Decimal
		wantReason   Reason
	}{
		{
			name:       "unknown code",
			repo:       &mockRepo{err: ErrNotFound},
			code:       "BOGUS",
			subtotal:   dec("100"),
			wantReason: ReasonInvalidCode,
		},
		{
			name: "inactive coupon treated as unknown",
			repo: &mockRepo{coupon: &Coupon{
				Code: "OFF", DiscountType: DiscountFixed, Value: dec("5"),
			}},
			code:       "OFF",
			subtotal:   dec("100"),
			wantReason: ReasonInvalidCode,
		},
		{
			name: "expired coupon",
			repo: &mockRepo{coupon: &Coupon{
				Code: "OLD", DiscountType: DiscountPercentage, Value: dec("10"),
				ExpiresAt: &past, Active: true,
			}},
			code:       "OLD",
			subtotal:   dec("100"),
			wantReason: ReasonExpired,
		},
		{
			name: "expired wins over minimum purchase",
			repo: &mockRepo{coupon: &Coupon{
				Code: "OLD", DiscountType: DiscountPercentage, Value: dec("10"),
				ExpiresAt: &past, MinPurchase: dec("150"), Active: true,
			}},
			code:       "OLD",
			subtotal:   dec("50"),
			wantReason: ReasonExpired,
		},
		{
			name: "usage limit reached",
			repo: &mockRepo{coupon: &Coupon{
				Code: "LIMITED", DiscountType: DiscountPercentage, Value: dec("10"),
				MaxUses: 100, UsedCount: 100, Active: true,
			}},
			code:       "LIMITED",
			subtotal:   dec("100"),
			wantReason: ReasonUsageLimit,
		},
		{
			name: "usage limit wins over minimum purchase",
			repo: &mockRepo{coupon: &Coupon{
				Code: "LIMITED", DiscountType: DiscountPercentage, Value: dec("10"),
				MaxUses: 1, UsedCount: 1, MinPurchase: dec("150"), Active: true,
			}},
			code:       "LIMITED",
			subtotal:   dec("50"),
			wantReason: ReasonUsageLimit,
		},
		{
			name: "minimum purchase not met",
			repo: &mockRepo{coupon: &Coupon{
				Code: "BIG", DiscountType: DiscountPercentage, Value: dec("10"),
				MinPurchase: dec("150"), Active: true,
			}},
			code:       "BIG",
			subtotal:   dec("50"),
			wantReason: ReasonMinPurchase,
		},
		{
			name: "percentage discount",
			repo: &mockRepo{coupon: &Coupon{
				Code: "TEN", DiscountType: DiscountPercentage, Value: dec("10"),
				MinPurchase: dec("150"), Active: true,
			}},
			code:         "TEN",
			subtotal:     dec("1000"),
			wantValid:    true,
			wantDiscount: dec("100"),
		},
		{
			name: "fixed discount",
			repo: &mockRepo{coupon: &Coupon{
				Code: "NINE", DiscountType: DiscountFixed, Value: dec("9"), Active: true,
			}},
			code:         "NINE",
			subtotal:     dec("100"),
			wantValid:    true,
			wantDiscount: dec("9"),
		},
		{
			name: "fixed discount clamped to subtotal",
			repo: &mockRepo{coupon: &Coupon{
				Code: "HUGE", DiscountType: DiscountFixed, Value: dec("999"), Active: true,
			}},
			code:         "HUGE",
			subtotal:     dec("40"),
			wantValid:    true,
			wantDiscount: dec("40"),
		},
		{
			name: "unlimited uses always passes the cap",
			repo: &mockRepo{coupon: &Coupon{
				Code: "FOREVER", DiscountType: DiscountFixed, Value: dec("5"),
				MaxUses: 0, UsedCount: 9999, Active: true,
			}},
			code:         "FOREVER",
			subtotal:     dec("100"),
			wantValid:    true,
			wantDiscount: dec("5"),
		},
		{
			name: "not yet expired",
			repo: &mockRepo{coupon: &Coupon{
				Code: "FRESH", DiscountType: DiscountFixed, Value: dec("5"),
				ExpiresAt: &future, Active: true,
			}},
			code:         "FRESH",
			subtotal:     dec("100"),
			wantValid:    true,
			wantDiscount: dec("5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.repo)
			v.now = func() time.Time { return fixedNow }

			got, err := v.Validate(context.Background(), tt.code, tt.subtotal)
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.True(t, tt.wantDiscount.Equal(got.Discount),
					"want %s, got %s", tt.wantDiscount, got.Discount)
			} else {
				assert.Equal(t, tt.wantReason, got.Reason)
			}

			// Validation never touches the usage counter.
			assert.Empty(t, tt.repo.incremented)
		})
	}
}

func TestValidator_NormalizesCode(t *testing.T) {
	repo := &mockRepo{err: ErrNotFound}
	v := NewValidator(repo)

	_, err := v.Validate(context.Background(), "  save10 ", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", repo.lookedUp)
}

func TestValidator_ReturnsStoredCode(t *testing.T) {
	// Bulk-imported codes keep whatever case the drop files carried. The
	// result must echo the stored code, because the usage increment at
	// persistence matches it exactly while lookup is case-insensitive.
	repo := &mockRepo{coupon: &Coupon{
		Code: "summer24a", DiscountType: DiscountPercentage, Value: dec("10"), Active: true,
	}}
	v := NewValidator(repo)

	got, err := v.Validate(context.Background(), "  Summer24A ", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "SUMMER24A", repo.lookedUp)
	assert.Equal(t, "summer24a", got.Code)
}

func TestValidator_StoreFault(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	v := NewValidator(repo)

	_, err := v.Validate(context.Background(), "ANY", decimal.NewFromInt(100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lookup coupon")
}
