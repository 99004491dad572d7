package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name        string
		subtotal    decimal.Decimal
		in          Inputs
		wantWelcome decimal.Decimal
		wantCoupon  decimal.Decimal
		wantCredit  decimal.Decimal
		wantTotal   decimal.Decimal
	}{
		{
			name:        "no discounts",
			subtotal:    dec("100"),
			in:          Inputs{},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("0"),
			wantTotal:   dec("100"),
		},
		{
			name:        "welcome and percentage coupon stack against original subtotal",
			subtotal:    dec("1000"),
			in:          Inputs{WelcomeEligible: true, CouponCode: "TEN", CouponDiscount: dec("100")},
			wantWelcome: dec("150"),
			wantCoupon:  dec("100"),
			wantCredit:  dec("0"),
			wantTotal:   dec("750"),
		},
		{
			name:     "wallet clamped to remainder after other discounts",
			subtotal: dec("1000"),
			in: Inputs{
				WelcomeEligible: true,
				CouponDiscount:  dec("100"),
				WalletBalance:   dec("5000"),
				UseWallet:       true,
			},
			wantWelcome: dec("150"),
			wantCoupon:  dec("100"),
			wantCredit:  dec("750"),
			wantTotal:   dec("0"),
		},
		{
			name:        "wallet clamped to balance",
			subtotal:    dec("500"),
			in:          Inputs{WalletBalance: dec("120"), UseWallet: true},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("120"),
			wantTotal:   dec("380"),
		},
		{
			name:        "wallet covers full subtotal",
			subtotal:    dec("200"),
			in:          Inputs{WalletBalance: dec("500"), UseWallet: true},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("200"),
			wantTotal:   dec("0"),
		},
		{
			name:        "wallet unused when not requested",
			subtotal:    dec("200"),
			in:          Inputs{WalletBalance: dec("500")},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("0"),
			wantTotal:   dec("200"),
		},
		{
			name:        "zero subtotal",
			subtotal:    dec("0"),
			in:          Inputs{WelcomeEligible: true, UseWallet: true, WalletBalance: dec("10")},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("0"),
			wantTotal:   dec("0"),
		},
		{
			name:        "negative coupon input clamped",
			subtotal:    dec("100"),
			in:          Inputs{CouponDiscount: dec("-50")},
			wantWelcome: dec("0"),
			wantCoupon:  dec("0"),
			wantCredit:  dec("0"),
			wantTotal:   dec("100"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.subtotal, tt.in)

			assert.True(t, tt.wantWelcome.Equal(got.WelcomeDiscount),
				"welcome: want %s, got %s", tt.wantWelcome, got.WelcomeDiscount)
			assert.True(t, tt.wantCoupon.Equal(got.CouponDiscount),
				"coupon: want %s, got %s", tt.wantCoupon, got.CouponDiscount)
			assert.True(t, tt.wantCredit.Equal(got.WalletCredit),
				"credit: want %s, got %s", tt.wantCredit, got.WalletCredit)
			assert.True(t, tt.wantTotal.Equal(got.Total),
				"total: want %s, got %s", tt.wantTotal, got.Total)

			// Structural invariants hold for every case.
			reconstructed := got.Subtotal.
				Sub(got.WelcomeDiscount).
				Sub(got.CouponDiscount).
				Sub(got.WalletCredit)
			assert.True(t, got.Total.Equal(reconstructed))
			assert.False(t, got.WelcomeDiscount.IsNegative())
			assert.False(t, got.CouponDiscount.IsNegative())
			assert.False(t, got.WalletCredit.IsNegative())
			assert.False(t, got.Total.IsNegative())
		})
	}
}

func TestComputeTotals_WelcomeIndependentOfCoupon(t *testing.T) {
	subtotal := dec("400")

	without := ComputeTotals(subtotal, Inputs{WelcomeEligible: true})
	with := ComputeTotals(subtotal, Inputs{WelcomeEligible: true, CouponDiscount: dec("80")})

	// The welcome discount is computed against the original subtotal, so a
	// coupon must not change it.
	assert.True(t, without.WelcomeDiscount.Equal(with.WelcomeDiscount))
	assert.True(t, dec("60").Equal(with.WelcomeDiscount))
}

func TestComputeTotals_CouponCodeClearedWhenNoDiscount(t *testing.T) {
	got := ComputeTotals(dec("100"), Inputs{CouponCode: "SAVE", CouponDiscount: dec("0")})
	assert.Empty(t, got.CouponCode)
}

func TestRewardCredits(t *testing.T) {
	assert.True(t, dec("75").Equal(RewardCredits(dec("750"))))
	assert.True(t, dec("0").Equal(RewardCredits(dec("0"))))
	assert.True(t, dec("0").Equal(RewardCredits(dec("-10"))))
}
