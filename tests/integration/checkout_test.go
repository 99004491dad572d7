//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The seed fixtures give demo-customer a 1000.00 cart (2x400 + 200), a
// 150.00 wallet balance, and a set of coupons including TENOFF (10%) and
// the expired OLDTIMES.

func TestCouponPreview(t *testing.T) {
	resp := doGet(t, "/api/coupons/tenoff?subtotal=1000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	preview := decodeJSON[couponPreviewResponse](t, resp)
	if !preview.Valid {
		t.Fatalf("expected TENOFF to be valid, got reason %q", preview.Reason)
	}
	if preview.Code != "TENOFF" {
		t.Errorf("code: got %q, want TENOFF", preview.Code)
	}
	if preview.Discount != 100 {
		t.Errorf("discount: got %v, want 100", preview.Discount)
	}
}

func TestCouponPreview_Expired(t *testing.T) {
	resp := doGet(t, "/api/coupons/OLDTIMES?subtotal=1000")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	preview := decodeJSON[couponPreviewResponse](t, resp)
	if preview.Valid {
		t.Fatal("expected OLDTIMES to be rejected")
	}
	if preview.Reason != "expired" {
		t.Errorf("reason: got %q, want expired", preview.Reason)
	}
}

func TestCheckout_Validation(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		CustomerID:    "demo-customer",
		CustomerName:  "Demo",
		PaymentMethod: "cash_on_delivery",
		// ShippingAddress missing.
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	errResp := decodeJSON[errorResponse](t, resp)
	if errResp.Message == "" {
		t.Error("expected error message")
	}
}

// TestCheckout_FullFlow exercises the happy path end to end: coupon plus
// wallet credit on a cash-on-delivery order, order retrieval, and the
// empty-cart rejection of an immediate second attempt.
func TestCheckout_FullFlow(t *testing.T) {
	resp := doPost(t, "/api/checkout", checkoutRequest{
		CustomerID:      "demo-customer",
		CustomerName:    "Demo Customer",
		Email:           "demo@example.com",
		ShippingAddress: "42 Integration Way",
		PaymentMethod:   "cash_on_delivery",
		CouponCode:      "tenoff",
		UseWallet:       true,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	res := decodeJSON[checkoutResponse](t, resp)
	if res.State != "succeeded" {
		t.Fatalf("state: got %q, want succeeded (messages: %v)", res.State, res.Messages)
	}
	if res.Order == nil {
		t.Fatal("expected order in response")
	}

	bd := res.Breakdown
	if bd.Subtotal != 1000 {
		t.Errorf("subtotal: got %v, want 1000", bd.Subtotal)
	}
	if bd.CouponDiscount != 100 {
		t.Errorf("coupon discount: got %v, want 100", bd.CouponDiscount)
	}
	if bd.WalletCredit != 150 {
		t.Errorf("wallet credit: got %v, want 150", bd.WalletCredit)
	}
	if bd.Total != 750 {
		t.Errorf("total: got %v, want 750", bd.Total)
	}
	if res.Order.PaymentStatus != "pending" {
		t.Errorf("payment status: got %q, want pending", res.Order.PaymentStatus)
	}

	// The order is retrievable by id.
	getResp := doGet(t, "/api/orders/"+res.Order.ID)
	defer getResp.Body.Close()

	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", getResp.StatusCode)
	}
	fetched := decodeJSON[orderResponse](t, getResp)
	if fetched.ID != res.Order.ID {
		t.Errorf("fetched order id: got %q, want %q", fetched.ID, res.Order.ID)
	}
	if fetched.Breakdown.Total != 750 {
		t.Errorf("fetched total: got %v, want 750", fetched.Breakdown.Total)
	}
	if len(fetched.Items) != 2 {
		t.Errorf("fetched items: got %d, want 2", len(fetched.Items))
	}

	// The cart was cleared, so an immediate retry has nothing to buy.
	retry := doPost(t, "/api/checkout", checkoutRequest{
		CustomerID:      "demo-customer",
		CustomerName:    "Demo Customer",
		ShippingAddress: "42 Integration Way",
		PaymentMethod:   "cash_on_delivery",
	})
	defer retry.Body.Close()

	if retry.StatusCode != http.StatusBadRequest {
		t.Errorf("retry with empty cart: expected 400, got %d", retry.StatusCode)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	resp := doGet(t, "/api/orders/ORD-DOESNOTEXIST")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
