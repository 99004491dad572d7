// Package handler exposes the checkout subsystem over HTTP. Request and
// response bodies are encoded with go-faster/jx; domain errors are mapped
// to status codes in one place per endpoint.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/checkout-core/internal/domain/checkout"
	"github.com/xenking/checkout-core/internal/domain/coupon"
	"github.com/xenking/checkout-core/internal/domain/order"
)

// CheckoutRunner runs one checkout attempt.
type CheckoutRunner interface {
	Run(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// CouponChecker previews a coupon against a subtotal.
type CouponChecker interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (coupon.Result, error)
}

// OrderGetter fetches a persisted order.
type OrderGetter interface {
	Get(ctx context.Context, id string) (*order.Order, error)
}

// Handler serves the checkout API.
type Handler struct {
	checkout CheckoutRunner
	coupons  CouponChecker
	orders   OrderGetter
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(checkoutRunner CheckoutRunner, coupons CouponChecker, orders OrderGetter) *Handler {
	return &Handler{
		checkout: checkoutRunner,
		coupons:  coupons,
		orders:   orders,
	}
}

// Register mounts the API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/coupons/{code}", h.PreviewCoupon)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	writeJSON(w, status, e)
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
