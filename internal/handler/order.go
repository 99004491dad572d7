package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/checkout-core/internal/domain/order"
	"github.com/xenking/checkout-core/internal/repository"
)

// GetOrder handles GET /api/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	encodeOrder(e, o)
	writeJSON(w, http.StatusOK, e)
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("customerName", func(e *jx.Encoder) { e.Str(o.CustomerName) })
		e.Field("email", func(e *jx.Encoder) { e.Str(o.Email) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(o.Phone) })
		e.Field("shippingAddress", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(item.ProductID) })
						if item.VariantID != "" {
							e.Field("variantId", func(e *jx.Encoder) { e.Str(item.VariantID) })
						}
						e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Float64(item.UnitPrice.InexactFloat64()) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
					})
				}
			})
		})
		e.Field("breakdown", func(e *jx.Encoder) { encodeBreakdown(e, o.Breakdown) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(string(o.PaymentMethod)) })
		e.Field("paymentStatus", func(e *jx.Encoder) { e.Str(string(o.PaymentStatus)) })
		if o.PaymentRef != "" {
			e.Field("paymentRef", func(e *jx.Encoder) { e.Str(o.PaymentRef) })
		}
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
	})
}

func encodeBreakdown(e *jx.Encoder, bd order.Breakdown) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("subtotal", func(e *jx.Encoder) { e.Float64(bd.Subtotal.InexactFloat64()) })
		e.Field("welcomeDiscount", func(e *jx.Encoder) { e.Float64(bd.WelcomeDiscount.InexactFloat64()) })
		if bd.CouponCode != "" {
			e.Field("couponCode", func(e *jx.Encoder) { e.Str(bd.CouponCode) })
		}
		e.Field("couponDiscount", func(e *jx.Encoder) { e.Float64(bd.CouponDiscount.InexactFloat64()) })
		e.Field("walletCredit", func(e *jx.Encoder) { e.Float64(bd.WalletCredit.InexactFloat64()) })
		e.Field("total", func(e *jx.Encoder) { e.Float64(bd.Total.InexactFloat64()) })
	})
}
