package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// PreviewCoupon handles GET /api/coupons/{code}?subtotal=: it reports
// whether the code would apply to a checkout with the given subtotal and
// what it would be worth. It never consumes a use.
func (h *Handler) PreviewCoupon(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	subtotal := decimal.Zero
	if raw := r.URL.Query().Get("subtotal"); raw != "" {
		var err error
		subtotal, err = decimal.NewFromString(raw)
		if err != nil || subtotal.IsNegative() {
			writeError(w, http.StatusBadRequest, "invalid subtotal")
			return
		}
	}

	res, err := h.coupons.Validate(r.Context(), code, subtotal)
	if err != nil {
		internalError(w, r, err)
		return
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("valid", func(e *jx.Encoder) { e.Bool(res.Valid) })
		if res.Valid {
			e.Field("code", func(e *jx.Encoder) { e.Str(res.Code) })
			e.Field("discount", func(e *jx.Encoder) { e.Float64(res.Discount.InexactFloat64()) })
		} else {
			e.Field("reason", func(e *jx.Encoder) { e.Str(string(res.Reason)) })
		}
	})
	writeJSON(w, http.StatusOK, e)
}
