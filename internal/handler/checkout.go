package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/checkout-core/internal/domain/checkout"
	"github.com/xenking/checkout-core/internal/domain/order"
)

const maxCheckoutBody = 64 << 10

// Checkout handles POST /api/checkout: it runs the full checkout workflow
// and maps the outcome to a response.
//
// Status codes: 400 for validation failures, 402 when the payment gateway
// is unavailable or a capture failed verification, 409 when the order record
// could not be written after a settled payment (the body tells the client
// not to resubmit), 200 otherwise. A user-cancelled payment is a 200 with
// "cancelled": true, because dismissal is an expected outcome.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCheckoutBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	req, err := decodeCheckoutRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
		return
	}

	res, err := h.checkout.Run(r.Context(), req)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, encodeCheckoutResult(res))
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	if errors.Is(err, checkout.ErrCheckoutInProgress) {
		writeError(w, http.StatusConflict, "checkout already in progress for this session")
		return
	}

	var pFault *checkout.PersistenceFault
	if errors.As(err, &pFault) {
		writeError(w, http.StatusConflict,
			"payment succeeded but the order record is delayed; do not submit again, support has been notified")
		return
	}

	var vFail *checkout.VerificationFailure
	if errors.As(err, &vFail) {
		writeError(w, http.StatusPaymentRequired,
			"payment verification failed, please contact support")
		return
	}

	var gFault *checkout.GatewayFault
	if errors.As(err, &gFault) {
		writeError(w, http.StatusPaymentRequired,
			"payment is temporarily unavailable, please try again later")
		return
	}

	internalError(w, r, err)
}

func decodeCheckoutRequest(body []byte) (checkout.Request, error) {
	var req checkout.Request
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "sessionId":
			req.SessionID, err = d.Str()
		case "customerId":
			req.CustomerID, err = d.Str()
		case "customerName":
			req.CustomerName, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		case "phone":
			req.Phone, err = d.Str()
		case "shippingAddress":
			req.ShippingAddress, err = d.Str()
		case "paymentMethod":
			var method string
			method, err = d.Str()
			req.PaymentMethod = order.PaymentMethod(method)
		case "couponCode":
			req.CouponCode, err = d.Str()
		case "useWallet":
			req.UseWallet, err = d.Bool()
		case "welcomeEligible":
			req.WelcomeEligible, err = d.Bool()
		default:
			return d.Skip()
		}
		return err
	})
	return req, err
}

func encodeCheckoutResult(res *checkout.Result) *jx.Encoder {
	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("state", func(e *jx.Encoder) { e.Str(string(res.State)) })
		e.Field("cancelled", func(e *jx.Encoder) {
			e.Bool(res.State == checkout.StateCollecting)
		})
		if res.Order != nil {
			e.Field("order", func(e *jx.Encoder) { encodeOrder(e, res.Order) })
		}
		e.Field("breakdown", func(e *jx.Encoder) {
			encodeBreakdown(e, order.Breakdown(res.Breakdown))
		})
		if res.CouponRejected != "" {
			e.Field("couponRejected", func(e *jx.Encoder) {
				e.Str(string(res.CouponRejected))
			})
		}
		if res.Degraded {
			e.Field("degraded", func(e *jx.Encoder) { e.Bool(true) })
		}
		e.Field("messages", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, msg := range res.Messages {
					e.Str(msg)
				}
			})
		})
	})
	return e
}
