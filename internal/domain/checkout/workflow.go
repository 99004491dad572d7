package checkout

import (
	"context"
	"encoding/base32"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/checkout-core/internal/domain/cart"
	"github.com/xenking/checkout-core/internal/domain/coupon"
	"github.com/xenking/checkout-core/internal/domain/order"
	"github.com/xenking/checkout-core/internal/domain/payment"
	"github.com/xenking/checkout-core/internal/domain/pricing"
	"github.com/xenking/checkout-core/internal/domain/wallet"
	"github.com/xenking/checkout-core/internal/notify"
)

// State names the phases of a checkout attempt.
type State string

const (
	StateCollecting State = "collecting"
	StateSubmitting State = "submitting"
	StatePaying     State = "paying"
	StatePersisting State = "persisting"
	StateSucceeded  State = "succeeded"
	StateAborted    State = "aborted"
)

// Request carries everything collected from the user before submission.
type Request struct {
	// SessionID scopes the single-flight guard; defaults to CustomerID.
	SessionID       string
	CustomerID      string
	CustomerName    string
	Email           string
	Phone           string
	ShippingAddress string
	PaymentMethod   order.PaymentMethod
	CouponCode      string
	UseWallet       bool
	// WelcomeEligible is decided by the surrounding system (first-order
	// promotion); the workflow only applies it.
	WelcomeEligible bool
}

// Result is the terminal outcome of a workflow run that did not error.
// State is StateSucceeded for a persisted order, or StateCollecting when
// the user dismissed the payment UI and may simply retry — cart and form
// state are preserved and no order was created.
type Result struct {
	State          State
	Order          *order.Order
	Breakdown      pricing.Breakdown
	CouponRejected coupon.Reason // set when a code was submitted but rejected
	Messages       []string
	Degraded       bool
}

// Initiator runs one gateway payment attempt.
type Initiator interface {
	Initiate(ctx context.Context, req payment.Request) payment.Outcome
}

// Committer records a finalized order and its side effects.
type Committer interface {
	Commit(ctx context.Context, in CommitInput) (CommitResult, error)
}

// CouponChecker validates a coupon code against a subtotal.
type CouponChecker interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (coupon.Result, error)
}

// Config holds workflow tuning.
type Config struct {
	// Currency for gateway charges.
	Currency string
	// PersistTimeout bounds the post-payment persistence call. It is NOT
	// applied while the gateway UI is open: the user owns that wait, and
	// cancelling a presented payment from a timer is never correct.
	PersistTimeout time.Duration
}

// Deps are the collaborators a Workflow drives.
type Deps struct {
	Carts     cart.Source
	Coupons   CouponChecker
	Wallets   wallet.Store
	Payments  Initiator
	Committer Committer
	Notifier  notify.Notifier
	Mailer    notify.Mailer
	// Meter provides the operator-visible persistence-fault counter.
	// Optional; nil uses a no-op meter.
	Meter metric.Meter
}

// Workflow is the top-level checkout orchestrator: pricing, then payment
// when the total requires it, then persistence, mapping every outcome to
// user-facing messaging.
//
// It is single-flight per session: while an attempt is paying or
// persisting, a second submission for the same session is refused. A
// session that hit a persistence fault after a settled payment stays
// blocked, because resubmitting would charge the customer again.
type Workflow struct {
	cfg  Config
	deps Deps

	now        func() time.Time
	newOrderID func() string

	persistFaults metric.Int64Counter

	mu       sync.Mutex
	inflight map[string]struct{}
	faulted  map[string]*PersistenceFault
}

// NewWorkflow wires a Workflow from its collaborators.
func NewWorkflow(cfg Config, deps Deps) (*Workflow, error) {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 30 * time.Second
	}
	if deps.Meter == nil {
		deps.Meter = noop.Meter{}
	}

	faults, err := deps.Meter.Int64Counter("checkout.persistence_faults",
		metric.WithDescription("orders not recorded after a settled payment"))
	if err != nil {
		return nil, errors.Wrap(err, "create persistence fault counter")
	}

	return &Workflow{
		cfg:           cfg,
		deps:          deps,
		now:           time.Now,
		newOrderID:    newOrderID,
		persistFaults: faults,
		inflight:      make(map[string]struct{}),
		faulted:       make(map[string]*PersistenceFault),
	}, nil
}

var orderIDEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newOrderID mints a human-readable, collision-improbable order id. The
// full 128 random bits of a UUID survive the encoding, and the id doubles
// as the idempotency key the order table's primary key enforces.
func newOrderID() string {
	id := uuid.New()
	return "ORD-" + orderIDEncoding.EncodeToString(id[:])
}

// Run executes one checkout attempt end to end.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.CustomerID
	}
	if err := w.acquire(sessionID); err != nil {
		return nil, err
	}
	defer w.release(sessionID)

	res := &Result{State: StateSubmitting}
	say := func(msg string) {
		res.Messages = append(res.Messages, msg)
		w.deps.Notifier.Notify(ctx, msg)
	}

	snap, err := w.deps.Carts.Snapshot(ctx, req.CustomerID)
	if err != nil {
		return nil, errors.Wrap(err, "cart snapshot")
	}
	if snap.Empty() {
		return nil, &ValidationError{Field: "cart"}
	}
	subtotal := snap.Subtotal()

	orderID := w.newOrderID()
	lg := zctx.From(ctx).With(
		zap.String("order_id", orderID),
		zap.String("customer_id", req.CustomerID),
	)

	// Coupon rejection is not a dead end: the checkout proceeds with no
	// coupon discount and tells the user why.
	var couponDiscount decimal.Decimal
	var appliedCode string
	if req.CouponCode != "" {
		cres, err := w.deps.Coupons.Validate(ctx, req.CouponCode, subtotal)
		if err != nil {
			return nil, errors.Wrap(err, "validate coupon")
		}
		if cres.Valid {
			couponDiscount = cres.Discount
			appliedCode = cres.Code
		} else {
			res.CouponRejected = cres.Reason
			say("coupon not applied: " + string(cres.Reason))
		}
	}

	var walletBalance decimal.Decimal
	if req.UseWallet {
		walletBalance, err = w.deps.Wallets.Balance(ctx, req.CustomerID)
		if err != nil {
			return nil, errors.Wrap(err, "read wallet balance")
		}
	}

	bd := pricing.ComputeTotals(subtotal, pricing.Inputs{
		WelcomeEligible: req.WelcomeEligible,
		CouponCode:      appliedCode,
		CouponDiscount:  couponDiscount,
		WalletBalance:   walletBalance,
		UseWallet:       req.UseWallet,
	})
	res.Breakdown = bd
	if bd.CouponCode == "" {
		appliedCode = ""
	}

	paymentStatus := order.PaymentPending
	paymentRef := ""
	settled := false

	switch {
	case req.PaymentMethod == order.MethodCashOnDelivery:
		paymentStatus = order.PaymentPending
	case bd.Total.IsZero():
		// Fully covered by discounts and wallet credit; no gateway round.
		paymentStatus = order.PaymentByCredit
	default:
		res.State = StatePaying
		lg.Info("initiating payment", zap.String("total", bd.Total.String()))

		// The gateway wait runs on the session context, not a watchdog:
		// the user is mid-interaction and owns this duration.
		out := w.deps.Payments.Initiate(ctx, payment.Request{
			OrderID:       orderID,
			Amount:        bd.Total,
			Currency:      w.cfg.Currency,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.Email,
			CustomerPhone: req.Phone,
		})

		switch out.Status {
		case payment.StatusSettled:
			paymentStatus = order.PaymentCompleted
			paymentRef = out.PaymentRef
			settled = true

		case payment.StatusCancelled:
			say("payment cancelled, you may retry")
			res.State = StateCollecting
			return res, nil

		case payment.StatusVerificationFailed:
			say("payment verification failed, please contact support")
			res.State = StateAborted
			return res, &VerificationFailure{OrderID: orderID, PaymentRef: out.PaymentRef}

		default: // payment.StatusScriptLoadFailed
			say("payment is temporarily unavailable, please try again later")
			res.State = StateAborted
			return res, &GatewayFault{Err: out.Fault}
		}
	}

	res.State = StatePersisting
	o := &order.Order{
		ID:              orderID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		Email:           req.Email,
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		Items:           snap.Items,
		Breakdown: order.Breakdown{
			Subtotal:        bd.Subtotal,
			WelcomeDiscount: bd.WelcomeDiscount,
			CouponCode:      bd.CouponCode,
			CouponDiscount:  bd.CouponDiscount,
			WalletCredit:    bd.WalletCredit,
			Total:           bd.Total,
		},
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatus,
		PaymentRef:    paymentRef,
		Status:        order.StatusPlaced,
		CreatedAt:     w.now(),
	}

	// The watchdog guards a hung persistence call. It starts here, after
	// payment, so time the user spent in the gateway UI cannot eat it.
	persistCtx, cancel := context.WithTimeout(ctx, w.cfg.PersistTimeout)
	defer cancel()

	commit, err := w.deps.Committer.Commit(persistCtx, CommitInput{
		Order:        o,
		CouponCode:   appliedCode,
		WalletDebit:  bd.WalletCredit,
		RewardCredit: pricing.RewardCredits(bd.Total),
	})
	if err != nil {
		if settled {
			fault := &PersistenceFault{OrderID: orderID, PaymentRef: paymentRef, Err: err}
			w.markFaulted(sessionID, fault)
			w.persistFaults.Add(ctx, 1)
			lg.Error("order not recorded after settled payment",
				zap.String("payment_ref", paymentRef),
				zap.Error(err))
			say("your payment succeeded but the order record is delayed — do not submit again, support has been notified")
			res.State = StateAborted
			return res, fault
		}
		// No money moved; this is an ordinary storage failure the user may
		// retry.
		return nil, errors.Wrap(err, "persist order")
	}
	if commit.Degraded {
		res.Degraded = true
		lg.Warn("order persisted with incomplete bookkeeping",
			zap.Strings("issues", commit.Issues))
	}

	if err := w.deps.Carts.Clear(ctx, req.CustomerID); err != nil {
		lg.Warn("clear cart failed", zap.Error(err))
	}
	w.sendConfirmation(ctx, o)

	say("order placed")
	res.State = StateSucceeded
	res.Order = o
	lg.Info("checkout succeeded",
		zap.String("payment_status", string(paymentStatus)),
		zap.String("total", bd.Total.String()))
	return res, nil
}

// sendConfirmation fires the confirmation email without blocking checkout
// completion. The goroutine gets a detached context so a finished request
// cannot cancel the send mid-flight.
func (w *Workflow) sendConfirmation(ctx context.Context, o *order.Order) {
	mailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := w.deps.Mailer.SendOrderConfirmation(mailCtx, o); err != nil {
			zctx.From(mailCtx).Warn("order confirmation email failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}()
}

func validateRequest(req Request) error {
	switch {
	case req.CustomerID == "":
		return &ValidationError{Field: "customer id"}
	case req.CustomerName == "":
		return &ValidationError{Field: "customer name"}
	case req.ShippingAddress == "":
		return &ValidationError{Field: "shipping address"}
	}
	switch req.PaymentMethod {
	case order.MethodOnline, order.MethodCashOnDelivery:
	default:
		return &ValidationError{Field: "payment method"}
	}
	return nil
}

// acquire reserves the session for one attempt. Sessions with a recorded
// persistence fault are refused permanently; the stored fault is returned
// so the caller can repeat the do-not-resubmit messaging.
func (w *Workflow) acquire(sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fault, ok := w.faulted[sessionID]; ok {
		return fault
	}
	if _, ok := w.inflight[sessionID]; ok {
		return ErrCheckoutInProgress
	}
	w.inflight[sessionID] = struct{}{}
	return nil
}

func (w *Workflow) release(sessionID string) {
	w.mu.Lock()
	delete(w.inflight, sessionID)
	w.mu.Unlock()
}

func (w *Workflow) markFaulted(sessionID string, fault *PersistenceFault) {
	w.mu.Lock()
	w.faulted[sessionID] = fault
	w.mu.Unlock()
}
