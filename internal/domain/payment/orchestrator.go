package payment

import (
	"context"
	"regexp"
	"sync/atomic"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// paymentRefPattern is the local sanity check applied to gateway payment
// references. This is a format check, not a signature verification: true
// verification needs the server-side shared secret and lives behind the
// gateway trust boundary.
var paymentRefPattern = regexp.MustCompile(`^pay_[A-Za-z0-9]{10,}$`)

// Orchestrator drives a gateway payment attempt to a terminal outcome.
// It is safe for concurrent use; the client load is memoized process-wide
// so only the first Initiate pays the loading cost.
type Orchestrator struct {
	gateway Gateway

	loaded    atomic.Bool
	loadGroup singleflight.Group
}

// NewOrchestrator creates an Orchestrator for the given gateway.
func NewOrchestrator(gateway Gateway) *Orchestrator {
	return &Orchestrator{gateway: gateway}
}

// Initiate runs one payment attempt: ensure the gateway client is loaded,
// present the hosted UI, wait for the user to act, and verify the returned
// payment reference. The returned Outcome discriminates all terminal
// results; Initiate never fails with an error for user cancellation or
// verification failure.
//
// The wait for user action is bounded only by ctx. Callers must pass the
// checkout session context here, not a short watchdog: cancelling an
// in-flight gateway UI out from under the user is never correct.
func (o *Orchestrator) Initiate(ctx context.Context, req Request) Outcome {
	lg := zctx.From(ctx).With(
		zap.String("order_id", req.OrderID),
		zap.String("amount", req.Amount.String()),
	)

	if err := o.ensureLoaded(ctx); err != nil {
		// The one genuine fault in the lifecycle: log it distinctly so
		// operators can tell environment trouble from user behaviour.
		lg.Error("gateway client load failed", zap.Error(err))
		return Outcome{Status: StatusScriptLoadFailed, Fault: err}
	}
	lg.Debug("gateway client ready", zap.String("state", string(StateReady)))

	events, err := o.gateway.Present(ctx, Options{
		OrderID:       req.OrderID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		lg.Error("gateway present failed", zap.Error(err))
		return Outcome{Status: StatusScriptLoadFailed, Fault: err}
	}
	lg.Debug("awaiting user action", zap.String("state", string(StateAwaitingUser)))

	select {
	case ev, ok := <-events:
		if !ok || ev.Kind == EventDismissed {
			lg.Info("payment dismissed by user")
			return Outcome{Status: StatusCancelled}
		}
		return o.verify(lg, ev)
	case <-ctx.Done():
		// Session ended (shutdown or client gone) while the gateway UI was
		// open. Treated as a cancellation, never as a fault.
		lg.Info("session ended while awaiting user action")
		return Outcome{Status: StatusCancelled}
	}
}

// verify applies the local payment-reference format check.
func (o *Orchestrator) verify(lg *zap.Logger, ev Event) Outcome {
	lg.Debug("verifying payment reference", zap.String("state", string(StateVerifying)))

	if !paymentRefPattern.MatchString(ev.PaymentRef) {
		lg.Warn("payment reference failed verification",
			zap.String("payment_ref", ev.PaymentRef))
		return Outcome{Status: StatusVerificationFailed, PaymentRef: ev.PaymentRef}
	}

	lg.Info("payment settled", zap.String("payment_ref", ev.PaymentRef))
	return Outcome{Status: StatusSettled, PaymentRef: ev.PaymentRef}
}

// ensureLoaded loads the gateway client once per process. Concurrent
// callers share a single load; after the first success every attempt skips
// straight to Ready.
func (o *Orchestrator) ensureLoaded(ctx context.Context) error {
	if o.loaded.Load() {
		return nil
	}

	_, err, _ := o.loadGroup.Do("load", func() (interface{}, error) {
		if o.loaded.Load() {
			return nil, nil
		}
		if err := o.gateway.Load(ctx); err != nil {
			return nil, err
		}
		o.loaded.Store(true)
		return nil, nil
	})
	return err
}
