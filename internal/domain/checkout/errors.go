package checkout

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrCheckoutInProgress is returned when a session tries to start a new
// submission while a prior attempt is still paying or persisting.
var ErrCheckoutInProgress = errors.New("checkout already in progress")

// ValidationError indicates missing or unusable checkout input. Recoverable
// locally: the user corrects the field and resubmits.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// GatewayFault indicates the payment gateway could not be reached or
// loaded. Recoverable by retrying after a delay; no money has moved.
type GatewayFault struct {
	Err error
}

func (e *GatewayFault) Error() string {
	if e.Err == nil {
		return "payment gateway unavailable"
	}
	return fmt.Sprintf("payment gateway unavailable: %v", e.Err)
}

func (e *GatewayFault) Unwrap() error { return e.Err }

// VerificationFailure indicates the gateway reported a capture whose
// payment reference failed verification. Money may have moved without a
// durable order, so this must never be retried automatically.
type VerificationFailure struct {
	OrderID    string
	PaymentRef string
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("payment verification failed for order %s", e.OrderID)
}

// PersistenceFault is the most severe failure class: payment settled but
// the order write failed. The user must be told payment succeeded and the
// record is delayed — resubmitting the form would charge them twice.
type PersistenceFault struct {
	OrderID    string
	PaymentRef string
	Err        error
}

func (e *PersistenceFault) Error() string {
	return fmt.Sprintf("order %s not recorded after settled payment %s: %v",
		e.OrderID, e.PaymentRef, e.Err)
}

func (e *PersistenceFault) Unwrap() error { return e.Err }
