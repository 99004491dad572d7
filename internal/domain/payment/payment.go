// Package payment drives a third-party payment gateway through its capture
// lifecycle. The gateway presents its own hosted UI; this package only
// consumes the callbacks and folds them into a single discriminated outcome.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// State tracks progress through a single payment attempt.
type State string

const (
	StateIdle          State = "idle"
	StateScriptLoading State = "script_loading"
	StateReady         State = "ready"
	StatePresenting    State = "presenting"
	StateAwaitingUser  State = "awaiting_user_action"
	StateVerifying     State = "verifying"
)

// Status discriminates the terminal outcomes of a payment attempt.
type Status string

const (
	// StatusSettled means the gateway captured the charge and the payment
	// reference passed verification.
	StatusSettled Status = "settled"
	// StatusCancelled means the user dismissed the gateway UI. Expected
	// outcome, never retried silently.
	StatusCancelled Status = "cancelled"
	// StatusVerificationFailed means the gateway reported a capture but the
	// returned payment reference failed the local format check. Must never
	// be retried automatically: money may have moved.
	StatusVerificationFailed Status = "verification_failed"
	// StatusScriptLoadFailed means the gateway client could not be loaded
	// or presented. Recoverable by retrying later.
	StatusScriptLoadFailed Status = "script_load_failed"
)

// Request describes the charge to present to the gateway.
type Request struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// Outcome is the terminal result of Initiate. Cancellation and verification
// failure are outcome variants, not errors; Fault carries the underlying
// cause for StatusScriptLoadFailed.
type Outcome struct {
	Status     Status
	PaymentRef string
	Fault      error
}

// Settled reports whether the attempt ended with a verified capture.
func (o Outcome) Settled() bool {
	return o.Status == StatusSettled
}

// EventKind discriminates gateway callbacks.
type EventKind string

const (
	// EventCaptured corresponds to the gateway's success handler.
	EventCaptured EventKind = "captured"
	// EventDismissed corresponds to the gateway's dismiss callback.
	EventDismissed EventKind = "dismissed"
)

// Event is a single gateway callback delivered while the user interacts
// with the hosted payment UI.
type Event struct {
	Kind       EventKind
	PaymentRef string
}

// Options carries everything the gateway needs to present its UI.
type Options struct {
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// Gateway abstracts the payment provider's client library.
//
// Load prepares the client (fetching credentials, scripts, whatever the
// provider needs); the orchestrator memoizes it process-wide. Present opens
// the gateway UI and returns a channel that delivers exactly one Event,
// after which it is closed. The user controls how long that takes.
type Gateway interface {
	Load(ctx context.Context) error
	Present(ctx context.Context, opts Options) (<-chan Event, error)
}
