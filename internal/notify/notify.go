// Package notify holds the user-feedback and email collaborators consumed
// by the checkout workflow. Both are fire-and-forget: their failures are
// logged, never surfaced as checkout failures.
package notify

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/checkout-core/internal/domain/order"
)

// Notifier delivers short user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Mailer sends order-confirmation email.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, o *order.Order) error
}

// LogNotifier writes notifications to the context logger. The HTTP layer
// additionally collects workflow messages into the response body, so the
// log copy mainly serves operators.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, message string) {
	zctx.From(ctx).Info("user notification", zap.String("message", message))
}

// LogMailer stands in for a real mail sender; deployments plug their
// provider in behind the Mailer interface.
type LogMailer struct{}

func (LogMailer) SendOrderConfirmation(ctx context.Context, o *order.Order) error {
	zctx.From(ctx).Info("order confirmation email",
		zap.String("order_id", o.ID),
		zap.String("email", o.Email),
		zap.String("total", o.Breakdown.Total.String()),
	)
	return nil
}
