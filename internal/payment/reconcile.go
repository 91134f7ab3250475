package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/bellafarina/ordering-service/internal/order"
)

var (
	// ErrBadNotification marks a notification that cannot identify an
	// order and amount. Client error, no side effects.
	ErrBadNotification = errors.New("bad payment notification")

	// ErrUnknownOrder means the notification references no local order.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrVerificationFailed means the processor explicitly denied the
	// payment. Terminal for this attempt.
	ErrVerificationFailed = errors.New("payment verification failed")
)

// Notification is the inbound webhook body sent by the processor.
type Notification struct {
	MerchantID int64  `json:"merchantId"`
	POSID      int64  `json:"posId"`
	SessionID  string `json:"sessionId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	OrderID    int64  `json:"orderId"`
	MethodID   int64  `json:"methodId"`
	Statement  string `json:"statement"`
	Sign       string `json:"sign"`
}

// Verifier is the processor-side check; satisfied by *Client.
type Verifier interface {
	Verify(ctx context.Context, sessionID string, amountMinor int64, currency string) (bool, error)
}

// PaidPublisher receives the at-most-once side effect of a confirmed
// payment (fulfillment push, confirmation mail).
type PaidPublisher interface {
	PublishOrderPaid(ctx context.Context, o *order.Order) error
}

// Reconciler drives the per-order payment state machine from inbound
// notifications: awaiting payment -> paid on verified success, or ->
// payment failed after maxAttempts explicit denials. Replays of a
// notification for an already paid order are acknowledged without
// re-triggering side effects.
type Reconciler struct {
	orders      order.Repository
	gateway     Verifier
	pub         PaidPublisher
	maxAttempts int
	logger      *log.Logger
}

func NewReconciler(orders order.Repository, gateway Verifier, pub PaidPublisher, maxAttempts int, logger *log.Logger) *Reconciler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Reconciler{
		orders:      orders,
		gateway:     gateway,
		pub:         pub,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Process applies one notification. Sentinel errors mean the processor
// sent something we reject for good (client error); any other error is
// transient and the caller should answer with a retryable status.
func (r *Reconciler) Process(ctx context.Context, n Notification) error {
	if n.SessionID == "" || n.Amount <= 0 {
		return fmt.Errorf("%w: missing sessionId or amount", ErrBadNotification)
	}

	o, err := r.orders.GetByID(ctx, n.SessionID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", n.SessionID, err)
	}
	if o == nil {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, n.SessionID)
	}

	// Replays of a settled order are answered OK without side effects.
	if o.Payment.Status == order.PaymentCompleted {
		r.logger.Printf("order %s already paid, ignoring replay", o.ID)
		return nil
	}
	if o.Payment.Status == order.PaymentFailed {
		return fmt.Errorf("%w: order %s already failed", ErrVerificationFailed, o.ID)
	}

	// The payable amount is what we computed at submission, never what
	// the notification claims.
	if n.Amount != o.TotalMinor {
		return fmt.Errorf("%w: amount %d does not match order total %d", ErrBadNotification, n.Amount, o.TotalMinor)
	}

	ok, err := r.gateway.Verify(ctx, o.ID, o.TotalMinor, o.Currency)
	if err != nil {
		// Unknown outcome. Leave the order untouched so the processor
		// retries the notification.
		return fmt.Errorf("verify order %s: %w", o.ID, err)
	}
	if !ok {
		attempts, err := r.orders.RecordVerifyFailure(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("record verify failure for %s: %w", o.ID, err)
		}
		if attempts >= r.maxAttempts {
			if err := r.orders.MarkPaymentFailed(ctx, o.ID); err != nil {
				return fmt.Errorf("mark payment failed for %s: %w", o.ID, err)
			}
			r.logger.Printf("order %s payment failed after %d verification attempts", o.ID, attempts)
		}
		return fmt.Errorf("%w: order %s", ErrVerificationFailed, o.ID)
	}

	applied, err := r.orders.MarkPaid(ctx, o.ID, strconv.FormatInt(n.OrderID, 10))
	if err != nil {
		return fmt.Errorf("mark paid for %s: %w", o.ID, err)
	}
	if !applied {
		// A concurrent delivery won the conditional update.
		r.logger.Printf("order %s paid by concurrent notification", o.ID)
		return nil
	}

	r.logger.Printf("order %s paid (%d %s)", o.ID, o.TotalMinor, o.Currency)

	// Fulfillment sync has its own failure domain; a lost publish is
	// logged and retried out-of-band, never unwinding the payment.
	if err := r.pub.PublishOrderPaid(ctx, o); err != nil {
		r.logger.Printf("order %s: fulfillment publish failed: %v", o.ID, err)
	}
	return nil
}
