package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellafarina/ordering-service/internal/order"
)

type fakeOrders struct {
	createFunc        func(ctx context.Context, o *order.Order) error
	getByIDFunc       func(ctx context.Context, orderID string) (*order.Order, error)
	markPaidFunc      func(ctx context.Context, orderID, transactionID string) (bool, error)
	recordFailureFunc func(ctx context.Context, orderID string) (int, error)
	markFailedFunc    func(ctx context.Context, orderID string) error
	setPOSRefFunc     func(ctx context.Context, orderID, posRef string) error
}

func (f *fakeOrders) Create(ctx context.Context, o *order.Order) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, o)
	}
	return nil
}

func (f *fakeOrders) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, orderID)
	}
	return nil, nil
}

func (f *fakeOrders) MarkPaid(ctx context.Context, orderID, transactionID string) (bool, error) {
	if f.markPaidFunc != nil {
		return f.markPaidFunc(ctx, orderID, transactionID)
	}
	return true, nil
}

func (f *fakeOrders) RecordVerifyFailure(ctx context.Context, orderID string) (int, error) {
	if f.recordFailureFunc != nil {
		return f.recordFailureFunc(ctx, orderID)
	}
	return 1, nil
}

func (f *fakeOrders) MarkPaymentFailed(ctx context.Context, orderID string) error {
	if f.markFailedFunc != nil {
		return f.markFailedFunc(ctx, orderID)
	}
	return nil
}

func (f *fakeOrders) SetPOSRef(ctx context.Context, orderID, posRef string) error {
	if f.setPOSRefFunc != nil {
		return f.setPOSRefFunc(ctx, orderID, posRef)
	}
	return nil
}

type fakeVerifier struct {
	ok    bool
	err   error
	calls int
}

func (f *fakeVerifier) Verify(ctx context.Context, sessionID string, amountMinor int64, currency string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, o *order.Order) error {
	f.published = append(f.published, o.ID)
	return f.err
}

func pendingOrder() *order.Order {
	return &order.Order{
		ID:         "BF-X1",
		Status:     order.StatusPending,
		Payment:    order.Payment{Method: order.MethodPrzelewy24, Status: order.PaymentPending},
		TotalMinor: 10800,
		Currency:   "PLN",
	}
}

func validNotification() Notification {
	return Notification{
		SessionID: "BF-X1",
		Amount:    10800,
		Currency:  "PLN",
		OrderID:   987654,
		Sign:      "abc",
	}
}

func newTestReconciler(orders order.Repository, v Verifier, pub PaidPublisher) *Reconciler {
	return NewReconciler(orders, v, pub, 3, log.New(io.Discard, "", 0))
}

func TestProcess_PaysPendingOrder(t *testing.T) {
	var markedTxn string
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			require.Equal(t, "BF-X1", orderID)
			return pendingOrder(), nil
		},
		markPaidFunc: func(ctx context.Context, orderID, transactionID string) (bool, error) {
			markedTxn = transactionID
			return true, nil
		},
	}
	verifier := &fakeVerifier{ok: true}
	pub := &fakePublisher{}

	err := newTestReconciler(orders, verifier, pub).Process(context.Background(), validNotification())
	require.NoError(t, err)

	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, "987654", markedTxn)
	assert.Equal(t, []string{"BF-X1"}, pub.published)
}

func TestProcess_MissingFieldsHaveNoSideEffects(t *testing.T) {
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			t.Fatal("repository must not be touched")
			return nil, nil
		},
	}
	verifier := &fakeVerifier{ok: true}
	pub := &fakePublisher{}
	rec := newTestReconciler(orders, verifier, pub)

	for _, n := range []Notification{
		{Amount: 10800, Currency: "PLN"},
		{SessionID: "BF-X1", Currency: "PLN"},
		{SessionID: "BF-X1", Amount: -5},
	} {
		err := rec.Process(context.Background(), n)
		assert.ErrorIs(t, err, ErrBadNotification)
	}

	assert.Zero(t, verifier.calls)
	assert.Empty(t, pub.published)
}

func TestProcess_UnknownOrder(t *testing.T) {
	orders := &fakeOrders{}
	pub := &fakePublisher{}

	err := newTestReconciler(orders, &fakeVerifier{ok: true}, pub).Process(context.Background(), validNotification())

	assert.ErrorIs(t, err, ErrUnknownOrder)
	assert.Empty(t, pub.published)
}

func TestProcess_ReplayOfPaidOrderIsIdempotent(t *testing.T) {
	paid := pendingOrder()
	paid.Payment.Status = order.PaymentCompleted
	paid.Status = order.StatusConfirmed

	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return paid, nil
		},
		markPaidFunc: func(ctx context.Context, orderID, transactionID string) (bool, error) {
			t.Fatal("replay must not touch order state")
			return false, nil
		},
	}
	verifier := &fakeVerifier{ok: true}
	pub := &fakePublisher{}

	err := newTestReconciler(orders, verifier, pub).Process(context.Background(), validNotification())

	require.NoError(t, err, "replay is acknowledged OK")
	assert.Zero(t, verifier.calls)
	assert.Empty(t, pub.published, "side effects applied exactly once overall")
}

func TestProcess_AmountMismatchRejected(t *testing.T) {
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return pendingOrder(), nil
		},
	}
	verifier := &fakeVerifier{ok: true}

	n := validNotification()
	n.Amount = 9999

	err := newTestReconciler(orders, verifier, &fakePublisher{}).Process(context.Background(), n)

	assert.ErrorIs(t, err, ErrBadNotification)
	assert.Zero(t, verifier.calls)
}

func TestProcess_TransportFailureIsTransient(t *testing.T) {
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return pendingOrder(), nil
		},
		recordFailureFunc: func(ctx context.Context, orderID string) (int, error) {
			t.Fatal("transport failure must not count as a verification attempt")
			return 0, nil
		},
	}
	transportErr := errors.New("connection reset")
	pub := &fakePublisher{}

	err := newTestReconciler(orders, &fakeVerifier{err: transportErr}, pub).Process(context.Background(), validNotification())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadNotification)
	assert.NotErrorIs(t, err, ErrVerificationFailed)
	assert.Empty(t, pub.published)
}

func TestProcess_DenialCountsAttempts(t *testing.T) {
	attempts := 0
	failed := false
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return pendingOrder(), nil
		},
		recordFailureFunc: func(ctx context.Context, orderID string) (int, error) {
			attempts++
			return attempts, nil
		},
		markFailedFunc: func(ctx context.Context, orderID string) error {
			failed = true
			return nil
		},
	}
	rec := newTestReconciler(orders, &fakeVerifier{ok: false}, &fakePublisher{})

	for i := 0; i < 2; i++ {
		err := rec.Process(context.Background(), validNotification())
		assert.ErrorIs(t, err, ErrVerificationFailed)
		assert.False(t, failed, "below the attempt cap the order stays retryable")
	}

	err := rec.Process(context.Background(), validNotification())
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.True(t, failed, "third denial is terminal")
}

func TestProcess_ConcurrentDeliveryLosesQuietly(t *testing.T) {
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return pendingOrder(), nil
		},
		markPaidFunc: func(ctx context.Context, orderID, transactionID string) (bool, error) {
			return false, nil // another delivery flipped the row first
		},
	}
	pub := &fakePublisher{}

	err := newTestReconciler(orders, &fakeVerifier{ok: true}, pub).Process(context.Background(), validNotification())

	require.NoError(t, err)
	assert.Empty(t, pub.published, "loser of the conditional update publishes nothing")
}

func TestProcess_PublishFailureDoesNotFailAcceptance(t *testing.T) {
	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return pendingOrder(), nil
		},
	}
	pub := &fakePublisher{err: errors.New("broker down")}

	err := newTestReconciler(orders, &fakeVerifier{ok: true}, pub).Process(context.Background(), validNotification())

	require.NoError(t, err, "payment acceptance and fulfillment sync have independent failure domains")
}

func TestProcess_FailedOrderStaysFailed(t *testing.T) {
	failed := pendingOrder()
	failed.Payment.Status = order.PaymentFailed

	orders := &fakeOrders{
		getByIDFunc: func(ctx context.Context, orderID string) (*order.Order, error) {
			return failed, nil
		},
	}
	verifier := &fakeVerifier{ok: true}

	err := newTestReconciler(orders, verifier, &fakePublisher{}).Process(context.Background(), validNotification())

	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Zero(t, verifier.calls, "no transitions out of a terminal state")
}
