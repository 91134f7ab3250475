package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/pos"
)

type fakeOrders struct {
	byID      map[string]*order.Order
	getErr    error
	posRefs   map[string]string
	setRefErr error
}

func newFakeOrders(orders ...*order.Order) *fakeOrders {
	f := &fakeOrders{byID: map[string]*order.Order{}, posRefs: map[string]string{}}
	for _, o := range orders {
		f.byID[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Create(ctx context.Context, o *order.Order) error { return nil }

func (f *fakeOrders) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[orderID], nil
}

func (f *fakeOrders) MarkPaid(ctx context.Context, orderID, transactionID string) (bool, error) {
	return true, nil
}

func (f *fakeOrders) RecordVerifyFailure(ctx context.Context, orderID string) (int, error) {
	return 0, nil
}

func (f *fakeOrders) MarkPaymentFailed(ctx context.Context, orderID string) error { return nil }

func (f *fakeOrders) SetPOSRef(ctx context.Context, orderID, posRef string) error {
	if f.setRefErr != nil {
		return f.setRefErr
	}
	f.posRefs[orderID] = posRef
	return nil
}

type fakePusher struct {
	res   *pos.PushResult
	err   error
	calls int
}

func (f *fakePusher) CreateOrder(ctx context.Context, o *order.Order) (*pos.PushResult, error) {
	f.calls++
	return f.res, f.err
}

func paidEventBody(t *testing.T, orderID string) []byte {
	t.Helper()
	b, err := json.Marshal(OrderPaid{
		EventType:  "order.paid",
		OrderID:    orderID,
		TotalMinor: 10800,
		Currency:   "PLN",
		Timestamp:  time.Now(),
	})
	require.NoError(t, err)
	return b
}

func discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestHandleOrderPaid_PushesAndStoresRef(t *testing.T) {
	orders := newFakeOrders(&order.Order{ID: "BF-X1"})
	pusher := &fakePusher{res: &pos.PushResult{ID: "pos-42", Status: "accepted"}}

	err := handleOrderPaid(context.Background(), orders, pusher, paidEventBody(t, "BF-X1"), discard())

	require.NoError(t, err)
	assert.Equal(t, 1, pusher.calls)
	assert.Equal(t, "pos-42", orders.posRefs["BF-X1"])
}

func TestHandleOrderPaid_RedeliveryAfterPushIsNoop(t *testing.T) {
	orders := newFakeOrders(&order.Order{ID: "BF-X1", POSRef: "pos-42"})
	pusher := &fakePusher{res: &pos.PushResult{ID: "pos-43"}}

	err := handleOrderPaid(context.Background(), orders, pusher, paidEventBody(t, "BF-X1"), discard())

	require.NoError(t, err)
	assert.Zero(t, pusher.calls, "an order carries at most one POS reference")
}

func TestHandleOrderPaid_UnknownOrder(t *testing.T) {
	orders := newFakeOrders()
	pusher := &fakePusher{}

	err := handleOrderPaid(context.Background(), orders, pusher, paidEventBody(t, "BF-NOPE"), discard())

	require.Error(t, err)
	assert.Zero(t, pusher.calls)
}

func TestHandleOrderPaid_PushFailurePropagates(t *testing.T) {
	orders := newFakeOrders(&order.Order{ID: "BF-X1"})
	pusher := &fakePusher{err: pos.ErrSyncFailed}

	err := handleOrderPaid(context.Background(), orders, pusher, paidEventBody(t, "BF-X1"), discard())

	assert.ErrorIs(t, err, pos.ErrSyncFailed)
	assert.Empty(t, orders.posRefs, "no POS reference without a confirmed push")
}

func TestHandleOrderPaid_SetRefFailurePropagates(t *testing.T) {
	orders := newFakeOrders(&order.Order{ID: "BF-X1"})
	orders.setRefErr = errors.New("db down")
	pusher := &fakePusher{res: &pos.PushResult{ID: "pos-42"}}

	err := handleOrderPaid(context.Background(), orders, pusher, paidEventBody(t, "BF-X1"), discard())

	require.Error(t, err)
}

func TestHandleOrderPaid_BadPayload(t *testing.T) {
	orders := newFakeOrders()
	pusher := &fakePusher{}

	err := handleOrderPaid(context.Background(), orders, pusher, []byte("{not json"), discard())

	require.Error(t, err)
	assert.Zero(t, pusher.calls)
}

func TestRetryCount(t *testing.T) {
	assert.Equal(t, 0, retryCount(nil))
	assert.Equal(t, 0, retryCount(amqp.Table{}))
	assert.Equal(t, 2, retryCount(amqp.Table{retryCountHeader: 2}))
	assert.Equal(t, 3, retryCount(amqp.Table{retryCountHeader: int32(3)}))
	assert.Equal(t, 4, retryCount(amqp.Table{retryCountHeader: int64(4)}))
	assert.Equal(t, 0, retryCount(amqp.Table{retryCountHeader: "not a number"}))
}
