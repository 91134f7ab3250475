package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bellafarina/ordering-service/internal/order"
	"github.com/bellafarina/ordering-service/internal/pos"
)

// FulfillmentPusher is the POS-side push; satisfied by *pos.Client.
type FulfillmentPusher interface {
	CreateOrder(ctx context.Context, o *order.Order) (*pos.PushResult, error)
}

const posPushTimeout = 10 * time.Second

// StartOrderPaidConsumer consumes order.paid and pushes each order to
// the POS. A failed push is republished with a bumped retry counter up
// to maxPushRetries, then logged and dropped; the payment itself is
// never rolled back.
func StartOrderPaidConsumer(ctx context.Context, conn *amqp.Connection, orders order.Repository, pusher FulfillmentPusher, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		OrderPaidQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(
		OrderPaidQueue,
		"ordering-service", // consumer tag
		false,              // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Println("stopping order.paid consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Println("messages channel closed")
					return
				}

				if err := handleOrderPaid(ctx, orders, pusher, msg.Body, logger); err != nil {
					logger.Printf("pos push error: %v", err)
					requeueOrDrop(ctx, ch, msg, logger)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()

	return nil
}

func handleOrderPaid(ctx context.Context, orders order.Repository, pusher FulfillmentPusher, body []byte, logger *log.Logger) error {
	var ev OrderPaid
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal OrderPaid: %w", err)
	}

	pushCtx, cancel := context.WithTimeout(ctx, posPushTimeout)
	defer cancel()

	o, err := orders.GetByID(pushCtx, ev.OrderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", ev.OrderID, err)
	}
	if o == nil {
		return fmt.Errorf("order %s not found", ev.OrderID)
	}

	if o.POSRef != "" {
		// Already pushed, a redelivery after a crashed ack.
		logger.Printf("order %s already pushed to pos as %s", o.ID, o.POSRef)
		return nil
	}

	res, err := pusher.CreateOrder(pushCtx, o)
	if err != nil {
		return fmt.Errorf("push order %s: %w", o.ID, err)
	}

	if err := orders.SetPOSRef(pushCtx, o.ID, res.ID); err != nil {
		return fmt.Errorf("store pos ref for %s: %w", o.ID, err)
	}

	logger.Printf("order %s pushed to pos as %s (%s)", o.ID, res.ID, res.Status)
	return nil
}

// requeueOrDrop republishes the delivery with an incremented retry
// counter, or drops it once the cap is reached. The original delivery is
// always acked so the broker never hot-loops it back at us.
func requeueOrDrop(ctx context.Context, ch *amqp.Channel, msg amqp.Delivery, logger *log.Logger) {
	retries := retryCount(msg.Headers)
	if retries >= maxPushRetries {
		logger.Printf("dropping order.paid delivery after %d retries", retries)
		_ = msg.Ack(false)
		return
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = retries + 1

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := ch.PublishWithContext(
		pubCtx,
		"",
		OrderPaidQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         msg.Body,
		},
	)
	if err != nil {
		logger.Printf("republish failed, requeueing original: %v", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}

func retryCount(headers amqp.Table) int {
	v, ok := headers[retryCountHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}
