package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bellafarina/ordering-service/internal/order"
)

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue so publish never fails due to missing infra
	_, err = ch.QueueDeclare(OrderPaidQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderPaidQueue, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, o *order.Order) error {
	ev := OrderPaid{
		EventType:  "OrderPaid",
		OrderID:    o.ID,
		TotalMinor: o.TotalMinor,
		Currency:   o.Currency,
		Timestamp:  time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPaid: %w", err)
	}

	return p.publishJSON(ctx, OrderPaidQueue, body, nil)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      headers,
			Body:         body,
		},
	)
}
