// Package events wires the asynchronous side of the order flow over
// RabbitMQ: a paid order is published once and a consumer pushes it to
// the POS system out-of-band.
package events

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OrderPaidQueue = "order.paid"

	// retryCountHeader tracks how often a delivery was republished after
	// a failed POS push.
	retryCountHeader = "x-retry-count"
	maxPushRetries   = 5
)

// OrderPaid is the message carried on the order.paid queue. The consumer
// reloads the order by id so it always pushes current state.
type OrderPaid struct {
	EventType  string    `json:"eventType"`
	OrderID    string    `json:"orderId"`
	TotalMinor int64     `json:"totalMinor"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
}

func DialRabbit(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	return conn, nil
}
