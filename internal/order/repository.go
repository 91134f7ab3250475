package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bellafarina/ordering-service/internal/money"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)

	// MarkPaid flips payment to completed and the order to confirmed,
	// but only when payment is still pending. The returned bool reports
	// whether this call applied the transition; a replay gets false.
	MarkPaid(ctx context.Context, orderID, transactionID string) (bool, error)

	// RecordVerifyFailure increments the verification attempt counter
	// and returns the new count.
	RecordVerifyFailure(ctx context.Context, orderID string) (int, error)

	// MarkPaymentFailed is terminal; it only applies while payment is
	// still pending.
	MarkPaymentFailed(ctx context.Context, orderID string) error

	SetPOSRef(ctx context.Context, orderID, posRef string) error
}

type repo struct {
	pool DBPool
}

func NewRepository(pool DBPool) Repository {
	return &repo{pool: pool}
}

func (r *repo) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = NewID()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		street, city, postalCode, apartment string
		scheduledAt                         *time.Time
	)
	if o.Delivery.Address != nil {
		street = o.Delivery.Address.Street
		city = o.Delivery.Address.City
		postalCode = o.Delivery.Address.PostalCode
		apartment = o.Delivery.Address.Apartment
	}
	if o.Delivery.ScheduledAt != nil {
		scheduledAt = o.Delivery.ScheduledAt
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (
			id, session_id, status, payment_method, payment_status, transaction_id,
			verify_attempts, pos_ref, total_minor, currency,
			customer_first_name, customer_last_name, customer_email, customer_phone,
			delivery_type, delivery_street, delivery_city, delivery_postal_code,
			delivery_apartment, delivery_when, delivery_scheduled_at, delivery_note,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`, o.ID, o.SessionID, o.Status, o.Payment.Method, o.Payment.Status, o.Payment.TransactionID,
		o.VerifyAttempts, o.POSRef, o.TotalMinor, o.Currency,
		o.Customer.FirstName, o.Customer.LastName, o.Customer.Email, o.Customer.Phone,
		o.Delivery.Type, street, city, postalCode,
		apartment, o.Delivery.When, scheduledAt, o.Delivery.Note,
		o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, position, product_id, name, quantity, unit_price_minor, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.NewString(), o.ID, i, l.ProductID, l.Name, l.Quantity, money.ToMinorUnits(l.UnitPrice), l.Note)
		if err != nil {
			return fmt.Errorf("insert order_line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var (
		o                                   Order
		street, city, postalCode, apartment string
		scheduledAt                         *time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, session_id, status, payment_method, payment_status, transaction_id,
			verify_attempts, pos_ref, total_minor, currency,
			customer_first_name, customer_last_name, customer_email, customer_phone,
			delivery_type, delivery_street, delivery_city, delivery_postal_code,
			delivery_apartment, delivery_when, delivery_scheduled_at, delivery_note,
			created_at
		FROM orders WHERE id = $1
	`, orderID).Scan(
		&o.ID, &o.SessionID, &o.Status, &o.Payment.Method, &o.Payment.Status, &o.Payment.TransactionID,
		&o.VerifyAttempts, &o.POSRef, &o.TotalMinor, &o.Currency,
		&o.Customer.FirstName, &o.Customer.LastName, &o.Customer.Email, &o.Customer.Phone,
		&o.Delivery.Type, &street, &city, &postalCode,
		&apartment, &o.Delivery.When, &scheduledAt, &o.Delivery.Note,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	if o.Delivery.Type == DeliveryDelivery {
		o.Delivery.Address = &Address{
			Street:     street,
			City:       city,
			PostalCode: postalCode,
			Apartment:  apartment,
		}
	}
	o.Delivery.ScheduledAt = scheduledAt
	o.Total = money.FromMinorUnits(o.TotalMinor)

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, quantity, unit_price_minor, note
		FROM order_lines WHERE order_id = $1 ORDER BY position
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("select order_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l          Line
			priceMinor int64
		)
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &priceMinor, &l.Note); err != nil {
			return nil, fmt.Errorf("scan order_line: %w", err)
		}
		l.UnitPrice = money.FromMinorUnits(priceMinor)
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &o, nil
}

func (r *repo) MarkPaid(ctx context.Context, orderID, transactionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'completed', status = 'confirmed', transaction_id = $2
		WHERE id = $1 AND payment_status = 'pending'
	`, orderID, transactionID)
	if err != nil {
		return false, fmt.Errorf("mark paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *repo) RecordVerifyFailure(ctx context.Context, orderID string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx, `
		UPDATE orders
		SET verify_attempts = verify_attempts + 1
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING verify_attempts
	`, orderID).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("record verify failure: %w", err)
	}
	return attempts, nil
}

func (r *repo) MarkPaymentFailed(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'failed', status = 'cancelled'
		WHERE id = $1 AND payment_status = 'pending'
	`, orderID)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return nil
}

func (r *repo) SetPOSRef(ctx context.Context, orderID, posRef string) error {
	_, err := r.pool.Exec(ctx, `UPDATE orders SET pos_ref = $2 WHERE id = $1`, orderID, posRef)
	if err != nil {
		return fmt.Errorf("set pos ref: %w", err)
	}
	return nil
}
