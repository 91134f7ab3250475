package cart

import (
	"context"
	"errors"
	"fmt"

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
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Upsert(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, sessionID string) error
}

type repo struct {
	pool DBPool
}

func NewRepository(pool DBPool) Repository {
	return &repo{pool: pool}
}

func (r *repo) Get(ctx context.Context, sessionID string) (*Cart, error) {
	var c Cart
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, updated_at FROM carts WHERE session_id = $1`,
		sessionID,
	).Scan(&c.ID, &c.SessionID, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// caller (handler) can turn this into 404
			return nil, nil
		}
		return nil, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, quantity, unit_price_minor, note FROM cart_lines WHERE cart_id = $1 ORDER BY position`,
		c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("select cart_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l          Line
			priceMinor int64
		)
		if err := rows.Scan(&l.ProductID, &l.Quantity, &priceMinor, &l.Note); err != nil {
			return nil, fmt.Errorf("scan cart_line: %w", err)
		}
		l.UnitPrice = money.FromMinorUnits(priceMinor)
		c.Lines = append(c.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &c, nil
}

func (r *repo) Upsert(ctx context.Context, c *Cart) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO carts (id, session_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id) DO UPDATE SET updated_at = NOW()
		RETURNING id, updated_at
	`, c.ID, c.SessionID).Scan(&c.ID, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, c.ID); err != nil {
		return fmt.Errorf("delete cart_lines: %w", err)
	}

	for i, l := range c.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO cart_lines (id, cart_id, position, product_id, quantity, unit_price_minor, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), c.ID, i, l.ProductID, l.Quantity, money.ToMinorUnits(l.UnitPrice), l.Note)
		if err != nil {
			return fmt.Errorf("insert cart_line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *repo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
