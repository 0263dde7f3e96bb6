// Package orders verifies storefront orders directly in its database.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/pagination"
	"github.com/adyen/shopcheck/internal/retry"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when no order has the given reference
	ErrNotFound = errors.New("order not found")
	// ErrStatusMismatch is returned when an order settles in a status other than the awaited one
	ErrStatusMismatch = errors.New("order status mismatch")
)

const orderColumns = `id, reference, amount, currency, status, product_name,
	COALESCE(psp_reference, ''), created_at, updated_at`

// Finder looks up a single order
type Finder interface {
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
}

// Reader runs read-only order queries
type Reader struct {
	db *sql.DB
}

// NewReader creates a new order reader
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// GetByReference retrieves an order by its merchant reference
func (r *Reader) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE reference = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// List returns one page of orders, newest first
func (r *Reader) List(ctx context.Context, page pagination.Result) (*pagination.Page[models.Order], error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC, reference ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	items := make([]models.Order, 0, page.Limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		items = append(items, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &pagination.Page[models.Order]{
		Items:   items,
		Page:    page.Page,
		Limit:   page.Limit,
		Total:   total,
		HasNext: page.Offset()+len(items) < total,
		Clamped: page.WasClamped,
	}, nil
}

// WaitForStatus polls the order until it reaches want
func (r *Reader) WaitForStatus(ctx context.Context, reference string, want models.OrderStatus, policy retry.Policy) (*models.Order, error) {
	return WaitForStatus(ctx, retry.Executor{}, r, reference, want, policy)
}

// WaitForStatus polls finder under policy until the order reaches want.
// A missing order or a non-matching status is retried; an order that has
// settled in a different terminal status fails at once with ErrStatusMismatch.
func WaitForStatus(ctx context.Context, exec retry.Executor, finder Finder, reference string, want models.OrderStatus, policy retry.Policy) (*models.Order, error) {
	return retry.Run(ctx, exec, policy, func(ctx context.Context, attempt retry.Attempt) (*models.Order, error) {
		order, err := finder.GetByReference(ctx, reference)
		if err != nil {
			return nil, err
		}

		if order.Status == want {
			log.Info().
				Str("reference", reference).
				Str("status", string(order.Status)).
				Int("attempt", attempt.Index).
				Msg("order reached status")
			return order, nil
		}

		mismatch := fmt.Errorf("%w: order %s is %s, want %s", ErrStatusMismatch, reference, order.Status, want)
		if order.Status.IsTerminal() {
			return nil, retry.Permanent(mismatch)
		}
		return nil, mismatch
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.Reference,
		&order.Amount,
		&order.Currency,
		&order.Status,
		&order.ProductName,
		&order.PSPReference,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}
