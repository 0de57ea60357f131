package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// OrderRepository persists finalized orders and their lines.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	q := runner(ctx, r.pool)

	const orderStmt = `
INSERT INTO orders (id, cart_id, code, created_at)
VALUES ($1, $2, $3, $4)`
	if _, err := q.Exec(ctx, orderStmt, order.ID, order.CartID, order.Code, order.CreatedAt); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	const lineStmt = `
INSERT INTO order_lines (order_id, product_code, quantity)
VALUES ($1, $2, $3)`
	for _, line := range order.Lines {
		if _, err := q.Exec(ctx, lineStmt, order.ID, line.ProductCode, line.Quantity); err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) GetOrderByCode(ctx context.Context, code string) (*domain.Order, error) {
	q := runner(ctx, r.pool)

	const orderQuery = `SELECT id, cart_id, code, created_at FROM orders WHERE code = $1`
	var o domain.Order
	err := q.QueryRow(ctx, orderQuery, code).Scan(&o.ID, &o.CartID, &o.Code, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	const lineQuery = `
SELECT product_code, quantity
FROM order_lines
WHERE order_id = $1
ORDER BY product_code`
	rows, err := q.Query(ctx, lineQuery, o.ID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ProductCode, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order lines: %w", rows.Err())
	}
	return &o, nil
}
