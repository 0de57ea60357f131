package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// LedgerRepository backs the hold ledger. Per-product serialization comes
// from SELECT ... FOR UPDATE on the products row; everything that mutates a
// product's quantities runs under that lock.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *LedgerRepository) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	const query = `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products
WHERE code = $1`
	return r.scanProduct(runner(ctx, r.pool).QueryRow(ctx, query, code))
}

func (r *LedgerRepository) GetProductForUpdate(ctx context.Context, code string) (domain.Product, error) {
	const query = `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products
WHERE code = $1
FOR UPDATE`
	return r.scanProduct(runner(ctx, r.pool).QueryRow(ctx, query, code))
}

// GetProductsForUpdate locks the matched rows in ascending code order so
// concurrent multi-product transactions cannot deadlock on each other.
func (r *LedgerRepository) GetProductsForUpdate(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	if len(codes) == 0 {
		return map[string]domain.Product{}, nil
	}

	const query = `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products
WHERE code = ANY($1)
ORDER BY code
FOR UPDATE`

	rows, err := runner(ctx, r.pool).Query(ctx, query, codes)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Product, len(codes))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Code, &p.Name, &p.Category, &p.StockQuantity, &p.HeldQuantity, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.Code] = p
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return out, nil
}

func (r *LedgerRepository) UpdateQuantities(ctx context.Context, code string, stock, held int) error {
	const stmt = `
UPDATE products
SET stock_quantity = $2, held_quantity = $3
WHERE code = $1`

	tag, err := runner(ctx, r.pool).Exec(ctx, stmt, code, stock, held)
	if err != nil {
		return fmt.Errorf("update quantities: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *LedgerRepository) GetHold(ctx context.Context, cartID, productCode string) (*domain.Hold, error) {
	const query = `
SELECT cart_id, product_code, quantity, expires_at, created_at
FROM holds
WHERE cart_id = $1 AND product_code = $2`

	var h domain.Hold
	err := runner(ctx, r.pool).QueryRow(ctx, query, cartID, productCode).
		Scan(&h.CartID, &h.ProductCode, &h.Quantity, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get hold: %w", err)
	}
	return &h, nil
}

func (r *LedgerRepository) UpsertHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (cart_id, product_code, quantity, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, product_code)
DO UPDATE SET quantity = EXCLUDED.quantity, expires_at = EXCLUDED.expires_at`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt,
		hold.CartID, hold.ProductCode, hold.Quantity, hold.ExpiresAt, hold.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("upsert hold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) DeleteHold(ctx context.Context, cartID, productCode string) error {
	const stmt = `DELETE FROM holds WHERE cart_id = $1 AND product_code = $2`
	if _, err := runner(ctx, r.pool).Exec(ctx, stmt, cartID, productCode); err != nil {
		return fmt.Errorf("delete hold: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListCartHolds(ctx context.Context, cartID string) ([]domain.Hold, error) {
	const query = `
SELECT cart_id, product_code, quantity, expires_at, created_at
FROM holds
WHERE cart_id = $1
ORDER BY product_code`

	rows, err := runner(ctx, r.pool).Query(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart holds: %w", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

func (r *LedgerRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	const query = `
SELECT cart_id, product_code, quantity, expires_at, created_at
FROM holds
WHERE expires_at < $1
ORDER BY expires_at
LIMIT $2`

	rows, err := runner(ctx, r.pool).Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	defer rows.Close()
	return scanHolds(rows)
}

func (r *LedgerRepository) scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.Code, &p.Name, &p.Category, &p.StockQuantity, &p.HeldQuantity, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func scanHolds(rows pgx.Rows) ([]domain.Hold, error) {
	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.CartID, &h.ProductCode, &h.Quantity, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holds: %w", rows.Err())
	}
	return holds, nil
}
