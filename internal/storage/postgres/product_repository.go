package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// ProductRepository covers the catalog side: creating products and resolving
// bulk-update filters to concrete rows. Quantity writes stay in the ledger
// repository.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (code, name, category, stock_quantity, held_quantity, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt,
		product.Code, product.Name, product.Category,
		product.StockQuantity, product.HeldQuantity, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrProductExists
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	const query = `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products
WHERE code = $1`

	var p domain.Product
	err := runner(ctx, r.pool).QueryRow(ctx, query, code).
		Scan(&p.Code, &p.Name, &p.Category, &p.StockQuantity, &p.HeldQuantity, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products
ORDER BY created_at, code`

	rows, err := runner(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// FindProducts resolves a bulk-update filter. Zero-valued filter fields are
// not constrained.
func (r *ProductRepository) FindProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}
	if filter.CodePrefix != "" {
		conds = append(conds, "code LIKE "+arg(escapeLike(filter.CodePrefix)+"%"))
	}
	if filter.MinStock != nil {
		conds = append(conds, "stock_quantity >= "+arg(*filter.MinStock))
	}
	if filter.MaxStock != nil {
		conds = append(conds, "stock_quantity <= "+arg(*filter.MaxStock))
	}

	query := `
SELECT code, name, category, stock_quantity, held_quantity, created_at
FROM products`
	if len(conds) > 0 {
		query += "\nWHERE " + strings.Join(conds, " AND ")
	}
	query += "\nORDER BY code"

	rows, err := runner(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]domain.Product, error) {
	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Code, &p.Name, &p.Category, &p.StockQuantity, &p.HeldQuantity, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
