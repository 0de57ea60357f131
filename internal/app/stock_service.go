package app

import (
	"context"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// ProductRepository is the catalog side of stock management: product rows
// and filter resolution. Quantity mutations stay in the ledger.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, code string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	FindProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

// StockLedger is the slice of the hold ledger the bulk updater needs.
type StockLedger interface {
	BulkAdjustStock(ctx context.Context, entries []domain.StockAdjustment) error
}

// CodeGenerator mints unique codes within a kind.
type CodeGenerator interface {
	Generate(ctx context.Context, kind domain.CodeKind, alphabet string, length int) (string, error)
}

// StockService covers product administration: creating catalog entries with
// seeded stock and applying filtered bulk stock corrections. Callers are
// trusted to have passed the upstream admin access check.
type StockService struct {
	repo   ProductRepository
	ledger StockLedger
	codes  CodeGenerator
	clock  clock.Clock
}

func NewStockService(repo ProductRepository, ledger StockLedger, codes CodeGenerator, clk clock.Clock) *StockService {
	return &StockService{
		repo:   repo,
		ledger: ledger,
		codes:  codes,
		clock:  clk,
	}
}

type CreateProductInput struct {
	Name          string
	Category      string
	StockQuantity int
}

// CreateProduct mints a product code and seeds the stock ledger entry.
func (s *StockService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrNameRequired
	}
	if in.StockQuantity < 0 {
		return domain.Product{}, domain.ErrInvalidQuantity
	}

	code, err := s.codes.Generate(ctx, domain.CodeKindProduct, DefaultAlphabet, DefaultProductCodeLength)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Code:          code,
		Name:          in.Name,
		Category:      in.Category,
		StockQuantity: in.StockQuantity,
		HeldQuantity:  0,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *StockService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *StockService) GetProduct(ctx context.Context, code string) (domain.Product, error) {
	if code == "" {
		return domain.Product{}, domain.ErrInvalidCode
	}
	return s.repo.GetProduct(ctx, code)
}

// UpdateFunc computes the stock delta for one matched product. A zero delta
// leaves the product out of the batch.
type UpdateFunc func(product domain.Product) int

// ApplyFilteredUpdate resolves the filter to concrete products and applies
// the computed deltas as a single all-or-nothing batch. ErrStockUnderflow
// propagates unchanged from the ledger. Returns how many products the batch
// adjusted; matching no products is a no-op success.
func (s *StockService) ApplyFilteredUpdate(ctx context.Context, filter domain.ProductFilter, update UpdateFunc) (int, error) {
	if update == nil {
		return 0, domain.ErrInvalidQuantity
	}

	products, err := s.repo.FindProducts(ctx, filter)
	if err != nil {
		return 0, err
	}

	entries := make([]domain.StockAdjustment, 0, len(products))
	for _, product := range products {
		delta := update(product)
		if delta == 0 {
			continue
		}
		entries = append(entries, domain.StockAdjustment{ProductCode: product.Code, Delta: delta})
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := s.ledger.BulkAdjustStock(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
