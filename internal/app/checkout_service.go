package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// OrderRepository persists committed orders. WithTx must nest with the
// ledger's transactions so the order row and the cart commit share one
// transaction.
type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrderByCode(ctx context.Context, code string) (*domain.Order, error)
}

// CartFinalizer converts a cart's holds into committed sales.
type CartFinalizer interface {
	FinalizeCart(ctx context.Context, cartID string) ([]domain.Hold, error)
}

// CheckoutService turns a cart into an order: it mints the order code, then
// commits the cart's holds and records the order in one transaction.
type CheckoutService struct {
	repo  OrderRepository
	carts CartFinalizer
	codes CodeGenerator
	clock clock.Clock
}

func NewCheckoutService(repo OrderRepository, carts CartFinalizer, codes CodeGenerator, clk clock.Clock) *CheckoutService {
	return &CheckoutService{
		repo:  repo,
		carts: carts,
		codes: codes,
		clock: clk,
	}
}

// Checkout finalizes the cart and returns the created order. The order code
// is minted before the commit transaction: retrying a collided insert inside
// an aborted transaction is not possible, so a code burned by a later
// failure is simply never reused.
func (s *CheckoutService) Checkout(ctx context.Context, cartID string) (domain.Order, error) {
	if cartID == "" {
		return domain.Order{}, domain.ErrCartRequired
	}

	code, err := s.codes.Generate(ctx, domain.CodeKindOrder, DefaultAlphabet, DefaultOrderCodeLength)
	if err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		committed, err := s.carts.FinalizeCart(txCtx, cartID)
		if err != nil {
			return err
		}

		lines := make([]domain.OrderLine, 0, len(committed))
		for _, hold := range committed {
			lines = append(lines, domain.OrderLine{
				ProductCode: hold.ProductCode,
				Quantity:    hold.Quantity,
			})
		}

		order = domain.Order{
			ID:        uuid.NewString(),
			CartID:    cartID,
			Code:      code,
			Lines:     lines,
			CreatedAt: s.clock.Now(),
		}
		return s.repo.CreateOrder(txCtx, order)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// GetOrder looks an order up by its customer-facing code.
func (s *CheckoutService) GetOrder(ctx context.Context, code string) (domain.Order, error) {
	if code == "" {
		return domain.Order{}, domain.ErrInvalidCode
	}
	order, err := s.repo.GetOrderByCode(ctx, code)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return *order, nil
}
