package app

import (
	"context"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/metrics"
)

// CartLedger is the slice of the hold ledger the cart coordinator uses. All
// quantity arithmetic stays behind it; the coordinator never computes
// availability itself.
type CartLedger interface {
	AdjustHold(ctx context.Context, productCode, cartID string, delta int) (int, error)
	ReleaseHold(ctx context.Context, productCode, cartID string) error
	ReleaseCart(ctx context.Context, cartID string) (int, error)
	CommitCart(ctx context.Context, cartID string) ([]domain.Hold, error)
	GetHold(ctx context.Context, cartID, productCode string) (*domain.Hold, error)
}

// CartService keeps a cart's holds consistent with the per-product ledger.
type CartService struct {
	ledger CartLedger
}

func NewCartService(ledger CartLedger) *CartService {
	return &CartService{ledger: ledger}
}

// Reserve ensures the cart holds exactly quantity units of the product,
// adjusting an existing hold by the difference when one exists. Returns the
// product's new available quantity. ErrInsufficientStock propagates
// unchanged from the ledger.
func (s *CartService) Reserve(ctx context.Context, cartID, productCode string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	if cartID == "" {
		return 0, domain.ErrCartRequired
	}
	if productCode == "" {
		return 0, domain.ErrInvalidCode
	}

	current := 0
	if hold, err := s.ledger.GetHold(ctx, cartID, productCode); err != nil {
		return 0, err
	} else if hold != nil {
		current = hold.Quantity
	}

	// The ledger re-checks against locked state; a zero delta still
	// refreshes the hold's expiry.
	return s.ledger.AdjustHold(ctx, productCode, cartID, quantity-current)
}

// RemoveFromCart drops the cart's hold on the product. Removing a product
// the cart does not hold is a no-op.
func (s *CartService) RemoveFromCart(ctx context.Context, cartID, productCode string) error {
	if cartID == "" {
		return domain.ErrCartRequired
	}
	if productCode == "" {
		return domain.ErrInvalidCode
	}
	return s.ledger.ReleaseHold(ctx, productCode, cartID)
}

// FinalizeCart commits every live hold of the cart as a sale, all-or-nothing,
// and returns the committed lines. A cart with no live holds fails with
// ErrCartEmpty.
func (s *CartService) FinalizeCart(ctx context.Context, cartID string) ([]domain.Hold, error) {
	if cartID == "" {
		return nil, domain.ErrCartRequired
	}
	committed, err := s.ledger.CommitCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(committed) == 0 {
		return nil, domain.ErrCartEmpty
	}
	metrics.CartsFinalizedTotal.Inc()
	return committed, nil
}

// AbandonCart releases every live hold of the cart. Abandoning a cart with
// no holds is a no-op.
func (s *CartService) AbandonCart(ctx context.Context, cartID string) error {
	if cartID == "" {
		return domain.ErrCartRequired
	}
	released, err := s.ledger.ReleaseCart(ctx, cartID)
	if err != nil {
		return err
	}
	if released > 0 {
		metrics.CartsAbandonedTotal.Inc()
	}
	return nil
}
