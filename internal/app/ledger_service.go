package app

import (
	"context"
	"sort"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/metrics"
)

// LedgerRepository is the transactional storage the hold ledger runs on.
// GetProductForUpdate and GetProductsForUpdate must take row locks so that
// concurrent mutations of the same product serialize; GetProductsForUpdate
// must lock rows in ascending code order.
type LedgerRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProduct(ctx context.Context, code string) (domain.Product, error)
	GetProductForUpdate(ctx context.Context, code string) (domain.Product, error)
	GetProductsForUpdate(ctx context.Context, codes []string) (map[string]domain.Product, error)
	UpdateQuantities(ctx context.Context, code string, stock, held int) error
	GetHold(ctx context.Context, cartID, productCode string) (*domain.Hold, error)
	UpsertHold(ctx context.Context, hold domain.Hold) error
	DeleteHold(ctx context.Context, cartID, productCode string) error
	ListCartHolds(ctx context.Context, cartID string) ([]domain.Hold, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error)
}

// LedgerService owns every mutation of a product's (stock, held) pair.
// Callers never write those quantities directly.
type LedgerService struct {
	repo         LedgerRepository
	clock        clock.Clock
	holdTTL      time.Duration
	reclaimBatch int
}

const (
	defaultHoldTTL      = 15 * time.Minute
	defaultReclaimBatch = 200
)

func NewLedgerService(repo LedgerRepository, clk clock.Clock, opts ...LedgerOption) *LedgerService {
	svc := &LedgerService{
		repo:         repo,
		clock:        clk,
		holdTTL:      defaultHoldTTL,
		reclaimBatch: defaultReclaimBatch,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type LedgerOption func(*LedgerService)

// WithHoldTTL overrides the default lifetime of new and refreshed holds.
func WithHoldTTL(d time.Duration) LedgerOption {
	return func(s *LedgerService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithReclaimBatchSize caps how many expired holds one sweep releases.
func WithReclaimBatchSize(n int) LedgerOption {
	return func(s *LedgerService) {
		if n > 0 {
			s.reclaimBatch = n
		}
	}
}

// AdjustHold changes the hold for (cartID, productCode) by delta and returns
// the product's new available quantity. A positive delta that would push the
// product's held quantity over its stock fails with ErrInsufficientStock and
// changes nothing. A hold reduced to zero is deleted. Any successful
// adjustment refreshes the hold's expiry.
func (s *LedgerService) AdjustHold(ctx context.Context, productCode, cartID string, delta int) (int, error) {
	if productCode == "" {
		return 0, domain.ErrInvalidCode
	}
	if cartID == "" {
		return 0, domain.ErrCartRequired
	}

	now := s.clock.Now()
	var available int

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.GetProductForUpdate(txCtx, productCode)
		if err != nil {
			return err
		}

		current := 0
		createdAt := now
		if hold, err := s.repo.GetHold(txCtx, cartID, productCode); err != nil {
			return err
		} else if hold != nil {
			current = hold.Quantity
			createdAt = hold.CreatedAt
		}

		next := current + delta
		if next < 0 {
			// Releasing more than is held releases everything.
			next = 0
		}

		if delta > 0 && product.HeldQuantity+delta > product.StockQuantity {
			metrics.InsufficientStockTotal.Inc()
			return domain.ErrInsufficientStock
		}

		held := product.HeldQuantity - current + next
		if next == 0 {
			if current > 0 {
				if err := s.repo.DeleteHold(txCtx, cartID, productCode); err != nil {
					return err
				}
			}
		} else {
			hold := domain.Hold{
				CartID:      cartID,
				ProductCode: productCode,
				Quantity:    next,
				ExpiresAt:   now.Add(s.holdTTL),
				CreatedAt:   createdAt,
			}
			if err := s.repo.UpsertHold(txCtx, hold); err != nil {
				return err
			}
		}

		if held != product.HeldQuantity {
			if err := s.repo.UpdateQuantities(txCtx, productCode, product.StockQuantity, held); err != nil {
				return err
			}
		}

		available = product.StockQuantity - held
		return nil
	})
	if err != nil {
		return 0, err
	}
	if delta > 0 {
		metrics.ReservationsTotal.Inc()
	}
	return available, nil
}

// ReleaseHold removes the hold entirely, returning its full quantity to the
// available pool. Releasing a hold that does not exist is a no-op.
func (s *LedgerService) ReleaseHold(ctx context.Context, productCode, cartID string) error {
	if productCode == "" {
		return domain.ErrInvalidCode
	}
	if cartID == "" {
		return domain.ErrCartRequired
	}

	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.GetProductForUpdate(txCtx, productCode)
		if err != nil {
			if err == domain.ErrProductNotFound {
				return nil
			}
			return err
		}
		hold, err := s.repo.GetHold(txCtx, cartID, productCode)
		if err != nil {
			return err
		}
		if hold == nil {
			return nil
		}
		if err := s.repo.UpdateQuantities(txCtx, productCode, product.StockQuantity, product.HeldQuantity-hold.Quantity); err != nil {
			return err
		}
		return s.repo.DeleteHold(txCtx, cartID, productCode)
	})
}

// ReleaseCart releases every live hold of the cart in one transaction and
// returns how many holds were released. A cart with no holds is a no-op.
func (s *LedgerService) ReleaseCart(ctx context.Context, cartID string) (int, error) {
	if cartID == "" {
		return 0, domain.ErrCartRequired
	}

	released := 0
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		released = 0
		holds, err := s.repo.ListCartHolds(txCtx, cartID)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			return nil
		}

		products, err := s.lockProducts(txCtx, holds)
		if err != nil {
			return err
		}
		for _, code := range sortedCodes(products) {
			// Re-read under the product lock; the snapshot above raced
			// with concurrent adjustments.
			hold, err := s.repo.GetHold(txCtx, cartID, code)
			if err != nil {
				return err
			}
			if hold == nil {
				continue
			}
			product := products[code]
			if err := s.repo.UpdateQuantities(txCtx, code, product.StockQuantity, product.HeldQuantity-hold.Quantity); err != nil {
				return err
			}
			if err := s.repo.DeleteHold(txCtx, cartID, code); err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// CommitCart converts every live hold of the cart into a committed sale:
// stock and held quantities drop together, so availability is unchanged by
// the commit itself. All of the cart's holds commit or none do. The
// committed holds are returned; an empty slice means the cart had none.
func (s *LedgerService) CommitCart(ctx context.Context, cartID string) ([]domain.Hold, error) {
	if cartID == "" {
		return nil, domain.ErrCartRequired
	}

	var committed []domain.Hold
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		committed = nil
		holds, err := s.repo.ListCartHolds(txCtx, cartID)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			return nil
		}

		products, err := s.lockProducts(txCtx, holds)
		if err != nil {
			return err
		}
		for _, code := range sortedCodes(products) {
			hold, err := s.repo.GetHold(txCtx, cartID, code)
			if err != nil {
				return err
			}
			if hold == nil {
				continue
			}
			product := products[code]
			stock := product.StockQuantity - hold.Quantity
			held := product.HeldQuantity - hold.Quantity
			if err := s.repo.UpdateQuantities(txCtx, code, stock, held); err != nil {
				return err
			}
			if err := s.repo.DeleteHold(txCtx, cartID, code); err != nil {
				return err
			}
			committed = append(committed, *hold)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// BulkAdjustStock applies stock deltas to multiple products as one atomic
// batch. If any entry would drive a product's stock below its currently held
// quantity the whole batch fails with ErrStockUnderflow and nothing changes.
// Deltas for the same product are summed before applying.
func (s *LedgerService) BulkAdjustStock(ctx context.Context, entries []domain.StockAdjustment) error {
	if len(entries) == 0 {
		return nil
	}

	deltas := make(map[string]int, len(entries))
	for _, e := range entries {
		if e.ProductCode == "" {
			return domain.ErrInvalidCode
		}
		deltas[e.ProductCode] += e.Delta
	}
	codes := make([]string, 0, len(deltas))
	for code := range deltas {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		products, err := s.repo.GetProductsForUpdate(txCtx, codes)
		if err != nil {
			return err
		}
		for _, code := range codes {
			product, ok := products[code]
			if !ok {
				return domain.ErrProductNotFound
			}
			stock := product.StockQuantity + deltas[code]
			if stock < product.HeldQuantity {
				return domain.ErrStockUnderflow
			}
		}
		for _, code := range codes {
			product := products[code]
			if err := s.repo.UpdateQuantities(txCtx, code, product.StockQuantity+deltas[code], product.HeldQuantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.BulkAdjustmentsTotal.Inc()
	return nil
}

// ReclaimExpired releases holds whose expiry is before now. Each release is
// independently atomic, so the sweep is safe to run concurrently with live
// adjustments and with itself; a hold already released by a racing sweep is
// skipped, never double-released.
func (s *LedgerService) ReclaimExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.repo.ListExpiredHolds(ctx, now, s.reclaimBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, candidate := range expired {
		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			product, err := s.repo.GetProductForUpdate(txCtx, candidate.ProductCode)
			if err != nil {
				if err == domain.ErrProductNotFound {
					return nil
				}
				return err
			}
			hold, err := s.repo.GetHold(txCtx, candidate.CartID, candidate.ProductCode)
			if err != nil {
				return err
			}
			// The hold may be gone, or refreshed by cart activity
			// since the candidate list was read.
			if hold == nil || !hold.Expired(now) {
				return nil
			}
			if err := s.repo.UpdateQuantities(txCtx, candidate.ProductCode, product.StockQuantity, product.HeldQuantity-hold.Quantity); err != nil {
				return err
			}
			if err := s.repo.DeleteHold(txCtx, candidate.CartID, candidate.ProductCode); err != nil {
				return err
			}
			released++
			return nil
		})
		if err != nil {
			return released, err
		}
	}
	if released > 0 {
		metrics.HoldsReclaimedTotal.Add(float64(released))
	}
	return released, nil
}

// GetHold returns the live hold for the pair, or nil if none exists.
func (s *LedgerService) GetHold(ctx context.Context, cartID, productCode string) (*domain.Hold, error) {
	return s.repo.GetHold(ctx, cartID, productCode)
}

// Availability returns the product's current stock ledger snapshot.
func (s *LedgerService) Availability(ctx context.Context, productCode string) (domain.Product, error) {
	if productCode == "" {
		return domain.Product{}, domain.ErrInvalidCode
	}
	return s.repo.GetProduct(ctx, productCode)
}

func (s *LedgerService) lockProducts(ctx context.Context, holds []domain.Hold) (map[string]domain.Product, error) {
	seen := make(map[string]struct{}, len(holds))
	codes := make([]string, 0, len(holds))
	for _, h := range holds {
		if _, ok := seen[h.ProductCode]; ok {
			continue
		}
		seen[h.ProductCode] = struct{}{}
		codes = append(codes, h.ProductCode)
	}
	sort.Strings(codes)
	return s.repo.GetProductsForUpdate(ctx, codes)
}

func sortedCodes(products map[string]domain.Product) []string {
	codes := make([]string, 0, len(products))
	for code := range products {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
