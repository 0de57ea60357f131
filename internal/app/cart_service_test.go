package app

import (
	"context"
	"testing"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/clock"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

func newCartFixture(t *testing.T, products []domain.Product, holds []domain.Hold) (*CartService, *fakeLedgerRepo) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeLedgerRepo(products, holds)
	ledger := NewLedgerService(repo, clock.NewManual(now))
	return NewCartService(ledger), repo
}

func TestCartService_Reserve(t *testing.T) {
	t.Parallel()

	t.Run("sets hold to requested quantity", func(t *testing.T) {
		svc, repo := newCartFixture(t, []domain.Product{{Code: "P1", StockQuantity: 10}}, nil)
		ctx := context.Background()

		available, err := svc.Reserve(ctx, "C1", "P1", 3)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if available != 7 {
			t.Fatalf("expected available 7, got %d", available)
		}

		// Growing and shrinking both converge on the requested quantity.
		if _, err := svc.Reserve(ctx, "C1", "P1", 5); err != nil {
			t.Fatalf("grow: %v", err)
		}
		if got := repo.hold("C1", "P1").Quantity; got != 5 {
			t.Fatalf("expected hold 5, got %d", got)
		}
		available, err = svc.Reserve(ctx, "C1", "P1", 2)
		if err != nil {
			t.Fatalf("shrink: %v", err)
		}
		if available != 8 {
			t.Fatalf("expected available 8, got %d", available)
		}
		if got := repo.product("P1").HeldQuantity; got != 2 {
			t.Fatalf("expected held 2, got %d", got)
		}
	})

	t.Run("repeating the same quantity is stable", func(t *testing.T) {
		svc, repo := newCartFixture(t, []domain.Product{{Code: "P1", StockQuantity: 4}}, nil)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			if _, err := svc.Reserve(ctx, "C1", "P1", 4); err != nil {
				t.Fatalf("reserve %d: %v", i, err)
			}
		}
		if got := repo.product("P1").HeldQuantity; got != 4 {
			t.Fatalf("expected held 4, got %d", got)
		}
	})

	t.Run("propagates insufficient stock unchanged", func(t *testing.T) {
		svc, repo := newCartFixture(t,
			[]domain.Product{{Code: "P1", StockQuantity: 5, HeldQuantity: 3}},
			[]domain.Hold{{CartID: "other", ProductCode: "P1", Quantity: 3, ExpiresAt: time.Now().Add(time.Hour)}},
		)

		_, err := svc.Reserve(context.Background(), "C1", "P1", 3)
		if err != domain.ErrInsufficientStock {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if got := repo.product("P1").HeldQuantity; got != 3 {
			t.Fatalf("expected held unchanged, got %d", got)
		}
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _ := newCartFixture(t, []domain.Product{{Code: "P1", StockQuantity: 5}}, nil)
		if _, err := svc.Reserve(context.Background(), "C1", "P1", 0); err != domain.ErrInvalidQuantity {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}

func TestCartService_FinalizeCart(t *testing.T) {
	t.Parallel()

	t.Run("empty cart", func(t *testing.T) {
		svc, _ := newCartFixture(t, []domain.Product{{Code: "P1", StockQuantity: 5}}, nil)
		if _, err := svc.FinalizeCart(context.Background(), "C1"); err != domain.ErrCartEmpty {
			t.Fatalf("expected ErrCartEmpty, got %v", err)
		}
	})

	t.Run("commits all holds", func(t *testing.T) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		svc, repo := newCartFixture(t,
			[]domain.Product{
				{Code: "P1", StockQuantity: 5, HeldQuantity: 2},
				{Code: "P2", StockQuantity: 1, HeldQuantity: 1},
			},
			[]domain.Hold{
				{CartID: "C1", ProductCode: "P1", Quantity: 2, ExpiresAt: now.Add(time.Hour)},
				{CartID: "C1", ProductCode: "P2", Quantity: 1, ExpiresAt: now.Add(time.Hour)},
			},
		)

		lines, err := svc.FinalizeCart(context.Background(), "C1")
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		if got := repo.product("P1").StockQuantity; got != 3 {
			t.Fatalf("expected P1 stock 3, got %d", got)
		}
		if got := repo.product("P2").StockQuantity; got != 0 {
			t.Fatalf("expected P2 stock 0, got %d", got)
		}
	})
}

func TestCartService_AbandonCart(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newCartFixture(t,
		[]domain.Product{
			{Code: "P1", StockQuantity: 5, HeldQuantity: 2},
			{Code: "P2", StockQuantity: 4, HeldQuantity: 3},
		},
		[]domain.Hold{
			{CartID: "C1", ProductCode: "P1", Quantity: 2, ExpiresAt: now.Add(time.Hour)},
			{CartID: "C1", ProductCode: "P2", Quantity: 1, ExpiresAt: now.Add(time.Hour)},
			{CartID: "C2", ProductCode: "P2", Quantity: 2, ExpiresAt: now.Add(time.Hour)},
		},
	)
	ctx := context.Background()

	if err := svc.AbandonCart(ctx, "C1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if got := repo.product("P1").HeldQuantity; got != 0 {
		t.Fatalf("expected P1 held 0, got %d", got)
	}
	if got := repo.product("P2").HeldQuantity; got != 2 {
		t.Fatalf("expected P2 held 2 (other cart untouched), got %d", got)
	}

	// Abandoning an empty cart is a no-op.
	if err := svc.AbandonCart(ctx, "C1"); err != nil {
		t.Fatalf("second abandon: %v", err)
	}
}

// Mirrors the storefront walkthrough: two carts racing for five units.
func TestCartService_TwoCartsOverOneProduct(t *testing.T) {
	t.Parallel()

	svc, repo := newCartFixture(t, []domain.Product{{Code: "P1", StockQuantity: 5}}, nil)
	ctx := context.Background()

	available, err := svc.Reserve(ctx, "C1", "P1", 3)
	if err != nil || available != 2 {
		t.Fatalf("C1 reserve: available=%d err=%v", available, err)
	}

	if _, err := svc.Reserve(ctx, "C2", "P1", 3); err != domain.ErrInsufficientStock {
		t.Fatalf("expected C2 reserve 3 to fail, got %v", err)
	}
	if got := repo.product("P1").HeldQuantity; got != 3 {
		t.Fatalf("expected held unchanged at 3, got %d", got)
	}

	available, err = svc.Reserve(ctx, "C2", "P1", 2)
	if err != nil || available != 0 {
		t.Fatalf("C2 reserve 2: available=%d err=%v", available, err)
	}

	if _, err := svc.FinalizeCart(ctx, "C1"); err != nil {
		t.Fatalf("finalize C1: %v", err)
	}
	p := repo.product("P1")
	if p.StockQuantity != 2 || p.HeldQuantity != 2 {
		t.Fatalf("after C1: expected stock=2 held=2, got stock=%d held=%d", p.StockQuantity, p.HeldQuantity)
	}

	if _, err := svc.FinalizeCart(ctx, "C2"); err != nil {
		t.Fatalf("finalize C2: %v", err)
	}
	p = repo.product("P1")
	if p.StockQuantity != 0 || p.HeldQuantity != 0 {
		t.Fatalf("after C2: expected stock=0 held=0, got stock=%d held=%d", p.StockQuantity, p.HeldQuantity)
	}
}
