package domain

import "time"

// Product tracks the stock ledger for a single catalog entry.
// StockQuantity and HeldQuantity are mutated only through the ledger's
// atomic operations; 0 <= HeldQuantity <= StockQuantity at all times.
type Product struct {
	Code          string
	Name          string
	Category      string
	StockQuantity int
	HeldQuantity  int
	CreatedAt     time.Time
}

// Available returns the stock not currently held by a live cart.
func (p Product) Available() int {
	return p.StockQuantity - p.HeldQuantity
}

// ProductFilter selects products for bulk stock updates.
// Zero-valued fields are ignored.
type ProductFilter struct {
	Category   string
	CodePrefix string
	MinStock   *int
	MaxStock   *int
}

// StockAdjustment is one entry of a bulk stock update.
type StockAdjustment struct {
	ProductCode string
	Delta       int
}
