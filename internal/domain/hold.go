package domain

import "time"

// Hold reserves stock for a cart for a limited time. At most one hold
// exists per (CartID, ProductCode) pair; quantity changes update the row
// in place and a hold reduced to zero is deleted, never stored as zero.
type Hold struct {
	CartID      string
	ProductCode string
	Quantity    int
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the hold is eligible for reclamation at now.
func (h Hold) Expired(now time.Time) bool {
	return h.ExpiresAt.Before(now)
}
