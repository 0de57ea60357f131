package domain

import "time"

// Order is the committed sale produced by finalizing a cart.
type Order struct {
	ID        string
	CartID    string
	Code      string
	Lines     []OrderLine
	CreatedAt time.Time
}

// OrderLine records one committed hold of the finalized cart.
type OrderLine struct {
	ProductCode string
	Quantity    int
}
