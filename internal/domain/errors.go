package domain

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductExists       = errors.New("product already exists")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrStockUnderflow      = errors.New("stock adjustment below held quantity")
	ErrGenerationExhausted = errors.New("code space exhausted")
	ErrCodeTaken           = errors.New("code already issued")
	ErrCartEmpty           = errors.New("cart has no live holds")
	ErrCartRequired        = errors.New("cart id required")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidCode         = errors.New("invalid code")
	ErrNameRequired        = errors.New("name required")
)
