package domain

import (
	"fmt"
	"strings"
)

// PurchaseRequest is the ephemeral input of a purchase. IdempotencyKey is
// optional and comes from the transport, not the body.
type PurchaseRequest struct {
	CustomerName   string
	Quantity       int
	MovieName      string
	IdempotencyKey string
}

// PurchaseResult is returned on a committed purchase.
type PurchaseResult struct {
	Sale           Sale
	RemainingStock int
}

// Normalize trims the free-text fields in place.
func (r *PurchaseRequest) Normalize() {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.MovieName = strings.TrimSpace(r.MovieName)
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
}

func (r PurchaseRequest) Validate() error {
	if r.CustomerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if r.MovieName == "" {
		return fmt.Errorf("%w: movie name is required", ErrValidation)
	}
	if r.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, r.Quantity)
	}
	return nil
}
