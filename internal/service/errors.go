package service

import (
	"github.com/dodream/cart/internal/domain"
)

// Cart errors - surfaced to the HTTP layer with their domain codes.
var (
	ErrCartNotFound      = domain.ErrCartNotFound
	ErrCartItemNotFound  = domain.ErrCartItemNotFound
	ErrInvalidQuantity   = domain.ErrInvalidQuantity
	ErrCapacityExceeded  = domain.ErrCapacityExceeded
	ErrMissingIdentifier = domain.ErrMissingIdentifier
)

// Merge errors
var (
	ErrPricingUnavailable = domain.ErrPricingUnavailable
)

// Book errors
var (
	ErrBookNotFound = domain.Errorf(domain.ENOTFOUND, "", "Book not found in catalog")
)
