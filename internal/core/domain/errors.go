package domain

import "errors"

var (
	ErrValidation        = errors.New("missing or invalid purchase data")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrPersistence       = errors.New("persistence failure")
)
