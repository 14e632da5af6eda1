// File: internal/data/errors.go
package data

import "errors"

// Define custom error variables for common error scenarios.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidData     = errors.New("invalid data provided")
	ErrDuplicateID     = errors.New("duplicate product id")
	ErrInvalidDate     = errors.New("must be a valid date in YYYY-MM-DD format")
	ErrInvalidRange    = errors.New("start date must not be after end date")
	ErrProductInactive = errors.New("product is not available")
)
