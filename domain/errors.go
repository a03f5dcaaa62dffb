package domain

import "errors"

// Sentinel errors returned by the inventory and sales packages. Handlers map
// these to HTTP statuses with errors.Is; anything else is a server error.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPermissionDenied  = errors.New("permission denied")
)
