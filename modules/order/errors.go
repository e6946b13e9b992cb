package order

import "errors"

var (
	ErrNotFound           = errors.New("order not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnknownMenuItem    = errors.New("order references an unknown menu item")
	ErrItemUnavailable    = errors.New("menu item is not available")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrLineItemOutOfRange = errors.New("line item index out of range")
)
