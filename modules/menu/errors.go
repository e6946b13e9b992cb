package menu

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrItemNotFound     = errors.New("menu item not found")
	ErrInvalidCategory  = errors.New("item references an unknown category")
	ErrInvalidInput     = errors.New("invalid input")
)
