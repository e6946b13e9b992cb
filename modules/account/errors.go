package account

import "errors"

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingToken       = errors.New("missing authentication token")
	ErrForbidden          = errors.New("insufficient role")
	ErrFailedToCreate     = errors.New("failed to create account")
)
