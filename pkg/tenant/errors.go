package tenant

import "errors"

var (
	// ErrTenantRequired is returned when a handler needs a tenant context
	// and none was attached to the request.
	ErrTenantRequired = errors.New("restaurant name is required to resolve tenant")

	// ErrTenantUnavailable is returned when the tenant was identified but
	// its partition could not be reached. Safe to retry.
	ErrTenantUnavailable = errors.New("tenant partition unavailable")

	// ErrConnectionFailed is raised by the pool on open failure. It is
	// always wrapped into ErrTenantUnavailable before reaching a handler.
	ErrConnectionFailed = errors.New("failed to open tenant connection")

	// ErrInvalidTenantKey is returned when a raw identifier normalizes to
	// an empty tenant key.
	ErrInvalidTenantKey = errors.New("invalid tenant identifier")

	// ErrUnknownEntity is returned when a registry binding is requested for
	// an entity outside the fixed known set.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrBindingConflict is returned when a registry entry exists for an
	// entity but with a different repository type. Programming error.
	ErrBindingConflict = errors.New("repository binding type conflict")
)
