package account

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/eatgreet/eatgreet/pkg/tenant"
)

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// PrincipalResolver resolves the tenant from the authenticated principal.
// It takes priority over header, query, and body identifiers, so a logged-in
// staff member always operates on their own restaurant.
func PrincipalResolver() tenant.Resolver {
	return func(r *http.Request) (string, error) {
		if p, ok := PrincipalFromContext(r.Context()); ok && p.RestaurantName != "" {
			return p.RestaurantName, nil
		}
		return "", nil
	}
}

// MapIdentifier wraps a resolver so identifiers shaped like account object
// ids are translated into restaurant names before normalization. Anything
// else passes through untouched.
func MapIdentifier(next tenant.Resolver, provider *NameProvider) tenant.Resolver {
	return func(r *http.Request) (string, error) {
		id, err := next(r)
		if err != nil || id == "" {
			return id, err
		}
		if !objectIDPattern.MatchString(id) {
			return id, nil
		}
		name, err := provider.LookupName(r.Context(), id)
		if err != nil {
			// An unknown id is the client's mistake; a failing control-plane
			// store is an outage the client should retry.
			if errors.Is(err, ErrNotFound) {
				return "", err
			}
			return "", errors.Join(tenant.ErrTenantUnavailable, err)
		}
		return name, nil
	}
}
