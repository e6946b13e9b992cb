package tenant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HeaderName is the tenant-identifying header checked by the default chain.
const HeaderName = "x-restaurant-name"

// maxBodyPeek bounds how much of a request body the body resolver reads.
const maxBodyPeek = 1 << 20

// Resolver extracts a raw tenant identifier from an HTTP request. Returns
// an empty string if no identifier is present; an error if extraction
// itself failed.
type Resolver func(r *http.Request) (string, error)

// HeaderResolver extracts the identifier from the named header.
func HeaderResolver(name string) Resolver {
	if name == "" {
		name = HeaderName
	}
	return func(r *http.Request) (string, error) {
		return strings.TrimSpace(r.Header.Get(name)), nil
	}
}

// QueryResolver extracts the identifier from the first present query
// parameter among params.
func QueryResolver(params ...string) Resolver {
	return func(r *http.Request) (string, error) {
		q := r.URL.Query()
		for _, p := range params {
			if v := strings.TrimSpace(q.Get(p)); v != "" {
				return v, nil
			}
		}
		return "", nil
	}
}

// BodyResolver extracts the identifier from the first present top-level JSON
// body field among fields. The body is restored so downstream decoding still
// sees it. Non-JSON bodies are skipped.
func BodyResolver(fields ...string) Resolver {
	return func(r *http.Request) (string, error) {
		if r.Body == nil || r.Body == http.NoBody {
			return "", nil
		}
		if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
			return "", nil
		}

		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyPeek))
		if err != nil {
			return "", fmt.Errorf("body resolver: %w", err)
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))

		if len(bytes.TrimSpace(raw)) == 0 {
			return "", nil
		}

		var payload map[string]json.RawMessage
		if err := json.Unmarshal(raw, &payload); err != nil {
			// Not an object; nothing to extract.
			return "", nil
		}

		for _, f := range fields {
			v, ok := payload[f]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				return s, nil
			}
		}
		return "", nil
	}
}

// ChainResolver tries each resolver in priority order, returning the first
// non-empty identifier.
func ChainResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error
		for _, resolve := range resolvers {
			if resolve == nil {
				continue
			}
			id, err := resolve(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}
		if len(errs) > 0 {
			return "", errors.Join(errs...)
		}
		return "", nil
	}
}

// DefaultResolver is the lookup order for unauthenticated requests: header,
// then query, then body. The authenticated-principal resolver is prepended
// by the application wiring.
func DefaultResolver() Resolver {
	return ChainResolver(
		HeaderResolver(HeaderName),
		QueryResolver("restaurantName", "restaurantId"),
		BodyResolver("restaurant", "restaurantName", "restaurantId"),
	)
}
