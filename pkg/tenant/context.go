package tenant

import (
	"context"
	"log/slog"
)

// Context is the per-request, ephemeral value carrying the resolved tenant
// key and its repository set. Created fresh per request by the middleware,
// consumed by handlers, never cached across requests.
type Context struct {
	Key   Key
	Conn  *Conn
	Repos any
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext attaches the resolved tenant to the request context.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the resolved tenant from the context.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	return tc, ok
}

// KeyFromContext retrieves just the tenant key from the context.
func KeyFromContext(ctx context.Context) (Key, bool) {
	tc, ok := FromContext(ctx)
	if !ok || tc == nil {
		return "", false
	}
	return tc.Key, true
}

// ReposAs retrieves the attached repository set as the concrete type T.
func ReposAs[T any](ctx context.Context) (T, bool) {
	tc, ok := FromContext(ctx)
	if !ok || tc == nil {
		var zero T
		return zero, false
	}
	repos, ok := tc.Repos.(T)
	return repos, ok
}

// LoggerExtractor enriches log records with the tenant key.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if key, ok := KeyFromContext(ctx); ok {
			return slog.String("tenant_key", string(key)), true
		}
		return slog.Attr{}, false
	}
}
