package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Binder builds the per-tenant repository set bound to a connection handle.
// The returned value is attached to the request context as-is; applications
// retrieve it with ReposAs.
type Binder interface {
	Bind(ctx context.Context, conn *Conn) (any, error)
}

// BinderFunc adapts a function to the Binder interface.
type BinderFunc func(ctx context.Context, conn *Conn) (any, error)

func (f BinderFunc) Bind(ctx context.Context, conn *Conn) (any, error) {
	return f(ctx, conn)
}

// ErrorHandler renders tenant-resolution failures.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	log          *slog.Logger
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution entirely.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithLogger sets the middleware logger.
func WithLogger(log *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Middleware resolves the requesting tenant and attaches its repository set
// to the request context before any handler runs.
//
// A request carrying no tenant-identifying information proceeds without a
// tenant context; whether that is fatal is each handler's contract (see
// RequireTenant). A backend failure while opening the tenant partition is
// surfaced as ErrTenantUnavailable, never as a silently missing context.
func Middleware(pool *Pool, binder Binder, resolver Resolver, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			raw, err := resolver(r)
			if err != nil {
				// Resolvers that touch a backend classify their own outages;
				// anything unclassified is a bad identifier.
				if !errors.Is(err, ErrTenantUnavailable) {
					err = errors.Join(ErrInvalidTenantKey, err)
				}
				cfg.errorHandler(w, r, err)
				return
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			key, err := NormalizeKey(raw)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			conn, err := pool.Get(r.Context(), key)
			if err != nil {
				cfg.log.ErrorContext(r.Context(), "tenant resolution failed",
					slog.String("tenant_key", string(key)),
					slog.Any("error", err),
				)
				cfg.errorHandler(w, r, errors.Join(ErrTenantUnavailable, err))
				return
			}

			repos, err := binder.Bind(r.Context(), conn)
			if err != nil {
				cfg.errorHandler(w, r, errors.Join(ErrTenantUnavailable, err))
				return
			}

			ctx := WithContext(r.Context(), &Context{Key: key, Conn: conn, Repos: repos})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant guards routes where a tenant is mandatory: requests that
// reached the handler without a resolved tenant context are rejected.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Outage classification wins: a retryable failure must never read as a
	// client mistake.
	case errors.Is(err, ErrTenantUnavailable):
		http.Error(w, "service temporarily unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, ErrTenantRequired), errors.Is(err, ErrInvalidTenantKey):
		http.Error(w, "restaurant name is required", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
