package account

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eatgreet/eatgreet/core"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	AccountID      string
	Role           Role
	RestaurantName string
}

type principalKey struct{}

// WithPrincipal attaches the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Middleware parses the Authorization bearer token when present and attaches
// the principal. Requests without a token proceed unauthenticated; route
// guards decide whether that is acceptable (see RequireAuth).
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := svc.ParseToken(token)
			if err != nil {
				core.JSONError(w, core.ErrUnauthorized.WithMessage("invalid or expired token"))
				return
			}

			ctx := WithPrincipal(r.Context(), &Principal{
				AccountID:      claims.Subject,
				Role:           claims.Role,
				RestaurantName: claims.RestaurantName,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that reached the handler unauthenticated.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			core.JSONError(w, core.ErrUnauthorized.WithMessage("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole guards routes that demand a specific role.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				core.JSONError(w, core.ErrUnauthorized.WithMessage("authentication required"))
				return
			}
			if p.Role != role {
				core.JSONError(w, core.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggerExtractor enriches log records with the authenticated account id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if p, ok := PrincipalFromContext(ctx); ok {
			return slog.String("account_id", p.AccountID), true
		}
		return slog.Attr{}, false
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
