package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-shop-api/internal/application/account"
	"github.com/go-shop-api/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// IdentityResolver turns a bearer token into the stored user it names.
type IdentityResolver interface {
	ResolveCurrentIdentity(ctx context.Context, token string) (*domain.User, error)
}

// Auth returns middleware that resolves the Bearer token to a user record and
// injects it into the request context.
func Auth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			u, err := resolver.ResolveCurrentIdentity(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					w.Header().Set("WWW-Authenticate", "Bearer")
					writeJSONError(w, http.StatusUnauthorized, "could not validate credentials")
					return
				}
				slog.Error("resolve identity", "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireActive rejects users whose account is not active.
func RequireActive(next http.Handler) http.Handler {
	return guard(account.RequireActive, next)
}

// RequireAdmin rejects users without superuser rights.
func RequireAdmin(next http.Handler) http.Handler {
	return guard(account.RequireAdmin, next)
}

func guard(check func(*domain.User) (*domain.User, error), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := check(u); err != nil {
			writeJSONError(w, http.StatusForbidden, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok && u != nil
}
