package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/locker/pkg/slogx"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator[T any] interface {
	Authenticate(ctx context.Context, bearer string) (T, error)
}

// ErrorWriter renders a failed authentication. Nil means WriteBearerError.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware requires an "Authorization: Bearer" header and stores the
// resolved principal in the request context. subject names the principal in
// logs and rate-limit keys.
func AuthnMiddleware[T any](a Authenticator[T], subject func(T) string, onError ErrorWriter) Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			WriteBearerError(w, "Could not validate credentials")
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				WriteBearerError(w, "Not authenticated")
				return
			}

			p, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				onError(w, r, err)
				return
			}

			sub := subject(p)
			ctx := contextWithPrincipal(r.Context(), sub, p)
			ctx = slogx.WithUser(ctx, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an Authorization header. The scheme is
// matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, tok, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// WriteBearerError writes an RFC 6750 401 response.
func WriteBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, "invalid_token", desc)
}
