package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/artpar/modelgate/pkg/jsonapi"
	"github.com/artpar/modelgate/ports"
)

// CookieName is the cookie the login endpoint stores the access token in.
const CookieName = "accessToken"

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p ports.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by Gate.
func PrincipalFrom(ctx context.Context) (ports.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(ports.Principal)
	return p, ok
}

// BearerToken extracts the token from the Authorization header, falling back
// to the access token cookie. It returns "" when neither is present.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Gate rejects requests without a token with 401 and requests whose token
// fails verification with 403. Accepted requests carry the principal in
// their context.
func Gate(v ports.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				jsonapi.WriteUnauthorized(w, "missing bearer token")
				return
			}

			p, err := v.Verify(token)
			if err != nil {
				jsonapi.WriteForbidden(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
