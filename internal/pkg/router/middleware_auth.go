package router

import (
	"context"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpsession/internal/pkg/goerror"
)

// Authenticator resolves a bearer token. The returned context carries
// whatever the caller needs to know about the authenticated principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (context.Context, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (context.Context, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (context.Context, error) {
	return f(ctx, token)
}

var errUnauthorized = goerror.NewBusiness("Unauthorized", goerror.CodeUnauthorized)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive and exactly two fields are accepted.
func BearerToken(header string) (string, bool) {
	p := strings.Fields(header)
	if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
		return "", false
	}
	return p[1], true
}

// Authentication rejects requests without a valid bearer token with
// 401 {"error":"Unauthorized"}. Errors returned by auth are rendered through
// the error codec, so a storage failure still surfaces as 500.
func Authentication(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				recordError(w, errUnauthorized)
				writeError(w, errUnauthorized)
				return
			}

			ctx, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				recordError(w, err)
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
