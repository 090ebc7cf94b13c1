package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/slumberware/slumber/pkg/idx"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/slumberware/slumber/pkg/slogx"
)

// DebugAccountHeader carries a raw account ID in development environments.
// The middleware honours it only when explicitly enabled; the config loader
// refuses to enable it outside dev and test.
const DebugAccountHeader = "X-Debug-Account-ID"

// AuthnOptions tunes the authentication middleware.
type AuthnOptions struct {
	// AllowDebugHeader accepts X-Debug-Account-ID in place of a bearer
	// token. Never enabled in production; a present Authorization header
	// always wins over the debug header.
	AllowDebugHeader bool

	// DebugScopes are granted to debug-header identities.
	DebugScopes []string
}

// AuthnMiddleware authenticates every request with a bearer token: extract
// the credential, verify it, then attach the account identity to the request
// context. Requests without a valid credential are rejected before any
// handler code runs.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return AuthnMiddlewareWithOptions(v, AuthnOptions{})
}

// AuthnMiddlewareWithOptions is AuthnMiddleware plus the development-only
// debug header path.
func AuthnMiddlewareWithOptions(v jwtx.Verifier, opts AuthnOptions) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" {
				if opts.AllowDebugHeader {
					if debugID := r.Header.Get(DebugAccountHeader); debugID != "" {
						id, err := idx.Parse(debugID)
						if err != nil {
							writeBearerError(w, "invalid debug account id")
							return
						}

						log.Warn("debug header authentication", "account_id", id.String())
						ctx = contextWithIdentity(ctx, id.String(), opts.DebugScopes, jwtx.Claims{})
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}

				writeBearerError(w, "missing bearer token")
				return
			}

			if !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "malformed authorization header")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			// Offline verification, no I/O. Failure is terminal for the
			// request; there is no retry.
			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("jwt verify failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = contextWithIdentity(ctx, claims.Subject, claims.Scopes, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithIdentity(ctx context.Context, accountID string, scopes []string, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyAccountID, accountID)
	ctx = context.WithValue(ctx, CtxKeyScopes, scopes)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
