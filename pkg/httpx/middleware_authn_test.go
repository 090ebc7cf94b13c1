package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slumberware/slumber/pkg/httpx"
	"github.com/slumberware/slumber/pkg/idx"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const authnTestIssuer = "slumber-auth-test"

func newTestKeyManager(t *testing.T) *jwtx.KeyManager {
	t.Helper()

	km, err := jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
		Algorithm: jwtx.AlgorithmEdDSA,
		Issuer:    authnTestIssuer,
		NumKeys:   1,
	})
	require.NoError(t, err)
	return km
}

func mintToken(t *testing.T, km *jwtx.KeyManager, subject string, scopes []string, ttl time.Duration) string {
	t.Helper()

	claims := jwtx.NewAccessClaims(
		subject, idx.New().String(),
		scopes, []string{"device"},
		ttl, authnTestIssuer, nil, time.Now(),
	)

	token, err := km.GetSigner().Sign(claims)
	require.NoError(t, err)
	return token
}

// identityEcho records what the middleware put into the request context.
type identityEcho struct {
	called    bool
	accountID string
	scopes    []string
}

func (e *identityEcho) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.called = true
		e.accountID = httpx.AccountIDFromContext(r.Context())
		if c, ok := httpx.ClaimsFromContext(r.Context()); ok {
			e.scopes = c.Scopes
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthnMiddleware(t *testing.T) {
	km := newTestKeyManager(t)
	accountID := idx.New().String()

	t.Run("valid bearer token attaches identity", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, []string{"sleep:read"}, time.Minute))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, echo.called)
		require.Equal(t, accountID, echo.accountID)
		require.Equal(t, []string{"sleep:read"}, echo.scopes)
	})

	t.Run("missing authorization header is rejected", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `Bearer error="invalid_token"`)
		require.False(t, echo.called)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, nil, -10*time.Minute))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})

	t.Run("token signed by unknown key is rejected", func(t *testing.T) {
		other := newTestKeyManager(t)

		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, other, accountID, nil, time.Minute))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})
}

func TestAuthnMiddlewareDebugHeader(t *testing.T) {
	km := newTestKeyManager(t)
	debugID := idx.New().String()

	t.Run("accepted when enabled and no authorization header", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddlewareWithOptions(km.Verifier, httpx.AuthnOptions{
			AllowDebugHeader: true,
			DebugScopes:      []string{"sleep:read", "sleep:write"},
		})(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httpx.DebugAccountHeader, debugID)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, debugID, echo.accountID)
	})

	t.Run("ignored when disabled", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddleware(km.Verifier)(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httpx.DebugAccountHeader, debugID)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})

	t.Run("authorization header wins over debug header", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddlewareWithOptions(km.Verifier, httpx.AuthnOptions{
			AllowDebugHeader: true,
		})(echo.handler())

		tokenSubject := idx.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, tokenSubject, nil, time.Minute))
		req.Header.Set(httpx.DebugAccountHeader, debugID)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, tokenSubject, echo.accountID)
	})

	t.Run("malformed debug account id is rejected", func(t *testing.T) {
		echo := &identityEcho{}
		protected := httpx.AuthnMiddlewareWithOptions(km.Verifier, httpx.AuthnOptions{
			AllowDebugHeader: true,
		})(echo.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httpx.DebugAccountHeader, "not-a-ulid")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, echo.called)
	})
}

func TestRequireAnyScope(t *testing.T) {
	km := newTestKeyManager(t)
	accountID := idx.New().String()

	newProtected := func(echo *identityEcho) http.Handler {
		return httpx.Chain(echo.handler(),
			httpx.AuthnMiddleware(km.Verifier),
			httpx.RequireAnyScope("sleep:write"),
		)
	}

	t.Run("allows matching scope", func(t *testing.T) {
		echo := &identityEcho{}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, []string{"sleep:write"}, time.Minute))
		rec := httptest.NewRecorder()

		newProtected(echo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, echo.called)
	})

	t.Run("rejects missing scope with insufficient_scope", func(t *testing.T) {
		echo := &identityEcho{}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, []string{"sleep:read"}, time.Minute))
		rec := httptest.NewRecorder()

		newProtected(echo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
		require.False(t, echo.called)
	})
}

func TestRequireAllScopes(t *testing.T) {
	km := newTestKeyManager(t)
	accountID := idx.New().String()

	protectedFor := func(echo *identityEcho) http.Handler {
		return httpx.Chain(echo.handler(),
			httpx.AuthnMiddleware(km.Verifier),
			httpx.RequireAllScopes("sleep:read", "sleep:write"),
		)
	}

	t.Run("allows when all scopes held", func(t *testing.T) {
		echo := &identityEcho{}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, []string{"sleep:read", "sleep:write"}, time.Minute))
		rec := httptest.NewRecorder()

		protectedFor(echo).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects partial scope set", func(t *testing.T) {
		echo := &identityEcho{}
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, km, accountID, []string{"sleep:read"}, time.Minute))
		rec := httptest.NewRecorder()

		protectedFor(echo).ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.False(t, echo.called)
	})
}
