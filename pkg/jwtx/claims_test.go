package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "slumber-auth"

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: testIssuer,
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(testIssuer))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		err := c.ValidateIssuer("other-service")
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"slumber-api", "slumber-sync"},
		},
	}

	t.Run("contains match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"slumber-api"}))
	})

	t.Run("multiple expected, one match", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience([]string{"foo", "slumber-sync"}))
	})

	t.Run("no match", func(t *testing.T) {
		err := c.ValidateAudience([]string{"admin"})
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("empty expected list", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
	})
}

func TestValidateExpiry(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.NoError(t, claims.ValidateExpiry(0))
	})

	t.Run("expired token", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(0), jwtx.ErrExpired)
	})

	t.Run("rejected at the expiry instant", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(0), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				NotBefore: jwt.NewNumericDate(now.Add(1 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(0), jwtx.ErrNotYetValid)
	})

	t.Run("no exp or nbf", func(t *testing.T) {
		claims := &jwtx.Claims{}
		require.NoError(t, claims.ValidateExpiry(0))
	})

	t.Run("recently expired within leeway", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
			},
		}
		require.NoError(t, claims.ValidateExpiry(30*time.Second))
	})

	t.Run("expired beyond leeway", func(t *testing.T) {
		claims := &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(now.Add(-2 * time.Minute)),
			},
		}
		require.ErrorIs(t, claims.ValidateExpiry(30*time.Second), jwtx.ErrExpired)
	})
}

func TestHasScope(t *testing.T) {
	c := &jwtx.Claims{Scopes: []string{"sleep:read", "sleep:write"}}

	require.True(t, c.HasScope("sleep:read"))
	require.False(t, c.HasScope("admin:write"))
}

func TestNewAccessClaims(t *testing.T) {
	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		"01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZW",
		[]string{"sleep:read"},
		[]string{"device"},
		30*time.Minute,
		testIssuer,
		[]string{"slumber-api"},
		now,
	)

	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.Subject)
	require.NotEmpty(t, claims.ID, "jti should be set")
	require.Equal(t, now.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
	require.ElementsMatch(t, []string{"device"}, claims.AMR)
}
