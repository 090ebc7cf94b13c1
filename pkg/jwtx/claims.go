package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	// Short-lived, typical range is 15m to 1h.
	DefaultAccessTokenTTL = 30 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// MaxLeeway caps the configurable clock-skew tolerance. Anything larger
	// silently extends token lifetime beyond what operators expect.
	MaxLeeway = 2 * time.Minute
)

// Authentication Method Reference values recorded in the "amr" claim.
const (
	// AMRDevice marks a session established with a device-fingerprint grant.
	AMRDevice = "device"

	// AMRRefresh marks tokens minted through refresh-token rotation.
	AMRRefresh = "refresh"
)

// Claims are the access-token claims. The subject is always an anonymous
// account ID; there is deliberately no username or profile data in tokens.
type Claims struct {
	jwt.RegisteredClaims

	// SID ties the access token to the refresh-token session that minted it.
	SID string `json:"sid,omitempty"`

	// Scopes the token grants, e.g. "sleep:read".
	Scopes []string `json:"scopes,omitempty"`

	// AMR records how the session was established:
	//	"device":  device-fingerprint grant
	//	"refresh": refresh-token rotation
	AMR []string `json:"amr,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an access token.
func NewAccessClaims(
	subject, sid string,
	scopes, amr []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		SID:    sid,
		Scopes: scopes,
		AMR:    amr,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// HasScope reports whether the token grants the given scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ValidateIssuer checks the issuer matches the expected value. An empty
// expectation enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks at least one expected audience is present. An
// empty expectation enforces nothing.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry checks exp and nbf against the current time, tolerating at
// most leeway of clock skew. A zero leeway means exact boundaries: a token is
// dead at its expiry instant, not one tick later.
func (c *Claims) ValidateExpiry(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && !now.Before(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
