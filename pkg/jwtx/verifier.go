package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a JWT string and returns its claims. Verification is
// purely in-memory against the KeySet; no I/O happens per call.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures the expectations shared by all verifiers.
type VerifyOptions struct {
	// Issuer the token must carry (iss). Empty means no check.
	Issuer string

	// Audience values the token must contain (aud). Empty means no check.
	Audience []string

	// Leeway tolerates clock skew when validating exp/nbf. Values above
	// MaxLeeway are clamped.
	Leeway time.Duration
}

func (o VerifyOptions) leeway() time.Duration {
	if o.Leeway < 0 {
		return 0
	}
	if o.Leeway > MaxLeeway {
		return MaxLeeway
	}
	return o.Leeway
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// RS256Adapter wraps the RS256 implementation in the common interface.
type RS256Adapter struct{ *RS256Verifier }

func (a RS256Adapter) Verify(token string) (Claims, error) {
	c, err := a.RS256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// NewCommonRS256 returns a Verifier for RS256 tokens.
func NewCommonRS256(keys *KeySet, opts VerifyOptions) Verifier {
	return RS256Adapter{NewVerifierRS256(keys, opts)}
}

// EdDSAAdapter wraps the EdDSA implementation in the common interface.
type EdDSAAdapter struct{ *EdDSAVerifier }

func (a EdDSAAdapter) Verify(token string) (Claims, error) {
	c, err := a.EdDSAVerifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// NewCommonEdDSA returns a Verifier for EdDSA tokens.
func NewCommonEdDSA(keys *KeySet, opts VerifyOptions) Verifier {
	return EdDSAAdapter{NewVerifierEdDSA(keys, opts)}
}

// ES256Adapter wraps the ES256 implementation in the common interface.
type ES256Adapter struct{ *ES256Verifier }

func (a ES256Adapter) Verify(token string) (Claims, error) {
	c, err := a.ES256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// NewCommonES256 returns a Verifier for ES256 tokens.
func NewCommonES256(keys *KeySet, opts VerifyOptions) Verifier {
	return ES256Adapter{NewVerifierES256(keys, opts)}
}
