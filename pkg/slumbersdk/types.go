package slumbersdk

import (
	"github.com/slumberware/slumber/pkg/jwtx"
)

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// This is used internally for parsing HTTP error responses. Client code
// should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// IdentityResponse is returned from POST /v1/identity. The same response
// shape is returned whether the account was just created or already existed;
// only Created distinguishes the two.
type IdentityResponse struct {
	// AccountID is the anonymous account identifier (ULID)
	AccountID string `json:"account_id"`

	// Created is true when this request created the account
	Created bool `json:"created"`

	// CreatedAt is the account creation timestamp (RFC3339 format)
	CreatedAt string `json:"created_at"`
}

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
// This is returned from the POST /v1/token endpoint for both device and
// refresh_token grant types.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque refresh token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// IntrospectionResponse represents the RFC 7662 token introspection response.
// When a token is inactive, only the Active field will be false and other
// fields will be empty.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	// Optional fields (only present when active=true)
	Scope     string   `json:"scope,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Iat       int64    `json:"iat,omitempty"`
	Nbf       int64    `json:"nbf,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Aud       []string `json:"aud,omitempty"`
	Iss       string   `json:"iss,omitempty"`
	Jti       string   `json:"jti,omitempty"`
	SessionID string   `json:"sid,omitempty"`
	AMR       []string `json:"amr,omitempty"`
}

// CreateSleepEntryRequest is the body for POST /v1/sleep. The account is
// always taken from the access token, never from the request.
type CreateSleepEntryRequest struct {
	// StartedAt is when the sleep period began (RFC3339 format)
	StartedAt string `json:"started_at"`

	// EndedAt is when the sleep period ended (RFC3339 format)
	EndedAt string `json:"ended_at"`

	// Quality is a subjective rating from 1 (worst) to 5 (best)
	Quality int `json:"quality"`

	// Notes is free-form text, optional
	Notes string `json:"notes,omitempty"`
}

// SleepEntry represents a recorded sleep period.
type SleepEntry struct {
	// ID is the unique identifier for the entry (ULID)
	ID string `json:"id"`

	// AccountID is the owning anonymous account
	AccountID string `json:"account_id"`

	// StartedAt is when the sleep period began (RFC3339 format)
	StartedAt string `json:"started_at"`

	// EndedAt is when the sleep period ended (RFC3339 format)
	EndedAt string `json:"ended_at"`

	// Quality is a subjective rating from 1 (worst) to 5 (best)
	Quality int `json:"quality"`

	// Notes is free-form text
	Notes string `json:"notes,omitempty"`

	// CreatedAt is when the entry was recorded (RFC3339 format)
	CreatedAt string `json:"created_at"`
}

// ListSleepEntriesResponse contains the caller's sleep entries, newest first.
type ListSleepEntriesResponse struct {
	Entries []SleepEntry `json:"entries"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
// Used in the /readyz endpoint to indicate the status of each component.
type HealthChecks struct {
	// Database indicates the database connection status
	Database string `json:"database"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// JWKSResponse contains the JSON Web Key Set.
// This is returned from the GET /.well-known/jwks.json endpoint and contains
// public keys used to verify JWT signatures.
type JWKSResponse jwtx.JWKS
