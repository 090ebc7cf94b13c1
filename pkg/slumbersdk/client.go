package slumbersdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the slumber auth service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes determines whether to perform client-side scope validation
	// before making API requests. When true, the Session will check if it has
	// the required scopes before making a request and return an error if not.
	// Set to false for testing to ensure server-side scope checks work correctly.
	// Default: true
	CheckScopes bool
}

// NewSDKClient creates a new auth service client with scope checking enabled.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckScopes: true,
	}
}

// AuthenticateWithDevice creates an authenticated session using the device
// grant. The device fingerprint is an opaque client-generated UUID; the
// service creates an anonymous account for it on first use.
func (c *SDKClient) AuthenticateWithDevice(
	ctx context.Context,
	deviceFingerprint string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.DeviceGrant(ctx, deviceFingerprint, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// AuthenticateWithRefreshToken creates an authenticated session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(
	ctx context.Context,
	refreshToken string,
) (*Session, error) {
	tokenResp, err := c.RefreshGrant(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// NewSessionFromTokens creates an authenticated session from existing tokens.
// This is useful when tokens were stored from a previous authentication. The
// session still performs auto-refresh when the access token expires.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken, scope string, expiresIn int) *Session {
	expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second)
	expiresAt = expiresAt.Add(-30 * time.Second) // 30 second buffer

	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
		expiresAt:    expiresAt,
		scopes:       parseScopes(scope),
	}
}
