/*
Package slumbersdk provides a client SDK for the slumber auth service.

# Overview

The slumbersdk package implements an OAuth2-shaped client for the slumber
anonymous-identity service. It provides both unauthenticated operations (via
SDKClient) and authenticated operations (via Session) with automatic token
refresh.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: Provides unauthenticated operations and creates authenticated sessions
  - Session: Provides authenticated operations with automatic token refresh

Create an SDKClient to interact with public endpoints and initiate
authentication flows:

	client := slumbersdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.GetLiveness(ctx)

	// Create or look up the anonymous account for a device
	identity, err := client.CreateIdentity(ctx, deviceFingerprint)

	// Authenticate to create a session
	session, err := client.AuthenticateWithDevice(ctx, deviceFingerprint, scopes)

Use a Session for authenticated operations. Sessions automatically handle
token expiration and refresh:

	// Record a sleep entry (requires sleep:write scope)
	entry, err := session.CreateSleepEntry(ctx, req)

	// List entries (requires sleep:read scope)
	list, err := session.ListSleepEntries(ctx)

# Authentication Flows

There are no usernames or passwords. A device authenticates with a
client-generated fingerprint UUID; the service creates an anonymous account
for it on first use.

Device Grant:

	session, err := client.AuthenticateWithDevice(ctx, deviceFingerprint, scopes)

Refresh Token Grant:

	session, err := client.AuthenticateWithRefreshToken(ctx, refreshToken)

# Automatic Token Refresh

Sessions automatically refresh access tokens when they expire. All Session
methods call getValidToken() internally, which:

 1. Checks if the access token is still valid (with 30-second buffer)
 2. If expired, uses the refresh token to obtain a new access token
 3. Updates the session with the new tokens and scopes

Refresh tokens rotate on every use: the presented token is consumed and the
response carries its replacement. Sessions track this transparently.

# Scope Requirements

Each authenticated operation requires specific scopes:

  - sleep:read: Read the account's sleep entries
  - sleep:write: Record sleep entries

Client-side scope checking is enabled by default but can be disabled for
testing:

	client := slumbersdk.NewSDKClient("https://auth.example.com")
	client.CheckScopes = false // Disable client-side scope checking

# Error Handling

Failed requests return *OAuth2Error with the RFC 6749 error code and the HTTP
status:

	session, err := client.AuthenticateWithDevice(ctx, fingerprint, scopes)
	if err != nil {
		var oauthErr *slumbersdk.OAuth2Error
		if errors.As(err, &oauthErr) {
			fmt.Println("code:", oauthErr.Code, "status:", oauthErr.StatusCode)
		}
		return err
	}

# Thread Safety

Sessions are safe for concurrent use. All Session methods use read/write
locks to protect access to tokens and scopes. Multiple goroutines can share a
single Session and make authenticated requests concurrently.
*/
package slumbersdk
