package slumber_test

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/slumberware/slumber/pkg/slumbersdk"
	"github.com/stretchr/testify/require"
)

// TestProtectedEndpointsRejectMissingCredentials verifies requests without
// any credential are rejected before handler code runs.
func TestProtectedEndpointsRejectMissingCredentials(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/sleep"},
		{http.MethodPost, "/v1/sleep"},
		{http.MethodGet, "/v1/sleep/01ARZ3NDEKTSV4RRFFQ69G5FAV"},
		{http.MethodPost, "/v1/introspect"},
	} {
		req, err := http.NewRequestWithContext(t.Context(), tc.method, baseURL+tc.path, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode,
			"%s %s should require a bearer token", tc.method, tc.path)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), `Bearer error="invalid_token"`)
	}
}

// TestMalformedBearerTokensRejected verifies garbage and non-Bearer
// credentials are rejected.
func TestMalformedBearerTokensRejected(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	for _, authz := range []string{
		"Bearer not.a.jwt",
		"Basic dXNlcjpwYXNz",
		"Bearer ",
	} {
		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/sleep", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", authz)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		require.Equal(t, http.StatusUnauthorized, resp.StatusCode,
			"Authorization %q should be rejected", authz)
	}
}

// TestSleepEntryIgnoresBodyAccountID verifies the owning account is always
// taken from the token, never from the request body.
func TestSleepEntryIgnoresBodyAccountID(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := slumbersdk.NewSDKClient(baseURL)

	session, err := client.AuthenticateWithDevice(t.Context(), newFingerprint(), nil)
	require.NoError(t, err)

	victim, err := client.CreateIdentity(t.Context(), newFingerprint())
	require.NoError(t, err)

	// Hand-roll the request so we can smuggle an account_id into the body
	started := time.Now().Add(-8 * time.Hour).UTC()
	body := `{
		"account_id": "` + victim.AccountID + `",
		"started_at": "` + started.Format(time.RFC3339) + `",
		"ended_at": "` + started.Add(7*time.Hour).Format(time.RFC3339) + `",
		"quality": 3
	}`

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, baseURL+"/v1/sleep", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.AccessToken())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var entry slumbersdk.SleepEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	require.NotEqual(t, victim.AccountID, entry.AccountID,
		"Entry must be owned by the token subject, not the body account_id")
}

// TestDebugHeaderDisabledByDefault verifies X-Debug-Account-ID is dead
// unless explicitly enabled.
func TestDebugHeaderDisabledByDefault(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/sleep", nil)
	require.NoError(t, err)
	req.Header.Set("X-Debug-Account-ID", "01ARZ3NDEKTSV4RRFFQ69G5FAV")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode,
		"Debug header should be ignored when not enabled")
}

// TestDebugHeaderForcedOffInProduction verifies the debug switch has no
// effect when the environment is prod, even when explicitly enabled.
func TestDebugHeaderForcedOffInProduction(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithEnv(t, map[string]string{
		"ENV":                     "prod",
		"AUTH_ALLOW_DEBUG_HEADER": "true",
	})
	defer cleanup()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/sleep", nil)
	require.NoError(t, err)
	req.Header.Set("X-Debug-Account-ID", "01ARZ3NDEKTSV4RRFFQ69G5FAV")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusUnauthorized, resp.StatusCode,
		"Debug header must be dead in production regardless of configuration")
}

// TestDebugHeaderWorksWhenEnabled verifies the dev-only path: with the
// switch on in a test environment, the header stands in for a bearer token.
func TestDebugHeaderWorksWhenEnabled(t *testing.T) {
	baseURL, cleanup := setupAuthContainerWithEnv(t, map[string]string{
		"AUTH_ALLOW_DEBUG_HEADER": "true",
	})
	defer cleanup()

	client := slumbersdk.NewSDKClient(baseURL)
	identity, err := client.CreateIdentity(t.Context(), newFingerprint())
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/sleep", nil)
	require.NoError(t, err)
	req.Header.Set("X-Debug-Account-ID", identity.AccountID)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "Debug header should authenticate in test env")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "entries")

	// A real Authorization header always wins over the debug header
	session, err := client.AuthenticateWithDevice(t.Context(), newFingerprint(), nil)
	require.NoError(t, err)

	req2, err := http.NewRequestWithContext(t.Context(), http.MethodGet, baseURL+"/v1/sleep", nil)
	require.NoError(t, err)
	req2.Header.Set("Authorization", "Bearer "+session.AccessToken())
	req2.Header.Set("X-Debug-Account-ID", identity.AccountID)

	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	_ = resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}
