package slumbersdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceGrant(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "device", r.FormValue("grant_type"))
		require.Equal(t, "f3b9a1f0-8a43-4a6e-b5de-5c1d6a2f9d11", r.FormValue("device_fingerprint"))
		require.Equal(t, "sleep:read sleep:write", r.FormValue("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-123",
			RefreshToken: "refresh-456",
			TokenType:    "Bearer",
			ExpiresIn:    1800,
			Scope:        "sleep:read sleep:write",
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	resp, err := client.DeviceGrant(context.Background(),
		"f3b9a1f0-8a43-4a6e-b5de-5c1d6a2f9d11",
		[]string{"sleep:read", "sleep:write"},
	)
	require.NoError(t, err)
	require.Equal(t, "access-123", resp.AccessToken)
	require.Equal(t, "refresh-456", resp.RefreshToken)
	require.Equal(t, 1800, resp.ExpiresIn)
}

func TestDeviceGrantErrorResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:            ErrorCodeInvalidRequest,
			ErrorDescription: "device_fingerprint must be a UUID",
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	_, err := client.DeviceGrant(context.Background(), "not-a-uuid", nil)
	require.Error(t, err)

	var oauthErr *OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, http.StatusBadRequest, oauthErr.StatusCode)
	require.Equal(t, ErrorCodeInvalidRequest, oauthErr.Code)
}

func TestCreateIdentity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/identity", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "f3b9a1f0-8a43-4a6e-b5de-5c1d6a2f9d11", body["device_fingerprint"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(IdentityResponse{
			AccountID: "01HQXW5P8MZT2J9G4R6V3N7K1D",
			Created:   true,
			CreatedAt: "2026-08-24T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	identity, err := client.CreateIdentity(context.Background(), "f3b9a1f0-8a43-4a6e-b5de-5c1d6a2f9d11")
	require.NoError(t, err)
	require.Equal(t, "01HQXW5P8MZT2J9G4R6V3N7K1D", identity.AccountID)
	require.True(t, identity.Created)
}

func TestSessionAutoRefresh(t *testing.T) {
	t.Parallel()

	var refreshes int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/token":
			require.NoError(t, r.ParseForm())
			require.Equal(t, "refresh_token", r.FormValue("grant_type"))
			require.Equal(t, "refresh-old", r.FormValue("refresh_token"))
			refreshes++

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(TokenResponse{
				AccessToken:  "access-new",
				RefreshToken: "refresh-new",
				TokenType:    "Bearer",
				ExpiresIn:    1800,
				Scope:        "sleep:read",
			})

		case "/v1/sleep":
			require.Equal(t, "Bearer access-new", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(ListSleepEntriesResponse{})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)

	// ExpiresIn of 0 makes the access token already stale.
	session := client.NewSessionFromTokens("access-old", "refresh-old", "sleep:read", 0)

	_, err := session.ListSleepEntries(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, refreshes)
	require.Equal(t, "refresh-new", session.RefreshToken())
}

func TestSessionScopeChecking(t *testing.T) {
	t.Parallel()

	client := NewSDKClient("http://localhost:0")
	session := client.NewSessionFromTokens("access", "refresh", "sleep:read", 3600)

	_, err := session.CreateSleepEntry(context.Background(), CreateSleepEntryRequest{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sleep:write")
	require.False(t, errors.As(err, new(*OAuth2Error)))
}

func TestGetSleepEntryNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Error:            ErrorCodeInvalidRequest,
			ErrorDescription: "resource not found",
		})
	}))
	defer srv.Close()

	client := NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens("access", "refresh", "sleep:read", 3600)

	_, err := session.GetSleepEntry(context.Background(), "01HQXW5P8MZT2J9G4R6V3N7K1D")

	var oauthErr *OAuth2Error
	require.ErrorAs(t, err, &oauthErr)
	require.Equal(t, http.StatusNotFound, oauthErr.StatusCode)
}
