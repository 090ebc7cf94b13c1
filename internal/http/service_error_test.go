package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slumberware/slumber/internal/service"
	"github.com/slumberware/slumber/internal/store/drivers/sqlite"
	"github.com/slumberware/slumber/pkg/slumbersdk"
	"github.com/stretchr/testify/require"
)

const errorTestFingerprint = "f3b9a1f0-8a43-4a6e-b5de-5c1d6a2f9d11"

func newTestIdentityHandler(t *testing.T) (*IdentityHandler, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return &IdentityHandler{IdentityService: &service.IdentityService{Store: st}}, st
}

func newIdentityRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/identity",
		strings.NewReader(`{"device_fingerprint":"`+errorTestFingerprint+`"}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// TestStorageUnavailableAnswers503 verifies a down database is reported as a
// degraded service, not a generic server error, so callers know to retry.
func TestStorageUnavailableAnswers503(t *testing.T) {
	handler, st := newTestIdentityHandler(t)
	require.NoError(t, st.Close())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newIdentityRequest())

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeErrorBody(t, rec)
	require.Equal(t, slumbersdk.ErrorCodeTemporarilyUnavailable, body["error"])
}

// TestExpiredDeadlineAnswers504 verifies a request whose context deadline has
// already passed surfaces as a gateway timeout.
func TestExpiredDeadlineAnswers504(t *testing.T) {
	handler, _ := newTestIdentityHandler(t)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newIdentityRequest().WithContext(ctx))

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	body := decodeErrorBody(t, rec)
	require.Equal(t, slumbersdk.ErrorCodeTemporarilyUnavailable, body["error"])
}

// TestSleepListDegradedStorage verifies the protected data handlers share the
// same degraded-service mapping as the identity endpoint.
func TestSleepListDegradedStorage(t *testing.T) {
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Close())

	handler := &SleepHandler{SleepService: &service.SleepService{Store: st}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sleep", nil)
	handler.HandleList(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeErrorBody(t, rec)
	require.Equal(t, slumbersdk.ErrorCodeTemporarilyUnavailable, body["error"])
}
