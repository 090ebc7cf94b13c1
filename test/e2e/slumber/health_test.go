package slumber_test

import (
	"testing"

	"github.com/slumberware/slumber/pkg/slumbersdk"
	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies the liveness and readiness probes of a
// freshly started service.
func TestHealthEndpoints(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := slumbersdk.NewSDKClient(baseURL)

	// Liveness: always ok while the process runs
	live, err := client.GetLiveness(t.Context())
	assertHealthy(t, live, err)
	require.NotEmpty(t, live.Uptime)
	require.NotEmpty(t, live.Version)
	require.Nil(t, live.Checks, "livez should not include dependency checks")

	// Readiness: includes database and signer checks
	ready, err := client.GetReadiness(t.Context())
	assertHealthy(t, ready, err)
	require.NotNil(t, ready.Checks, "readyz should include dependency checks")
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Signer)
}
