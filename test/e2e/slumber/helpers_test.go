package slumber_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/slumberware/slumber/pkg/slumbersdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for slumber auth service end-to-end
 * tests. This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "slumber-auth-test:latest"

	testIssuer = "slumber-auth"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Slumber Auth Service Docker image...")

	// Build the Docker image once before all tests
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	// Run all tests
	exitCode := m.Run()

	// Clean up the Docker image after all tests complete
	fmt.Fprintf(os.Stdout, "Cleaning up Slumber Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image if it doesn't exist.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/slumberd/Dockerfile",
		"../../../")
	cmd.Dir = "." // Ensure we're in the test directory
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the common container configuration for e2e tests.
func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_DATABASE_FILE": "/tmp/slumber.db",
		"AUTH_ISSUER":        testIssuer,
		"AUTH_ALGORITHM":     "EdDSA",
		"AUTH_NUM_KEYS":      "1", // Start with 1 key for simpler testing
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
}

// relaxedRateLimits raises the per-endpoint limits so rapid-fire test
// requests don't trip the production defaults.
func relaxedRateLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
		"RATELIMIT_LENIENT_REQUESTS":  "1000",
		"RATELIMIT_LENIENT_BURST":     "1000",
	}
}

// setupAuthContainer starts the auth service in a container and returns the base URL.
func setupAuthContainer(t *testing.T) (string, func()) {
	t.Helper()
	env := baseEnv()
	for k, v := range relaxedRateLimits() {
		env[k] = v
	}
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with DEFAULT rate limits.
// This is specifically for testing that rate limiting actually works.
// Most tests should use setupAuthContainer() which has relaxed limits to prevent test failures.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

// setupAuthContainerWithEnv starts the auth service with the base test
// configuration plus the given overrides.
func setupAuthContainerWithEnv(t *testing.T, overrides map[string]string) (string, func()) {
	t.Helper()
	env := baseEnv()
	for k, v := range relaxedRateLimits() {
		env[k] = v
	}
	for k, v := range overrides {
		env[k] = v
	}
	return startContainer(t, env)
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	// Get the mapped port
	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// newFingerprint generates a fresh client-side device fingerprint.
func newFingerprint() string {
	return uuid.NewString()
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *slumbersdk.TokenResponse) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.NotEmpty(t, resp.RefreshToken, "Refresh token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.NotEmpty(t, resp.Scope, "Scope should not be empty")
}

// assertUnauthorized checks that an error indicates unauthorized access.
func assertUnauthorized(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)
	errMsg := err.Error()
	hasUnauthorized := strings.Contains(errMsg, "401") ||
		strings.Contains(errMsg, "invalid_grant") ||
		strings.Contains(errMsg, "invalid_token")
	require.True(t, hasUnauthorized, "%s - error should indicate unauthorized access, got: %s", context, errMsg)
}

// assertCannotAccessEndpoint verifies that an error indicates forbidden access (403 or scope error).
func assertCannotAccessEndpoint(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)
	errMsg := err.Error()
	// Accept either server-side 403 error or client-side scope validation error
	hasForbidden := strings.Contains(errMsg, "403") || strings.Contains(errMsg, "missing required scope")
	require.True(t, hasForbidden, "Error should indicate forbidden access (403) or missing scopes, got: %s", errMsg)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *slumbersdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
