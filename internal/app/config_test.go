package app

import (
	"testing"
	"time"

	"github.com/slumberware/slumber/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigClockSkewLeeway(t *testing.T) {
	t.Run("defaults to zero", func(t *testing.T) {
		t.Setenv("AUTH_CLOCK_SKEW_LEEWAY", "")

		cfg := LoadConfig()
		require.Zero(t, cfg.Leeway, "tokens must expire exactly unless a skew window is configured")
	})

	t.Run("honours a configured window", func(t *testing.T) {
		t.Setenv("AUTH_CLOCK_SKEW_LEEWAY", "45s")

		cfg := LoadConfig()
		require.Equal(t, 45*time.Second, cfg.Leeway)
	})

	t.Run("caps excessive windows", func(t *testing.T) {
		t.Setenv("AUTH_CLOCK_SKEW_LEEWAY", "10m")

		cfg := LoadConfig()
		require.Equal(t, jwtx.MaxLeeway, cfg.Leeway)
	})
}

func TestLoadConfigDebugHeader(t *testing.T) {
	t.Run("off by default", func(t *testing.T) {
		t.Setenv("ENV", "dev")
		t.Setenv("AUTH_ALLOW_DEBUG_HEADER", "")

		require.False(t, LoadConfig().AllowDebugHeader)
	})

	t.Run("enabled in dev when requested", func(t *testing.T) {
		t.Setenv("ENV", "dev")
		t.Setenv("AUTH_ALLOW_DEBUG_HEADER", "true")

		require.True(t, LoadConfig().AllowDebugHeader)
	})

	t.Run("forced off outside dev and test", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		t.Setenv("AUTH_ALLOW_DEBUG_HEADER", "true")

		require.False(t, LoadConfig().AllowDebugHeader)
	})
}
