package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/slumberware/slumber/pkg/jwtx"
)

type Config struct {
	Issuer   string   // Required: issuer claim for tokens
	Audience []string // Optional: audience claims validated in tokens

	Algorithm            string        // Optional: JWT signing algorithm (RS256, ES256, EdDSA) (default: EdDSA)
	RSABits              int           // Optional: RSA key size for RS256 (default: 4096)
	NumKeys              int           // Optional: number of signing keys to generate (default: 3, min: 1, max: 10)
	KeyStorageMode       string        // Optional: key storage mode (ephemeral, persistent) (default: ephemeral)
	KeyGracePeriod       time.Duration // Optional: grace period for retired keys (default: 30 days)
	MasterKeyPath        string        // Optional: path to master encryption key file (for persistent keys)
	DatabaseFile         string        // Optional: path to SQLite database file (default: ./slumber.db)
	AccessTTL            time.Duration // Access token lifetime (default: 30m)
	RefreshTTL           time.Duration // Refresh token lifetime (default: 30 days)
	Leeway               time.Duration // Clock-skew tolerance for token validation (default: 0, capped at 2m)
	AllowDebugHeader     bool          // Dev-only: honour X-Debug-Account-ID (forced off outside dev/test)
	Env                  string        // Environment (dev, test, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	RequestTimeout       time.Duration // Per-request deadline (default: 15s)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("AUTH_ISSUER", "slumber-auth"),
		Audience:             splitList(os.Getenv("AUTH_AUDIENCE")),
		Algorithm:            getEnvOrDefault("AUTH_ALGORITHM", "EdDSA"),
		KeyStorageMode:       getEnvOrDefault("AUTH_KEY_STORAGE_MODE", "ephemeral"),
		KeyGracePeriod:       getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 30*24*time.Hour),
		MasterKeyPath:        os.Getenv("AUTH_MASTER_KEY_PATH"), // Optional
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "slumber.db"),
		AccessTTL:            getEnvDurationOrDefault("AUTH_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("AUTH_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		// Expiry is exact unless an operator opts into a skew window.
		Leeway:               getEnvDurationOrDefault("AUTH_CLOCK_SKEW_LEEWAY", 0),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		RequestTimeout:       getEnvDurationOrDefault("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Parse RSA bits (only relevant for RS256)
	if rsaBitsStr := os.Getenv("AUTH_RSA_BITS"); rsaBitsStr != "" {
		if bits, err := strconv.Atoi(rsaBitsStr); err == nil {
			cfg.RSABits = bits
		}
		// If parsing fails, RSABits remains 0 (will use default in KeyManager)
	}

	// Parse number of keys (default: 3)
	if numKeysStr := os.Getenv("AUTH_NUM_KEYS"); numKeysStr != "" {
		if numKeys, err := strconv.Atoi(numKeysStr); err == nil {
			cfg.NumKeys = numKeys
		}
		// If parsing fails, NumKeys remains 0 (will use default in KeyManager)
	}

	// Excessive leeway silently extends token lifetimes.
	if cfg.Leeway > jwtx.MaxLeeway {
		cfg.Leeway = jwtx.MaxLeeway
	}

	// The debug header bypasses token verification entirely, so the switch
	// only takes effect in environments where that is survivable.
	if getEnvBoolOrDefault("AUTH_ALLOW_DEBUG_HEADER", false) && cfg.DebugHeaderPermitted() {
		cfg.AllowDebugHeader = true
	}

	return cfg
}

// DebugHeaderPermitted reports whether the environment may honour the
// X-Debug-Account-ID header at all.
func (c Config) DebugHeaderPermitted() bool {
	return c.Env == "dev" || c.Env == "test"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// splitList parses a comma- or space-separated list.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
