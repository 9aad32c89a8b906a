package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Pool       PoolConfig
	Guard      GuardConfig
	Cache      CacheConfig
	Fetch      FetchConfig
	Screenshot ScreenshotConfig
	Auth       AuthConfig
	Log        LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how each slot's browser process is launched.
type BrowserConfig struct {
	// Headless controls whether the browsers run headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// DefaultProxy is the proxy URL used by all slots.
	DefaultProxy string
}

// PoolConfig controls the browser slot pool.
type PoolConfig struct {
	// Size is the fixed number of browser slots.
	Size int // default: 5

	// CheckoutTimeout bounds how long a caller waits for a free slot.
	CheckoutTimeout time.Duration // default: 30s

	// ProbeTimeout bounds the pre-handout liveness probe.
	ProbeTimeout time.Duration // default: 5s
}

// GuardConfig controls per-domain admission.
type GuardConfig struct {
	// RatePerSecond is the per-domain token bucket refill rate.
	RatePerSecond float64 // default: 1

	// Burst is the per-domain token bucket capacity.
	Burst int // default: 5

	// BreakerThreshold is the consecutive-failure count that opens a
	// domain's circuit.
	BreakerThreshold int // default: 5

	// BreakerCooldown is how long an open circuit blocks dispatch before
	// the half-open probe is admitted.
	BreakerCooldown time.Duration // default: 30s

	// MaxDomains caps the tracked domain-state map.
	MaxDomains int // default: 10000

	// MaxBatchDomains caps how many distinct domains one batch may span.
	MaxBatchDomains int // default: 200
}

// CacheConfig controls the extraction result cache.
type CacheConfig struct {
	// TTL is the default lifetime of a cached result.
	TTL time.Duration // default: 1h

	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 1000
}

// FetchConfig controls the per-request orchestration.
type FetchConfig struct {
	// DefaultTimeout is applied when the request carries none.
	DefaultTimeout time.Duration // default: 30s

	// MaxTimeout is the maximum allowed timeout from the client.
	MaxTimeout time.Duration // default: 180s

	// MaxAttempts bounds pipeline runs per request, counting the first.
	MaxAttempts int // default: 3

	// RetryDelay is the pause between transient-error attempts.
	RetryDelay time.Duration // default: 500ms
}

// ScreenshotConfig controls screenshot persistence.
type ScreenshotConfig struct {
	// Dir is where capture files are written.
	Dir string // default: "./screenshots"

	// Retention is how long captures are kept before the sweeper deletes
	// them. Zero disables sweeping.
	Retention time.Duration // default: 24h
}

// AuthConfig controls bearer-token authentication.
type AuthConfig struct {
	// APIKey is the expected bearer token. Empty means open access.
	APIKey string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LOADWIRE_HOST", "0.0.0.0"),
			Port: envIntOr("LOADWIRE_PORT", 8080),
			Mode: envOr("LOADWIRE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("LOADWIRE_HEADLESS", true),
			NoSandbox:    envBoolOr("LOADWIRE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("LOADWIRE_BROWSER_BIN"),
			DefaultProxy: os.Getenv("LOADWIRE_PROXY"),
		},
		Pool: PoolConfig{
			Size:            envIntOr("LOADWIRE_POOL_SIZE", 5),
			CheckoutTimeout: envDurationOr("LOADWIRE_CHECKOUT_TIMEOUT", 30*time.Second),
			ProbeTimeout:    envDurationOr("LOADWIRE_PROBE_TIMEOUT", 5*time.Second),
		},
		Guard: GuardConfig{
			RatePerSecond:    envFloatOr("LOADWIRE_DOMAIN_RPS", 1.0),
			Burst:            envIntOr("LOADWIRE_DOMAIN_BURST", 5),
			BreakerThreshold: envIntOr("LOADWIRE_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  envDurationOr("LOADWIRE_BREAKER_COOLDOWN", 30*time.Second),
			MaxDomains:       envIntOr("LOADWIRE_MAX_DOMAINS", 10000),
			MaxBatchDomains:  envIntOr("LOADWIRE_MAX_BATCH_DOMAINS", 200),
		},
		Cache: CacheConfig{
			TTL:        envDurationOr("LOADWIRE_CACHE_TTL", 1*time.Hour),
			MaxEntries: envIntOr("LOADWIRE_CACHE_MAX_ENTRIES", 1000),
		},
		Fetch: FetchConfig{
			DefaultTimeout: envDurationOr("LOADWIRE_DEFAULT_TIMEOUT", 30*time.Second),
			MaxTimeout:     envDurationOr("LOADWIRE_MAX_TIMEOUT", 180*time.Second),
			MaxAttempts:    envIntOr("LOADWIRE_MAX_ATTEMPTS", 3),
			RetryDelay:     envDurationOr("LOADWIRE_RETRY_DELAY", 500*time.Millisecond),
		},
		Screenshot: ScreenshotConfig{
			Dir:       envOr("LOADWIRE_SCREENSHOT_DIR", "./screenshots"),
			Retention: envDurationOr("LOADWIRE_SCREENSHOT_RETENTION", 24*time.Hour),
		},
		Auth: AuthConfig{
			APIKey: os.Getenv("LOADWIRE_API_KEY"),
		},
		Log: LogConfig{
			Level:  envOr("LOADWIRE_LOG_LEVEL", "info"),
			Format: envOr("LOADWIRE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
