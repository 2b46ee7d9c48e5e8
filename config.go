package goAuthClient

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines the client's static settings.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable; [Builder.Build] takes a private copy.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Gateway GatewayConfig `yaml:"gateway"`
	Session SessionConfig `yaml:"session"`
	OAuth   OAuthConfig   `yaml:"oauth"`
	Locale  string        `yaml:"locale"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig locates the remote authentication service.
type APIConfig struct {
	// BaseURL is the absolute root every endpoint path is resolved against.
	BaseURL string `yaml:"base_url"`
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig controls outbound request construction.
type GatewayConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionBackend selects where the durable access token lives.
type SessionBackend string

const (
	// SessionBackendFile keeps the token in a 0600 JSON file.
	SessionBackendFile SessionBackend = "file"
	// SessionBackendSealed keeps the token in an age-encrypted file.
	SessionBackendSealed SessionBackend = "sealed"
	// SessionBackendRedis keeps the token under one Redis key.
	SessionBackendRedis SessionBackend = "redis"
	// SessionBackendMemory keeps the token in process memory only.
	SessionBackendMemory SessionBackend = "memory"
)

// SessionConfig configures the token slot and bootstrap behavior.
type SessionConfig struct {
	Backend SessionBackend `yaml:"backend"`

	// FilePath is the token file for the file and sealed backends. Empty
	// means the per-user default location.
	FilePath string `yaml:"file_path"`
	// KeyPath is the age identity file for the sealed backend. Empty means
	// FilePath with a ".key" suffix.
	KeyPath string `yaml:"key_path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
	// RedisTTL bounds how long the Redis key outlives its last write. Zero
	// keeps it until erased.
	RedisTTL time.Duration `yaml:"redis_ttl"`

	// LocalExpiryCheck lets Bootstrap reject a JWT whose exp is already past
	// without calling the remote service.
	LocalExpiryCheck bool          `yaml:"local_expiry_check"`
	Leeway           time.Duration `yaml:"leeway"`
}

/*
====================================
OAUTH CONFIG
====================================
*/

// OAuthConfig configures the delegated sign-in flow.
type OAuthConfig struct {
	Provider string `yaml:"provider"`
	// CallbackPath is the local route the provider redirects back to.
	CallbackPath string `yaml:"callback_path"`
	// LandingRoute is where the caller navigates after a completed sign-in.
	LandingRoute string `yaml:"landing_route"`
	// ListenAddr is the loopback address of the CLI callback listener.
	ListenAddr string `yaml:"listen_addr"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
// BaseURL points at a local development service.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
		},
		Gateway: GatewayConfig{
			Timeout:   10 * time.Second,
			UserAgent: "goAuthClient",
		},
		Session: SessionConfig{
			Backend:          SessionBackendFile,
			RedisAddr:        "127.0.0.1:6379",
			RedisPrefix:      "goauthclient",
			LocalExpiryCheck: true,
			Leeway:           30 * time.Second,
		},
		OAuth: OAuthConfig{
			Provider:     "google",
			CallbackPath: "/oauth/google/callback",
			LandingRoute: "/",
			ListenAddr:   "127.0.0.1:5173",
		},
		Locale: LocaleFinnish,
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

// Validate checks cfg for values the client cannot run with.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	// API
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("API BaseURL is required")
	}
	base, err := url.Parse(c.API.BaseURL)
	if err != nil || base.Host == "" {
		return errors.New("API BaseURL must be an absolute URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return errors.New("API BaseURL scheme must be http or https")
	}

	// Gateway
	if c.Gateway.Timeout < 0 {
		return errors.New("Gateway Timeout must be >= 0")
	}

	// Session
	switch c.Session.Backend {
	case SessionBackendFile, SessionBackendSealed, SessionBackendMemory:
		// valid
	case SessionBackendRedis:
		if c.Session.RedisAddr == "" {
			return errors.New("Session RedisAddr is required for the redis backend")
		}
		if c.Session.RedisDB < 0 {
			return errors.New("Session RedisDB must be >= 0")
		}
		if c.Session.RedisTTL < 0 {
			return errors.New("Session RedisTTL must be >= 0")
		}
	default:
		return errors.New("Session Backend must be 'file', 'sealed', 'redis' or 'memory'")
	}
	if c.Session.Leeway < 0 {
		return errors.New("Session Leeway must be >= 0")
	}

	// OAuth
	if c.OAuth.Provider == "" {
		return errors.New("OAuth Provider is required")
	}
	if strings.ContainsAny(c.OAuth.Provider, "/?#") {
		return errors.New("OAuth Provider must be a single path segment")
	}
	if !strings.HasPrefix(c.OAuth.CallbackPath, "/") {
		return errors.New("OAuth CallbackPath must start with '/'")
	}
	if !strings.HasPrefix(c.OAuth.LandingRoute, "/") {
		return errors.New("OAuth LandingRoute must start with '/'")
	}

	// Locale
	if !knownLocale(c.Locale) {
		return errors.New("Locale must be 'fi' or 'en'")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
