package goAuthClient

import (
	"slices"
	"testing"
	"time"
)

func TestLint_DefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	codes := cfg.Lint().Codes()

	// localhost over http is fine; the plaintext file backend is not.
	if slices.Contains(codes, "plaintext_base_url") {
		t.Error("loopback base url must not warn")
	}
	if !slices.Contains(codes, "token_unencrypted_on_disk") {
		t.Error("expected token_unencrypted_on_disk for the file backend")
	}
}

func TestLint_Warnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{
			name:   "remote http",
			mutate: func(c *Config) { c.API.BaseURL = "http://auth.example.com" },
			code:   "plaintext_base_url",
		},
		{
			name:   "no timeout",
			mutate: func(c *Config) { c.Gateway.Timeout = 0 },
			code:   "gateway_timeout_disabled",
		},
		{
			name: "remote redis without password",
			mutate: func(c *Config) {
				c.Session.Backend = SessionBackendRedis
				c.Session.RedisAddr = "10.1.2.3:6379"
			},
			code: "redis_no_password",
		},
		{
			name:   "expiry check off",
			mutate: func(c *Config) { c.Session.LocalExpiryCheck = false },
			code:   "local_expiry_check_disabled",
		},
		{
			name:   "large leeway",
			mutate: func(c *Config) { c.Session.Leeway = 5 * time.Minute },
			code:   "leeway_large",
		},
		{
			name: "lossy audit",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.DropIfFull = true
			},
			code: "audit_may_drop",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(&cfg)
			if !slices.Contains(cfg.Lint().Codes(), tc.code) {
				t.Fatalf("expected %s warning", tc.code)
			}
		})
	}
}

func TestLint_HardenedConfigQuiet(t *testing.T) {
	cfg := defaultConfig()
	cfg.API.BaseURL = "https://auth.example.com"
	cfg.Session.Backend = SessionBackendSealed

	if ws := cfg.Lint(); len(ws) != 0 {
		t.Fatalf("expected no warnings, got %v", ws.Codes())
	}
}

func TestLint_LoopbackRedisWithoutPassword(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.Backend = SessionBackendRedis
	cfg.Session.RedisAddr = "127.0.0.1:6379"
	if slices.Contains(cfg.Lint().Codes(), "redis_no_password") {
		t.Fatal("loopback redis must not warn")
	}
}
