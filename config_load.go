package goAuthClient

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable LoadConfig reads.
const EnvPrefix = "GOAUTHCLIENT_"

// LoadConfig builds a Config from defaults, the file at path and then
// GOAUTHCLIENT_* environment variables, in that order, and validates the
// result.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas; anything else is read as YAML. Both use the same keys
// (base_url, session.backend, ...). An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", displayPath(path), err)
	}
	return cfg, nil
}

// ParseConfig decodes data over the defaults without consulting the
// environment. format is "yaml", "json" or "jsonc".
func ParseConfig(data []byte, format string) (Config, error) {
	cfg := defaultConfig()
	if err := cfg.decode(data, format); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	format := "yaml"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		format = "jsonc"
	}
	if err := c.decode(data, format); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// decode merges data into c. JSON is a subset of YAML, so commented JSON
// is stripped to plain JSON and handed to the same decoder.
func (c *Config) decode(data []byte, format string) error {
	switch format {
	case "yaml", "yml":
	case "json", "jsonc":
		data = jsonc.ToJSON(data)
	default:
		return fmt.Errorf("unknown config format %q", format)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

type envOverride struct {
	name  string
	apply func(c *Config, value string) error
}

var envOverrides = []envOverride{
	{"BASE_URL", func(c *Config, v string) error { c.API.BaseURL = v; return nil }},
	{"TIMEOUT", func(c *Config, v string) error { return setDuration(&c.Gateway.Timeout, v) }},
	{"USER_AGENT", func(c *Config, v string) error { c.Gateway.UserAgent = v; return nil }},
	{"SESSION_BACKEND", func(c *Config, v string) error { c.Session.Backend = SessionBackend(strings.ToLower(v)); return nil }},
	{"SESSION_FILE", func(c *Config, v string) error { c.Session.FilePath = v; return nil }},
	{"SESSION_KEY_FILE", func(c *Config, v string) error { c.Session.KeyPath = v; return nil }},
	{"REDIS_ADDR", func(c *Config, v string) error { c.Session.RedisAddr = v; return nil }},
	{"REDIS_PASSWORD", func(c *Config, v string) error { c.Session.RedisPassword = v; return nil }},
	{"REDIS_DB", func(c *Config, v string) error { return setInt(&c.Session.RedisDB, v) }},
	{"REDIS_PREFIX", func(c *Config, v string) error { c.Session.RedisPrefix = v; return nil }},
	{"LOCAL_EXPIRY_CHECK", func(c *Config, v string) error { return setBool(&c.Session.LocalExpiryCheck, v) }},
	{"OAUTH_PROVIDER", func(c *Config, v string) error { c.OAuth.Provider = v; return nil }},
	{"OAUTH_LISTEN_ADDR", func(c *Config, v string) error { c.OAuth.ListenAddr = v; return nil }},
	{"LOCALE", func(c *Config, v string) error { c.Locale = strings.ToLower(v); return nil }},
	{"AUDIT_ENABLED", func(c *Config, v string) error { return setBool(&c.Audit.Enabled, v) }},
	{"METRICS_ENABLED", func(c *Config, v string) error { return setBool(&c.Metrics.Enabled, v) }},
}

// applyEnv overrides fields from set, non-empty variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		value, ok := lookup(EnvPrefix + o.name)
		if !ok || value == "" {
			continue
		}
		if err := o.apply(c, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, o.name, err)
		}
	}
	return nil
}

func setDuration(dst *time.Duration, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "config"
	}
	return path
}
