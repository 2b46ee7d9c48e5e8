package goAuthClient

import (
	"net"
	"net/url"
	"time"
)

// LintWarning is a configuration that is valid but weakens the client.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, len(ws))
	for i, w := range ws {
		codes[i] = w.Code
	}
	return codes
}

// Lint reports risky but valid settings. It does not replace Validate.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if base, err := url.Parse(c.API.BaseURL); err == nil && base.Scheme == "http" && !isLoopbackHost(base.Hostname()) {
		add("plaintext_base_url", "API BaseURL uses http to a non-loopback host; credentials and tokens travel unencrypted")
	}
	if c.Gateway.Timeout == 0 {
		add("gateway_timeout_disabled", "Gateway Timeout is 0; a stalled service blocks operations until the caller cancels")
	}
	if c.Session.Backend == SessionBackendFile {
		add("token_unencrypted_on_disk", "Session Backend 'file' stores the access token in plaintext; consider 'sealed'")
	}
	if c.Session.Backend == SessionBackendRedis && c.Session.RedisPassword == "" {
		if host, _, err := net.SplitHostPort(c.Session.RedisAddr); err != nil || !isLoopbackHost(host) {
			add("redis_no_password", "Session RedisPassword is empty for a non-loopback Redis")
		}
	}
	if !c.Session.LocalExpiryCheck {
		add("local_expiry_check_disabled", "Session LocalExpiryCheck is off; expired tokens cost a network round trip at bootstrap")
	}
	if c.Session.Leeway > time.Minute {
		add("leeway_large", "Session Leeway above 1m keeps expired tokens usable locally")
	}
	if c.Audit.Enabled && c.Audit.DropIfFull {
		add("audit_may_drop", "Audit DropIfFull discards events under back-pressure")
	}

	return ws
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
