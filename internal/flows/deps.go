package flows

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/MrEthical07/goAuthClient/gateway"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
)

// Remote endpoints consumed by the flows.
const (
	PathLogin              = "/auth/login"
	PathUsersMe            = "/users/me"
	PathRegister           = "/auth/register-json"
	PathRequestVerifyToken = "/auth/request-verify-token"
	PathVerifyOTP          = "/auth/verify-otp"
	PathLogout             = "/auth/jwt/logout"
)

// OAuthAuthorizePath returns the authorize endpoint for provider.
func OAuthAuthorizePath(provider string) string {
	return "/auth/" + url.PathEscape(provider) + "/authorize"
}

// OAuthCallbackPath returns the callback endpoint for provider with code and
// state query-escaped.
func OAuthCallbackPath(provider, code, state string) string {
	query := url.Values{}
	query.Set("code", code)
	query.Set("state", state)
	return "/auth/" + url.PathEscape(provider) + "/callback?" + query.Encode()
}

// Sender issues one request on a gateway channel.
type Sender interface {
	Send(ctx context.Context, channel gateway.Channel, method, path string, body any) (*gateway.Response, error)
}

// SessionStore is the write path flows use to publish session changes.
type SessionStore interface {
	Get() *session.Session
	Set(ctx context.Context, sess session.Session) error
	Clear(ctx context.Context) error
	ReadToken(ctx context.Context) (string, error)
	CurrentToken() string
}

// AuditFunc emits one audit event. metadata is evaluated lazily.
type AuditFunc func(ctx context.Context, event string, success bool, email string, err error, metadata func() map[string]string)

// Deps groups flow dependency sets. The root client builds this once and
// delegates each operation to the matching flow implementation.
type Deps struct {
	Bootstrap    BootstrapDeps
	Login        LoginDeps
	Logout       LogoutDeps
	Registration RegistrationDeps
	OAuth        OAuthDeps
}

// Common carries the hooks every flow shares.
type Common struct {
	Sender       Sender
	Now          func() time.Time
	InspectToken func(string) (jwt.Claims, error)
	MetricInc    func(int)
	EmitAudit    AuditFunc
	Logger       *slog.Logger
}

func (c Common) withDefaults() Common {
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.InspectToken == nil {
		c.InspectToken = jwt.Inspect
	}
	if c.MetricInc == nil {
		c.MetricInc = func(int) {}
	}
	if c.EmitAudit == nil {
		c.EmitAudit = func(context.Context, string, bool, string, error, func() map[string]string) {}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// expiryOf reads the token's exp claim when it is a JWT. Opaque tokens
// have no local expiry.
func (c Common) expiryOf(token string) time.Time {
	claims, err := c.InspectToken(token)
	if err != nil {
		return time.Time{}
	}
	return claims.ExpiresAt
}

// reject wraps cause with a host sentinel so callers can match either.
func reject(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// reasonOf labels err for audit metadata without leaking response bodies.
func reasonOf(err error) string {
	if httpErr, ok := gateway.AsHTTPError(err); ok {
		if reason := httpErr.Reason(); reason != "" {
			return reason
		}
		return fmt.Sprintf("http_%d", httpErr.Status)
	}
	return gateway.Kind(err).String()
}

type tokenPayload struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
	User        *struct {
		Email string `json:"email"`
	} `json:"user"`
}

func (p tokenPayload) identityEmail() string {
	if p.Email != "" {
		return p.Email
	}
	if p.User != nil {
		return p.User.Email
	}
	return ""
}

type identityPayload struct {
	Email string `json:"email"`
}

// introspect calls the identity endpoint with token pinned as the bearer.
func introspect(ctx context.Context, sender Sender, token string) (session.Identity, error) {
	resp, err := sender.Send(gateway.WithBearer(ctx, token), gateway.Authenticated, http.MethodGet, PathUsersMe, nil)
	if err != nil {
		return session.Identity{}, err
	}
	var payload identityPayload
	if err := resp.Decode(&payload); err != nil {
		return session.Identity{}, err
	}
	if payload.Email == "" {
		return session.Identity{}, gateway.Malformed("identity payload has no email")
	}
	return session.Identity{Email: payload.Email}, nil
}
