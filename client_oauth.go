package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// BeginOAuth asks the remote service where to send the user for delegated
// sign-in. The caller opens AuthorizationURL; the provider later redirects
// to OAuth.CallbackPath with code and state.
func (c *Client) BeginOAuth(ctx context.Context) (OAuthRedirect, error) {
	if !c.usable() {
		return OAuthRedirect{}, ErrClientNotReady
	}
	target, err := flows.RunOAuthBegin(ctx, c.oauthFlowDeps())
	if err != nil {
		return OAuthRedirect{}, err
	}
	return OAuthRedirect{
		Provider:         c.config.OAuth.Provider,
		AuthorizationURL: target,
	}, nil
}

// CompleteOAuth finishes a delegated sign-in from the callback's raw query
// string ("code=...&state=..."). Each code is accepted once per client; a
// repeat, or a query missing either value, fails without a network call.
// On success the session is published and the caller continues at
// [Client.LandingRoute].
func (c *Client) CompleteOAuth(ctx context.Context, rawQuery string) (*session.Session, error) {
	if !c.usable() {
		return nil, ErrClientNotReady
	}
	if !c.acquire(ctx, &c.completing, "oauth_complete") {
		return nil, ErrOperationPending
	}
	defer c.completing.Store(false)

	return flows.RunOAuthComplete(ctx, rawQuery, c.oauthFlowDeps())
}

// LandingRoute is where to navigate after a completed delegated sign-in.
func (c *Client) LandingRoute() string {
	if c == nil || c.config.OAuth.LandingRoute == "" {
		return "/"
	}
	return c.config.OAuth.LandingRoute
}

func (c *Client) oauthFlowDeps() flows.OAuthDeps {
	return flows.OAuthDeps{
		Common:      c.commonFlowDeps(),
		Store:       c.sessionStore(),
		Provider:    c.config.OAuth.Provider,
		ConsumeCode: c.consumeCode,
		Metrics: flows.OAuthMetrics{
			Initiated: int(MetricOAuthInitiated),
			Success:   int(MetricOAuthSuccess),
			Failure:   int(MetricOAuthFailure),
		},
		Events: flows.OAuthEvents{
			Initiated: auditEventOAuthInitiated,
			Success:   auditEventOAuthSuccess,
			Failure:   auditEventOAuthFailure,
		},
		Errors: flows.OAuthErrors{
			ClientNotReady:     ErrClientNotReady,
			AuthorizeFailed:    ErrOAuthAuthorizeFailed,
			CallbackIncomplete: ErrOAuthCallbackIncomplete,
			CodeConsumed:       ErrOAuthCodeConsumed,
			TokenMissing:       ErrOAuthTokenMissing,
			SessionInvalid:     ErrSessionInvalid,
		},
	}
}
