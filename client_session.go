package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// Bootstrap reconciles the in-memory session with the durable token. It is
// meant to run once per process start, before any route is evaluated.
//
// With no stored token the result is anonymous. A stored token is checked
// locally for a past exp (when Session.LocalExpiryCheck is on) and otherwise
// sent to the identity endpoint exactly once; if the remote service accepts
// it the result is authenticated, otherwise the token is erased and the
// result is anonymous with Cause set. The error return is reserved for
// local slot failures that left the store unreconciled.
func (c *Client) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	if !c.usable() {
		return BootstrapResult{}, ErrClientNotReady
	}
	if !c.acquire(ctx, &c.bootstrapping, "bootstrap") {
		return BootstrapResult{}, ErrOperationPending
	}
	defer c.bootstrapping.Store(false)

	res, err := flows.RunBootstrap(ctx, c.bootstrapFlowDeps())
	if err != nil {
		return BootstrapResult{Cause: res.Cause}, err
	}
	if res.Session == nil {
		return BootstrapResult{Outcome: OutcomeAnonymous, Cause: res.Cause}, nil
	}
	return BootstrapResult{Outcome: OutcomeAuthenticated, Session: res.Session}, nil
}

func (c *Client) bootstrapFlowDeps() flows.BootstrapDeps {
	return flows.BootstrapDeps{
		Common:           c.commonFlowDeps(),
		Store:            c.sessionStore(),
		LocalExpiryCheck: c.config.Session.LocalExpiryCheck,
		Leeway:           c.config.Session.Leeway,
		Metrics: flows.BootstrapMetrics{
			Authenticated: int(MetricBootstrapAuthenticated),
			Anonymous:     int(MetricBootstrapAnonymous),
			Rejected:      int(MetricBootstrapRejected),
		},
		Events: flows.BootstrapEvents{
			Authenticated: auditEventBootstrapAuthenticated,
			Anonymous:     auditEventBootstrapAnonymous,
			Rejected:      auditEventBootstrapRejected,
		},
		Errors: flows.BootstrapErrors{
			ClientNotReady: ErrClientNotReady,
			SessionExpired: ErrSessionExpired,
			SessionInvalid: ErrSessionInvalid,
		},
	}
}

// Login exchanges email and password for an access token on the public
// channel and publishes the session in a single store write.
//
// Rejections carrying a known reason map to [ErrUserNotFound],
// [ErrUserInactive], [ErrUserNotVerified] or [ErrInvalidPassword]; anything
// else is [ErrLoginFailed] wrapping the gateway error.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	if !c.usable() {
		return nil, ErrClientNotReady
	}
	if !c.acquire(ctx, &c.loggingIn, "login") {
		return nil, ErrOperationPending
	}
	defer c.loggingIn.Store(false)

	return flows.RunLogin(ctx, email, password, c.loginFlowDeps())
}

func (c *Client) loginFlowDeps() flows.LoginDeps {
	return flows.LoginDeps{
		Common: c.commonFlowDeps(),
		Store:  c.sessionStore(),
		Metrics: flows.LoginMetrics{
			LoginSuccess: int(MetricLoginSuccess),
			LoginFailure: int(MetricLoginFailure),
		},
		Events: flows.LoginEvents{
			LoginSuccess: auditEventLoginSuccess,
			LoginFailure: auditEventLoginFailure,
		},
		Errors: flows.LoginErrors{
			ClientNotReady:     ErrClientNotReady,
			MissingCredentials: ErrMissingCredentials,
			UserNotFound:       ErrUserNotFound,
			UserInactive:       ErrUserInactive,
			UserNotVerified:    ErrUserNotVerified,
			InvalidPassword:    ErrInvalidPassword,
			LoginFailed:        ErrLoginFailed,
		},
	}
}

// Logout clears the local session first, then asks the remote service to
// revoke the token. A failed revocation is logged and counted, never
// returned; the only errors are local ones from erasing the slot.
func (c *Client) Logout(ctx context.Context) error {
	if !c.usable() {
		return ErrClientNotReady
	}
	if !c.acquire(ctx, &c.loggingOut, "logout") {
		return ErrOperationPending
	}
	defer c.loggingOut.Store(false)

	return flows.RunLogout(ctx, c.logoutFlowDeps())
}

func (c *Client) logoutFlowDeps() flows.LogoutDeps {
	return flows.LogoutDeps{
		Common: c.commonFlowDeps(),
		Store:  c.sessionStore(),
		Metrics: flows.LogoutMetrics{
			Logout:              int(MetricLogout),
			LogoutRemoteFailure: int(MetricLogoutRemoteFailure),
		},
		Events: flows.LogoutEvents{
			Logout: auditEventLogout,
		},
		Errors: flows.LogoutErrors{
			ClientNotReady: ErrClientNotReady,
		},
	}
}
