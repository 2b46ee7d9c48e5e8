package flows

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/goAuthClient/gateway"
)

// LogoutMetrics carries metric IDs needed by the logout flow.
type LogoutMetrics struct {
	Logout              int
	LogoutRemoteFailure int
}

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	Logout string
}

// LogoutErrors carries host-level sentinel errors used by the logout flow.
type LogoutErrors struct {
	ClientNotReady error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Common
	Store SessionStore

	Metrics LogoutMetrics
	Events  LogoutEvents
	Errors  LogoutErrors
}

// RunLogout clears local state first and then asks the remote service to
// tear down the session with the token captured before clearing. The remote
// call is best-effort: its failure is logged and counted, never returned.
// The returned error is the local erase failure, if any.
func RunLogout(ctx context.Context, deps LogoutDeps) error {
	deps.Common = deps.Common.withDefaults()
	if deps.Store == nil {
		return deps.Errors.ClientNotReady
	}

	var email string
	if cur := deps.Store.Get(); cur != nil {
		email = cur.Identity.Email
	}
	token := deps.Store.CurrentToken()

	clearErr := deps.Store.Clear(ctx)
	if clearErr != nil {
		deps.Logger.Warn("logout could not erase durable token", slog.Any("error", clearErr))
	}

	remote := "skipped"
	if token != "" && deps.Sender != nil {
		remote = "ok"
		if _, err := deps.Sender.Send(gateway.WithBearer(ctx, token), gateway.Authenticated, http.MethodPost, PathLogout, nil); err != nil {
			remote = reasonOf(err)
			deps.MetricInc(deps.Metrics.LogoutRemoteFailure)
			deps.Logger.Warn("server-side logout failed", slog.String("reason", remote))
		}
	}

	deps.MetricInc(deps.Metrics.Logout)
	deps.EmitAudit(ctx, deps.Events.Logout, clearErr == nil, email, clearErr, func() map[string]string {
		return map[string]string{"remote": remote}
	})
	deps.Logger.Info("logged out", slog.String("email", email))
	return clearErr
}
