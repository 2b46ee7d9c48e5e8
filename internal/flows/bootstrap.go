package flows

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAuthClient/session"
)

// BootstrapMetrics carries metric IDs needed by the bootstrap flow.
type BootstrapMetrics struct {
	Authenticated int
	Anonymous     int
	Rejected      int
}

// BootstrapEvents carries audit event names used by the bootstrap flow.
type BootstrapEvents struct {
	Authenticated string
	Anonymous     string
	Rejected      string
}

// BootstrapErrors carries host-level sentinel errors used by the bootstrap flow.
type BootstrapErrors struct {
	ClientNotReady error
	SessionExpired error
	SessionInvalid error
}

// BootstrapDeps captures bootstrap dependencies.
type BootstrapDeps struct {
	Common
	Store SessionStore

	// LocalExpiryCheck rejects JWTs whose exp is already past without a
	// network round trip.
	LocalExpiryCheck bool
	Leeway           time.Duration

	Metrics BootstrapMetrics
	Events  BootstrapEvents
	Errors  BootstrapErrors
}

// BootstrapResult is the flow-local bootstrap outcome. Session is nil when
// the client ends anonymous. Cause explains a rejected token and is nil for
// the authenticated and no-token outcomes.
type BootstrapResult struct {
	Session  *session.Session
	Rejected bool
	Cause    error
}

// RunBootstrap reconciles the store with the durable token: no token ends
// anonymous, a token the remote service accepts ends authenticated, anything
// else erases the token and ends anonymous. Exactly one introspection call is
// made at most. The returned error is non-nil only when discarding the
// rejected token itself failed.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) (BootstrapResult, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Store == nil || deps.Sender == nil {
		return BootstrapResult{}, deps.Errors.ClientNotReady
	}
	log := deps.Logger

	token, err := deps.Store.ReadToken(ctx)
	if err != nil {
		return discardToken(ctx, deps, reject(deps.Errors.SessionInvalid, err), "slot_unreadable")
	}
	if token == "" {
		if err := deps.Store.Clear(ctx); err != nil {
			return BootstrapResult{}, err
		}
		deps.MetricInc(deps.Metrics.Anonymous)
		deps.EmitAudit(ctx, deps.Events.Anonymous, true, "", nil, nil)
		log.Debug("bootstrap finished", slog.String("outcome", "anonymous"))
		return BootstrapResult{}, nil
	}

	expiresAt := deps.expiryOf(token)
	if deps.LocalExpiryCheck {
		if claims, inspectErr := deps.InspectToken(token); inspectErr == nil && claims.Expired(deps.Now(), deps.Leeway) {
			return discardToken(ctx, deps, deps.Errors.SessionExpired, "expired_locally")
		}
	}

	identity, err := introspect(ctx, deps.Sender, token)
	if err != nil {
		return discardToken(ctx, deps, reject(deps.Errors.SessionInvalid, err), reasonOf(err))
	}

	sess := session.Session{Token: token, Identity: identity, ExpiresAt: expiresAt}
	if err := deps.Store.Set(ctx, sess); err != nil {
		return BootstrapResult{}, err
	}

	deps.MetricInc(deps.Metrics.Authenticated)
	deps.EmitAudit(ctx, deps.Events.Authenticated, true, identity.Email, nil, nil)
	log.Info("bootstrap finished", slog.String("outcome", "authenticated"), slog.String("email", identity.Email))
	return BootstrapResult{Session: sess.Clone()}, nil
}

func discardToken(ctx context.Context, deps BootstrapDeps, cause error, reason string) (BootstrapResult, error) {
	clearErr := deps.Store.Clear(ctx)

	deps.MetricInc(deps.Metrics.Rejected)
	deps.EmitAudit(ctx, deps.Events.Rejected, false, "", cause, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	deps.Logger.Info("bootstrap finished",
		slog.String("outcome", "anonymous"),
		slog.String("reason", reason),
	)

	result := BootstrapResult{Rejected: true, Cause: cause}
	if clearErr != nil {
		deps.Logger.Warn("bootstrap could not erase rejected token", slog.Any("error", clearErr))
		return result, clearErr
	}
	return result, nil
}
