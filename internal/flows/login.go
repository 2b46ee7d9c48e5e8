package flows

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/goAuthClient/gateway"
	"github.com/MrEthical07/goAuthClient/session"
)

// Login failure detail codes sent by the remote service.
const (
	DetailUserNotFound    = "USER_NOT_FOUND"
	DetailUserInactive    = "USER_INACTIVE"
	DetailUserNotVerified = "USER_NOT_VERIFIED"
	DetailInvalidPassword = "INVALID_PASSWORD"
)

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess int
	LoginFailure int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	ClientNotReady     error
	MissingCredentials error
	UserNotFound       error
	UserInactive       error
	UserNotVerified    error
	InvalidPassword    error
	LoginFailed        error
}

// LoginDeps captures password-login dependencies.
type LoginDeps struct {
	Common
	Store SessionStore

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RunLogin exchanges email and password for a token on the public channel
// and publishes the resulting session in one store write.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (*session.Session, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Store == nil || deps.Sender == nil {
		return nil, deps.Errors.ClientNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, loginFailed(ctx, deps, email, deps.Errors.MissingCredentials, "missing_credentials")
	}

	resp, err := deps.Sender.Send(ctx, gateway.Public, http.MethodPost, PathLogin, loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, loginFailed(ctx, deps, email, reject(mapLoginError(err, deps.Errors), err), reasonOf(err))
	}

	var payload tokenPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, loginFailed(ctx, deps, email, reject(deps.Errors.LoginFailed, err), "malformed")
	}
	if payload.AccessToken == "" {
		err := gateway.Malformed("login response has no access_token")
		return nil, loginFailed(ctx, deps, email, reject(deps.Errors.LoginFailed, err), "malformed")
	}

	sess := session.Session{
		Token:     payload.AccessToken,
		Identity:  session.Identity{Email: email},
		ExpiresAt: deps.expiryOf(payload.AccessToken),
	}
	if err := deps.Store.Set(ctx, sess); err != nil {
		return nil, loginFailed(ctx, deps, email, err, "store_write")
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, email, nil, nil)
	deps.Logger.Info("login succeeded", slog.String("email", email))
	return sess.Clone(), nil
}

func mapLoginError(err error, errs LoginErrors) error {
	httpErr, ok := gateway.AsHTTPError(err)
	if !ok {
		return errs.LoginFailed
	}
	switch httpErr.Detail {
	case DetailUserNotFound:
		return errs.UserNotFound
	case DetailUserInactive:
		return errs.UserInactive
	case DetailUserNotVerified:
		return errs.UserNotVerified
	case DetailInvalidPassword:
		return errs.InvalidPassword
	default:
		return errs.LoginFailed
	}
}

func loginFailed(ctx context.Context, deps LoginDeps, email string, err error, reason string) error {
	deps.MetricInc(deps.Metrics.LoginFailure)
	deps.EmitAudit(ctx, deps.Events.LoginFailure, false, email, err, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	deps.Logger.Info("login failed", slog.String("email", email), slog.String("reason", reason))
	return err
}
