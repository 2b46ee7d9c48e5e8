package flows

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/MrEthical07/goAuthClient/gateway"
	"github.com/MrEthical07/goAuthClient/session"
)

// OAuthMetrics carries metric IDs needed by OAuth flows.
type OAuthMetrics struct {
	Initiated int
	Success   int
	Failure   int
}

// OAuthEvents carries audit event names used by OAuth flows.
type OAuthEvents struct {
	Initiated string
	Success   string
	Failure   string
}

// OAuthErrors carries host-level sentinel errors used by OAuth flows.
type OAuthErrors struct {
	ClientNotReady     error
	AuthorizeFailed    error
	CallbackIncomplete error
	CodeConsumed       error
	TokenMissing       error
	SessionInvalid     error
}

// OAuthDeps captures OAuth initiation and completion dependencies.
type OAuthDeps struct {
	Common
	Store    SessionStore
	Provider string

	// ConsumeCode marks code as used and reports whether it was fresh.
	// Codes are single-use server-side, so a code is consumed before the
	// exchange is attempted, whatever its outcome.
	ConsumeCode func(code string) bool

	Metrics OAuthMetrics
	Events  OAuthEvents
	Errors  OAuthErrors
}

type authorizePayload struct {
	AuthorizationURL string `json:"authorization_url"`
}

// CallbackParams is the parsed callback query.
type CallbackParams struct {
	Code  string
	State string
	// ProviderError is the provider's "error" parameter, e.g. access_denied.
	ProviderError string
}

// ParseCallbackQuery parses a raw callback query string, with or without a
// leading "?" and tolerating a full URL. Malformed pairs never hide the
// well-formed ones; see [parseCallbackQuery].
func ParseCallbackQuery(raw string) CallbackParams {
	params, _ := parseCallbackQuery(raw)
	return params
}

// parseCallbackQuery splits on "&" only, like a browser's URLSearchParams: a
// ";" is part of the value and a value with a bad escape is kept raw. The
// first occurrence of a key wins. The error reports the first malformed pair.
func parseCallbackQuery(raw string) (CallbackParams, error) {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		raw = raw[idx+1:]
	}
	if idx := strings.IndexByte(raw, '#'); idx >= 0 {
		raw = raw[:idx]
	}

	var (
		params   CallbackParams
		firstErr error
	)
	seen := make(map[string]bool, 3)
	for pair := range strings.SplitSeq(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("callback query key %q: %w", rawKey, err)
			}
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("callback query %s: %w", key, err)
			}
			value = rawValue
		}
		if seen[key] {
			continue
		}
		switch key {
		case "code":
			params.Code = value
		case "state":
			params.State = value
		case "error":
			params.ProviderError = value
		default:
			continue
		}
		seen[key] = true
	}
	return params, firstErr
}

// RunOAuthBegin asks the remote service for the provider authorization URL.
// The remote service generates and remembers the correlation state.
func RunOAuthBegin(ctx context.Context, deps OAuthDeps) (string, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Sender == nil {
		return "", deps.Errors.ClientNotReady
	}

	resp, err := deps.Sender.Send(ctx, gateway.Public, http.MethodGet, OAuthAuthorizePath(deps.Provider), nil)
	if err != nil {
		return "", oauthFailed(ctx, deps, reject(deps.Errors.AuthorizeFailed, err), "authorize_"+reasonOf(err))
	}

	var payload authorizePayload
	if err := resp.Decode(&payload); err != nil {
		return "", oauthFailed(ctx, deps, reject(deps.Errors.AuthorizeFailed, err), "authorize_malformed")
	}
	target, parseErr := url.Parse(payload.AuthorizationURL)
	if payload.AuthorizationURL == "" || parseErr != nil || (target.Scheme != "https" && target.Scheme != "http") || target.Host == "" {
		err := gateway.Malformed("authorize response has no usable authorization_url")
		return "", oauthFailed(ctx, deps, reject(deps.Errors.AuthorizeFailed, err), "authorize_malformed")
	}

	deps.MetricInc(deps.Metrics.Initiated)
	deps.EmitAudit(ctx, deps.Events.Initiated, true, "", nil, func() map[string]string {
		return map[string]string{"provider": deps.Provider}
	})
	deps.Logger.Info("oauth initiated", slog.String("provider", deps.Provider), slog.String("host", target.Host))
	return payload.AuthorizationURL, nil
}

// RunOAuthComplete exchanges the callback's code and state for a token and
// publishes the session in one store write. A callback missing either value,
// or carrying an already-consumed code, fails without a network call. No
// failure touches the store, so a session held before the attempt survives.
func RunOAuthComplete(ctx context.Context, rawQuery string, deps OAuthDeps) (*session.Session, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Sender == nil || deps.Store == nil || deps.ConsumeCode == nil {
		return nil, deps.Errors.ClientNotReady
	}

	params, parseErr := parseCallbackQuery(rawQuery)
	if parseErr != nil {
		deps.Logger.Debug("oauth callback query has malformed pairs", slog.Any("error", parseErr))
	}
	if params.Code == "" || params.State == "" {
		reason := "callback_incomplete"
		if params.ProviderError != "" {
			reason = "provider_" + params.ProviderError
		}
		return nil, oauthFailed(ctx, deps, deps.Errors.CallbackIncomplete, reason)
	}
	if !deps.ConsumeCode(params.Code) {
		return nil, oauthFailed(ctx, deps, deps.Errors.CodeConsumed, "code_consumed")
	}

	resp, err := deps.Sender.Send(ctx, gateway.Public, http.MethodGet, OAuthCallbackPath(deps.Provider, params.Code, params.State), nil)
	if err != nil {
		return nil, oauthFailed(ctx, deps, reject(deps.Errors.TokenMissing, err), "callback_"+reasonOf(err))
	}

	var payload tokenPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, oauthFailed(ctx, deps, reject(deps.Errors.TokenMissing, err), "callback_malformed")
	}
	if payload.AccessToken == "" {
		err := gateway.Malformed("callback response has no access_token")
		return nil, oauthFailed(ctx, deps, reject(deps.Errors.TokenMissing, err), "token_missing")
	}

	identity := session.Identity{Email: payload.identityEmail()}
	if identity.Email == "" {
		identity, err = introspect(ctx, deps.Sender, payload.AccessToken)
		if err != nil {
			err = reject(deps.Errors.SessionInvalid, err)
			return nil, oauthFailed(ctx, deps, err, "introspection_"+reasonOf(err))
		}
	}

	sess := session.Session{
		Token:     payload.AccessToken,
		Identity:  identity,
		ExpiresAt: deps.expiryOf(payload.AccessToken),
	}
	if err := deps.Store.Set(ctx, sess); err != nil {
		return nil, oauthFailed(ctx, deps, err, "store_write")
	}

	deps.MetricInc(deps.Metrics.Success)
	deps.EmitAudit(ctx, deps.Events.Success, true, identity.Email, nil, func() map[string]string {
		return map[string]string{"provider": deps.Provider}
	})
	deps.Logger.Info("oauth login succeeded", slog.String("provider", deps.Provider), slog.String("email", identity.Email))
	return sess.Clone(), nil
}

func oauthFailed(ctx context.Context, deps OAuthDeps, err error, reason string) error {
	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, "", err, func() map[string]string {
		return map[string]string{"provider": deps.Provider, "reason": reason}
	})
	deps.Logger.Info("oauth failed", slog.String("provider", deps.Provider), slog.String("reason", reason))
	return err
}
