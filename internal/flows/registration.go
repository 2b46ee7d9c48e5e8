package flows

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/MrEthical07/goAuthClient/gateway"
)

// Registration detail codes and markers sent by the remote service.
const (
	DetailRegisterUserAlreadyExists = "REGISTER_USER_ALREADY_EXISTS"
	DetailRegisterInvalidPassword   = "REGISTER_INVALID_PASSWORD"
	DetailOTPVerified               = "OTP_VERIFIED"
	DetailInvalidOrExpiredOTP       = "Invalid or expired OTP"
	MessageEmailVerified            = "Email verified successfully"
)

// otpPattern is the accepted shape of a verification code.
var otpPattern = regexp.MustCompile(`^\d{4}$`)

// ValidOTP reports whether code is exactly four ASCII digits.
func ValidOTP(code string) bool {
	return otpPattern.MatchString(code)
}

// RegistrationPhase is the flow-local registration state.
type RegistrationPhase uint8

const (
	PhaseIdle RegistrationPhase = iota
	PhaseSubmitted
	PhaseAwaitingOTP
	PhaseVerified
)

// RegistrationState is carried between registration calls by the host.
// Err annotates the last user-correctable failure; it is cleared by the next
// successful step.
type RegistrationState struct {
	Phase RegistrationPhase
	Email string
	Err   error
}

// RegistrationMetrics carries metric IDs needed by registration flows.
type RegistrationMetrics struct {
	Submitted             int
	Duplicate             int
	Failure               int
	VerificationRequested int
	OTPSuccess            int
	OTPFailure            int
}

// RegistrationEvents carries audit event names used by registration flows.
type RegistrationEvents struct {
	Submitted             string
	Duplicate             string
	Failure               string
	VerificationRequested string
	OTPSuccess            string
	OTPFailure            string
}

// RegistrationErrors carries host-level sentinel errors used by registration flows.
type RegistrationErrors struct {
	ClientNotReady            error
	InvalidPhase              error
	MissingCredentials        error
	PasswordPolicy            error
	RegistrationFailed        error
	VerificationRequestFailed error
	OTPFormat                 error
	OTPInvalid                error
	VerificationFailed        error
}

// RegistrationDeps captures registration and verification dependencies.
type RegistrationDeps struct {
	Common

	Metrics RegistrationMetrics
	Events  RegistrationEvents
	Errors  RegistrationErrors
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyTokenRequest struct {
	Email string `json:"email"`
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type verifyOTPResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// RunRegisterSubmit creates the account. A duplicate account is treated as a
// request to resend the code: exactly one request-verify-token call is made
// and the flow moves to AwaitingOTP when it is accepted with 202. From Idle,
// password policy and other failures return to Idle with the email retained.
// From AwaitingOTP every failure leaves the flow awaiting the code already
// sent for the remembered email.
func RunRegisterSubmit(ctx context.Context, state RegistrationState, email, password string, deps RegistrationDeps) (RegistrationState, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Sender == nil {
		return state, deps.Errors.ClientNotReady
	}
	if state.Phase == PhaseVerified {
		return state, deps.Errors.InvalidPhase
	}

	email = strings.TrimSpace(email)
	next := RegistrationState{Phase: PhaseIdle, Email: email}
	if state.Phase == PhaseAwaitingOTP {
		next = RegistrationState{Phase: PhaseAwaitingOTP, Email: state.Email}
	}
	accepted := RegistrationState{Phase: PhaseAwaitingOTP, Email: email}
	if email == "" || password == "" {
		next.Err = deps.Errors.MissingCredentials
		return next, next.Err
	}

	deps.MetricInc(deps.Metrics.Submitted)
	_, err := deps.Sender.Send(ctx, gateway.Public, http.MethodPost, PathRegister, registerRequest{
		Email:    email,
		Password: password,
	})
	if err == nil {
		deps.EmitAudit(ctx, deps.Events.Submitted, true, email, nil, nil)
		deps.Logger.Info("registration submitted", slog.String("email", email))
		return accepted, nil
	}

	httpErr, rejected := gateway.AsHTTPError(err)
	switch {
	case rejected && httpErr.Detail == DetailRegisterUserAlreadyExists:
		deps.MetricInc(deps.Metrics.Duplicate)
		deps.EmitAudit(ctx, deps.Events.Duplicate, true, email, nil, nil)
		deps.Logger.Info("registration found existing account, resending code", slog.String("email", email))

		if resendErr := requestVerifyToken(ctx, email, deps); resendErr != nil {
			next.Err = reject(deps.Errors.RegistrationFailed, resendErr)
			return next, next.Err
		}
		return accepted, nil

	case rejected && (httpErr.DetailCode == DetailRegisterInvalidPassword || httpErr.Detail == DetailInvalidPassword):
		next.Err = reject(deps.Errors.PasswordPolicy, err)

	default:
		next.Err = reject(deps.Errors.RegistrationFailed, err)
	}

	deps.MetricInc(deps.Metrics.Failure)
	deps.EmitAudit(ctx, deps.Events.Failure, false, email, next.Err, func() map[string]string {
		return map[string]string{"reason": reasonOf(err)}
	})
	deps.Logger.Info("registration failed", slog.String("email", email), slog.String("reason", reasonOf(err)))
	return next, next.Err
}

// RunRegisterResend asks the remote service to send a fresh code to the
// remembered email. Valid only while awaiting the code.
func RunRegisterResend(ctx context.Context, state RegistrationState, deps RegistrationDeps) (RegistrationState, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Sender == nil {
		return state, deps.Errors.ClientNotReady
	}
	if state.Phase != PhaseAwaitingOTP || state.Email == "" {
		return state, deps.Errors.InvalidPhase
	}

	next := state
	if err := requestVerifyToken(ctx, state.Email, deps); err != nil {
		next.Err = err
		return next, err
	}
	next.Err = nil
	return next, nil
}

// RunRegisterVerify submits a verification code for the remembered email.
// Malformed codes are rejected locally. An invalid or expired code keeps the
// flow in AwaitingOTP; it never resends automatically.
func RunRegisterVerify(ctx context.Context, state RegistrationState, code string, deps RegistrationDeps) (RegistrationState, error) {
	deps.Common = deps.Common.withDefaults()
	if deps.Sender == nil {
		return state, deps.Errors.ClientNotReady
	}
	if state.Phase != PhaseAwaitingOTP || state.Email == "" {
		return state, deps.Errors.InvalidPhase
	}

	next := state
	code = strings.TrimSpace(code)
	if !ValidOTP(code) {
		next.Err = deps.Errors.OTPFormat
		return next, next.Err
	}

	resp, err := deps.Sender.Send(ctx, gateway.Public, http.MethodPost, PathVerifyOTP, verifyOTPRequest{
		Email: state.Email,
		OTP:   code,
	})
	if err != nil {
		sentinel := deps.Errors.VerificationFailed
		if httpErr, ok := gateway.AsHTTPError(err); ok && (httpErr.Detail == DetailInvalidOrExpiredOTP || httpErr.Status == http.StatusBadRequest) {
			sentinel = deps.Errors.OTPInvalid
		}
		next.Err = reject(sentinel, err)
		return next, otpFailed(ctx, deps, state.Email, next.Err, reasonOf(err))
	}

	var payload verifyOTPResponse
	if err := resp.Decode(&payload); err != nil {
		next.Err = reject(deps.Errors.VerificationFailed, err)
		return next, otpFailed(ctx, deps, state.Email, next.Err, "malformed")
	}
	if payload.Detail != DetailOTPVerified && payload.Message != MessageEmailVerified {
		next.Err = reject(deps.Errors.VerificationFailed, gateway.Malformed("verify response has no success marker"))
		return next, otpFailed(ctx, deps, state.Email, next.Err, "malformed")
	}

	deps.MetricInc(deps.Metrics.OTPSuccess)
	deps.EmitAudit(ctx, deps.Events.OTPSuccess, true, state.Email, nil, nil)
	deps.Logger.Info("email verified", slog.String("email", state.Email))
	return RegistrationState{Phase: PhaseVerified, Email: state.Email}, nil
}

func requestVerifyToken(ctx context.Context, email string, deps RegistrationDeps) error {
	resp, err := deps.Sender.Send(ctx, gateway.Public, http.MethodPost, PathRequestVerifyToken, verifyTokenRequest{Email: email})
	if err == nil && resp.Status != http.StatusAccepted {
		err = gateway.Malformed("request-verify-token answered %d, want 202", resp.Status)
	}
	if err != nil {
		err = reject(deps.Errors.VerificationRequestFailed, err)
		deps.EmitAudit(ctx, deps.Events.VerificationRequested, false, email, err, func() map[string]string {
			return map[string]string{"reason": reasonOf(err)}
		})
		deps.Logger.Warn("verification code request failed", slog.String("email", email), slog.String("reason", reasonOf(err)))
		return err
	}

	deps.MetricInc(deps.Metrics.VerificationRequested)
	deps.EmitAudit(ctx, deps.Events.VerificationRequested, true, email, nil, nil)
	return nil
}

func otpFailed(ctx context.Context, deps RegistrationDeps, email string, err error, reason string) error {
	deps.MetricInc(deps.Metrics.OTPFailure)
	deps.EmitAudit(ctx, deps.Events.OTPFailure, false, email, err, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	deps.Logger.Info("verification failed", slog.String("email", email), slog.String("reason", reason))
	return err
}
