package goAuthClient

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goAuthClient/internal/flows"
)

// VerifiedLoginRoute is where a finished registration continues; the flag
// lets the login view show its "account verified" banner.
const VerifiedLoginRoute = "/login?verified=1"

// Registration is one account-creation attempt, from the first submit to a
// verified mailbox. It never touches the session store: a verified account
// still has to log in.
//
// Submit, Resend and SubmitOTP share one pending flag; a second call while
// any of them runs returns [ErrOperationPending] without a network call.
type Registration struct {
	client *Client

	pending atomic.Bool

	mu    sync.Mutex
	state flows.RegistrationState
}

// NewRegistration starts a registration in [PhaseIdle].
func (c *Client) NewRegistration() *Registration {
	return &Registration{client: c}
}

// ResumeRegistration continues a registration whose code was already sent
// for email, e.g. by an earlier process. It starts in [PhaseAwaitingOTP].
func (c *Client) ResumeRegistration(email string) *Registration {
	r := &Registration{client: c}
	r.state = flows.RegistrationState{Phase: flows.PhaseAwaitingOTP, Email: email}
	return r
}

// Submit creates the account. An already-registered email is not an error:
// one fresh code is requested instead and the flow moves on to awaiting it.
func (r *Registration) Submit(ctx context.Context, email, password string) (Phase, error) {
	return r.step(ctx, "register_submit", func(state flows.RegistrationState, deps flows.RegistrationDeps) (flows.RegistrationState, error) {
		if state.Phase == flows.PhaseIdle {
			r.publish(flows.RegistrationState{Phase: flows.PhaseSubmitted, Email: email})
		}
		return flows.RunRegisterSubmit(ctx, state, email, password, deps)
	})
}

// Resend asks for a new code. Valid only in [PhaseAwaitingOTP].
func (r *Registration) Resend(ctx context.Context) (Phase, error) {
	return r.step(ctx, "register_resend", func(state flows.RegistrationState, deps flows.RegistrationDeps) (flows.RegistrationState, error) {
		return flows.RunRegisterResend(ctx, state, deps)
	})
}

// SubmitOTP verifies the emailed code. Anything but four ASCII digits is
// refused locally and the flow keeps awaiting a code.
func (r *Registration) SubmitOTP(ctx context.Context, code string) (Phase, error) {
	return r.step(ctx, "register_verify", func(state flows.RegistrationState, deps flows.RegistrationDeps) (flows.RegistrationState, error) {
		return flows.RunRegisterVerify(ctx, state, code, deps)
	})
}

func (r *Registration) step(
	ctx context.Context,
	op string,
	run func(flows.RegistrationState, flows.RegistrationDeps) (flows.RegistrationState, error),
) (Phase, error) {
	if r == nil || !r.client.usable() {
		return PhaseIdle, ErrClientNotReady
	}
	if !r.client.acquire(ctx, &r.pending, op) {
		return r.Phase(), ErrOperationPending
	}
	defer r.pending.Store(false)

	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	next, err := run(state, r.client.registrationFlowDeps())
	r.publish(next)
	return phaseFromFlow(next.Phase), err
}

func (r *Registration) publish(state flows.RegistrationState) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// Phase returns the current phase.
func (r *Registration) Phase() Phase {
	if r == nil {
		return PhaseIdle
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return phaseFromFlow(r.state.Phase)
}

// Email returns the address the flow is bound to.
func (r *Registration) Email() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Email
}

// Err returns the error annotating the current phase, if the last step
// failed.
func (r *Registration) Err() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Err
}

// Message is the localized text to show for the current state: the error
// when the last step failed, otherwise a phase hint.
func (r *Registration) Message() string {
	if r == nil || r.client == nil {
		return ""
	}
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	locale := r.client.config.Locale
	if state.Err != nil {
		return Describe(state.Err, locale)
	}
	switch state.Phase {
	case flows.PhaseAwaitingOTP:
		return Message(locale, MsgCodeSent)
	case flows.PhaseVerified:
		return Message(locale, MsgAccountVerified)
	default:
		return ""
	}
}

// NextRoute is the route to continue at once verified, or "" before that.
func (r *Registration) NextRoute() string {
	if r.Phase() == PhaseVerified {
		return VerifiedLoginRoute
	}
	return ""
}

func (c *Client) registrationFlowDeps() flows.RegistrationDeps {
	return flows.RegistrationDeps{
		Common: c.commonFlowDeps(),
		Metrics: flows.RegistrationMetrics{
			Submitted:             int(MetricRegistrationSubmitted),
			Duplicate:             int(MetricRegistrationDuplicate),
			Failure:               int(MetricRegistrationFailure),
			VerificationRequested: int(MetricVerificationRequested),
			OTPSuccess:            int(MetricOTPSuccess),
			OTPFailure:            int(MetricOTPFailure),
		},
		Events: flows.RegistrationEvents{
			Submitted:             auditEventRegistrationSubmitted,
			Duplicate:             auditEventRegistrationDuplicate,
			Failure:               auditEventRegistrationFailure,
			VerificationRequested: auditEventVerificationRequested,
			OTPSuccess:            auditEventOTPSuccess,
			OTPFailure:            auditEventOTPFailure,
		},
		Errors: flows.RegistrationErrors{
			ClientNotReady:            ErrClientNotReady,
			InvalidPhase:              ErrRegistrationPhase,
			MissingCredentials:        ErrMissingCredentials,
			PasswordPolicy:            ErrPasswordPolicy,
			RegistrationFailed:        ErrRegistrationFailed,
			VerificationRequestFailed: ErrVerificationRequestFailed,
			OTPFormat:                 ErrOTPFormat,
			OTPInvalid:                ErrOTPInvalid,
			VerificationFailed:        ErrVerificationFailed,
		},
	}
}
