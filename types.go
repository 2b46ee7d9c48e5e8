package goAuthClient

import (
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/session"
)

// Phase is the registration flow state.
//
//	Idle → Submitted → AwaitingOTP → Verified
//
// A failed step keeps or returns to a non-terminal phase and annotates the
// Registration with the error; only Verified is terminal.
type Phase uint8

const (
	// PhaseIdle: nothing submitted yet, or the last submit failed.
	PhaseIdle Phase = iota
	// PhaseSubmitted: the register call is in flight.
	PhaseSubmitted
	// PhaseAwaitingOTP: a verification code has been sent.
	PhaseAwaitingOTP
	// PhaseVerified: the mailbox is confirmed; continue at login.
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitted:
		return "submitted"
	case PhaseAwaitingOTP:
		return "awaiting_otp"
	case PhaseVerified:
		return "verified"
	default:
		return "unknown"
	}
}

func phaseFromFlow(p flows.RegistrationPhase) Phase {
	switch p {
	case flows.PhaseSubmitted:
		return PhaseSubmitted
	case flows.PhaseAwaitingOTP:
		return PhaseAwaitingOTP
	case flows.PhaseVerified:
		return PhaseVerified
	default:
		return PhaseIdle
	}
}

// Outcome is the terminal state of a bootstrap run.
type Outcome uint8

const (
	// OutcomeAnonymous: no token, or the token was rejected and erased.
	OutcomeAnonymous Outcome = iota
	// OutcomeAuthenticated: the remote service accepted the stored token.
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	if o == OutcomeAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// BootstrapResult is returned by [Client.Bootstrap].
//
// Session is non-nil exactly when Outcome is OutcomeAuthenticated. Cause is
// set when a stored token was found and discarded; it wraps
// [ErrSessionExpired] or [ErrSessionInvalid] and, for the latter, the
// gateway error that decided it.
type BootstrapResult struct {
	Outcome Outcome
	Session *session.Session
	Cause   error
}

// OAuthRedirect is returned by [Client.BeginOAuth]. The caller opens
// AuthorizationURL in a browser; the provider redirects back to the
// callback with code and state.
type OAuthRedirect struct {
	Provider         string
	AuthorizationURL string
}

// AuditEvent is a structured audit record emitted by the client.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the client's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs each event through [slog].
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}
