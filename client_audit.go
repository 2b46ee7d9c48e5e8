package goAuthClient

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAuthClient/gateway"
)

const (
	auditEventBootstrapAuthenticated = "bootstrap_authenticated"
	auditEventBootstrapAnonymous     = "bootstrap_anonymous"
	auditEventBootstrapRejected      = "bootstrap_rejected"
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLogout                 = "logout"
	auditEventRegistrationSubmitted  = "registration_submitted"
	auditEventRegistrationDuplicate  = "registration_duplicate"
	auditEventRegistrationFailure    = "registration_failure"
	auditEventVerificationRequested  = "verification_requested"
	auditEventOTPSuccess             = "otp_success"
	auditEventOTPFailure             = "otp_failure"
	auditEventOAuthInitiated         = "oauth_initiated"
	auditEventOAuthSuccess           = "oauth_success"
	auditEventOAuthFailure           = "oauth_failure"
	auditEventOperationSuppressed    = "operation_suppressed"
)

// AuditErrorCode is the stable, body-free reason attached to failed audit
// events.
type AuditErrorCode string

const (
	auditErrPending            AuditErrorCode = "operation_pending"
	auditErrMissingCredentials AuditErrorCode = "missing_credentials"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrUserInactive       AuditErrorCode = "user_inactive"
	auditErrUserNotVerified    AuditErrorCode = "user_not_verified"
	auditErrInvalidPassword    AuditErrorCode = "invalid_password"
	auditErrSessionExpired     AuditErrorCode = "session_expired"
	auditErrSessionInvalid     AuditErrorCode = "session_invalid"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrOTPFormat          AuditErrorCode = "otp_format"
	auditErrOTPInvalid         AuditErrorCode = "otp_invalid"
	auditErrCallbackIncomplete AuditErrorCode = "callback_incomplete"
	auditErrCodeReplay         AuditErrorCode = "code_replay"
	auditErrTokenMissing       AuditErrorCode = "token_missing"
	auditErrTransport          AuditErrorCode = "transport"
	auditErrMalformed          AuditErrorCode = "malformed_response"
	auditErrRejected           AuditErrorCode = "rejected"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (c *Client) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	email string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if c == nil || c.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	if id := requestIDFromContext(ctx); id != "" {
		if metadata == nil {
			metadata = make(map[string]string, 1)
		}
		metadata["request_id"] = id
	}

	event := AuditEvent{
		Timestamp: c.now().UTC(),
		EventType: eventType,
		Email:     email,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	c.audit.Emit(ctx, event)
}

func (c *Client) emitSuppressed(ctx context.Context, op string) {
	c.metricInc(MetricOperationSuppressed)
	c.emitAudit(ctx, auditEventOperationSuppressed, false, "", ErrOperationPending, func() map[string]string {
		return map[string]string{"operation": op}
	})
}

func (c *Client) now() time.Time {
	if c != nil && c.clock != nil {
		return c.clock()
	}
	return time.Now()
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrOperationPending):
		return auditErrPending
	case errors.Is(err, ErrMissingCredentials):
		return auditErrMissingCredentials
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrUserInactive):
		return auditErrUserInactive
	case errors.Is(err, ErrUserNotVerified):
		return auditErrUserNotVerified
	case errors.Is(err, ErrInvalidPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrOTPFormat):
		return auditErrOTPFormat
	case errors.Is(err, ErrOTPInvalid):
		return auditErrOTPInvalid
	case errors.Is(err, ErrOAuthCallbackIncomplete):
		return auditErrCallbackIncomplete
	case errors.Is(err, ErrOAuthCodeConsumed):
		return auditErrCodeReplay
	}

	switch gateway.Kind(err) {
	case gateway.KindTransport:
		return auditErrTransport
	case gateway.KindMalformed:
		return auditErrMalformed
	case gateway.KindRejected:
		return auditErrRejected
	}

	switch {
	case errors.Is(err, ErrSessionInvalid):
		return auditErrSessionInvalid
	case errors.Is(err, ErrOAuthTokenMissing):
		return auditErrTokenMissing
	default:
		return auditErrInternal
	}
}
