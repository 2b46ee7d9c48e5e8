package goAuthClient

import "errors"

var (
	// ErrClientNotReady is returned when a Client method runs on a nil
	// client or after Close.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrOperationPending is returned when a non-reentrant operation is
	// invoked while a previous invocation is still in flight.
	ErrOperationPending = errors.New("operation already pending")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrUserNotFound maps the USER_NOT_FOUND login rejection.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInactive maps the USER_INACTIVE login rejection.
	ErrUserInactive = errors.New("user inactive")
	// ErrUserNotVerified maps the USER_NOT_VERIFIED login rejection.
	ErrUserNotVerified = errors.New("user not verified")
	// ErrInvalidPassword maps the INVALID_PASSWORD login rejection.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrLoginFailed covers login failures with no more specific reason.
	ErrLoginFailed = errors.New("login failed")

	// ErrSessionExpired is the bootstrap cause for a token whose exp is past.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionInvalid is the bootstrap cause for a token the remote
	// service did not accept.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrRegistrationPhase is returned when a registration step is invoked
	// from a phase that does not allow it.
	ErrRegistrationPhase = errors.New("registration step not allowed in current phase")
	// ErrPasswordPolicy is returned when the remote service rejects the
	// password during registration.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrRegistrationFailed covers registration failures with no more
	// specific reason.
	ErrRegistrationFailed = errors.New("registration failed")
	// ErrVerificationRequestFailed is returned when a verification code
	// could not be (re)sent.
	ErrVerificationRequestFailed = errors.New("verification code request failed")
	// ErrOTPFormat is returned for codes that are not four digits.
	ErrOTPFormat = errors.New("verification code must be four digits")
	// ErrOTPInvalid is returned when the remote service reports the code as
	// invalid or expired.
	ErrOTPInvalid = errors.New("invalid or expired verification code")
	// ErrVerificationFailed covers verification failures with no more
	// specific reason.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrOAuthAuthorizeFailed is returned when no authorization URL could be
	// obtained.
	ErrOAuthAuthorizeFailed = errors.New("oauth authorization failed")
	// ErrOAuthCallbackIncomplete is returned when the callback lacks code or
	// state.
	ErrOAuthCallbackIncomplete = errors.New("oauth callback missing code or state")
	// ErrOAuthCodeConsumed is returned when a callback code was already used.
	ErrOAuthCodeConsumed = errors.New("oauth authorization code already used")
	// ErrOAuthTokenMissing is returned when the code exchange yields no token.
	ErrOAuthTokenMissing = errors.New("oauth exchange returned no token")
)
