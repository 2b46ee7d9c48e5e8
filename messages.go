package goAuthClient

import (
	"errors"

	"github.com/MrEthical07/goAuthClient/gateway"
)

// Supported locales.
const (
	LocaleFinnish = "fi"
	LocaleEnglish = "en"
)

// MessageID names one user-facing message.
type MessageID string

const (
	MsgGenericFailure          MessageID = "generic_failure"
	MsgOperationPending        MessageID = "operation_pending"
	MsgMissingCredentials      MessageID = "missing_credentials"
	MsgUserNotFound            MessageID = "user_not_found"
	MsgUserInactive            MessageID = "user_inactive"
	MsgUserNotVerified         MessageID = "user_not_verified"
	MsgInvalidPassword         MessageID = "invalid_password"
	MsgLoginFailed             MessageID = "login_failed"
	MsgSessionExpired          MessageID = "session_expired"
	MsgRegistrationFailed      MessageID = "registration_failed"
	MsgPasswordPolicy          MessageID = "password_policy"
	MsgVerificationRequest     MessageID = "verification_request_failed"
	MsgOTPFormat               MessageID = "otp_format"
	MsgOTPInvalid              MessageID = "otp_invalid"
	MsgVerificationFailed      MessageID = "verification_failed"
	MsgOAuthFailed             MessageID = "oauth_failed"
	MsgOAuthCallbackIncomplete MessageID = "oauth_callback_incomplete"
	MsgCodeSent                MessageID = "code_sent"
	MsgAccountVerified         MessageID = "account_verified"
	MsgLoginRequired           MessageID = "login_required"
)

var catalogs = map[string]map[MessageID]string{
	LocaleFinnish: {
		MsgGenericFailure:          "Toiminto epäonnistui. Yritä uudelleen.",
		MsgOperationPending:        "Edellinen pyyntö on vielä käsittelyssä.",
		MsgMissingCredentials:      "Anna sähköposti ja salasana.",
		MsgUserNotFound:            "Käyttäjää ei löydy",
		MsgUserInactive:            "Käyttäjätili on passivoitu",
		MsgUserNotVerified:         "Sähköpostia ei ole vahvistettu",
		MsgInvalidPassword:         "Virheellinen salasana",
		MsgLoginFailed:             "Kirjautuminen epäonnistui",
		MsgSessionExpired:          "Istunto on vanhentunut. Kirjaudu uudelleen.",
		MsgRegistrationFailed:      "Rekisteröinti epäonnistui",
		MsgPasswordPolicy:          "Salasana pitää olla vähintään 8 merkkiä pitkä",
		MsgVerificationRequest:     "Varmennuskoodin lähettäminen epäonnistui",
		MsgOTPFormat:               "Varmennuskoodissa pitää olla neljä numeroa",
		MsgOTPInvalid:              "Virheellinen tai vanhentunut varmennuskoodi",
		MsgVerificationFailed:      "Vahvistus epäonnistui",
		MsgOAuthFailed:             "Google-kirjautuminen epäonnistui",
		MsgOAuthCallbackIncomplete: "Kirjautumisen paluuosoitteesta puuttuu tietoja",
		MsgCodeSent:                "Varmennuskoodi lähetettiin sähköpostiisi.",
		MsgAccountVerified:         "Tilisi on vahvistettu. Kirjaudu sisään.",
		MsgLoginRequired:           "Kirjaudu sisään jatkaaksesi.",
	},
	LocaleEnglish: {
		MsgGenericFailure:          "Something went wrong. Please try again.",
		MsgOperationPending:        "The previous request is still in progress.",
		MsgMissingCredentials:      "Enter your email and password.",
		MsgUserNotFound:            "User not found",
		MsgUserInactive:            "The account has been deactivated",
		MsgUserNotVerified:         "The email address has not been verified",
		MsgInvalidPassword:         "Invalid password",
		MsgLoginFailed:             "Login failed",
		MsgSessionExpired:          "Your session has expired. Please log in again.",
		MsgRegistrationFailed:      "Registration failed",
		MsgPasswordPolicy:          "The password must be at least 8 characters long",
		MsgVerificationRequest:     "Could not send the verification code",
		MsgOTPFormat:               "The verification code must be four digits",
		MsgOTPInvalid:              "Invalid or expired verification code",
		MsgVerificationFailed:      "Verification failed",
		MsgOAuthFailed:             "Google sign-in failed",
		MsgOAuthCallbackIncomplete: "The sign-in callback is missing information",
		MsgCodeSent:                "A verification code was sent to your email.",
		MsgAccountVerified:         "Your account is verified. Please log in.",
		MsgLoginRequired:           "Log in to continue.",
	},
}

func knownLocale(locale string) bool {
	_, ok := catalogs[locale]
	return ok
}

// Message returns the text for id in locale. Unknown locales fall back to
// Finnish and unknown ids to the generic failure text.
func Message(locale string, id MessageID) string {
	catalog, ok := catalogs[locale]
	if !ok {
		catalog = catalogs[LocaleFinnish]
	}
	if text, ok := catalog[id]; ok {
		return text
	}
	return catalog[MsgGenericFailure]
}

// MessageIDFor classifies err. Transport failures, malformed responses and
// reasons without a dedicated message all map to MsgGenericFailure; raw
// server text never reaches the user.
func MessageIDFor(err error) MessageID {
	if err == nil {
		return ""
	}

	switch gateway.Kind(err) {
	case gateway.KindTransport, gateway.KindMalformed:
		return MsgGenericFailure
	}

	switch {
	case errors.Is(err, ErrOperationPending):
		return MsgOperationPending
	case errors.Is(err, ErrMissingCredentials):
		return MsgMissingCredentials
	case errors.Is(err, ErrUserNotFound):
		return MsgUserNotFound
	case errors.Is(err, ErrUserInactive):
		return MsgUserInactive
	case errors.Is(err, ErrUserNotVerified):
		return MsgUserNotVerified
	case errors.Is(err, ErrInvalidPassword):
		return MsgInvalidPassword
	case errors.Is(err, ErrLoginFailed):
		return MsgLoginFailed
	case errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrSessionInvalid):
		return MsgSessionExpired
	case errors.Is(err, ErrPasswordPolicy):
		return MsgPasswordPolicy
	case errors.Is(err, ErrRegistrationFailed):
		return MsgRegistrationFailed
	case errors.Is(err, ErrVerificationRequestFailed):
		return MsgVerificationRequest
	case errors.Is(err, ErrOTPFormat):
		return MsgOTPFormat
	case errors.Is(err, ErrOTPInvalid):
		return MsgOTPInvalid
	case errors.Is(err, ErrVerificationFailed):
		return MsgVerificationFailed
	case errors.Is(err, ErrOAuthCallbackIncomplete):
		return MsgOAuthCallbackIncomplete
	case errors.Is(err, ErrOAuthAuthorizeFailed),
		errors.Is(err, ErrOAuthCodeConsumed),
		errors.Is(err, ErrOAuthTokenMissing):
		return MsgOAuthFailed
	default:
		return MsgGenericFailure
	}
}

// Describe returns the user-facing text for err in locale, or "" for nil.
func Describe(err error, locale string) string {
	id := MessageIDFor(err)
	if id == "" {
		return ""
	}
	return Message(locale, id)
}
