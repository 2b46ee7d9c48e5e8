package internaldefs

import (
	goAuthClient "github.com/MrEthical07/goAuthClient"
)

// CounterDef names one client counter for exporters.
type CounterDef struct {
	ID   goAuthClient.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters. Channel is the
// gateway channel the histogram measures.
type HistogramDef struct {
	ID      goAuthClient.MetricID
	Name    string
	Channel string
	Help    string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: goAuthClient.MetricBootstrapAuthenticated, Name: "goauthclient_bootstrap_authenticated_total", Help: "Bootstraps that restored a persisted session."},
	{ID: goAuthClient.MetricBootstrapAnonymous, Name: "goauthclient_bootstrap_anonymous_total", Help: "Bootstraps that found no persisted token."},
	{ID: goAuthClient.MetricBootstrapRejected, Name: "goauthclient_bootstrap_rejected_total", Help: "Bootstraps whose persisted token was rejected and erased."},
	{ID: goAuthClient.MetricLoginSuccess, Name: "goauthclient_login_success_total", Help: "Successful password logins."},
	{ID: goAuthClient.MetricLoginFailure, Name: "goauthclient_login_failure_total", Help: "Failed password logins."},
	{ID: goAuthClient.MetricLogout, Name: "goauthclient_logout_total", Help: "Local logouts."},
	{ID: goAuthClient.MetricLogoutRemoteFailure, Name: "goauthclient_logout_remote_failure_total", Help: "Server-side logout calls that failed after the local session was cleared."},
	{ID: goAuthClient.MetricRegistrationSubmitted, Name: "goauthclient_registration_submitted_total", Help: "Registrations accepted by the remote service."},
	{ID: goAuthClient.MetricRegistrationDuplicate, Name: "goauthclient_registration_duplicate_total", Help: "Registrations of an existing account turned into a code resend."},
	{ID: goAuthClient.MetricRegistrationFailure, Name: "goauthclient_registration_failure_total", Help: "Failed registrations."},
	{ID: goAuthClient.MetricVerificationRequested, Name: "goauthclient_verification_requested_total", Help: "Verification code requests."},
	{ID: goAuthClient.MetricOTPSuccess, Name: "goauthclient_otp_success_total", Help: "Accepted verification codes."},
	{ID: goAuthClient.MetricOTPFailure, Name: "goauthclient_otp_failure_total", Help: "Rejected verification codes."},
	{ID: goAuthClient.MetricOAuthInitiated, Name: "goauthclient_oauth_initiated_total", Help: "OAuth sign-ins started."},
	{ID: goAuthClient.MetricOAuthSuccess, Name: "goauthclient_oauth_success_total", Help: "OAuth sign-ins completed."},
	{ID: goAuthClient.MetricOAuthFailure, Name: "goauthclient_oauth_failure_total", Help: "OAuth sign-ins that failed to complete."},
	{ID: goAuthClient.MetricOperationSuppressed, Name: "goauthclient_operation_suppressed_total", Help: "Calls refused because the same operation was in flight."},
}

// HistogramDefs lists the latency histograms, one per gateway channel.
var HistogramDefs = []HistogramDef{
	{ID: goAuthClient.MetricGatewayPublicLatency, Name: "goauthclient_gateway_public_latency_seconds", Channel: "public", Help: "Latency of unauthenticated remote calls."},
	{ID: goAuthClient.MetricGatewayAuthenticatedLatency, Name: "goauthclient_gateway_authenticated_latency_seconds", Channel: "authenticated", Help: "Latency of bearer-authenticated remote calls."},
}

// HistogramBounds are the bucket upper bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
