package goAuthClient

import (
	"time"

	"github.com/MrEthical07/goAuthClient/gateway"
	internalmetrics "github.com/MrEthical07/goAuthClient/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricBootstrapAuthenticated = MetricID(internalmetrics.MetricBootstrapAuthenticated)
	MetricBootstrapAnonymous     = MetricID(internalmetrics.MetricBootstrapAnonymous)
	MetricBootstrapRejected      = MetricID(internalmetrics.MetricBootstrapRejected)
	MetricLoginSuccess           = MetricID(internalmetrics.MetricLoginSuccess)
	MetricLoginFailure           = MetricID(internalmetrics.MetricLoginFailure)
	MetricLogout                 = MetricID(internalmetrics.MetricLogout)
	// MetricLogoutRemoteFailure counts server-side teardowns that failed
	// after the local session was already cleared.
	MetricLogoutRemoteFailure   = MetricID(internalmetrics.MetricLogoutRemoteFailure)
	MetricRegistrationSubmitted = MetricID(internalmetrics.MetricRegistrationSubmitted)
	// MetricRegistrationDuplicate counts submits that hit an existing
	// account and were turned into a code resend.
	MetricRegistrationDuplicate = MetricID(internalmetrics.MetricRegistrationDuplicate)
	MetricRegistrationFailure   = MetricID(internalmetrics.MetricRegistrationFailure)
	MetricVerificationRequested = MetricID(internalmetrics.MetricVerificationRequested)
	MetricOTPSuccess            = MetricID(internalmetrics.MetricOTPSuccess)
	MetricOTPFailure            = MetricID(internalmetrics.MetricOTPFailure)
	MetricOAuthInitiated        = MetricID(internalmetrics.MetricOAuthInitiated)
	MetricOAuthSuccess          = MetricID(internalmetrics.MetricOAuthSuccess)
	MetricOAuthFailure          = MetricID(internalmetrics.MetricOAuthFailure)
	// MetricOperationSuppressed counts calls refused with ErrOperationPending.
	MetricOperationSuppressed = MetricID(internalmetrics.MetricOperationSuppressed)
	// MetricGatewayPublicLatency and MetricGatewayAuthenticatedLatency are
	// histograms of remote call latency per channel.
	MetricGatewayPublicLatency        = MetricID(internalmetrics.MetricGatewayPublicLatency)
	MetricGatewayAuthenticatedLatency = MetricID(internalmetrics.MetricGatewayAuthenticatedLatency)
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) observeGatewayLatency(channel gateway.Channel, d time.Duration) {
	if c == nil || c.metrics == nil {
		return
	}
	id := MetricGatewayPublicLatency
	if channel == gateway.Authenticated {
		id = MetricGatewayAuthenticatedLatency
	}
	c.metrics.Observe(id, d)
}
