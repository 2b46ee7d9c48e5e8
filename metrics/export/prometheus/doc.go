// Package prometheus renders goAuthClient metrics in Prometheus text
// exposition format without a registry: callers mount [PrometheusExporter.Handler]
// or call Render themselves.
//
// Counters are named goauthclient_*_total. Gateway latency is a single
// goauthclient_gateway_latency_seconds histogram with a channel label, and a
// client source adds the goauthclient_session_authenticated gauge.
package prometheus
