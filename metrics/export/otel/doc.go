// Package otel publishes goAuthClient metrics as OpenTelemetry instruments.
//
// [NewOTelExporter] registers one observable counter per client counter.
// Gateway latency becomes two gauges, goauthclient_gateway_latency_seconds_bucket
// and _count, whose data points carry "channel" (public or authenticated) and,
// for buckets, "le". When the source is a [goAuthClient.Client] a
// goauthclient_session_authenticated gauge reports 1 while a session exists.
//
// Callers own the MeterProvider. One callback reads a snapshot per collection.
package otel
