// Package metrics counts client outcomes and gateway latency.
//
// One padded atomic counter exists per [MetricID]; the two gateway latency
// IDs also carry an 8-bucket histogram. Recording never allocates and a nil
// or disabled [Metrics] records nothing.
//
// Exporters under metrics/export read [Snapshot] values and never touch the
// counters directly.
package metrics
