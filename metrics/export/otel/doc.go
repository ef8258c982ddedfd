// Package otel publishes session store metrics through OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per store counter and
// an Int64ObservableGauge per latency bucket. One callback reads
// [vertixauth.SessionStore.MetricsSnapshot] on each collection.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate store state.
package otel
