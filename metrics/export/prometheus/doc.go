// Package prometheus renders session store metrics in Prometheus text
// exposition format.
//
// Counter names are vertixauth_*_total. The single histogram is
// vertixauth_login_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in a global registry. Callers mount the Handler.
//   - Mutate store state.
package prometheus
