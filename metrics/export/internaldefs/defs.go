package internaldefs

import (
	"github.com/vertixhq/vertixauth"
)

// CounterDef names one store counter for exporters.
type CounterDef struct {
	ID   vertixauth.MetricID
	Name string
	Help string
}

// HistogramDef names one store latency histogram for exporters.
type HistogramDef struct {
	ID   vertixauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "vertixauth_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: vertixauth.MetricLoginSuccess, Name: "vertixauth_login_success_total", Help: "Successful logins."},
	{ID: vertixauth.MetricLoginFailure, Name: "vertixauth_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: vertixauth.MetricLoginCanceled, Name: "vertixauth_login_canceled_total", Help: "Logins abandoned because the caller canceled."},
	{ID: vertixauth.MetricLoginSuperseded, Name: "vertixauth_login_superseded_total", Help: "Logins or restores discarded because a newer transition won."},
	{ID: vertixauth.MetricLogout, Name: "vertixauth_logout_total", Help: "Logout calls, including no-op logouts."},
	{ID: vertixauth.MetricRestoreSuccess, Name: "vertixauth_restore_success_total", Help: "Restores that adopted a persisted session."},
	{ID: vertixauth.MetricRestoreEmpty, Name: "vertixauth_restore_empty_total", Help: "Restores that found nothing persisted."},
	{ID: vertixauth.MetricRestoreCorrupt, Name: "vertixauth_restore_corrupt_total", Help: "Persisted payloads discarded as unreadable."},
	{ID: vertixauth.MetricRestoreRejected, Name: "vertixauth_restore_rejected_total", Help: "Restored identities rejected by the verifier."},
	{ID: vertixauth.MetricPersistenceReadFailure, Name: "vertixauth_persistence_read_failure_total", Help: "Backend read failures."},
	{ID: vertixauth.MetricPersistenceWriteFailure, Name: "vertixauth_persistence_write_failure_total", Help: "Backend write failures."},
	{ID: vertixauth.MetricPersistenceClearFailure, Name: "vertixauth_persistence_clear_failure_total", Help: "Backend delete failures."},
	{ID: vertixauth.MetricSessionCreated, Name: "vertixauth_session_created_total", Help: "Sessions created by login."},
	{ID: vertixauth.MetricSessionCleared, Name: "vertixauth_session_cleared_total", Help: "Sessions ended by logout."},
}

var HistogramDefs = []HistogramDef{
	{ID: vertixauth.MetricLoginLatency, Name: "vertixauth_login_latency_seconds", Help: "Login latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the store's buckets.
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

// HistogramBoundSuffix is HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
