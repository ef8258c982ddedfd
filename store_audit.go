package vertixauth

import (
	"context"
	"errors"
	"time"

	"github.com/vertixhq/vertixauth/session"
)

const (
	auditEventLoginSuccess            = "login_success"
	auditEventLoginFailure            = "login_failure"
	auditEventLogout                  = "logout"
	auditEventRestoreSuccess          = "restore_success"
	auditEventRestoreCorrupt          = "restore_corrupt"
	auditEventRestoreRejected         = "restore_rejected"
	auditEventPersistenceReadFailure  = "persistence_read_failure"
	auditEventPersistenceWriteFailure = "persistence_write_failure"
	auditEventPersistenceClearFailure = "persistence_clear_failure"
)

// AuditErrorCode is the stable, non-sensitive error label attached to
// failed audit events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrCanceled           AuditErrorCode = "canceled"
	auditErrSuperseded         AuditErrorCode = "superseded"
	auditErrMalformedPayload   AuditErrorCode = "malformed_payload"
	auditErrUnsupportedVersion AuditErrorCode = "unsupported_version"
	auditErrIdentityRejected   AuditErrorCode = "identity_rejected"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (s *SessionStore) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	sess *session.Session,
	err error,
	metadataBuilder func() map[string]string,
) {
	if s == nil || s.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: s.now().UTC(),
		EventType: eventType,
		Success:   success,
		Metadata:  metadata,
	}
	if sess != nil {
		event.UserID = sess.Identity.ID
		event.Role = sess.Identity.Role.String()
		event.SessionID = sess.SessionID
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	s.audit.Emit(context.WithoutCancel(ctx), event)
}

// reportPersistence records a persistence failure that the caller may not
// see. It logs, counts and audits.
func (s *SessionStore) reportPersistence(ctx context.Context, eventType string, metric MetricID, sess *session.Session, err error) {
	s.metricInc(metric)
	s.logger.WarnContext(ctx, "session persistence failure",
		"event", eventType,
		"key", s.adapter.Key(),
		"error", err,
	)
	s.emitAudit(ctx, eventType, false, sess, err, nil)
}

// reportCorrupt is the adapter's OnCorrupt hook.
func (s *SessionStore) reportCorrupt(ctx context.Context, err error) {
	s.metricInc(MetricRestoreCorrupt)
	s.logger.WarnContext(ctx, "discarding unreadable persisted session",
		"key", s.adapter.Key(),
		"error", err,
	)
	s.emitAudit(ctx, auditEventRestoreCorrupt, false, nil, err, nil)
}

func (s *SessionStore) metricInc(id MetricID) {
	s.metrics.Inc(id)
}

func (s *SessionStore) metricObserve(id MetricID, start time.Time) {
	if !s.metrics.LatencyEnabled() {
		return
	}
	s.metrics.Observe(id, time.Since(start))
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSuperseded):
		return auditErrSuperseded
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, ErrIdentityRejected):
		return auditErrIdentityRejected
	case errors.Is(err, session.ErrUnsupportedVersion):
		return auditErrUnsupportedVersion
	case errors.Is(err, session.ErrMalformedPayload):
		return auditErrMalformedPayload
	case errors.Is(err, session.ErrBackendUnavailable),
		errors.Is(err, ErrPersistenceRead),
		errors.Is(err, ErrPersistenceWrite):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
