package vertixauth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/vertixhq/vertixauth/session"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{nil, FailureNone},
		{ErrInvalidCredentials, FailureInvalidCredentials},
		{fmt.Errorf("login: %w", ErrInvalidCredentials), FailureInvalidCredentials},
		{context.Canceled, FailureCanceled},
		{context.DeadlineExceeded, FailureCanceled},
		{ErrSuperseded, FailureCanceled},
		{ErrStoreClosed, FailureCanceled},
		{fmt.Errorf("%w: disk", ErrPersistenceWrite), FailurePersistence},
		{ErrPersistenceRead, FailurePersistence},
		{fmt.Errorf("%w: timeout", session.ErrBackendUnavailable), FailurePersistence},
		{errors.New("boom"), FailureUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestInvalidCredentialsMessageMatchesLoginForm(t *testing.T) {
	if got := ErrInvalidCredentials.Error(); got != "E-mail ou senha incorretos" {
		t.Fatalf("unexpected user-facing message %q", got)
	}
}

func TestFailureKindString(t *testing.T) {
	if FailureInvalidCredentials.String() != "invalid_credentials" || FailureKind(99).String() != "unknown" {
		t.Fatal("unexpected FailureKind names")
	}
}

func TestAuditErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		want AuditErrorCode
	}{
		{ErrInvalidCredentials, auditErrInvalidCredentials},
		{ErrSuperseded, auditErrSuperseded},
		{context.Canceled, auditErrCanceled},
		{ErrIdentityRejected, auditErrIdentityRejected},
		{fmt.Errorf("%w: x", session.ErrMalformedPayload), auditErrMalformedPayload},
		{session.ErrUnsupportedVersion, auditErrUnsupportedVersion},
		{session.ErrBackendUnavailable, auditErrUnavailable},
		{errors.New("other"), auditErrInternal},
	}
	for _, tc := range cases {
		if got := auditErrorCode(tc.err); got != tc.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if auditErrorCode(nil) != "" {
		t.Fatal("nil error must map to empty code")
	}
}
