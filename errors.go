package vertixauth

import (
	"context"
	"errors"

	"github.com/vertixhq/vertixauth/session"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair matches no
	// known identity. It is the one error meant for end users, so its text is
	// in Portuguese like the rest of the product UI; the other errors here are
	// for operators.
	ErrInvalidCredentials = errors.New("E-mail ou senha incorretos")
	// ErrPersistenceRead wraps a backend failure while loading the session.
	ErrPersistenceRead = errors.New("session persistence read failed")
	// ErrPersistenceWrite wraps a backend failure while saving or clearing the session.
	ErrPersistenceWrite = errors.New("session persistence write failed")
	// ErrStoreClosed is returned by Login and Restore after Close.
	ErrStoreClosed = errors.New("session store closed")
	// ErrSuperseded is returned when a Login or Restore finished after a newer
	// state transition and its result was discarded.
	ErrSuperseded = errors.New("session transition superseded")
	// ErrAuthenticatorRequired is returned by Build without an authenticator.
	ErrAuthenticatorRequired = errors.New("authenticator required")
	// ErrPersistenceRequired is returned by Build without a backend.
	ErrPersistenceRequired = errors.New("session backend required")
	// ErrDuplicateEmail is returned when two static entries share an email.
	ErrDuplicateEmail = errors.New("duplicate credential email")
	// ErrIdentityRejected is returned by an IdentityVerifier that no longer
	// recognizes a restored identity.
	ErrIdentityRejected = errors.New("identity rejected")
)

// FailureKind is the closed set of outcomes a caller has to handle after a
// store operation.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureInvalidCredentials
	FailureCanceled
	FailurePersistence
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureInvalidCredentials:
		return "invalid_credentials"
	case FailureCanceled:
		return "canceled"
	case FailurePersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Classify maps err to a FailureKind. A nil error is FailureNone.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrInvalidCredentials):
		return FailureInvalidCredentials
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrSuperseded),
		errors.Is(err, ErrStoreClosed):
		return FailureCanceled
	case errors.Is(err, ErrPersistenceRead),
		errors.Is(err, ErrPersistenceWrite),
		errors.Is(err, session.ErrBackendUnavailable):
		return FailurePersistence
	default:
		return FailureUnknown
	}
}
