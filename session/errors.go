package session

import "errors"

var (
	// ErrNotFound is returned by a [Backend] when the key holds no value.
	ErrNotFound = errors.New("session key not found")
	// ErrBackendUnavailable wraps transport or I/O failures of a [Backend].
	ErrBackendUnavailable = errors.New("session backend unavailable")
	// ErrMalformedPayload is returned when a stored payload cannot be decoded.
	ErrMalformedPayload = errors.New("malformed session payload")
	// ErrUnsupportedVersion is returned for an envelope version this build does not know.
	ErrUnsupportedVersion = errors.New("unsupported session schema version")
	// ErrInvalidKey is returned when a storage key cannot be used by a backend.
	ErrInvalidKey = errors.New("invalid session storage key")
	// ErrNilSession is returned when Save is called without a session.
	ErrNilSession = errors.New("nil session")
)
