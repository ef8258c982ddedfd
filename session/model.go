package session

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vertixhq/vertixauth/identity"
)

const (
	// CurrentSchemaVersion is the envelope version written by [Encode].
	CurrentSchemaVersion uint8 = 1
	// LegacySchemaVersion marks a payload that was a bare identity object.
	LegacySchemaVersion uint8 = 0
)

// Session wraps exactly one authenticated identity.
//
// CreatedAt is the unix time at which the session was adopted and first
// written; it doubles as the persistence write time.
type Session struct {
	SchemaVersion uint8
	SessionID     string
	Identity      identity.Identity
	CreatedAt     int64
}

// New builds a current-schema session for id with a fresh random session ID.
func New(id identity.Identity, now time.Time) *Session {
	return &Session{
		SchemaVersion: CurrentSchemaVersion,
		SessionID:     uuid.NewString(),
		Identity:      id.Clone(),
		CreatedAt:     now.Unix(),
	}
}

// Validate checks that the session carries a well-formed identity.
func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if !utf8.ValidString(s.SessionID) {
		return fmt.Errorf("%w: sid", identity.ErrInvalidText)
	}
	return s.Identity.Validate()
}

// Clone returns a deep copy of s. Clone of nil is nil.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Identity = s.Identity.Clone()
	return &out
}

// Equal reports whether both sessions hold the same values.
func (s *Session) Equal(o *Session) bool {
	if s == nil || o == nil {
		return s == nil && o == nil
	}
	return s.SchemaVersion == o.SchemaVersion &&
		s.SessionID == o.SessionID &&
		s.CreatedAt == o.CreatedAt &&
		s.Identity.Equal(o.Identity)
}

// Created returns CreatedAt as a time.Time.
func (s *Session) Created() time.Time {
	return time.Unix(s.CreatedAt, 0)
}
