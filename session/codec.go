package session

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vertixhq/vertixauth/identity"
)

type envelope struct {
	Version   *uint8             `json:"v"`
	SessionID string             `json:"sid"`
	CreatedAt int64              `json:"created_at"`
	User      *identity.Identity `json:"user"`
}

// Encode serializes s as a current-schema envelope.
func Encode(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrNilSession
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	v := CurrentSchemaVersion
	user := s.Identity
	return json.Marshal(envelope{
		Version:   &v,
		SessionID: s.SessionID,
		CreatedAt: s.CreatedAt,
		User:      &user,
	})
}

// Decode parses a stored payload. Envelopes carry a "v" field; anything
// without one is read as a legacy bare identity. Every failure wraps
// [ErrMalformedPayload] or [ErrUnsupportedVersion].
func Decode(data []byte) (*Session, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: not a json object", ErrMalformedPayload)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if env.Version == nil {
		return decodeLegacy(trimmed)
	}
	if *env.Version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *env.Version)
	}
	if env.User == nil {
		return nil, fmt.Errorf("%w: missing user", ErrMalformedPayload)
	}

	s := &Session{
		SchemaVersion: CurrentSchemaVersion,
		SessionID:     env.SessionID,
		Identity:      *env.User,
		CreatedAt:     env.CreatedAt,
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return s, nil
}

func decodeLegacy(data []byte) (*Session, error) {
	var id identity.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &Session{
		SchemaVersion: LegacySchemaVersion,
		Identity:      id,
	}, nil
}
