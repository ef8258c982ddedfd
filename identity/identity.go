// Package identity defines the registered user record carried by a session.
//
// An [Identity] is owned by whatever authority produced it (the mock credential
// table, or a real backend). This package only validates shape; it does not
// evaluate roles or permissions.
package identity

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Role is the closed set of account roles.
type Role string

const (
	// RoleAdmin is the organisation administrator role.
	RoleAdmin Role = "admin"
	// RoleEmployee is the regular team member role.
	RoleEmployee Role = "employee"
)

var (
	// ErrInvalidRole is returned when a role is outside the closed set.
	ErrInvalidRole = errors.New("invalid identity role")
	// ErrMissingID is returned when an identity has no ID.
	ErrMissingID = errors.New("identity id is required")
	// ErrMissingEmail is returned when an identity has no email.
	ErrMissingEmail = errors.New("identity email is required")
	// ErrNegativeCounter is returned when points or level is negative.
	ErrNegativeCounter = errors.New("identity points and level must be non-negative")
	// ErrInvalidText is returned when a string field is not valid UTF-8.
	ErrInvalidText = errors.New("identity field is not valid utf-8")
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s into a [Role], rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Identity is a registered user record.
//
// JSON field names match the layout persisted by the web client, so payloads
// written before the envelope format existed still decode.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	DisplayName string `json:"name,omitempty"`
	AvatarRef   string `json:"avatar,omitempty"`

	// Points and Level belong to the gamification subsystem and are carried
	// through untouched. nil means "not provided".
	Points *int `json:"points,omitempty"`
	Level  *int `json:"level,omitempty"`

	OrganizationRef string `json:"companyId,omitempty"`
	ProfileRef      string `json:"profileId,omitempty"`
}

// Validate checks the invariants every stored or authenticated identity must hold.
func (i Identity) Validate() error {
	if i.ID == "" {
		return ErrMissingID
	}
	if i.Email == "" {
		return ErrMissingEmail
	}
	if !i.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(i.Role))
	}
	if (i.Points != nil && *i.Points < 0) || (i.Level != nil && *i.Level < 0) {
		return ErrNegativeCounter
	}
	// JSON would replace invalid bytes with U+FFFD and the stored copy
	// would no longer equal the original.
	for _, f := range [...]struct{ name, value string }{
		{"id", i.ID},
		{"email", i.Email},
		{"name", i.DisplayName},
		{"avatar", i.AvatarRef},
		{"companyId", i.OrganizationRef},
		{"profileId", i.ProfileRef},
	} {
		if !utf8.ValidString(f.value) {
			return fmt.Errorf("%w: %s", ErrInvalidText, f.name)
		}
	}
	return nil
}

// Clone returns a deep copy so the caller can never alias another owner's state.
func (i Identity) Clone() Identity {
	out := i
	out.Points = cloneInt(i.Points)
	out.Level = cloneInt(i.Level)
	return out
}

// Equal reports whether two identities carry the same values.
func (i Identity) Equal(o Identity) bool {
	return i.ID == o.ID &&
		i.Email == o.Email &&
		i.Role == o.Role &&
		i.DisplayName == o.DisplayName &&
		i.AvatarRef == o.AvatarRef &&
		equalInt(i.Points, o.Points) &&
		equalInt(i.Level, o.Level) &&
		i.OrganizationRef == o.OrganizationRef &&
		i.ProfileRef == o.ProfileRef
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Int returns a pointer to v, for populating the optional counters.
func Int(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
