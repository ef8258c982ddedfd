package vertixauth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/vertixhq/vertixauth/identity"
)

// Authenticator checks a credential pair and returns the matching identity.
//
// Implementations must return an error wrapping [ErrInvalidCredentials] for
// an unknown pair and must not touch any SessionStore.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (identity.Identity, error)
}

// AuthenticatorFunc adapts a function to [Authenticator].
type AuthenticatorFunc func(ctx context.Context, creds Credentials) (identity.Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, creds Credentials) (identity.Identity, error) {
	return f(ctx, creds)
}

// IdentityVerifier is implemented by authenticators that can confirm a
// previously issued identity is still valid. The store uses it on Restore
// when Session.VerifyOnRestore is enabled.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, id identity.Identity) error
}

// StaticEntry is one known credential pair. The login email is
// Identity.Email.
type StaticEntry struct {
	Password string
	Identity identity.Identity
}

// StaticAuthenticator matches credentials against a fixed set of entries.
// Email and password are compared exactly and case-sensitively.
type StaticAuthenticator struct {
	entries []StaticEntry
}

// NewStaticAuthenticator copies entries into a new authenticator.
func NewStaticAuthenticator(entries ...StaticEntry) (*StaticAuthenticator, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]StaticEntry, 0, len(entries))
	for i, e := range entries {
		if err := e.Identity.Validate(); err != nil {
			return nil, fmt.Errorf("static entry %d: %w", i, err)
		}
		if _, dup := seen[e.Identity.Email]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, e.Identity.Email)
		}
		seen[e.Identity.Email] = struct{}{}
		out = append(out, StaticEntry{Password: e.Password, Identity: e.Identity.Clone()})
	}
	return &StaticAuthenticator{entries: out}, nil
}

// Authenticate scans every entry so the time taken does not depend on which
// entry, or which field, matched.
func (a *StaticAuthenticator) Authenticate(ctx context.Context, creds Credentials) (identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return identity.Identity{}, err
	}

	match := -1
	for i := range a.entries {
		emailOK := subtle.ConstantTimeCompare([]byte(a.entries[i].Identity.Email), []byte(creds.Email))
		passOK := subtle.ConstantTimeCompare([]byte(a.entries[i].Password), []byte(creds.Password))
		if emailOK&passOK == 1 && match < 0 {
			match = i
		}
	}
	if match < 0 {
		return identity.Identity{}, ErrInvalidCredentials
	}
	return a.entries[match].Identity.Clone(), nil
}

// VerifyIdentity accepts id only if an entry with the same ID, email and
// role still exists.
func (a *StaticAuthenticator) VerifyIdentity(ctx context.Context, id identity.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i := range a.entries {
		known := a.entries[i].Identity
		if known.ID == id.ID && known.Email == id.Email && known.Role == id.Role {
			return nil
		}
	}
	return ErrIdentityRejected
}

// Len returns the number of known entries.
func (a *StaticAuthenticator) Len() int { return len(a.entries) }

// Demo credentials shipped with the mock authenticator.
const (
	MockAdminEmail       = "admin@vertix.com"
	MockAdminPassword    = "admin123"
	MockEmployeeEmail    = "employee@vertix.com"
	MockEmployeePassword = "employee123"
)

// MockEntries returns the two demo identities, one per role.
func MockEntries() []StaticEntry {
	return []StaticEntry{
		{
			Password: MockAdminPassword,
			Identity: identity.Identity{
				ID:              "mock-admin-id",
				Email:           MockAdminEmail,
				Role:            identity.RoleAdmin,
				DisplayName:     "Administrador",
				Points:          identity.Int(100),
				Level:           identity.Int(5),
				OrganizationRef: "mock-company-id",
				ProfileRef:      "mock-profile-id",
			},
		},
		{
			Password: MockEmployeePassword,
			Identity: identity.Identity{
				ID:              "mock-employee-id",
				Email:           MockEmployeeEmail,
				Role:            identity.RoleEmployee,
				DisplayName:     "Funcionário",
				Points:          identity.Int(50),
				Level:           identity.Int(2),
				OrganizationRef: "mock-company-id",
				ProfileRef:      "mock-employee-profile-id",
			},
		},
	}
}

// MockAuthenticator returns a StaticAuthenticator over [MockEntries].
func MockAuthenticator() *StaticAuthenticator {
	a, err := NewStaticAuthenticator(MockEntries()...)
	if err != nil {
		panic("vertixauth: invalid mock entries: " + err.Error())
	}
	return a
}
