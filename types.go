package vertixauth

import (
	"github.com/vertixhq/vertixauth/identity"
	"github.com/vertixhq/vertixauth/session"
)

type (
	// Identity is the authenticated user record.
	Identity = identity.Identity
	// Role is the closed set of roles an Identity may carry.
	Role = identity.Role
	// Session wraps the one identity the store holds.
	Session = session.Session
)

const (
	RoleAdmin    = identity.RoleAdmin
	RoleEmployee = identity.RoleEmployee
)

// Credentials is the transient email/password pair submitted at login.
// It is never persisted and its String form never includes the password.
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) String() string {
	return "Credentials{Email:" + c.Email + ", Password:<redacted>}"
}

// GoString keeps %#v from printing the password.
func (c Credentials) GoString() string { return c.String() }

// State is the session store's position in its two-state machine.
type State uint8

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// ChangeReason names the operation that produced a Change.
type ChangeReason string

const (
	ReasonLogin   ChangeReason = "login"
	ReasonLogout  ChangeReason = "logout"
	ReasonRestore ChangeReason = "restore"
)

// Change is delivered to subscribers after every state transition.
//
// Session is a private copy of the session that is current after the
// transition, or nil when the store became unauthenticated.
type Change struct {
	Previous   State
	State      State
	Reason     ChangeReason
	Session    *Session
	Generation uint64
}
