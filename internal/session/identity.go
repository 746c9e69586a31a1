package session

import (
	"fmt"
	"time"

	"github.com/shoenig/go-conceal"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
)

// TokenLifetime is how long a session token is honoured after login.
// It does not slide with activity.
const TokenLifetime = time.Hour

// Role identifies what kind of account owns a session
type Role uint8

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleSponsor
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleSponsor:
		return "Sponsor"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleAdmin, RoleSponsor:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("cannot marshal role %d", uint8(r))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Role) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Admin":
		*r = RoleAdmin
	case "Sponsor":
		*r = RoleSponsor
	default:
		return fmt.Errorf("unknown role %q", string(text))
	}
	return nil
}

// Company is the organisation a sponsor account belongs to
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo"`
}

// Identity is the account a session was issued for
type Identity struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	ACL     string   `json:"ACL"`
	Role    Role     `json:"-"`
	Company *Company `json:"company,omitempty"`
}

// Can reports whether the identity's ACL grants capability
func (i Identity) Can(capability string) bool {
	return auth.HasAccess(i.ACL, capability)
}

// Capabilities returns the parsed ACL
func (i Identity) Capabilities() []string {
	return auth.ParseACL(i.ACL)
}

// Session is a snapshot of the persisted session
type Session struct {
	Identity  Identity
	Token     *conceal.Text
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Valid reports whether the session can still be used at now
func (s Session) Valid(now time.Time) bool {
	if s.Token == nil || s.Token.Unveil() == "" {
		return false
	}
	return !now.After(s.ExpiresAt)
}

// State is the lifecycle position of a Manager
type State uint8

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "anonymous"
	}
}
